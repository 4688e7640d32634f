package chunks

import (
	"context"
	"testing"

	"github.com/kailas-cloud/supportrag/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	saved     []db.HashSetItem
	deleted   []string
	keys      []string
	created   *db.IndexDefinition
	dropped   string
	exists    bool
	createErr error
	dropErr   error
	hsetErr   error
	existsErr error
}

func (m *mockStore) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	if m.hsetErr != nil {
		return m.hsetErr
	}
	m.saved = append(m.saved, items...)
	return nil
}

func (m *mockStore) DelMulti(_ context.Context, keys []string) error {
	m.deleted = append(m.deleted, keys...)
	return nil
}

func (m *mockStore) Scan(_ context.Context, _ string) ([]string, error) {
	return m.keys, nil
}

func (m *mockStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	m.created = def
	return m.createErr
}

func (m *mockStore) DropIndex(_ context.Context, name string) error {
	m.dropped = name
	return m.dropErr
}

func (m *mockStore) IndexExists(_ context.Context, _ string) (bool, error) {
	return m.exists, m.existsErr
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, IndexParams{Dimensions: 3, M: 16, EFConstruction: 200}), ms
}
