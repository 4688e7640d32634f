package health

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/supportrag/internal/domain/knowledge"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockProvider struct {
	err error
}

func (m *mockProvider) HealthCheck(_ context.Context) error { return m.err }

type mockIndex struct {
	base knowledge.Base
	err  error
}

func (m *mockIndex) Check(_ context.Context) error { return m.err }
func (m *mockIndex) Base() knowledge.Base          { return m.base }

func indices(reviewsErr error) []IndexChecker {
	return []IndexChecker{
		&mockIndex{base: knowledge.Changelog},
		&mockIndex{base: knowledge.UserReviews, err: reviewsErr},
	}
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockDBPinger{}, indices(nil), &mockProvider{}, &mockProvider{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{"database", "index:changelog", "index:user-reviews", "embedding", "llm"} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
}

func TestCheck_DBError(t *testing.T) {
	svc := New(&mockDBPinger{err: errors.New("conn refused")}, nil, &mockProvider{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks["database"] != CheckError {
		t.Errorf("expected database %q, got %q", CheckError, r.Checks["database"])
	}
	if r.Checks["embedding"] != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks["embedding"])
	}
}

func TestCheck_MissingIndexDegrades(t *testing.T) {
	svc := New(&mockDBPinger{}, indices(errors.New("missing")), nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["index:user-reviews"] != CheckError {
		t.Errorf("expected user-reviews index %q, got %q", CheckError, r.Checks["index:user-reviews"])
	}
	if r.Checks["index:changelog"] != CheckOK {
		t.Errorf("expected changelog index %q, got %q", CheckOK, r.Checks["index:changelog"])
	}
}

func TestCheck_ProviderError(t *testing.T) {
	svc := New(&mockDBPinger{}, nil, &mockProvider{}, &mockProvider{err: errors.New("timeout")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["llm"] != CheckError {
		t.Errorf("expected llm %q, got %q", CheckError, r.Checks["llm"])
	}
}

func TestCheck_NilProvidersSkipped(t *testing.T) {
	svc := New(&mockDBPinger{}, nil, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if len(r.Checks) != 1 {
		t.Errorf("expected only the database check, got %v", r.Checks)
	}
}
