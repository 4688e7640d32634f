// Package chunks writes embedded chunks and manages the per-knowledge-base search index.
package chunks

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/kailas-cloud/supportrag/internal/db"
	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/domain/chunk"
	"github.com/kailas-cloud/supportrag/internal/domain/knowledge"
)

// store is the consumer interface for chunk persistence (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	DelMulti(ctx context.Context, keys []string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// IndexParams shape the HNSW vector field.
type IndexParams struct {
	Dimensions     int
	M              int
	EFConstruction int
}

// Repo stores chunks as hashes under the knowledge base prefix.
type Repo struct {
	store  store
	params IndexParams
}

// New creates a chunk repository.
func New(s store, params IndexParams) *Repo {
	return &Repo{store: s, params: params}
}

// IndexDefinition returns the FT schema for a knowledge base.
func (r *Repo) IndexDefinition(base knowledge.Base) (*db.IndexDefinition, error) {
	def, err := db.NewIndex(base.IndexName()).
		Prefix(base.KeyPrefix()).
		Tag(domain.FieldChunkID, domain.FieldSource, domain.FieldSourceFile).
		Numeric(domain.FieldChunkIndex).
		Vector(domain.FieldVector, db.DefaultVectorField, r.params.Dimensions).
		HNSW(r.params.M, r.params.EFConstruction).
		Build()
	if err != nil {
		return nil, fmt.Errorf("index definition %s: %w", base, err)
	}
	return def, nil
}

// EnsureIndex creates the index when it does not exist yet and reports whether it did.
func (r *Repo) EnsureIndex(ctx context.Context, base knowledge.Base) (bool, error) {
	exists, err := r.store.IndexExists(ctx, base.IndexName())
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", base, err)
	}
	if exists {
		return false, nil
	}

	def, err := r.IndexDefinition(base)
	if err != nil {
		return false, err
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %w", base, err)
	}
	return true, nil
}

// Save writes chunks with their vectors in one pipelined round-trip.
func (r *Repo) Save(ctx context.Context, base knowledge.Base, chunks []chunk.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("save %s: %d chunks but %d vectors", base, len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(chunks))
	for i, c := range chunks {
		if len(vectors[i]) != r.params.Dimensions {
			return fmt.Errorf("save %s: chunk %s has %d dimensions, index expects %d",
				base, c.ID, len(vectors[i]), r.params.Dimensions)
		}
		items[i] = db.HashSetItem{Key: base.Key(c.ID), Fields: toHash(base, c, vectors[i])}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("save %s: %w", base, err)
	}
	return nil
}

// Count returns the number of stored chunks for the base.
func (r *Repo) Count(ctx context.Context, base knowledge.Base) (int, error) {
	keys, err := r.store.Scan(ctx, base.KeyPrefix()+"*")
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", base, err)
	}
	return len(keys), nil
}

// Reset drops the index and every chunk of the base.
func (r *Repo) Reset(ctx context.Context, base knowledge.Base) error {
	if err := r.store.DropIndex(ctx, base.IndexName()); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", base, err)
	}
	keys, err := r.store.Scan(ctx, base.KeyPrefix()+"*")
	if err != nil {
		return fmt.Errorf("scan %s: %w", base, err)
	}
	if err := r.store.DelMulti(ctx, keys); err != nil {
		return fmt.Errorf("delete %s: %w", base, err)
	}
	return nil
}

func toHash(base knowledge.Base, c chunk.Chunk, vec []float32) map[string]string {
	fields := maps.Clone(c.Metadata)
	if fields == nil {
		fields = make(map[string]string, 4)
	}
	fields[domain.FieldContent] = c.Text
	fields[domain.FieldVector] = db.EncodeVector(vec)
	fields[domain.FieldChunkID] = c.ID
	fields[domain.FieldSource] = base.String()
	return fields
}
