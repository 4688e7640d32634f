// Package search runs similarity search against one knowledge base index.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/supportrag/internal/db"
	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/domain/chunk"
	"github.com/kailas-cloud/supportrag/internal/domain/knowledge"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	IndexExists(ctx context.Context, name string) (bool, error)
}

var returnFields = []string{
	domain.FieldContent,
	domain.FieldChunkID,
	domain.FieldSource,
	domain.FieldSourceFile,
	domain.FieldSourcePath,
	domain.FieldChunkIndex,
	domain.FieldPage,
}

// Index is a read-only handle on one knowledge base.
type Index struct {
	store    store
	embedder domain.Embedder
	base     knowledge.Base
}

// New binds a search handle to a knowledge base.
func New(s store, embedder domain.Embedder, base knowledge.Base) *Index {
	return &Index{store: s, embedder: embedder, base: base}
}

// Base returns the knowledge base this handle reads.
func (i *Index) Base() knowledge.Base { return i.base }

// Check fails with domain.ErrIndexMissing when the index was never built.
func (i *Index) Check(ctx context.Context) error {
	ok, err := i.store.IndexExists(ctx, i.base.IndexName())
	if err != nil {
		return fmt.Errorf("check index %s: %w", i.base, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrIndexMissing, i.base.IndexName())
	}
	return nil
}

// Search embeds text and returns up to k chunks, most similar first.
func (i *Index) Search(ctx context.Context, text string, k int) ([]chunk.Chunk, error) {
	emb, err := i.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	domain.UsageFromContext(ctx).AddEmbedding(emb.TotalTokens)

	sr, err := i.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    i.base.IndexName(),
		Vector:       emb.Embedding,
		K:            k,
		ReturnFields: returnFields,
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("search %s: %w", i.base, domain.ErrIndexMissing)
		}
		return nil, fmt.Errorf("search %s: %w", i.base, err)
	}

	out := make([]chunk.Chunk, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		out = append(out, i.toChunk(e))
	}
	return out, nil
}

func (i *Index) toChunk(e db.SearchEntry) chunk.Chunk {
	id := e.Fields[domain.FieldChunkID]
	if id == "" {
		id = strings.TrimPrefix(e.Key, i.base.KeyPrefix())
	}

	meta := make(map[string]string, len(e.Fields))
	for k, v := range e.Fields {
		if k == domain.FieldContent || k == domain.FieldVector {
			continue
		}
		meta[k] = v
	}
	if meta[domain.FieldSource] == "" {
		meta[domain.FieldSource] = i.base.String()
	}

	return chunk.Chunk{
		ID:       id,
		Text:     e.Fields[domain.FieldContent],
		Metadata: meta,
		Score:    e.Score,
	}
}
