package ingest

import (
	"context"

	"github.com/kailas-cloud/supportrag/internal/domain/chunk"
	"github.com/kailas-cloud/supportrag/internal/domain/knowledge"
)

// Loader reads source documents.
type Loader interface {
	LoadDir(ctx context.Context, dir string) ([]chunk.Document, error)
	LoadFiles(ctx context.Context, paths []string) ([]chunk.Document, error)
}

// Splitter cuts document text into overlapping windows.
type Splitter interface {
	Split(text string) []string
}

// Repository persists chunks and manages the knowledge base index.
type Repository interface {
	EnsureIndex(ctx context.Context, base knowledge.Base) (bool, error)
	Save(ctx context.Context, base knowledge.Base, chunks []chunk.Chunk, vectors [][]float32) error
	Reset(ctx context.Context, base knowledge.Base) error
	Count(ctx context.Context, base knowledge.Base) (int, error)
}
