package retrieve

import (
	"context"

	"github.com/kailas-cloud/supportrag/internal/domain/chunk"
	"github.com/kailas-cloud/supportrag/internal/domain/knowledge"
)

// Index is a read-only similarity search handle on one knowledge base.
type Index interface {
	Search(ctx context.Context, text string, k int) ([]chunk.Chunk, error)
	Base() knowledge.Base
}
