package generate

import (
	"context"

	"github.com/kailas-cloud/supportrag/internal/domain"
)

// ChatModel answers free text and, for the structured verdict mode, JSON.
type ChatModel interface {
	Complete(ctx context.Context, messages []domain.Message) (domain.Completion, error)
	CompleteStructured(ctx context.Context, messages []domain.Message, name string, out any) (domain.Completion, error)
}
