package analyze

import (
	"context"

	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/domain/plan"
)

// ChatModel produces structured output.
type ChatModel interface {
	CompleteStructured(ctx context.Context, messages []domain.Message, name string, out any) (domain.Completion, error)
}

// PlanCache memoizes plans per question. Optional.
type PlanCache interface {
	Get(question string) (plan.Plan, bool)
	Put(question string, p plan.Plan)
}
