package answer

import (
	"context"

	domanswer "github.com/kailas-cloud/supportrag/internal/domain/answer"
	"github.com/kailas-cloud/supportrag/internal/domain/contextset"
	"github.com/kailas-cloud/supportrag/internal/domain/plan"
)

// Analyzer decomposes a question into sub-queries.
type Analyzer interface {
	Analyze(ctx context.Context, question string) (plan.Plan, error)
}

// Retriever searches the knowledge base selected by iteration.
type Retriever interface {
	Retrieve(ctx context.Context, p plan.Plan, iteration int) (contextset.Set, error)
}

// Generator produces a classified reply.
type Generator interface {
	Generate(ctx context.Context, question string, set contextset.Set, iteration int) (domanswer.Outcome, error)
}
