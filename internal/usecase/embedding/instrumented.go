// Package embedding decorates embedders with token budgets, provider batching and logging.
package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/usecase/budget"
)

// DefaultMaxAPIBatchSize caps the number of inputs sent in one provider request.
const DefaultMaxAPIBatchSize = 256

// InstrumentedEmbedder gates an embedder behind a token budget and splits large
// ingest batches into provider-sized requests.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	gate     *budget.Gate
	maxBatch int
	logger   *zap.Logger
}

// Option configures an InstrumentedEmbedder.
type Option func(*InstrumentedEmbedder)

// WithMaxBatch overrides DefaultMaxAPIBatchSize.
func WithMaxBatch(n int) Option {
	return func(e *InstrumentedEmbedder) {
		if n > 0 {
			e.maxBatch = n
		}
	}
}

// NewInstrumentedEmbedder wraps inner. gate may be nil.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	gate *budget.Gate, logger *zap.Logger, opts ...Option,
) *InstrumentedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &InstrumentedEmbedder{
		inner:    inner,
		gate:     gate,
		maxBatch: DefaultMaxAPIBatchSize,
		logger:   logger.With(zap.String("provider", provider), zap.String("model", model)),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Embed vectorizes a single query or chunk.
func (e *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := e.gate.Allow(ctx); err != nil {
		e.logger.Error("Embedding budget exceeded", zap.Error(err))
		return domain.EmbeddingResult{}, fmt.Errorf("budget check: %w", err)
	}

	start := time.Now()
	res, err := e.inner.Embed(ctx, text)
	if err != nil {
		e.logger.Error("Embedding request failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	e.gate.Spend(res.TotalTokens)

	e.logger.Debug("Embedding request completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("dimensions", len(res.Embedding)),
		zap.Int("total_tokens", res.TotalTokens),
	)
	return res, nil
}

// BatchEmbed vectorizes texts in provider-sized requests, re-checking the budget
// before each one so a long ingest stops as soon as the budget runs out.
func (e *InstrumentedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, 0, len(texts))}

	for offset := 0; offset < len(texts); offset += e.maxBatch {
		part := texts[offset:min(offset+e.maxBatch, len(texts))]

		if err := e.gate.Allow(ctx); err != nil {
			e.logger.Error("Embedding budget exceeded mid-batch",
				zap.Int("done", offset), zap.Int("batch_size", len(texts)), zap.Error(err))
			return domain.BatchEmbeddingResult{}, fmt.Errorf("budget check at %d/%d: %w", offset, len(texts), err)
		}

		res, err := domain.EmbedAll(ctx, e.inner, part)
		if err != nil {
			e.logger.Error("Batch embedding request failed",
				zap.Int("offset", offset), zap.Int("size", len(part)), zap.Error(err))
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}
		if len(res.Embeddings) != len(part) {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("expected %d embeddings, got %d: %w",
				len(part), len(res.Embeddings), domain.ErrEmbeddingProviderError)
		}
		e.gate.Spend(res.TotalTokens)

		out.Embeddings = append(out.Embeddings, res.Embeddings...)
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}

	e.logger.Debug("Batch embedding completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("batch_size", len(texts)),
		zap.Int("total_tokens", out.TotalTokens),
	)
	return out, nil
}

var (
	_ domain.Embedder      = (*InstrumentedEmbedder)(nil)
	_ domain.BatchEmbedder = (*InstrumentedEmbedder)(nil)
)
