// Package llm decorates chat models with token budgets and per-question usage accounting.
package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/usecase/budget"
)

// InstrumentedChatModel wraps a ChatModel with budget enforcement, usage accounting and logging.
// Transport metrics are recorded by the provider packages.
type InstrumentedChatModel struct {
	inner    domain.ChatModel
	provider string
	model    string
	gate     *budget.Gate
	logger   *zap.Logger
}

// NewInstrumentedChatModel wraps inner. gate may be nil.
func NewInstrumentedChatModel(
	inner domain.ChatModel, provider, model string,
	gate *budget.Gate, logger *zap.Logger,
) *InstrumentedChatModel {
	return &InstrumentedChatModel{
		inner:    inner,
		provider: provider,
		model:    model,
		gate:     gate,
		logger:   logger,
	}
}

// Complete implements domain.ChatModel.
func (m *InstrumentedChatModel) Complete(ctx context.Context, messages []domain.Message) (domain.Completion, error) {
	return m.call(ctx, "complete", func() (domain.Completion, error) {
		return m.inner.Complete(ctx, messages)
	})
}

// CompleteStructured implements domain.ChatModel.
func (m *InstrumentedChatModel) CompleteStructured(
	ctx context.Context, messages []domain.Message, name string, out any,
) (domain.Completion, error) {
	return m.call(ctx, name, func() (domain.Completion, error) {
		return m.inner.CompleteStructured(ctx, messages, name, out)
	})
}

func (m *InstrumentedChatModel) call(
	ctx context.Context, name string, do func() (domain.Completion, error),
) (domain.Completion, error) {
	if err := m.gate.Allow(ctx); err != nil {
		m.logger.Error("LLM budget exceeded",
			zap.String("provider", m.provider),
			zap.String("model", m.model),
			zap.Error(err),
		)
		return domain.Completion{}, fmt.Errorf("budget check: %w", err)
	}

	start := time.Now()
	c, err := do()
	duration := time.Since(start)

	// Malformed structured output still burned tokens.
	m.record(ctx, c)

	if err != nil {
		m.logger.Error("LLM request failed",
			zap.String("provider", m.provider),
			zap.String("model", m.model),
			zap.String("call", name),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.Completion{}, fmt.Errorf("%s: %w", name, err)
	}

	m.logger.Debug("LLM request completed",
		zap.String("provider", m.provider),
		zap.String("model", m.model),
		zap.String("call", name),
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", c.PromptTokens),
		zap.Int("completion_tokens", c.CompletionTokens),
	)
	return c, nil
}

func (m *InstrumentedChatModel) record(ctx context.Context, c domain.Completion) {
	total := c.TotalTokens
	if total == 0 {
		total = c.PromptTokens + c.CompletionTokens
	}
	domain.UsageFromContext(ctx).AddLLM(total)
	m.gate.Spend(total)
}

var _ domain.ChatModel = (*InstrumentedChatModel)(nil)
