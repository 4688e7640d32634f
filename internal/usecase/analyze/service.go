// Package analyze decomposes a support question into a search plan.
package analyze

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/domain/plan"
	"github.com/kailas-cloud/supportrag/internal/logger"
	"github.com/kailas-cloud/supportrag/internal/metrics"
)

// SchemaName names the structured output requested from the model.
const SchemaName = "search_plan"

const instruction = `You turn a customer support question into search queries for a product knowledge base.
Return one or more queries. Split the question when it asks about several distinct things.
Tag every query with a short intent such as bug_fix, feature, pricing or account.
Keep product names, version numbers and error messages verbatim.`

// Service runs query analysis.
type Service struct {
	chat  ChatModel
	cache PlanCache
}

// New creates an analyzer. cache can be nil.
func New(chat ChatModel, cache PlanCache) *Service {
	return &Service{chat: chat, cache: cache}
}

// Analyze returns a plan with at least one sub-query. A model reply without usable
// queries degrades to the question itself; provider failures propagate.
func (s *Service) Analyze(ctx context.Context, question string) (plan.Plan, error) {
	log := logger.FromContext(ctx)

	if s.cache != nil {
		if p, ok := s.cache.Get(question); ok {
			metrics.PlanCacheTotal.WithLabelValues(metrics.CacheHit).Inc()
			log.Debug("search plan cache hit", zap.Int("queries", p.Len()))
			return p, nil
		}
		metrics.PlanCacheTotal.WithLabelValues(metrics.CacheMiss).Inc()
	}

	messages := []domain.Message{
		domain.SystemMessage(instruction),
		domain.UserMessage(question),
	}

	var raw plan.Plan
	if _, err := s.chat.CompleteStructured(ctx, messages, SchemaName, &raw); err != nil {
		return plan.Plan{}, fmt.Errorf("analyze question: %w", err)
	}

	p, degraded := raw.OrFallback(question)
	if degraded {
		log.Warn("model returned no usable sub-queries, searching with the question",
			zap.Int("raw_queries", raw.Len()),
		)
		return p, nil
	}

	if s.cache != nil {
		s.cache.Put(question, p)
	}
	log.Debug("search plan ready", zap.Int("queries", p.Len()))
	return p, nil
}
