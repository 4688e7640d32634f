// Package retrieve runs a search plan against the knowledge base chosen by iteration.
package retrieve

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/supportrag/internal/domain/contextset"
	"github.com/kailas-cloud/supportrag/internal/domain/knowledge"
	"github.com/kailas-cloud/supportrag/internal/domain/plan"
	"github.com/kailas-cloud/supportrag/internal/logger"
	"github.com/kailas-cloud/supportrag/internal/metrics"
)

// K is the number of chunks requested per sub-query.
const K = 4

// Service holds both index handles for the lifetime of the process.
type Service struct {
	changelog Index
	reviews   Index
}

// New binds the changelog and user-reviews indices.
func New(changelog, reviews Index) *Service {
	return &Service{changelog: changelog, reviews: reviews}
}

// IndexFor returns the index searched at iteration: changelog first, user reviews afterwards.
func (s *Service) IndexFor(iteration int) Index {
	if knowledge.ForIteration(iteration) == knowledge.Changelog {
		return s.changelog
	}
	return s.reviews
}

// Retrieve runs every sub-query against the iteration's index and keeps chunks
// unique by id in first-seen order. No hits is an empty set, not an error.
func (s *Service) Retrieve(ctx context.Context, p plan.Plan, iteration int) (contextset.Set, error) {
	idx := s.IndexFor(iteration)
	log := logger.FromContext(ctx).With(zap.String("knowledge_base", idx.Base().String()))

	var set contextset.Set
	for i, q := range p.Queries {
		hits, err := idx.Search(ctx, q.Query, K)
		if err != nil {
			return contextset.Set{}, fmt.Errorf("search %s sub-query %d: %w", idx.Base(), i, err)
		}
		added := set.Add(hits...)
		log.Debug("sub-query searched",
			zap.String("intent", q.Intent),
			zap.Int("hits", len(hits)),
			zap.Int("new", added),
		)
	}

	metrics.RetrievedChunks.WithLabelValues(idx.Base().String()).Observe(float64(set.Len()))
	return set, nil
}
