package metrics

import "github.com/prometheus/client_golang/prometheus"

// Answer pipeline Prometheus metrics.
var (
	QuestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_total",
			Help:      "Questions answered, by knowledge base of the final answer and status",
		},
		[]string{"knowledge_base", "status"},
	)

	EscalationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escalations_total",
			Help:      "Questions escalated from the changelog to user reviews",
		},
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"stage"},
	)

	RetrievedChunks = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieved_chunks",
			Help:      "Unique chunks per retrieval round",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32},
		},
		[]string{"knowledge_base"},
	)

	PlanCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_cache_total",
			Help:      "Search plan cache hits and misses",
		},
		[]string{"result"},
	)

	IngestedChunksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_chunks_total",
			Help:      "Chunks written by the indexing pipeline",
		},
		[]string{"knowledge_base"},
	)
)

// RegisterPipelineMetrics registers answer and indexing pipeline metrics.
func RegisterPipelineMetrics() {
	pipelineOnce.Do(func() {
		mustRegister(
			QuestionsTotal,
			EscalationsTotal,
			StageDuration,
			RetrievedChunks,
			PlanCacheTotal,
			IngestedChunksTotal,
		)
	})
}
