// Package metrics holds the process-wide Prometheus collectors.
// Collectors work before registration; registering only exposes them on /metrics.
package metrics

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "supportrag"

// Cache lookup results, the "result" label of the cache counters.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

var (
	embeddingOnce sync.Once
	llmOnce       sync.Once
	pipelineOnce  sync.Once
)

// RegisterAll registers every collector family on the default registry.
func RegisterAll() {
	RegisterEmbeddingMetrics()
	RegisterLLMMetrics()
	RegisterPipelineMetrics()
}

// mustRegister tolerates collectors that are already on the default registry,
// as happens when the SDK and a host program both import this package.
func mustRegister(cs ...prometheus.Collector) {
	for _, c := range cs {
		err := prometheus.Register(c)
		var are prometheus.AlreadyRegisteredError
		if err != nil && !errors.As(err, &are) {
			panic(err)
		}
	}
}
