package health

import (
	"context"

	"github.com/kailas-cloud/supportrag/internal/domain/knowledge"
)

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks embedding or chat provider availability.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}

// IndexChecker verifies a knowledge base index exists.
type IndexChecker interface {
	Check(ctx context.Context) error
	Base() knowledge.Base
}
