package supportrag

import "github.com/kailas-cloud/supportrag/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuestion        = domain.ErrInvalidQuestion
	ErrIndexMissing           = domain.ErrIndexMissing
	ErrRateLimited            = domain.ErrRateLimited
	ErrTokenQuotaExceeded     = domain.ErrTokenQuotaExceeded
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrLLMProviderError       = domain.ErrLLMProviderError
	ErrMalformedOutput        = domain.ErrMalformedPlan
)
