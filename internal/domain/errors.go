package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuestion signals an empty or oversized question.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrIndexMissing signals a knowledge base index that was never built.
	ErrIndexMissing = errors.New("knowledge base index missing")
	// ErrUnknownKnowledgeBase signals a knowledge base name outside the configured pair.
	ErrUnknownKnowledgeBase = errors.New("unknown knowledge base")

	// ErrRateLimited signals a rate limit hit on a provider.
	ErrRateLimited = errors.New("rate limited")
	// ErrTokenQuotaExceeded signals an exhausted provider token budget.
	ErrTokenQuotaExceeded = errors.New("token quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrLLMProviderError signals a chat model provider failure.
	ErrLLMProviderError = errors.New("llm provider error")
	// ErrMalformedPlan signals structured model output that does not match the schema.
	ErrMalformedPlan = errors.New("malformed structured output")
)

// ProviderError wraps a provider sentinel with the HTTP status returned upstream.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Kind       error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s %d: %s", e.Kind.Error(), e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind.Error(), e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Kind }

// NewProviderError builds a ProviderError. A 429 additionally matches ErrRateLimited.
func NewProviderError(kind error, provider string, status int, msg string) error {
	pe := &ProviderError{Provider: provider, StatusCode: status, Message: msg, Kind: kind}
	if status == 429 {
		return fmt.Errorf("%w: %w", ErrRateLimited, pe)
	}
	return pe
}
