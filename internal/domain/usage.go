package domain

import (
	"context"
	"sync"
)

type usageKey struct{}

// Usage collects provider token usage for a single question.
// The transport puts a pointer into the context before calling the pipeline
// and reads it afterwards for response headers and the wide event log.
type Usage struct {
	mu              sync.Mutex
	EmbeddingTokens int
	LLMTokens       int
	LLMCalls        int
}

// NewContextWithUsage returns a context carrying a fresh usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *Usage) {
	u := &Usage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext extracts the usage collector, or nil.
func UsageFromContext(ctx context.Context) *Usage {
	u, _ := ctx.Value(usageKey{}).(*Usage)
	return u
}

// AddEmbedding records embedding tokens. Safe on a nil receiver.
func (u *Usage) AddEmbedding(tokens int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.EmbeddingTokens += tokens
	u.mu.Unlock()
}

// AddLLM records one chat call. Safe on a nil receiver.
func (u *Usage) AddLLM(tokens int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.LLMTokens += tokens
	u.LLMCalls++
	u.mu.Unlock()
}

// Snapshot returns embedding tokens, llm tokens and llm calls.
func (u *Usage) Snapshot() (embedding, llm, calls int) {
	if u == nil {
		return 0, 0, 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.EmbeddingTokens, u.LLMTokens, u.LLMCalls
}
