package domain

import (
	"context"
	"errors"
	"testing"
)

func TestUsage_Context(t *testing.T) {
	if UsageFromContext(context.Background()) != nil {
		t.Fatal("expected nil usage on bare context")
	}
	ctx, u := NewContextWithUsage(context.Background())
	UsageFromContext(ctx).AddEmbedding(7)
	UsageFromContext(ctx).AddLLM(100)
	UsageFromContext(ctx).AddLLM(50)

	emb, llm, calls := u.Snapshot()
	if emb != 7 || llm != 150 || calls != 2 {
		t.Errorf("unexpected snapshot: %d %d %d", emb, llm, calls)
	}
}

func TestUsage_NilSafe(t *testing.T) {
	var u *Usage
	u.AddEmbedding(1)
	u.AddLLM(1)
	if e, l, c := u.Snapshot(); e+l+c != 0 {
		t.Error("nil usage must report zero")
	}
}

func TestNewProviderError_RateLimit(t *testing.T) {
	err := NewProviderError(ErrLLMProviderError, "openai", 429, "slow down")
	if !errors.Is(err, ErrRateLimited) || !errors.Is(err, ErrLLMProviderError) {
		t.Fatalf("expected both sentinels, got %v", err)
	}
	err = NewProviderError(ErrEmbeddingProviderError, "openai", 500, "boom")
	if errors.Is(err, ErrRateLimited) {
		t.Fatal("500 must not be a rate limit")
	}
}
