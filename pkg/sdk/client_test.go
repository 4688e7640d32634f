package supportrag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/domain/plan"
	answeruc "github.com/kailas-cloud/supportrag/internal/usecase/answer"
	healthuc "github.com/kailas-cloud/supportrag/internal/usecase/health"
)

func TestNew_NoAddress(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error when no address provided")
	}
}

func TestNew_NoEmbedder(t *testing.T) {
	_, err := New(context.Background(), WithValkey("localhost:6379", ""), WithChatModel(&mockChat{}))
	if !errors.Is(err, errNoEmbedder) {
		t.Fatalf("expected errNoEmbedder, got %v", err)
	}
}

func TestNew_ChatModelCount(t *testing.T) {
	emb := WithEmbedder(&mockEmbedder{})

	_, err := New(context.Background(), WithValkey("localhost:6379", ""), emb)
	if !errors.Is(err, errNoChatModel) {
		t.Fatalf("expected errNoChatModel, got %v", err)
	}

	_, err = New(context.Background(), WithValkey("localhost:6379", ""), emb,
		WithChatModel(&mockChat{}), WithOpenAIChat(OpenAIConfig{Model: "gpt-4o-mini"}))
	if !errors.Is(err, errManyChatModels) {
		t.Fatalf("expected errManyChatModels, got %v", err)
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}
	for _, o := range []Option{
		WithRedis("redis:6379", "pw"),
		WithQueryInstruction("query: "),
		WithAccumulatedContext(),
		WithStructuredVerdict(),
		WithPlanCache(time.Minute),
		WithReadinessTimeout(time.Second),
		WithGeminiChat(GeminiConfig{Model: "gemini-2.5-flash"}),
	} {
		o.apply(cfg)
	}

	if len(cfg.addrs) != 1 || cfg.addrs[0] != "redis:6379" || cfg.password != "pw" {
		t.Errorf("address options: %+v", cfg.addrs)
	}
	if cfg.queryInstruction != "query: " || !cfg.accumulate || !cfg.structuredVerdict {
		t.Errorf("pipeline options not applied: %+v", cfg)
	}
	if cfg.planCacheTTL != time.Minute || cfg.readinessTimeout != time.Second {
		t.Errorf("durations not applied: %+v", cfg)
	}
	if cfg.geminiChat == nil || cfg.geminiChat.Model != "gemini-2.5-flash" {
		t.Errorf("gemini option not applied")
	}
}

func TestBuildEmbedder_InstructionPrefix(t *testing.T) {
	var seen string
	cfg := &clientConfig{
		embedder: &mockEmbedder{fn: func(_ context.Context, text string) (EmbeddingResult, error) {
			seen = text
			return EmbeddingResult{Embedding: []float32{1}}, nil
		}},
		queryInstruction: "query: ",
	}
	e, err := buildEmbedder(cfg)
	if err != nil {
		t.Fatalf("buildEmbedder: %v", err)
	}
	if _, err := e.Embed(context.Background(), "startup crash"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if seen != "query: startup crash" {
		t.Errorf("inner saw %q", seen)
	}
}

func TestEmbedderAdapter(t *testing.T) {
	adapter := &embedderAdapter{inner: &mockEmbedder{
		fn: func(context.Context, string) (EmbeddingResult, error) {
			return EmbeddingResult{Embedding: []float32{1, 2, 3}, PromptTokens: 5, TotalTokens: 10}, nil
		},
	}}
	result, err := adapter.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.TotalTokens != 10 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestEmbedderAdapter_Errors(t *testing.T) {
	failing := &embedderAdapter{inner: &mockEmbedder{
		fn: func(context.Context, string) (EmbeddingResult, error) {
			return EmbeddingResult{}, errors.New("provider down")
		},
	}}
	if _, err := failing.Embed(context.Background(), "x"); !errors.Is(err, ErrEmbeddingProviderError) {
		t.Errorf("expected ErrEmbeddingProviderError, got %v", err)
	}

	empty := &embedderAdapter{inner: &mockEmbedder{
		fn: func(context.Context, string) (EmbeddingResult, error) { return EmbeddingResult{}, nil },
	}}
	if _, err := empty.Embed(context.Background(), "x"); !errors.Is(err, ErrEmbeddingProviderError) {
		t.Errorf("expected ErrEmbeddingProviderError for empty vector, got %v", err)
	}
}

func TestChatAdapter_Complete(t *testing.T) {
	m := &mockChat{reply: "NOT FOUND"}
	adapter := &chatAdapter{inner: m}

	c, err := adapter.Complete(context.Background(), []domain.Message{
		domain.SystemMessage("instructions"),
		domain.UserMessage("question"),
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if c.Text != "NOT FOUND" {
		t.Errorf("text = %q", c.Text)
	}
	if len(m.messages) != 2 || m.messages[0].Role != RoleSystem || m.messages[1].Role != RoleUser {
		t.Errorf("messages not converted: %+v", m.messages)
	}
}

func TestChatAdapter_CompleteStructured(t *testing.T) {
	m := &mockChat{jsonBody: `{"queries":[{"intent":"bug_fix","query":"startup crash"}]}`}
	adapter := &chatAdapter{inner: m}

	var p plan.Plan
	if _, err := adapter.CompleteStructured(context.Background(), nil, "search_plan", &p); err != nil {
		t.Fatalf("CompleteStructured: %v", err)
	}
	if m.schema != "search_plan" {
		t.Errorf("schema = %q", m.schema)
	}
	if p.Len() != 1 || p.Queries[0].Query != "startup crash" {
		t.Errorf("plan = %+v", p)
	}
}

func TestChatAdapter_Error(t *testing.T) {
	adapter := &chatAdapter{inner: &mockChat{err: errors.New("quota")}}
	if _, err := adapter.Complete(context.Background(), nil); !errors.Is(err, ErrLLMProviderError) {
		t.Errorf("expected ErrLLMProviderError, got %v", err)
	}
}

func TestClient_Answer(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(slog.New(slog.DiscardHandler), reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	c := &Client{
		obs: obs,
		answers: &mockAnswerUC{fn: func(_ context.Context, q string) (answeruc.Result, error) {
			if q != "Is the crash on startup fixed?" {
				t.Errorf("question = %q", q)
			}
			return answeruc.Result{
				Answer:        "Other users report the crash is gone after reinstalling.",
				Resolved:      true,
				Escalated:     true,
				Iterations:    2,
				KnowledgeBase: KnowledgeBaseUserReviews,
				Plan:          plan.Plan{Queries: []plan.SubQuery{{Intent: "bug_fix", Query: "startup crash"}}},
				ChunkIDs:      []string{"r_1", "r_2"},
			}, nil
		}},
	}

	a, err := c.Answer(context.Background(), "Is the crash on startup fixed?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !a.Escalated || a.KnowledgeBase != KnowledgeBaseUserReviews || a.Iterations != 2 {
		t.Errorf("unexpected answer: %+v", a)
	}
	if len(a.SubQueries) != 1 || a.SubQueries[0].Intent != "bug_fix" {
		t.Errorf("sub-queries: %+v", a.SubQueries)
	}
	if got := testutil.ToFloat64(obs.metrics.escalations); got != 1 {
		t.Errorf("escalations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("answer", "ok")); got != 1 {
		t.Errorf("ok operations = %v, want 1", got)
	}
}

func TestClient_Ask_Error(t *testing.T) {
	c := &Client{answers: &mockAnswerUC{fn: func(context.Context, string) (answeruc.Result, error) {
		return answeruc.Result{}, fmt.Errorf("analyze: %w", domain.ErrMalformedPlan)
	}}}

	text, err := c.Ask(context.Background(), "q")
	if !errors.Is(err, ErrMalformedOutput) {
		t.Fatalf("expected ErrMalformedOutput, got %v", err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty", text)
	}
}

func TestClient_Health(t *testing.T) {
	c := &Client{healthSvc: &mockHealthUC{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{
			"database":           healthuc.CheckOK,
			"index:user-reviews": healthuc.CheckError,
		},
	}}}
	h := c.Health(context.Background())
	if h.Status != "degraded" || h.Checks["index:user-reviews"] != "error" {
		t.Errorf("unexpected health: %+v", h)
	}
	if h.Ready() {
		t.Error("a missing index must not count as ready")
	}
	if got := h.Failing(); len(got) != 1 || got[0] != "index:user-reviews" {
		t.Errorf("Failing() = %v", got)
	}
}

func TestHealthStatus_ReadyIgnoresProviders(t *testing.T) {
	h := HealthStatus{Status: "degraded", Checks: map[string]string{
		"database":           "ok",
		"index:changelog":    "ok",
		"index:user-reviews": "ok",
		"llm":                "error",
	}}
	if !h.Ready() {
		t.Error("a failing provider check alone must not block readiness")
	}
	if got := h.Failing(); len(got) != 1 || got[0] != "llm" {
		t.Errorf("Failing() = %v", got)
	}
}

func TestRegisterOrReuse(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newSDKMetrics(reg)
	if err != nil {
		t.Fatalf("first register: %v", err)
	}
	second, err := newSDKMetrics(reg)
	if err != nil {
		t.Fatalf("second register: %v", err)
	}
	if first.operations != second.operations {
		t.Error("expected the existing collector to be reused")
	}
}

func TestClose_NilCloser(t *testing.T) {
	(&Client{}).Close()
}
