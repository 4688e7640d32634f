package embedding

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/usecase/budget"
)

// batchEmbedder returns one fixed vector per text and costs tokensPer tokens each.
type batchEmbedder struct {
	vec       []float32
	tokensPer int
	err       error
	short     bool
	sizes     []int
}

func (m *batchEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, PromptTokens: m.tokensPer, TotalTokens: m.tokensPer}, nil
}

func (m *batchEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.sizes = append(m.sizes, len(texts))
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	n := len(texts)
	if m.short {
		n--
	}
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, n)}
	for i := range out.Embeddings {
		out.Embeddings[i] = m.vec
	}
	out.PromptTokens = m.tokensPer * len(texts)
	out.TotalTokens = m.tokensPer * len(texts)
	return out, nil
}

// singleEmbedder implements only domain.Embedder.
type singleEmbedder struct {
	calls int
}

func (m *singleEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return domain.EmbeddingResult{Embedding: []float32{1}, TotalTokens: 5}, nil
}

func gateFor(t *testing.T, daily int64) (*budget.Tracker, *budget.Gate) {
	t.Helper()
	tr := budget.NewTracker("embedding:test", daily, 0, budget.ActionReject, zap.NewNop())
	return tr, budget.NewGate(tr, "test", nil)
}

func TestEmbed_SpendsBudget(t *testing.T) {
	tr, gate := gateFor(t, 1000)
	inner := &batchEmbedder{vec: []float32{0.1, 0.2, 0.3}, tokensPer: 40}
	e := NewInstrumentedEmbedder(inner, "test", "model", gate, zap.NewNop())

	res, err := e.Embed(context.Background(), "does 2.3 fix the crash on start?")
	require.NoError(t, err)
	assert.Len(t, res.Embedding, 3)
	assert.Equal(t, int64(960), tr.RemainingDaily())
}

func TestEmbed_NilGate(t *testing.T) {
	e := NewInstrumentedEmbedder(&batchEmbedder{vec: []float32{1}}, "test", "model", nil, nil)

	_, err := e.Embed(context.Background(), "hello")
	assert.NoError(t, err)
}

func TestEmbed_InnerError(t *testing.T) {
	boom := errors.New("429 from provider")
	e := NewInstrumentedEmbedder(&batchEmbedder{err: boom}, "test", "model", nil, zap.NewNop())

	_, err := e.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, boom)
}

func TestEmbed_BudgetRejection(t *testing.T) {
	tr, gate := gateFor(t, 100)
	tr.Record(100)
	inner := &batchEmbedder{vec: []float32{1}}
	e := NewInstrumentedEmbedder(inner, "test", "model", gate, zap.NewNop())

	_, err := e.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, domain.ErrTokenQuotaExceeded)
}

func TestBatchEmbed_Empty(t *testing.T) {
	inner := &batchEmbedder{}
	e := NewInstrumentedEmbedder(inner, "test", "model", nil, zap.NewNop())

	res, err := e.BatchEmbed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, res.Embeddings)
	assert.Empty(t, inner.sizes)
}

func TestBatchEmbed_SplitsProviderBatches(t *testing.T) {
	tr, gate := gateFor(t, 1_000_000)
	inner := &batchEmbedder{vec: []float32{0.5}, tokensPer: 2}
	e := NewInstrumentedEmbedder(inner, "test", "model", gate, zap.NewNop(), WithMaxBatch(4))

	texts := make([]string, 10)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk %d", i)
	}

	res, err := e.BatchEmbed(context.Background(), texts)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 4, 2}, inner.sizes)
	assert.Len(t, res.Embeddings, 10)
	assert.Equal(t, 20, res.TotalTokens)
	assert.Equal(t, int64(1_000_000-20), tr.RemainingDaily())
}

func TestBatchEmbed_StopsWhenBudgetRunsOut(t *testing.T) {
	_, gate := gateFor(t, 8)
	inner := &batchEmbedder{vec: []float32{0.5}, tokensPer: 2}
	e := NewInstrumentedEmbedder(inner, "test", "model", gate, zap.NewNop(), WithMaxBatch(4))

	_, err := e.BatchEmbed(context.Background(), make([]string, 12))
	assert.ErrorIs(t, err, domain.ErrTokenQuotaExceeded)
	assert.Equal(t, []int{4}, inner.sizes, "second request must not be sent")
}

func TestBatchEmbed_CountMismatch(t *testing.T) {
	inner := &batchEmbedder{vec: []float32{0.5}, short: true}
	e := NewInstrumentedEmbedder(inner, "test", "model", nil, zap.NewNop())

	_, err := e.BatchEmbed(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, domain.ErrEmbeddingProviderError)
}

func TestBatchEmbed_InnerError(t *testing.T) {
	boom := errors.New("upstream 500")
	e := NewInstrumentedEmbedder(&batchEmbedder{err: boom}, "test", "model", nil, zap.NewNop())

	_, err := e.BatchEmbed(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, boom)
}

func TestBatchEmbed_FallsBackToSingleCalls(t *testing.T) {
	inner := &singleEmbedder{}
	e := NewInstrumentedEmbedder(inner, "test", "model", nil, zap.NewNop())

	res, err := e.BatchEmbed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, res.Embeddings, 3)
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, 15, res.TotalTokens)
}

func TestWithMaxBatch_IgnoresNonPositive(t *testing.T) {
	e := NewInstrumentedEmbedder(&singleEmbedder{}, "test", "model", nil, nil, WithMaxBatch(0))
	assert.Equal(t, DefaultMaxAPIBatchSize, e.maxBatch)
}
