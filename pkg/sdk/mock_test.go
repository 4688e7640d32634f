package supportrag

import (
	"context"
	"encoding/json"

	answeruc "github.com/kailas-cloud/supportrag/internal/usecase/answer"
	healthuc "github.com/kailas-cloud/supportrag/internal/usecase/health"
)

// --- Embedder mock ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

// --- ChatModel mock ---

type mockChat struct {
	reply    string
	jsonBody string
	err      error
	messages []Message
	schema   string
}

func (m *mockChat) Complete(_ context.Context, messages []Message) (string, error) {
	m.messages = messages
	return m.reply, m.err
}

func (m *mockChat) CompleteJSON(_ context.Context, messages []Message, schemaName string, out any) error {
	m.messages = messages
	m.schema = schemaName
	if m.err != nil {
		return m.err
	}
	return json.Unmarshal([]byte(m.jsonBody), out)
}

// --- answerUseCase mock ---

type mockAnswerUC struct {
	fn func(ctx context.Context, question string) (answeruc.Result, error)
}

func (m *mockAnswerUC) Answer(ctx context.Context, question string) (answeruc.Result, error) {
	return m.fn(ctx, question)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }
