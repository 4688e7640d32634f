package supportrag

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/supportrag/internal/domain"
)

// Role tags a chat message.
type Role string

// Chat roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged chat message.
type Message struct {
	Role    Role
	Content string
}

// ChatModel is a custom language model.
//
// CompleteJSON must fill out (a pointer to a struct with json tags) from a JSON reply.
// It is used for query analysis and, with WithStructuredVerdict, for the changelog verdict.
type ChatModel interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	CompleteJSON(ctx context.Context, messages []Message, schemaName string, out any) error
}

// chatAdapter exposes a public ChatModel as domain.ChatModel.
type chatAdapter struct {
	inner ChatModel
}

func (a *chatAdapter) Complete(ctx context.Context, messages []domain.Message) (domain.Completion, error) {
	text, err := a.inner.Complete(ctx, toPublic(messages))
	if err != nil {
		return domain.Completion{}, fmt.Errorf("%w: %w", domain.ErrLLMProviderError, err)
	}
	return domain.Completion{Text: text}, nil
}

func (a *chatAdapter) CompleteStructured(
	ctx context.Context, messages []domain.Message, name string, out any,
) (domain.Completion, error) {
	if err := a.inner.CompleteJSON(ctx, toPublic(messages), name, out); err != nil {
		return domain.Completion{}, fmt.Errorf("%w: %w", domain.ErrLLMProviderError, err)
	}
	return domain.Completion{}, nil
}

func toPublic(messages []domain.Message) []Message {
	out := make([]Message, len(messages))
	for i, m := range messages {
		out[i] = Message{Role: Role(m.Role), Content: m.Content}
	}
	return out
}

var (
	errNoChatModel    = errors.New("supportrag: chat model required (use WithChatModel, WithOpenAIChat or WithGeminiChat)")
	errManyChatModels = errors.New("supportrag: configure exactly one chat model")
)
