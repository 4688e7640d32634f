package domain

import "context"

// Role tags a chat message.
type Role string

// Chat roles understood by every provider.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged chat message.
type Message struct {
	Role    Role
	Content string
}

// SystemMessage builds a system message.
func SystemMessage(content string) Message { return Message{Role: RoleSystem, Content: content} }

// UserMessage builds a user message.
func UserMessage(content string) Message { return Message{Role: RoleUser, Content: content} }

// Completion is the provider reply with token usage.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ChatModel is the language model contract.
//
// CompleteStructured asks the provider for JSON matching the schema derived from out
// (a pointer to a struct with json tags) and decodes the reply into out.
type ChatModel interface {
	Complete(ctx context.Context, messages []Message) (Completion, error)
	CompleteStructured(ctx context.Context, messages []Message, name string, out any) (Completion, error)
}
