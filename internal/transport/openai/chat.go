package openai

import (
	"context"
	"fmt"
	"math"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"

	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/metrics"
)

// ChatConfig holds the chat model settings.
type ChatConfig struct {
	Config
	Temperature float32
	MaxTokens   int
}

// ChatModel is a chat completion provider using the OpenAI-compatible API.
type ChatModel struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	provider    string
	logger      *zap.Logger
}

// NewChatModel creates an OpenAI-compatible chat model.
func NewChatModel(cfg *ChatConfig) *ChatModel {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	temp := cfg.Temperature
	if temp == 0 {
		// omitempty drops an exact zero and the server falls back to its default
		temp = math.SmallestNonzeroFloat32
	}
	return &ChatModel{
		client:      newClient(&cfg.Config),
		model:       cfg.Model,
		temperature: temp,
		maxTokens:   cfg.MaxTokens,
		provider:    cfg.Provider,
		logger:      logger,
	}
}

// Complete implements domain.ChatModel.
func (m *ChatModel) Complete(ctx context.Context, messages []domain.Message) (domain.Completion, error) {
	resp, err := m.create(ctx, "complete", m.request(messages))
	if err != nil {
		return domain.Completion{}, err
	}
	return completion(resp), nil
}

// CompleteStructured implements domain.ChatModel using a strict JSON schema response format.
func (m *ChatModel) CompleteStructured(
	ctx context.Context, messages []domain.Message, name string, out any,
) (domain.Completion, error) {
	schema, err := jsonschema.GenerateSchemaForType(out)
	if err != nil {
		return domain.Completion{}, fmt.Errorf("generate schema %s: %w", name, err)
	}

	req := m.request(messages)
	req.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   name,
			Schema: schema,
			Strict: true,
		},
	}

	resp, err := m.create(ctx, "structured", req)
	if err != nil {
		return domain.Completion{}, err
	}

	c := completion(resp)
	if err := schema.Unmarshal(c.Text, out); err != nil {
		metrics.LLMErrorsTotal.WithLabelValues(m.provider, m.model, "malformed_output").Inc()
		return c, fmt.Errorf("decode %s: %v: %w", name, err, domain.ErrMalformedPlan)
	}
	return c, nil
}

func (m *ChatModel) request(messages []domain.Message) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		msgs[i] = openai.ChatCompletionMessage{Role: string(msg.Role), Content: msg.Content}
	}
	return openai.ChatCompletionRequest{
		Model:       m.model,
		Messages:    msgs,
		Temperature: m.temperature,
		MaxTokens:   m.maxTokens,
	}
}

func (m *ChatModel) create(
	ctx context.Context, call string, req openai.ChatCompletionRequest,
) (openai.ChatCompletionResponse, error) {
	start := time.Now()
	resp, err := m.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		wrapped := parseAPIError(err, domain.ErrLLMProviderError, m.provider)
		metrics.LLMRequestsTotal.WithLabelValues(m.provider, m.model, call, "error").Inc()
		metrics.LLMErrorsTotal.WithLabelValues(m.provider, m.model, errorType(wrapped)).Inc()
		m.logger.Warn("chat completion failed",
			zap.String("provider", m.provider),
			zap.String("call", call),
			zap.Error(wrapped),
		)
		return openai.ChatCompletionResponse{}, wrapped
	}
	if len(resp.Choices) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues(m.provider, m.model, call, "error").Inc()
		metrics.LLMErrorsTotal.WithLabelValues(m.provider, m.model, "empty_response").Inc()
		return resp, domain.NewProviderError(domain.ErrLLMProviderError, m.provider, 0, "empty choices")
	}

	metrics.LLMRequestsTotal.WithLabelValues(m.provider, m.model, call, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(m.provider, m.model, call).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.LLMTokensTotal.WithLabelValues(m.provider, m.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.LLMTokensTotal.WithLabelValues(m.provider, m.model, "completion").Add(float64(resp.Usage.CompletionTokens))
	}
	return resp, nil
}

// HealthCheck verifies API availability via ListModels.
func (m *ChatModel) HealthCheck(ctx context.Context) error {
	if _, err := m.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func completion(resp openai.ChatCompletionResponse) domain.Completion {
	return domain.Completion{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
}

var _ domain.ChatModel = (*ChatModel)(nil)
