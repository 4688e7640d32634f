// Package gemini adapts the Google Gemini API to domain.ChatModel.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/metrics"
)

const provider = "gemini"

// Config holds the Gemini chat settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Logger      *zap.Logger
}

// ChatModel is a chat completion provider backed by the Gemini API.
type ChatModel struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// NewChatModel creates a Gemini chat model.
func NewChatModel(ctx context.Context, cfg *Config) (*ChatModel, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatModel{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}, nil
}

// Complete implements domain.ChatModel.
func (m *ChatModel) Complete(ctx context.Context, messages []domain.Message) (domain.Completion, error) {
	contents, config := m.request(messages)
	return m.generate(ctx, "complete", contents, config)
}

// CompleteStructured implements domain.ChatModel with a JSON response schema.
func (m *ChatModel) CompleteStructured(
	ctx context.Context, messages []domain.Message, name string, out any,
) (domain.Completion, error) {
	def, err := jsonschema.GenerateSchemaForType(out)
	if err != nil {
		return domain.Completion{}, fmt.Errorf("generate schema %s: %w", name, err)
	}

	contents, config := m.request(messages)
	config.ResponseMIMEType = "application/json"
	config.ResponseSchema = toSchema(*def)

	c, err := m.generate(ctx, "structured", contents, config)
	if err != nil {
		return domain.Completion{}, err
	}
	if err := json.Unmarshal([]byte(c.Text), out); err != nil {
		metrics.LLMErrorsTotal.WithLabelValues(provider, m.model, "malformed_output").Inc()
		return c, fmt.Errorf("decode %s: %v: %w", name, err, domain.ErrMalformedPlan)
	}
	return c, nil
}

// request splits system messages into the system instruction; Gemini has no system role.
func (m *ChatModel) request(messages []domain.Message) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(m.temperature),
	}
	if m.maxTokens > 0 {
		config.MaxOutputTokens = int32(m.maxTokens)
	}

	var system []*genai.Part
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case domain.RoleSystem:
			system = append(system, genai.NewPartFromText(msg.Content))
		case domain.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	if len(system) > 0 {
		config.SystemInstruction = &genai.Content{Parts: system}
	}
	return contents, config
}

func (m *ChatModel) generate(
	ctx context.Context, call string, contents []*genai.Content, config *genai.GenerateContentConfig,
) (domain.Completion, error) {
	start := time.Now()
	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, config)
	duration := time.Since(start)

	if err != nil {
		wrapped := apiError(err)
		metrics.LLMRequestsTotal.WithLabelValues(provider, m.model, call, "error").Inc()
		metrics.LLMErrorsTotal.WithLabelValues(provider, m.model, "api_error").Inc()
		m.logger.Warn("gemini request failed", zap.String("call", call), zap.Error(wrapped))
		return domain.Completion{}, wrapped
	}
	if resp == nil || len(resp.Candidates) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues(provider, m.model, call, "error").Inc()
		metrics.LLMErrorsTotal.WithLabelValues(provider, m.model, "empty_response").Inc()
		return domain.Completion{}, domain.NewProviderError(domain.ErrLLMProviderError, provider, 0, "empty candidates")
	}

	metrics.LLMRequestsTotal.WithLabelValues(provider, m.model, call, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(provider, m.model, call).Observe(duration.Seconds())

	c := domain.Completion{Text: resp.Text()}
	if u := resp.UsageMetadata; u != nil {
		c.PromptTokens = int(u.PromptTokenCount)
		c.CompletionTokens = int(u.CandidatesTokenCount)
		c.TotalTokens = int(u.TotalTokenCount)
		metrics.LLMTokensTotal.WithLabelValues(provider, m.model, "prompt").Add(float64(c.PromptTokens))
		metrics.LLMTokensTotal.WithLabelValues(provider, m.model, "completion").Add(float64(c.CompletionTokens))
	}
	return c, nil
}

func apiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return domain.NewProviderError(domain.ErrLLMProviderError, provider, apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return domain.NewProviderError(domain.ErrLLMProviderError, provider, apiErrPtr.Code, apiErrPtr.Message)
	}
	return domain.NewProviderError(domain.ErrLLMProviderError, provider, 0, err.Error())
}

var _ domain.ChatModel = (*ChatModel)(nil)

// HealthCheck verifies the configured model is reachable.
func (m *ChatModel) HealthCheck(ctx context.Context) error {
	if _, err := m.client.Models.Get(ctx, m.model, nil); err != nil {
		return fmt.Errorf("get model %s: %w", m.model, err)
	}
	return nil
}
