package supportrag

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	password string

	embedder         Embedder
	openAIEmbedder   *OpenAIConfig
	queryInstruction string

	chat       ChatModel
	openAIChat *OpenAIConfig
	geminiChat *GeminiConfig

	accumulate        bool
	structuredVerdict bool
	planCacheTTL      time.Duration
	readinessTimeout  time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// OpenAIConfig points at an OpenAI-compatible API (OpenAI, Nebius, Ollama, vLLM).
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Dimensions  int     // embeddings only
	Temperature float32 // chat only
	MaxTokens   int     // chat only
}

// GeminiConfig points at the Gemini API.
type GeminiConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

// WithValkey connects to a Valkey instance with valkey-search.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis connects to Redis 8+ (or Redis Stack).
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithEmbedder sets a custom query embedding provider.
// It must produce vectors from the same model the indices were built with.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithOpenAIEmbedder uses the built-in OpenAI-compatible embedding provider.
func WithOpenAIEmbedder(cfg OpenAIConfig) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAIEmbedder = &cfg
	})
}

// WithQueryInstruction prefixes every query before embedding (e.g. "query: ").
func WithQueryInstruction(instruction string) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryInstruction = instruction
	})
}

// WithChatModel sets a custom language model.
func WithChatModel(m ChatModel) Option {
	return optionFunc(func(c *clientConfig) {
		c.chat = m
	})
}

// WithOpenAIChat uses the built-in OpenAI-compatible chat provider.
func WithOpenAIChat(cfg OpenAIConfig) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAIChat = &cfg
	})
}

// WithGeminiChat uses the built-in Gemini chat provider.
func WithGeminiChat(cfg GeminiConfig) Option {
	return optionFunc(func(c *clientConfig) {
		c.geminiChat = &cfg
	})
}

// WithAccumulatedContext keeps changelog chunks in the context after escalating
// to user reviews. By default each round starts from an empty context.
func WithAccumulatedContext() Option {
	return optionFunc(func(c *clientConfig) {
		c.accumulate = true
	})
}

// WithStructuredVerdict makes the changelog pass ask for a JSON {found, answer}
// verdict instead of the literal NOT FOUND reply. The model must support JSON output.
func WithStructuredVerdict() Option {
	return optionFunc(func(c *clientConfig) {
		c.structuredVerdict = true
	})
}

// WithPlanCache memoizes query analysis per question for ttl.
func WithPlanCache(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.planCacheTTL = ttl
	})
}

// WithReadinessTimeout bounds the initial database wait. Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// WithLogger enables structured logging of SDK operations.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithMetrics registers SDK operation metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
