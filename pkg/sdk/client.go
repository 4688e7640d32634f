package supportrag

import (
	"context"
	"errors"
	"fmt"
	"time"

	dbRedis "github.com/kailas-cloud/supportrag/internal/db/redis"
	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/domain/conversation"
	"github.com/kailas-cloud/supportrag/internal/domain/knowledge"
	"github.com/kailas-cloud/supportrag/internal/repository/plancache"
	searchrepo "github.com/kailas-cloud/supportrag/internal/repository/search"
	geminiChat "github.com/kailas-cloud/supportrag/internal/transport/gemini"
	openaiTransport "github.com/kailas-cloud/supportrag/internal/transport/openai"
	analyzeuc "github.com/kailas-cloud/supportrag/internal/usecase/analyze"
	answeruc "github.com/kailas-cloud/supportrag/internal/usecase/answer"
	generateuc "github.com/kailas-cloud/supportrag/internal/usecase/generate"
	healthuc "github.com/kailas-cloud/supportrag/internal/usecase/health"
	retrieveuc "github.com/kailas-cloud/supportrag/internal/usecase/retrieve"
)

const defaultReadinessTimeout = 10 * time.Second

// answerUseCase is the internal interface for the pipeline, replaced in tests.
type answerUseCase interface {
	Answer(ctx context.Context, question string) (answeruc.Result, error)
}

// Client answers questions. Safe for concurrent use.
type Client struct {
	closer    func()
	answers   answerUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New connects to the database, verifies both knowledge base indices exist and
// wires the pipeline. A missing index is returned as ErrIndexMissing.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{readinessTimeout: defaultReadinessTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("supportrag: database address required (use WithValkey or WithRedis)")
	}
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	chat, err := buildChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.addrs, Password: cfg.password})
	if err != nil {
		return nil, fmt.Errorf("supportrag: create store: %w", err)
	}
	if err := store.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("supportrag: database not ready: %w", err)
	}

	changelog := searchrepo.New(store, embedder, knowledge.Changelog)
	reviews := searchrepo.New(store, embedder, knowledge.UserReviews)
	for _, idx := range []*searchrepo.Index{changelog, reviews} {
		if err := idx.Check(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("supportrag: %w", err)
		}
	}

	var cache analyzeuc.PlanCache
	if cfg.planCacheTTL > 0 {
		cache = plancache.New(cfg.planCacheTTL, 2*cfg.planCacheTTL)
	}
	mode := generateuc.ModeSentinel
	if cfg.structuredVerdict {
		mode = generateuc.ModeStructured
	}
	policy := conversation.PolicyReset
	if cfg.accumulate {
		policy = conversation.PolicyAccumulate
	}

	controller := answeruc.New(
		analyzeuc.New(chat, cache),
		retrieveuc.New(changelog, reviews),
		generateuc.New(chat, mode),
		answeruc.WithPolicy(policy),
	)
	health := healthuc.New(store, []healthuc.IndexChecker{changelog, reviews}, nil, nil)

	return &Client{closer: store.Close, answers: controller, healthSvc: health, obs: obs}, nil
}

func buildEmbedder(cfg *clientConfig) (domain.Embedder, error) {
	var e domain.Embedder
	switch {
	case cfg.embedder != nil:
		e = &embedderAdapter{inner: cfg.embedder}
	case cfg.openAIEmbedder != nil:
		oc := cfg.openAIEmbedder
		e = openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     oc.APIKey,
			BaseURL:    oc.BaseURL,
			Model:      oc.Model,
			Dimensions: oc.Dimensions,
			Provider:   "openai",
		})
	default:
		return nil, errNoEmbedder
	}
	if cfg.queryInstruction != "" {
		e = domain.NewInstructionEmbedder(e, cfg.queryInstruction)
	}
	return e, nil
}

func buildChatModel(ctx context.Context, cfg *clientConfig) (domain.ChatModel, error) {
	n := 0
	for _, set := range []bool{cfg.chat != nil, cfg.openAIChat != nil, cfg.geminiChat != nil} {
		if set {
			n++
		}
	}
	switch {
	case n == 0:
		return nil, errNoChatModel
	case n > 1:
		return nil, errManyChatModels
	}

	switch {
	case cfg.chat != nil:
		return &chatAdapter{inner: cfg.chat}, nil
	case cfg.openAIChat != nil:
		oc := cfg.openAIChat
		return openaiTransport.NewChatModel(&openaiTransport.ChatConfig{
			Config:      openaiTransport.Config{APIKey: oc.APIKey, BaseURL: oc.BaseURL, Model: oc.Model, Provider: "openai"},
			Temperature: oc.Temperature,
			MaxTokens:   oc.MaxTokens,
		}), nil
	default:
		gc := cfg.geminiChat
		m, err := geminiChat.NewChatModel(ctx, &geminiChat.Config{
			APIKey:      gc.APIKey,
			BaseURL:     gc.BaseURL,
			Model:       gc.Model,
			Temperature: gc.Temperature,
			MaxTokens:   gc.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("supportrag: %w", err)
		}
		return m, nil
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

// Ask answers question and returns only the reply text.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	a, err := c.Answer(ctx, question)
	if err != nil {
		return "", err
	}
	return a.Text, nil
}

// Answer answers question and reports which knowledge base produced the reply.
func (c *Client) Answer(ctx context.Context, question string) (_ Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("answer", start, err) }()

	res, err := c.answers.Answer(ctx, question)
	if err != nil {
		return Answer{}, fmt.Errorf("answer: %w", err)
	}
	a := answerFromResult(res)
	c.obs.escalated(a)
	return a, nil
}
