package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/supportrag/internal/config"
	dbRedis "github.com/kailas-cloud/supportrag/internal/db/redis"
	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/domain/conversation"
	"github.com/kailas-cloud/supportrag/internal/domain/knowledge"
	logpkg "github.com/kailas-cloud/supportrag/internal/logger"
	"github.com/kailas-cloud/supportrag/internal/metrics"
	budgetrepo "github.com/kailas-cloud/supportrag/internal/repository/budget"
	"github.com/kailas-cloud/supportrag/internal/repository/embcache"
	"github.com/kailas-cloud/supportrag/internal/repository/plancache"
	searchrepo "github.com/kailas-cloud/supportrag/internal/repository/search"
	"github.com/kailas-cloud/supportrag/internal/tracing"
	geminiChat "github.com/kailas-cloud/supportrag/internal/transport/gemini"
	openaiTransport "github.com/kailas-cloud/supportrag/internal/transport/openai"
	analyzeuc "github.com/kailas-cloud/supportrag/internal/usecase/analyze"
	answeruc "github.com/kailas-cloud/supportrag/internal/usecase/answer"
	budgetuc "github.com/kailas-cloud/supportrag/internal/usecase/budget"
	embeddinguc "github.com/kailas-cloud/supportrag/internal/usecase/embedding"
	generateuc "github.com/kailas-cloud/supportrag/internal/usecase/generate"
	healthuc "github.com/kailas-cloud/supportrag/internal/usecase/health"
	llmuc "github.com/kailas-cloud/supportrag/internal/usecase/llm"
	retrieveuc "github.com/kailas-cloud/supportrag/internal/usecase/retrieve"
	"github.com/kailas-cloud/supportrag/internal/version"
)

// Counter retention for persisted budgets.
const (
	budgetDailyTTL   = 48 * time.Hour
	budgetMonthlyTTL = 62 * 24 * time.Hour
)

// app is the composition root shared by the subcommands.
type app struct {
	env    string
	cfg    config.Config
	logger *zap.Logger
	store  *dbRedis.Store

	embeddingBudget *budgetuc.Tracker
	llmBudget       *budgetuc.Tracker

	closers []func(context.Context) error
}

// newApp loads config, builds the logger and tracer and connects to the store.
func newApp(ctx context.Context, env string) (*app, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, logpkg.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	a := &app{env: env, cfg: cfg, logger: logger}
	ready := false
	defer func() {
		if !ready {
			a.Close(ctx)
		}
	}()

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Exporter:       cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version.Version,
		SampleRatio:    cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}
	a.closers = append(a.closers, shutdownTracing)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, func(context.Context) error { store.Close(); return nil })

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))

	// Explicit registration, no init().
	metrics.RegisterAll()

	if a.embeddingBudget, err = a.newBudget(ctx, "embedding:"+cfg.Embedding.Provider, cfg.Embedding.Budget); err != nil {
		return nil, err
	}
	if a.llmBudget, err = a.newBudget(ctx, "llm:"+cfg.LLM.Provider, cfg.LLM.Budget); err != nil {
		return nil, err
	}
	ready = true
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close(ctx context.Context) {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("Shutdown error", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// newBudget returns nil when no limit is configured.
func (a *app) newBudget(ctx context.Context, scope string, cfg config.BudgetConfig) (*budgetuc.Tracker, error) {
	if cfg.DailyTokenLimit <= 0 && cfg.MonthlyTokenLimit <= 0 {
		return nil, nil
	}
	action, err := budgetuc.ParseAction(cfg.Action)
	if err != nil {
		return nil, fmt.Errorf("%s budget: %w", scope, err)
	}
	t := budgetuc.NewTracker(scope, cfg.DailyTokenLimit, cfg.MonthlyTokenLimit, action, a.logger)
	return t.WithStore(ctx, budgetrepo.New(a.store, budgetDailyTTL, budgetMonthlyTTL)), nil
}

// gate wraps a tracker for a provider decorator. A nil tracker yields a nil gate;
// passing it straight to NewGate would hide a typed nil inside the Checker interface.
func gate(t *budgetuc.Tracker, provider string, remaining *prometheus.GaugeVec) *budgetuc.Gate {
	if t == nil {
		return nil
	}
	return budgetuc.NewGate(t, provider, remaining)
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction.
func (a *app) buildEmbedder(instruction string) (domain.Embedder, *openaiTransport.Embedder) {
	ec := a.cfg.Embedding
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     ec.APIKey,
		BaseURL:    ec.BaseURL,
		Model:      ec.Model,
		Dimensions: ec.Dimensions,
		User:       ec.User,
		Provider:   ec.Provider,
		Logger:     a.logger,
	})

	var embedder domain.Embedder = base
	if !a.cfg.Storage.DisableEmbeddingCache {
		ttl := time.Duration(a.cfg.Storage.EmbeddingCacheTTLHours) * time.Hour
		embedder = embcache.New(base, a.store, ec.Model, ttl, metrics.EmbeddingCacheTotal, a.logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, ec.Provider, ec.Model,
		gate(a.embeddingBudget, ec.Provider, metrics.EmbeddingBudgetTokensRemaining), a.logger)

	// outermost, so the cache key includes the instruction
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction), base
	}
	return embedder, base
}

// chatModel is what the pipeline and health check need from a provider.
type chatModel interface {
	domain.ChatModel
	domain.HealthChecker
}

// buildChatModel picks the provider and wraps it with budget accounting.
func (a *app) buildChatModel(ctx context.Context) (domain.ChatModel, domain.HealthChecker, error) {
	lc := a.cfg.LLM

	var base chatModel
	switch lc.Provider {
	case "gemini":
		m, err := geminiChat.NewChatModel(ctx, &geminiChat.Config{
			APIKey:      lc.APIKey,
			BaseURL:     lc.BaseURL,
			Model:       lc.Model,
			Temperature: lc.Temperature,
			MaxTokens:   lc.MaxTokens,
			Logger:      a.logger,
		})
		if err != nil {
			return nil, nil, err
		}
		base = m
	default:
		base = openaiTransport.NewChatModel(&openaiTransport.ChatConfig{
			Config: openaiTransport.Config{
				APIKey:   lc.APIKey,
				BaseURL:  lc.BaseURL,
				Model:    lc.Model,
				Provider: lc.Provider,
				Logger:   a.logger,
			},
			Temperature: lc.Temperature,
			MaxTokens:   lc.MaxTokens,
		})
	}

	a.logger.Info("Chat model created", zap.String("provider", lc.Provider), zap.String("model", lc.Model))
	return llmuc.NewInstrumentedChatModel(base, lc.Provider, lc.Model,
		gate(a.llmBudget, lc.Provider, metrics.LLMBudgetTokensRemaining), a.logger), base, nil
}

// pipeline is the wired question-answering stack.
type pipeline struct {
	controller *answeruc.Controller
	health     *healthuc.Service
}

// buildPipeline wires both index handles into the retriever and the three stages into the controller.
// A missing index is fatal: no question can be served without both knowledge bases.
func (a *app) buildPipeline(ctx context.Context) (*pipeline, error) {
	queryEmbedder, embeddingProvider := a.buildEmbedder(a.cfg.Embedding.QueryInstruction)

	changelog := searchrepo.New(a.store, queryEmbedder, knowledge.Changelog)
	reviews := searchrepo.New(a.store, queryEmbedder, knowledge.UserReviews)
	for _, idx := range []*searchrepo.Index{changelog, reviews} {
		if err := idx.Check(ctx); err != nil {
			return nil, fmt.Errorf("knowledge base %s: %w", idx.Base(), err)
		}
	}

	chat, chatHealth, err := a.buildChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}

	// nil interface, not a typed nil, when the cache is disabled
	var cache analyzeuc.PlanCache
	if ttl := time.Duration(a.cfg.Analysis.PlanCacheTTLSec) * time.Second; ttl > 0 {
		cache = plancache.New(ttl, 2*ttl)
	}

	mode, err := generateuc.ParseMode(a.cfg.Generation.Verdict)
	if err != nil {
		return nil, err
	}
	policy, err := conversation.ParsePolicy(a.cfg.Retrieval.ContextPolicy)
	if err != nil {
		return nil, err
	}

	controller := answeruc.New(
		analyzeuc.New(chat, cache),
		retrieveuc.New(changelog, reviews),
		generateuc.New(chat, mode),
		answeruc.WithPolicy(policy),
		answeruc.WithMaxQuestionLength(a.cfg.Generation.MaxQuestionLength),
	)

	health := healthuc.New(a.store,
		[]healthuc.IndexChecker{changelog, reviews},
		embeddingProvider, chatHealth,
	)

	a.logger.Info("Pipeline ready",
		zap.String("context_policy", string(policy)),
		zap.String("verdict", string(mode)),
		zap.Bool("plan_cache", cache != nil),
	)
	return &pipeline{controller: controller, health: health}, nil
}
