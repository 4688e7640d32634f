// Package chi exposes the answer pipeline over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/supportrag/internal/domain"
	domusage "github.com/kailas-cloud/supportrag/internal/domain/usage"
	"github.com/kailas-cloud/supportrag/internal/logger"
	"github.com/kailas-cloud/supportrag/internal/usecase/answer"
	healthuc "github.com/kailas-cloud/supportrag/internal/usecase/health"
)

const maxBodyBytes = 64 << 10

// Answerer runs one question through the pipeline.
type Answerer interface {
	Answer(ctx context.Context, question string) (answer.Result, error)
}

// HealthReporter aggregates component checks.
type HealthReporter interface {
	Check(ctx context.Context) healthuc.Report
}

// UsageReporter reads provider token budgets.
type UsageReporter interface {
	GetReports(ctx context.Context, period domusage.Period) []domusage.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the answer and health endpoints.
type Server struct {
	answers       Answerer
	usage         UsageReporter
	health        HealthReporter
	validate      *validator.Validate
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(answers Answerer, usage UsageReporter, health HealthReporter, logger *zap.Logger) *Server {
	s := &Server{
		answers:  answers,
		usage:    usage,
		health:   health,
		validate: newValidator(),
		logger:   logger,
	}
	// order matters: a 429 from a provider matches both ErrRateLimited and the provider sentinel
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuestion, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrUnknownKnowledgeBase, http.StatusBadRequest, CodeBadRequest),
		sentinelHandler(domain.ErrTokenQuotaExceeded, http.StatusTooManyRequests, CodeTokenQuotaExceeded),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrMalformedPlan, http.StatusBadGateway, CodeMalformedOutput),
		sentinelHandler(domain.ErrLLMProviderError, http.StatusBadGateway, CodeLLMProviderError),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
		sentinelHandler(domain.ErrIndexMissing, http.StatusServiceUnavailable, CodeIndexMissing),
	}
	return s
}

// Ask handles POST /v1/answers.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		fields, ok := fieldErrors(err)
		if !ok {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
			return
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Code:    CodeValidationFailed,
			Message: "validation failed",
			Fields:  fields,
		})
		return
	}

	ctx, usage := r.Context(), domain.UsageFromContext(r.Context())
	if usage == nil {
		ctx, usage = domain.NewContextWithUsage(ctx)
	}
	res, err := s.answers.Answer(ctx, req.Question)
	setUsageHeaders(w, usage)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	logger.FromContext(r.Context()).Info("question answered",
		zap.Bool("resolved", res.Resolved),
		zap.Bool("escalated", res.Escalated),
		zap.String("knowledge_base", res.KnowledgeBase),
		zap.Int("iterations", res.Iterations),
		zap.Int("chunks", len(res.ChunkIDs)),
	)

	writeJSON(w, http.StatusOK, askResponse(res))
}

// Usage handles GET /v1/usage?period=day|month.
func (s *Server) Usage(w http.ResponseWriter, r *http.Request) {
	period, err := domusage.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, usageResponse(s.usage.GetReports(r.Context(), period)))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.Usage) {
	embTokens, llmTokens, llmCalls := usage.Snapshot()
	if embTokens > 0 {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(embTokens))
	}
	if llmCalls > 0 {
		w.Header().Set("X-LLM-Tokens", strconv.Itoa(llmTokens))
		w.Header().Set("X-LLM-Calls", strconv.Itoa(llmCalls))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuestion,
		domain.ErrUnknownKnowledgeBase,
		domain.ErrTokenQuotaExceeded,
		domain.ErrRateLimited,
		domain.ErrMalformedPlan,
		domain.ErrLLMProviderError,
		domain.ErrEmbeddingProviderError,
		domain.ErrIndexMissing,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	log := logger.FromContext(ctx)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
