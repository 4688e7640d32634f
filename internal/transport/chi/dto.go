package chi

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domusage "github.com/kailas-cloud/supportrag/internal/domain/usage"
	"github.com/kailas-cloud/supportrag/internal/usecase/answer"
)

// ErrorCode is the machine-readable error code in ErrorResponse.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeValidationFailed       ErrorCode = "validation_failed"
	CodeUnauthorized           ErrorCode = "unauthorized"
	CodeRateLimited            ErrorCode = "rate_limited"
	CodeTokenQuotaExceeded     ErrorCode = "token_quota_exceeded"
	CodeLLMProviderError       ErrorCode = "llm_provider_error"
	CodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	CodeMalformedOutput        ErrorCode = "malformed_output"
	CodeIndexMissing           ErrorCode = "index_missing"
	CodeNotFound               ErrorCode = "not_found"
	CodeMethodNotAllowed       ErrorCode = "method_not_allowed"
	CodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx reply.
type ErrorResponse struct {
	Code    ErrorCode         `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// AskRequest is the body of POST /v1/answers.
type AskRequest struct {
	Question string `json:"question" validate:"required,max=8000"`
}

// SubQuery mirrors one step of the search plan.
type SubQuery struct {
	Intent string `json:"intent"`
	Query  string `json:"query"`
}

// AskResponse is the answer plus trace data.
type AskResponse struct {
	Answer        string     `json:"answer"`
	Resolved      bool       `json:"resolved"`
	Iterations    int        `json:"iterations"`
	Escalated     bool       `json:"escalated"`
	KnowledgeBase string     `json:"knowledge_base"`
	Plan          []SubQuery `json:"plan"`
	ChunkIDs      []string   `json:"chunk_ids"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// UsageReport is one provider budget in GET /v1/usage.
type UsageReport struct {
	Scope       string `json:"scope"`
	Period      string `json:"period"`
	PeriodStart int64  `json:"period_start_ms"`
	PeriodEnd   int64  `json:"period_end_ms"`
	TokensUsed  int64  `json:"tokens_used"`
	TokensLimit int64  `json:"tokens_limit"`
	Remaining   int64  `json:"tokens_remaining"`
	Exhausted   bool   `json:"exhausted"`
}

// UsageResponse is the body of GET /v1/usage.
type UsageResponse struct {
	Reports []UsageReport `json:"reports"`
}

func usageResponse(reports []domusage.Report) UsageResponse {
	out := make([]UsageReport, len(reports))
	for i, r := range reports {
		out[i] = UsageReport{
			Scope:       r.Scope,
			Period:      string(r.Period),
			PeriodStart: r.PeriodStart,
			PeriodEnd:   r.PeriodEnd,
			TokensUsed:  r.Used,
			TokensLimit: r.Limit,
			Remaining:   r.Remaining,
			Exhausted:   r.Exhausted(),
		}
	}
	return UsageResponse{Reports: out}
}

func askResponse(res answer.Result) AskResponse {
	queries := make([]SubQuery, len(res.Plan.Queries))
	for i, q := range res.Plan.Queries {
		queries[i] = SubQuery{Intent: q.Intent, Query: q.Query}
	}
	ids := res.ChunkIDs
	if ids == nil {
		ids = []string{}
	}
	return AskResponse{
		Answer:        res.Answer,
		Resolved:      res.Resolved,
		Iterations:    res.Iterations,
		Escalated:     res.Escalated,
		KnowledgeBase: res.KnowledgeBase,
		Plan:          queries,
		ChunkIDs:      ids,
	}
}

// fieldErrors converts validator errors into per-field messages keyed by json name.
func fieldErrors(err error) (map[string]string, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		switch fe.Tag() {
		case "required":
			fields[name] = fmt.Sprintf("%s is required", name)
		case "max":
			fields[name] = fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
		default:
			fields[name] = fmt.Sprintf("%s failed on '%s'", name, fe.Tag())
		}
	}
	return fields, true
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
