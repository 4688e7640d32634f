package openai

import (
	"encoding/json"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/supportrag/internal/domain"
)

// parseAPIError extracts a human-readable error from the API response and wraps it
// with kind so the HTTP layer maps it to 502 (or 429 for upstream rate limits).
func parseAPIError(err error, kind error, provider string) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return domain.NewProviderError(kind, provider, reqErr.HTTPStatusCode, detail)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return domain.NewProviderError(kind, provider, apiErr.HTTPStatusCode, apiErr.Message)
	}

	return domain.NewProviderError(kind, provider, 0, err.Error())
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrMalformedPlan):
		return "malformed_output"
	default:
		return "api_error"
	}
}
