package gemini

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	apperrors "github.com/chefdigital/chef/internal/errors"
)

// ProviderError represents a classified error from the Gemini API
type ProviderError struct {
	Type     string // "rate_limit", "quota_exhausted", "missing_key", "timeout", "server_error", "client_error", "unknown"
	Message  string
	Provider string
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	return e.Message
}

// ClassifyError analyzes an error and returns a ProviderError with classification.
// The classification is only used for logs and metrics; nothing is retried on it.
func ClassifyError(err error, provider string) *ProviderError {
	if err == nil {
		return nil
	}

	msg := err.Error()
	classified := func(kind string) *ProviderError {
		return &ProviderError{Type: kind, Message: msg, Provider: provider}
	}

	if errors.Is(err, ErrMissingAPIKey) {
		return classified("missing_key")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return classified("timeout")
	}

	if code, ok := apiStatusCode(err); ok {
		switch {
		case code == 429 && containsSubstring(msg, "quota"):
			return classified("quota_exhausted")
		case code == 429:
			return classified("rate_limit")
		case code >= 500:
			return classified("server_error")
		case code >= 400:
			return classified("client_error")
		}
	}

	if appErr, ok := apperrors.As(err); ok {
		if appErr.StatusCode >= 500 {
			return classified("server_error")
		}
		if appErr.StatusCode >= 400 {
			return classified("client_error")
		}
	}

	switch {
	case containsSubstring(msg, "resource_exhausted") || containsSubstring(msg, "quota"):
		return classified("quota_exhausted")
	case containsSubstring(msg, "status 429") || containsSubstring(msg, "rate limit") || containsSubstring(msg, "too many requests"):
		return classified("rate_limit")
	case containsSubstring(msg, "status 5") || containsSubstring(msg, "server error") || containsSubstring(msg, "internal error"):
		return classified("server_error")
	case containsSubstring(msg, "status 4") || containsSubstring(msg, "bad request") ||
		containsSubstring(msg, "unauthorized") || containsSubstring(msg, "permission_denied") ||
		containsSubstring(msg, "api key not valid"):
		return classified("client_error")
	}

	return classified("unknown")
}

func apiStatusCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}

// containsSubstring checks if a string contains a substring (case-insensitive)
func containsSubstring(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
