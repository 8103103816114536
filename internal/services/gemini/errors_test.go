package gemini

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/genai"

	apperrors "github.com/chefdigital/chef/internal/errors"
)

func TestClassifyError_RateLimit(t *testing.T) {
	testCases := []string{
		"API error: status 429",
		"rate limit exceeded",
		"Too Many Requests",
	}

	for _, tc := range testCases {
		err := errors.New(tc)
		providerErr := ClassifyError(err, "gemini")

		if providerErr.Type != "rate_limit" {
			t.Errorf("Expected rate_limit for '%s', got %s", tc, providerErr.Type)
		}
		if providerErr.Provider != "gemini" {
			t.Errorf("Expected provider 'gemini', got %s", providerErr.Provider)
		}
	}
}

func TestClassifyError_QuotaExhausted(t *testing.T) {
	testCases := []string{
		"Error 429, Message: You exceeded your current quota, Status: RESOURCE_EXHAUSTED",
		"RESOURCE_EXHAUSTED",
	}

	for _, tc := range testCases {
		providerErr := ClassifyError(errors.New(tc), "gemini")
		if providerErr.Type != "quota_exhausted" {
			t.Errorf("Expected quota_exhausted for '%s', got %s", tc, providerErr.Type)
		}
	}
}

func TestClassifyError_APIError(t *testing.T) {
	testCases := []struct {
		err  error
		want string
	}{
		{genai.APIError{Code: 503, Message: "overloaded", Status: "UNAVAILABLE"}, "server_error"},
		{genai.APIError{Code: 400, Message: "bad schema", Status: "INVALID_ARGUMENT"}, "client_error"},
		{fmt.Errorf("wrapped: %w", genai.APIError{Code: 429, Message: "slow down", Status: "RESOURCE_EXHAUSTED"}), "rate_limit"},
	}

	for _, tc := range testCases {
		providerErr := ClassifyError(tc.err, "gemini")
		if providerErr.Type != tc.want {
			t.Errorf("Expected %s for %v, got %s", tc.want, tc.err, providerErr.Type)
		}
	}
}

func TestClassifyError_ServerError(t *testing.T) {
	testCases := []string{
		"API error: status 500",
		"server error occurred",
		"Internal Error",
	}

	for _, tc := range testCases {
		providerErr := ClassifyError(errors.New(tc), "gemini")
		if providerErr.Type != "server_error" {
			t.Errorf("Expected server_error for '%s', got %s", tc, providerErr.Type)
		}
	}
}

func TestClassifyError_ClientError(t *testing.T) {
	testCases := []string{
		"API error: status 400",
		"bad request",
		"Unauthorized",
		"API key not valid. Please pass a valid API key.",
	}

	for _, tc := range testCases {
		providerErr := ClassifyError(errors.New(tc), "gemini")
		if providerErr.Type != "client_error" {
			t.Errorf("Expected client_error for '%s', got %s", tc, providerErr.Type)
		}
	}
}

func TestClassifyError_AppError(t *testing.T) {
	appErr := apperrors.NewContentGenerationError("server failed", "SERVER_ERROR", nil)
	if got := ClassifyError(appErr, "gemini").Type; got != "server_error" {
		t.Errorf("Expected server_error for AppError with 500 status, got %s", got)
	}

	appErr2 := apperrors.NewValidationError("bad input", "BAD_INPUT", "")
	if got := ClassifyError(appErr2, "gemini").Type; got != "client_error" {
		t.Errorf("Expected client_error for AppError with 400 status, got %s", got)
	}
}

func TestClassifyError_Local(t *testing.T) {
	if got := ClassifyError(ErrMissingAPIKey, "gemini").Type; got != "missing_key" {
		t.Errorf("Expected missing_key, got %s", got)
	}
	if got := ClassifyError(fmt.Errorf("call: %w", context.DeadlineExceeded), "gemini").Type; got != "timeout" {
		t.Errorf("Expected timeout, got %s", got)
	}
}

func TestClassifyError_Unknown(t *testing.T) {
	providerErr := ClassifyError(errors.New("some random error"), "gemini")
	if providerErr.Type != "unknown" {
		t.Errorf("Expected unknown for random error, got %s", providerErr.Type)
	}
}

func TestClassifyError_Nil(t *testing.T) {
	if providerErr := ClassifyError(nil, "gemini"); providerErr != nil {
		t.Errorf("Expected nil for nil error, got %v", providerErr)
	}
}
