package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := &AppError{
		Message: "something went wrong",
	}
	if err.Error() != "something went wrong" {
		t.Errorf("expected 'something went wrong', got %v", err.Error())
	}

	wrappedErr := errors.New("underlying error")
	errWithWrap := &AppError{
		Message: "failed operation",
		Err:     wrappedErr,
	}
	expected := "failed operation: underlying error"
	if errWithWrap.Error() != expected {
		t.Errorf("expected %q, got %q", expected, errWithWrap.Error())
	}
}

func TestAppError_Code(t *testing.T) {
	err := &AppError{
		ErrorCode: "ERR_CODE_123",
	}
	if err.Code() != "ERR_CODE_123" {
		t.Errorf("expected ERR_CODE_123, got %v", err.Code())
	}
}

func TestAppError_IsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want bool
	}{
		{
			name: "unavailable is retryable",
			err: &AppError{
				Type:       ErrorTypeUnavailable,
				StatusCode: http.StatusServiceUnavailable,
			},
			want: true,
		},
		{
			name: "validation error is not retryable",
			err: &AppError{
				Type:       ErrorTypeValidation,
				StatusCode: http.StatusBadRequest,
			},
			want: false,
		},
		{
			name: "500 internal error is retryable",
			err: &AppError{
				Type:       ErrorTypeInternal,
				StatusCode: http.StatusInternalServerError,
			},
			want: true,
		},
		{
			name: "content generation is never retried",
			err: &AppError{
				Type:       ErrorTypeContentGeneration,
				StatusCode: http.StatusInternalServerError,
			},
			want: false,
		},
		{
			name: "image generation is never retried",
			err: &AppError{
				Type:       ErrorTypeImageGeneration,
				StatusCode: http.StatusBadGateway,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.IsRetryable(); got != tt.want {
				t.Errorf("AppError.IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewInvalidInputError(t *testing.T) {
	err := NewInvalidInputError("query is required")
	if err.Type != ErrorTypeValidation {
		t.Errorf("expected TypeValidation, got %v", err.Type)
	}
	if err.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err.StatusCode)
	}
	if err.Code() != "INVALID_QUERY" {
		t.Errorf("expected INVALID_QUERY, got %v", err.Code())
	}
}

func TestNewContentGenerationError(t *testing.T) {
	underlying := errors.New("ai failed")
	err := NewContentGenerationError("could not generate recipe", "RECIPE_FAILED", underlying)
	if err.Type != ErrorTypeContentGeneration {
		t.Errorf("expected TypeContentGeneration, got %v", err.Type)
	}
	if err.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %v", err.StatusCode)
	}
	if !errors.Is(err, underlying) {
		t.Error("underlying error not correctly wrapped")
	}
}

func TestIsType(t *testing.T) {
	imgErr := NewImageGenerationError("no image", "IMAGE_MISSING", nil)
	wrapped := fmt.Errorf("stage two: %w", imgErr)

	if !IsType(wrapped, ErrorTypeImageGeneration) {
		t.Error("expected wrapped error to be detected as image generation error")
	}
	if IsType(wrapped, ErrorTypeContentGeneration) {
		t.Error("image generation error reported as content generation error")
	}
	if IsType(errors.New("plain"), ErrorTypeInternal) {
		t.Error("plain error should not match any type")
	}

	got, ok := As(wrapped)
	if !ok || got != imgErr {
		t.Errorf("As() = %v, %v; want original AppError", got, ok)
	}
}
