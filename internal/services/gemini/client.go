// Package gemini builds the Gemini API client shared by the recipe and photo providers.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/genai"

	"github.com/chefdigital/chef/internal/httpclient"
)

// ErrMissingAPIKey is returned by every call when no API key was configured.
var ErrMissingAPIKey = errors.New("gemini: API key is not configured")

// ContentGenerator is the subset of *genai.Models the providers call.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// unavailable fails every call, so a missing key surfaces at the first generation
// instead of at startup.
type unavailable struct {
	err error
}

func (u unavailable) GenerateContent(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return nil, u.err
}

// Option configures the Gemini client.
type Option func(*genai.ClientConfig)

// WithBaseURL points the client at a proxy or a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *genai.ClientConfig) {
		if baseURL != "" {
			c.HTTPOptions.BaseURL = baseURL
		}
	}
}

// NewGenerator returns the models service of a Gemini API client that uses an
// instrumented HTTP client. When apiKey is empty, or the client cannot be built,
// the returned generator fails every call.
func NewGenerator(ctx context.Context, apiKey string, httpClient *http.Client, opts ...Option) ContentGenerator {
	if apiKey == "" {
		slog.Warn("GEMINI_API_KEY is not set, generation requests will fail")
		return unavailable{err: ErrMissingAPIKey}
	}
	if httpClient == nil {
		httpClient = httpclient.ForProvider("Gemini", httpclient.DefaultTimeout)
	}

	config := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	for _, opt := range opts {
		opt(config)
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		slog.Error("Failed to create Gemini client", "error", err)
		return unavailable{err: fmt.Errorf("gemini: creating client: %w", err)}
	}
	return client.Models
}
