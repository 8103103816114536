package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTransport is the base transport used by the instrumented clients.
var DefaultTransport = http.DefaultTransport

// DefaultTimeout bounds a single provider call. Image generation is the slow one.
const DefaultTimeout = 120 * time.Second

type contextKey string

const providerKey contextKey = "httpclient.provider"

// WithProvider adds a provider name to the context for tracing.
func WithProvider(ctx context.Context, provider string) context.Context {
	return context.WithValue(ctx, providerKey, provider)
}

// ProviderFrom returns the provider name stored by WithProvider.
func ProviderFrom(ctx context.Context) string {
	provider, _ := ctx.Value(providerKey).(string)
	return provider
}

// providerTransport tags the current span with the provider and marks HTTP failures.
// A fixed provider applies when the request context carries none, which is the case
// for SDKs that build their own requests.
type providerTransport struct {
	base     http.RoundTripper
	provider string
}

func (t *providerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if ProviderFrom(ctx) == "" && t.provider != "" {
		ctx = WithProvider(ctx, t.provider)
		req = req.WithContext(ctx)
	}

	span := trace.SpanFromContext(ctx)
	if provider := ProviderFrom(ctx); provider != "" {
		span.SetAttributes(attribute.String("provider", provider))
	}
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP status %d", resp.StatusCode))
	}
	return resp, nil
}

func spanName(_ string, r *http.Request) string {
	if provider := ProviderFrom(r.Context()); provider != "" {
		return fmt.Sprintf("%s: %s %s", provider, r.Method, r.URL.Path)
	}
	return fmt.Sprintf("%s %s", r.Method, r.URL.Path)
}

func newOtelTransport(base http.RoundTripper, provider string) http.RoundTripper {
	// The provider transport sits outside otelhttp so the span name sees the provider.
	return &providerTransport{
		base:     otelhttp.NewTransport(base, otelhttp.WithSpanNameFormatter(spanName)),
		provider: provider,
	}
}

// NewInstrumentedClient returns an http.Client with OpenTelemetry instrumentation and custom timeout.
func NewInstrumentedClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: newOtelTransport(DefaultTransport, ""),
		Timeout:   timeout,
	}
}

// ForProvider returns an instrumented client whose spans are attributed to provider.
func ForProvider(provider string, timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Transport: newOtelTransport(DefaultTransport, provider),
		Timeout:   timeout,
	}
}
