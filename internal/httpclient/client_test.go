package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTransport struct {
	provider string
}

func (t *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.provider = ProviderFrom(req.Context())
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: req}, nil
}

func TestProviderTransportDefaultsProvider(t *testing.T) {
	rec := &recordingTransport{}
	client := &http.Client{Transport: &providerTransport{base: rec, provider: "Gemini"}}

	req, err := http.NewRequest(http.MethodGet, "http://example.invalid/v1beta/models", nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Gemini", rec.provider)
}

func TestProviderTransportKeepsContextProvider(t *testing.T) {
	rec := &recordingTransport{}
	client := &http.Client{Transport: &providerTransport{base: rec, provider: "Gemini"}}

	req, err := http.NewRequestWithContext(WithProvider(context.Background(), "Other"), http.MethodGet, "http://example.invalid/", nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Other", rec.provider)
}

func TestForProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	client := ForProvider("Gemini", 0)
	assert.Equal(t, DefaultTimeout, client.Timeout)

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}

func TestNewInstrumentedClient(t *testing.T) {
	client := NewInstrumentedClient(5 * time.Second)
	assert.Equal(t, 5*time.Second, client.Timeout)
	assert.NotNil(t, client.Transport)
}
