package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitTelemetry(t *testing.T) {
	// Test with empty endpoint (should not fail, just no telemetry)
	shutdown, err := InitTelemetry(context.Background(), "test-service", "v1.0.0", "test", "", nil)
	if err != nil {
		t.Fatalf("InitTelemetry failed: %v", err)
	}
	if shutdown != nil {
		defer shutdown(context.Background())
	}
}

func TestTracer(t *testing.T) {
	tracer := Tracer("test-tracer")
	if tracer == nil {
		t.Fatal("Tracer returned nil")
	}
}

func TestResolveEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		want     exportTarget
	}{
		{
			name:     "empty",
			endpoint: "",
			want:     exportTarget{TracePath: "/v1/traces", LogPath: "/v1/logs"},
		},
		{
			name:     "plain https host",
			endpoint: "https://otel.example.com",
			want:     exportTarget{Host: "otel.example.com", TracePath: "/v1/traces", LogPath: "/v1/logs"},
		},
		{
			name:     "http host is insecure",
			endpoint: "http://localhost:4318",
			want:     exportTarget{Host: "localhost:4318", TracePath: "/v1/traces", LogPath: "/v1/logs", Insecure: true},
		},
		{
			name:     "base path",
			endpoint: "https://otlp.example.com/otlp",
			want:     exportTarget{Host: "otlp.example.com", TracePath: "/otlp/v1/traces", LogPath: "/otlp/v1/logs"},
		},
		{
			name:     "signal path is stripped",
			endpoint: "https://otlp.example.com/api/v1/traces",
			want:     exportTarget{Host: "otlp.example.com", TracePath: "/api/v1/traces", LogPath: "/api/v1/logs"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveEndpoint(tt.endpoint))
		})
	}
}
