package telemetry

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// exportTarget is an OTLP endpoint split into host and per-signal paths.
type exportTarget struct {
	Host      string
	TracePath string
	LogPath   string
	Insecure  bool
}

// resolveEndpoint turns OTEL_EXPORTER_OTLP_ENDPOINT into exporter options.
// A trailing /v1/traces or /v1/logs on the endpoint is ignored.
func resolveEndpoint(otlpEndpoint string) exportTarget {
	target := exportTarget{
		Host:      otlpEndpoint,
		TracePath: "/v1/traces",
		LogPath:   "/v1/logs",
	}
	if target.Host == "" {
		return target
	}

	if strings.HasPrefix(target.Host, "https://") {
		target.Host = strings.TrimPrefix(target.Host, "https://")
	} else if strings.HasPrefix(target.Host, "http://") {
		target.Host = strings.TrimPrefix(target.Host, "http://")
		target.Insecure = true
	}

	basePath := ""
	if idx := strings.Index(target.Host, "/"); idx > 0 {
		basePath = target.Host[idx:]
		target.Host = target.Host[:idx]
	}

	basePath = strings.TrimSuffix(basePath, "/v1/traces")
	basePath = strings.TrimSuffix(basePath, "/v1/logs")
	basePath = strings.TrimSuffix(basePath, "/")
	if basePath != "" {
		target.TracePath = basePath + "/v1/traces"
		target.LogPath = basePath + "/v1/logs"
	}

	return target
}

// InitTelemetry initializes OpenTelemetry with OTLP exporters for traces and logs.
// The returned function flushes and stops both providers.
func InitTelemetry(ctx context.Context, serviceName, serviceVersion, env, otlpEndpoint string, headers map[string]string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
			semconv.DeploymentEnvironmentKey.String(env),
		),
	)
	if err != nil {
		return nil, err
	}

	target := resolveEndpoint(otlpEndpoint)

	traceOpts := []otlptracehttp.Option{
		otlptracehttp.WithURLPath(target.TracePath),
	}
	logOpts := []otlploghttp.Option{
		otlploghttp.WithURLPath(target.LogPath),
	}
	if target.Host != "" {
		traceOpts = append(traceOpts, otlptracehttp.WithEndpoint(target.Host))
		logOpts = append(logOpts, otlploghttp.WithEndpoint(target.Host))
	}
	if len(headers) > 0 {
		traceOpts = append(traceOpts, otlptracehttp.WithHeaders(headers))
		logOpts = append(logOpts, otlploghttp.WithHeaders(headers))
	}
	if target.Insecure {
		traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
		logOpts = append(logOpts, otlploghttp.WithInsecure())
	}

	traceExporter, err := otlptracehttp.New(ctx, traceOpts...)
	if err != nil {
		return nil, err
	}

	logExporter, err := otlploghttp.New(ctx, logOpts...)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		sdklog.WithResource(res),
	)
	global.SetLoggerProvider(lp)

	slog.Info("Telemetry initialized",
		"endpoint", target.Host,
		"trace_path", target.TracePath,
		"log_path", target.LogPath,
		"insecure", target.Insecure,
	)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return func(ctx context.Context) error {
		err1 := tp.Shutdown(ctx)
		err2 := lp.Shutdown(ctx)
		if err1 != nil {
			return err1
		}
		return err2
	}, nil
}

// Tracer returns a tracer with the given name
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
