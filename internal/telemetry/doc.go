// Package telemetry wires OpenTelemetry tracing and log export for the Chef Digital
// server and archive worker.
//
// Traces and logs are shipped over OTLP HTTP. When no endpoint is configured the
// global no-op providers stay in place, so spans created through Tracer are free.
package telemetry
