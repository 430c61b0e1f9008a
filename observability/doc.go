// Package observability wires OpenTelemetry tracing and metrics for the
// auth service, exporting over OTLP HTTP. It also defines the health model
// reported by the health endpoints.
package observability
