// Package observability provides the service's structured logging,
// Prometheus metrics, OpenTelemetry wiring, health checks and graceful
// shutdown.
//
// Loggers wrap log/slog with JSON output and contextual fields. Metrics are
// registered on a private Prometheus registry exposed on the health port.
// OTel trace and metric providers are optional and enabled by configuration.
package observability
