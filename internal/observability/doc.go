// Package observability groups the logging, metrics and tracing packages.
//
// Subpackages:
//   - logging: slog setup, rotating file sink, request-scoped loggers
//   - metrics: Prometheus collectors and recording helpers
//   - tracing: OpenTelemetry provider setup and HTTP middleware
//
// Example usage:
//
//	import (
//	    "opensox-api/internal/observability/logging"
//	    "opensox-api/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("application started")
//
//	    metrics.RecordTestimonialSubmitted("created")
//	}
package observability
