// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes application metrics:
//   - HTTP request metrics (duration, count, size)
//   - Business metrics (avatar verdicts, testimonials, subscriptions, newsletters)
//   - Cache hit/miss counts
//   - Database query metrics
//
// All metrics are registered with the Prometheus default registry and
// exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "opensox-api/internal/observability/metrics"
//
//	verdict := validator.Validate(ctx, raw)
//	metrics.RecordAvatarVerdict(string(verdict.Reason), verdict.Accepted)
package metrics
