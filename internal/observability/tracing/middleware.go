package tracing

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"opensox-api/internal/handler/http/responsewriter"
	"opensox-api/internal/handler/http/route"
)

// TraceIDHeader carries the trace ID back to the client.
const TraceIDHeader = "X-Trace-Id"

// Middleware starts a server span per request. Incoming W3C trace context is
// honoured, the trace ID is echoed in X-Trace-Id, and 5xx responses mark the
// span as failed. The span is renamed to "METHOD pattern" once the route is
// known; route.Track must run before it.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		ctx, span := GetTracer().Start(ctx, r.Method,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			),
		)
		defer span.End()

		if sc := span.SpanContext(); sc.HasTraceID() {
			w.Header().Set(TraceIDHeader, sc.TraceID().String())
		}

		rw := responsewriter.Wrap(w)
		next.ServeHTTP(rw, r.WithContext(ctx))

		pattern := route.Pattern(ctx)
		status := rw.StatusCode()
		span.SetName(spanName(r.Method, pattern))
		span.SetAttributes(
			attribute.String("http.route", pattern),
			attribute.Int("http.status_code", status),
		)
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	})
}

// spanName avoids repeating the method when the pattern already carries it.
func spanName(method, pattern string) string {
	if pattern == route.Unmatched {
		return method + " " + pattern
	}
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == ' ' {
			return pattern
		}
		if pattern[i] == '/' {
			break
		}
	}
	return method + " " + pattern
}
