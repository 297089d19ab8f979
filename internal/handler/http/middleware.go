package http

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/trace"

	"opensox-api/internal/handler/http/requestid"
	"opensox-api/internal/handler/http/respond"
	"opensox-api/internal/handler/http/responsewriter"
	"opensox-api/internal/handler/http/route"
	"opensox-api/internal/observability/logging"
)

// Middleware is the shape shared by every wrapper in this package.
type Middleware func(http.Handler) http.Handler

// Chain applies mws so that the first one is outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Logging binds a request-scoped logger carrying request_id to the context
// and logs one line per request once it completes.
func Logging(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()
			reqLogger := logging.WithRequestID(ctx, logger)

			wrapped := responsewriter.Wrap(w)
			next.ServeHTTP(wrapped, r.WithContext(logging.WithLogger(ctx, reqLogger)))

			duration := time.Since(start)
			status := wrapped.StatusCode()

			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", route.Pattern(ctx)),
				slog.Int("status", status),
				slog.Int("bytes", wrapped.BytesWritten()),
				slog.Duration("duration", duration),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
			}
			if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
				attrs = append(attrs, slog.String("trace_id", sc.TraceID().String()))
			}
			reqLogger.LogAttrs(ctx, level, "request completed", attrs...)
		})
	}
}

// Recover turns a panic into a 500 with the generic error body.
func Recover(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic recovered",
					slog.String("request_id", requestid.FromContext(r.Context())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)
				if rw, ok := w.(interface{ Written() bool }); ok && rw.Written() {
					return
				}
				respond.JSON(w, http.StatusInternalServerError, respond.ErrorBody{
					Error: respond.InternalMessage,
					Code:  respond.CodeInternal,
				})
			}()
			next.ServeHTTP(w, r)
		})
	}
}
