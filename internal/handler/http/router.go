package http

import (
	"log/slog"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"opensox-api/internal/common/pagination"
	"opensox-api/internal/handler/http/auth"
	"opensox-api/internal/handler/http/middleware"
	hnewsletter "opensox-api/internal/handler/http/newsletter"
	"opensox-api/internal/handler/http/requestid"
	"opensox-api/internal/handler/http/route"
	hsession "opensox-api/internal/handler/http/session"
	htestimonial "opensox-api/internal/handler/http/testimonial"
	huser "opensox-api/internal/handler/http/user"
	"opensox-api/internal/observability/tracing"
)

// RouterDeps is everything NewRouter wires together.
type RouterDeps struct {
	Logger *slog.Logger
	Auth   *auth.Authenticator

	Testimonials htestimonial.Service
	Users        huser.Service
	Sessions     hsession.Service
	Newsletters  hnewsletter.Service
	Pagination   pagination.Config

	// SubmitLimit wraps the testimonial write routes after authentication.
	SubmitLimit func(http.Handler) http.Handler

	CORS     middleware.CORSConfig
	Security middleware.SecurityHeadersConfig
	Limits   InputLimits
	// RequestTimeout of zero disables the per-request deadline.
	RequestTimeout time.Duration

	Health *HealthHandler
	Ready  *ReadyHandler
	// Swagger mounts the API docs at /swagger/.
	Swagger bool
}

// NewRouter builds the API handler. Middleware runs outermost first:
// CORS, security headers, request ID, route tracking, tracing, recover,
// logging, input limits, timeout, metrics.
func NewRouter(d RouterDeps) http.Handler {
	mux := http.NewServeMux()

	htestimonial.Register(mux, d.Testimonials, d.Auth, d.SubmitLimit)
	huser.Register(mux, d.Users, d.Auth)
	hsession.Register(mux, d.Sessions, d.Auth)
	hnewsletter.Register(mux, d.Newsletters, d.Pagination, d.Auth)

	if d.Health != nil {
		mux.Handle("GET /health", d.Health)
	}
	if d.Ready != nil {
		mux.Handle("GET /ready", d.Ready)
	}
	mux.Handle("GET /live", LiveHandler{})
	mux.Handle("GET /metrics", MetricsHandler())
	if d.Swagger {
		mux.Handle("GET /swagger/", httpSwagger.WrapHandler)
	}

	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return Chain(route.Capture(mux),
		middleware.CORS(d.CORS),
		middleware.SecurityHeaders(d.Security),
		requestid.Middleware,
		route.Track,
		tracing.Middleware,
		Recover(logger),
		Logging(logger),
		InputValidation(d.Limits),
		Timeout(d.RequestTimeout),
		MetricsMiddleware,
	)
}
