// Package middleware holds cross-cutting HTTP middleware: CORS and the
// per-user submission rate limiter.
package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig holds the CORS policy.
type CORSConfig struct {
	// AllowedOrigins are exact origins such as "https://opensox.ai".
	AllowedOrigins []string

	// AllowedMethods for preflight responses.
	// Default: GET, POST, PUT, OPTIONS
	AllowedMethods []string

	// AllowedHeaders for preflight responses.
	// Default: Content-Type, Authorization, X-Request-ID
	AllowedHeaders []string

	// MaxAge is the preflight cache lifetime in seconds.
	// Default: 86400
	MaxAge int

	Logger *slog.Logger
}

// CORS echoes allowed origins with credentials enabled and answers
// preflight requests with 204. Requests from other origins pass through
// without CORS headers so the browser blocks them.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	allowed := NewWhitelistValidator(config.AllowedOrigins)
	methods := strings.Join(config.AllowedMethods, ", ")
	headers := strings.Join(config.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(config.MaxAge)
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Add("Vary", "Origin")

			if !allowed.IsAllowed(origin) {
				logger.Warn("CORS: origin not allowed",
					slog.String("origin", origin),
					slog.String("path", r.URL.Path),
					slog.String("method", r.Method))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				w.Header().Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WhitelistValidator matches origins exactly, ignoring case and a trailing
// slash.
type WhitelistValidator struct {
	allowed map[string]struct{}
}

// NewWhitelistValidator normalises origins and drops empty entries.
func NewWhitelistValidator(origins []string) *WhitelistValidator {
	v := &WhitelistValidator{allowed: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		if o = normalizeOrigin(o); o != "" {
			v.allowed[o] = struct{}{}
		}
	}
	return v
}

// IsAllowed reports whether origin is whitelisted.
func (v *WhitelistValidator) IsAllowed(origin string) bool {
	origin = normalizeOrigin(origin)
	if origin == "" {
		return false
	}
	_, ok := v.allowed[origin]
	return ok
}

func normalizeOrigin(o string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(o)), "/")
}
