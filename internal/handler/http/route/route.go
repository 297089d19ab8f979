// Package route makes the matched ServeMux pattern visible to middleware
// that wraps the mux.
//
// ServeMux writes Request.Pattern on the request it receives. Middleware that
// replaced the request with WithContext never sees that write, so Track
// installs a shared slot near the top of the chain and Capture fills it just
// outside the mux.
package route

import (
	"context"
	"net/http"
	"sync/atomic"
)

// Unmatched labels requests that no pattern matched.
const Unmatched = "unmatched"

type contextKey struct{}

type slot struct {
	pattern atomic.Value
}

// Track attaches an empty slot to the request context.
func Track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Value(contextKey{}).(*slot); ok {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), contextKey{}, &slot{})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Capture copies r.Pattern into the slot once the mux has run. It must wrap
// the mux directly.
func Capture(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		if s, ok := r.Context().Value(contextKey{}).(*slot); ok && r.Pattern != "" {
			s.pattern.Store(r.Pattern)
		}
	})
}

// Pattern returns the captured pattern, or Unmatched.
func Pattern(ctx context.Context) string {
	if s, ok := ctx.Value(contextKey{}).(*slot); ok {
		if p, ok := s.pattern.Load().(string); ok {
			return p
		}
	}
	return Unmatched
}

// Label returns the pattern for r, preferring r.Pattern when the caller sits
// inside the mux.
func Label(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return Pattern(r.Context())
}
