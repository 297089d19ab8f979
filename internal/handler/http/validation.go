package http

import (
	"net/http"

	"opensox-api/internal/handler/http/respond"
)

// InputLimits bounds the size of incoming requests.
type InputLimits struct {
	// MaxAuthHeader is the largest accepted Authorization header.
	// Default: 8KB
	MaxAuthHeader int

	// MaxPath is the longest accepted URL path.
	// Default: 2KB
	MaxPath int

	// MaxBody caps the request body; reads past it fail.
	// Default: 1MiB
	MaxBody int64
}

// DefaultInputLimits returns the limits used by the API.
func DefaultInputLimits() InputLimits {
	return InputLimits{
		MaxAuthHeader: 8 << 10,
		MaxPath:       2 << 10,
		MaxBody:       1 << 20,
	}
}

// InputValidation rejects oversized headers and paths and caps the body.
func InputValidation(limits InputLimits) Middleware {
	def := DefaultInputLimits()
	if limits.MaxAuthHeader <= 0 {
		limits.MaxAuthHeader = def.MaxAuthHeader
	}
	if limits.MaxPath <= 0 {
		limits.MaxPath = def.MaxPath
	}
	if limits.MaxBody <= 0 {
		limits.MaxBody = def.MaxBody
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(r.Header.Get("Authorization")) > limits.MaxAuthHeader {
				respond.Fail(w, http.StatusBadRequest, "Authorization header too large")
				return
			}
			if len(r.URL.Path) > limits.MaxPath {
				respond.Fail(w, http.StatusRequestURITooLong, "URI too long")
				return
			}
			if r.ContentLength > limits.MaxBody {
				respond.Fail(w, http.StatusRequestEntityTooLarge, "Request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limits.MaxBody)
			next.ServeHTTP(w, r)
		})
	}
}
