package testimonial

import (
	"net/http"

	"opensox-api/internal/handler/http/auth"
)

// Register mounts the testimonial routes. Writes go through authn and then
// limit, which keys on the authenticated user.
func Register(mux *http.ServeMux, svc Service, authn *auth.Authenticator, limit func(http.Handler) http.Handler) {
	if limit == nil {
		limit = func(h http.Handler) http.Handler { return h }
	}

	mux.Handle("GET /testimonials", ListHandler{svc})
	mux.Handle("GET /testimonials/me", authn.Require(MineHandler{svc}))
	mux.Handle("POST /testimonials", authn.Require(limit(SubmitHandler{svc})))
	mux.Handle("POST /testimonials/avatar/check", authn.Require(limit(AvatarCheckHandler{svc})))
}
