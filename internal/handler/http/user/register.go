package user

import (
	"net/http"

	"opensox-api/internal/handler/http/auth"
)

// Register mounts the user routes.
func Register(mux *http.ServeMux, svc Service, authn *auth.Authenticator) {
	mux.Handle("GET /users/count", CountHandler{svc})
	mux.Handle("GET /users/me/subscription", authn.Require(SubscriptionHandler{svc}))
	mux.Handle("GET /users/me/steps", authn.Require(GetStepsHandler{svc}))
	mux.Handle("PUT /users/me/steps", authn.Require(UpdateStepsHandler{svc}))
}
