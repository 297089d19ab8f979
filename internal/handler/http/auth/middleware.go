// Package auth authenticates API callers by HS256 bearer tokens. The token
// subject is the user ID.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"opensox-api/internal/domain/entity"
	"opensox-api/internal/handler/http/requestid"
	"opensox-api/internal/handler/http/respond"
	"opensox-api/internal/observability/metrics"
)

// Messages returned with 401 responses.
const (
	MsgMissingHeader = "Missing or invalid authorization header"
	MsgInvalidToken  = "Invalid or expired token"
)

type ctxKey struct{}

var (
	errUnexpectedAlg = errors.New("unexpected signing method")
	errNoSubject     = errors.New("token has no subject")
	errUnknownUser   = errors.New("token subject is not a known user")
)

// UserGetter loads a user by ID. The user repository implements it.
type UserGetter interface {
	Get(ctx context.Context, id string) (*entity.User, error)
}

// Authenticator validates bearer tokens.
type Authenticator struct {
	secret []byte
	users  UserGetter
	now    func() time.Time
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithUserLookup makes the authenticator reject tokens whose subject does
// not exist.
func WithUserLookup(users UserGetter) Option {
	return func(a *Authenticator) { a.users = users }
}

// WithClock overrides the clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) { a.now = now }
}

// NewAuthenticator creates an Authenticator for the given HMAC secret.
func NewAuthenticator(secret string, opts ...Option) *Authenticator {
	a := &Authenticator{secret: []byte(secret), now: time.Now}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Require rejects requests without a valid bearer token and stores the
// token subject in the request context.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := slog.With(slog.String("request_id", requestid.FromContext(r.Context())))

		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) || strings.TrimSpace(header[len(prefix):]) == "" {
			metrics.RecordAuthFailure("missing_header")
			respond.Fail(w, http.StatusUnauthorized, MsgMissingHeader)
			return
		}

		userID, err := a.Verify(r.Context(), strings.TrimSpace(header[len(prefix):]))
		if err != nil {
			metrics.RecordAuthFailure("invalid_token")
			logger.Warn("authentication failed",
				slog.String("path", r.URL.Path),
				slog.String("error", respond.SanitizeError(err)))
			respond.Fail(w, http.StatusUnauthorized, MsgInvalidToken)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// Verify checks the signature, expiry and subject of token and returns the
// subject.
func (a *Authenticator) Verify(ctx context.Context, token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errUnexpectedAlg
		}
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", errNoSubject
	}

	if a.users != nil {
		u, err := a.users.Get(ctx, claims.Subject)
		if err != nil {
			return "", err
		}
		if u == nil {
			return "", errUnknownUser
		}
	}
	return claims.Subject, nil
}

// WithUserID stores the authenticated user ID in ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID returns the authenticated user ID, or "" outside Require.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
