package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opensox-api/internal/domain/entity"
	"opensox-api/internal/handler/http/respond"
)

const testSecret = "test-secret-key-at-least-32-characters-long-for-testing"

/*────────────────────  ヘルパ  ────────────────────*/

// echoUser writes the authenticated user ID.
func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(UserID(r.Context())))
	})
}

func signWith(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func call(h http.Handler, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/testimonials/me", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) respond.ErrorBody {
	t.Helper()
	var b respond.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	return b
}

type stubUsers struct {
	users map[string]*entity.User
	err   error
}

func (s stubUsers) Get(_ context.Context, id string) (*entity.User, error) {
	return s.users[id], s.err
}

/*────────────────────  テスト  ────────────────────*/

func TestRequire_ValidToken(t *testing.T) {
	token, err := Sign(testSecret, "user-1", time.Hour)
	require.NoError(t, err)

	w := call(NewAuthenticator(testSecret).Require(echoUser()), "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", w.Body.String())
}

func TestRequire_MissingOrMalformedHeader(t *testing.T) {
	h := NewAuthenticator(testSecret).Require(echoUser())

	for _, header := range []string{"", "Basic dXNlcjpwYXNz", "Bearer", "Bearer   ", "bearer abc"} {
		t.Run(header, func(t *testing.T) {
			w := call(h, header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, respond.ErrorBody{Error: MsgMissingHeader, Code: respond.CodeUnauthorized}, errorBody(t, w))
		})
	}
}

func TestRequire_InvalidTokens(t *testing.T) {
	now := time.Now()
	valid := jwt.RegisteredClaims{Subject: "user-1", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"wrong secret", signWith(t, jwt.SigningMethodHS256, []byte("another-secret-key-that-is-long-enough-xx"), valid)},
		{"expired", signWith(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
			Subject: "user-1", ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
		})},
		{"no expiry", signWith(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{Subject: "user-1"})},
		{"no subject", signWith(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		})},
		{"hs512", signWith(t, jwt.SigningMethodHS512, []byte(testSecret), valid)},
		{"alg none", signWith(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid)},
	}

	h := NewAuthenticator(testSecret).Require(echoUser())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(h, "Bearer "+tt.token)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, MsgInvalidToken, errorBody(t, w).Error)
		})
	}
}

func TestRequire_ClockOverride(t *testing.T) {
	token, err := Sign(testSecret, "user-1", time.Hour)
	require.NoError(t, err)

	later := func() time.Time { return time.Now().Add(2 * time.Hour) }
	w := call(NewAuthenticator(testSecret, WithClock(later)).Require(echoUser()), "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequire_UserLookup(t *testing.T) {
	users := stubUsers{users: map[string]*entity.User{"user-1": {ID: "user-1"}}}
	h := NewAuthenticator(testSecret, WithUserLookup(users)).Require(echoUser())

	known, _ := Sign(testSecret, "user-1", time.Hour)
	unknown, _ := Sign(testSecret, "ghost", time.Hour)

	assert.Equal(t, http.StatusOK, call(h, "Bearer "+known).Code)
	assert.Equal(t, http.StatusUnauthorized, call(h, "Bearer "+unknown).Code)

	broken := NewAuthenticator(testSecret, WithUserLookup(stubUsers{err: errors.New("db down")})).Require(echoUser())
	assert.Equal(t, http.StatusUnauthorized, call(broken, "Bearer "+known).Code)
}

func TestUserID_Empty(t *testing.T) {
	assert.Empty(t, UserID(context.Background()))
	assert.Equal(t, "u", UserID(WithUserID(context.Background(), "u")))
}
