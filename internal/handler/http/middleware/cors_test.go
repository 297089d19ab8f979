package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corsHandler() http.Handler {
	return CORS(CORSConfig{
		AllowedOrigins: []string{"https://opensox.ai", "http://localhost:3000/"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         600,
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestCORS_AllowedOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/testimonials", nil)
	req.Header.Set("Origin", "https://opensox.ai")
	rec := httptest.NewRecorder()
	corsHandler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://opensox.ai", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))
}

func TestCORS_DisallowedOriginGetsNoHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/testimonials", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	corsHandler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_NoOrigin(t *testing.T) {
	rec := httptest.NewRecorder()
	corsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, rec.Header().Get("Vary"))
}

func TestCORS_Preflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/testimonials", nil)
	req.Header.Set("Origin", "http://LOCALHOST:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	corsHandler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET, POST, PUT, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
}

func TestLoadCORSConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadCORSConfig()
		require.NoError(t, err)
		assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
		assert.Equal(t, 86400, cfg.MaxAge)
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://opensox.ai, https://www.opensox.ai")
		t.Setenv("CORS_ALLOWED_METHODS", "get,post")
		cfg, err := LoadCORSConfig()
		require.NoError(t, err)
		assert.Equal(t, []string{"https://opensox.ai", "https://www.opensox.ai"}, cfg.AllowedOrigins)
		assert.Equal(t, []string{"GET", "POST"}, cfg.AllowedMethods)
	})

	for _, bad := range []string{"ftp://opensox.ai", "https://", "https://opensox.ai/path"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			t.Setenv("CORS_ALLOWED_ORIGINS", bad)
			_, err := LoadCORSConfig()
			assert.Error(t, err)
		})
	}

	t.Run("rejects method", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_METHODS", "TRACE")
		_, err := LoadCORSConfig()
		assert.Error(t, err)
	})
}
