package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_KeepsDirectiveOrder(t *testing.T) {
	p := NewPolicy().
		Directive("default-src", "'self'").
		Directive("img-src", "data:").
		Directive("default-src", "'none'").
		Directive("object-src")

	assert.Equal(t, "default-src 'none'; img-src data:", p.String())
}

func serveWithHeaders(cfg SecurityHeadersConfig, path string) http.Header {
	h := SecurityHeaders(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Header()
}

func TestSecurityHeaders(t *testing.T) {
	cfg := SecurityHeadersConfig{
		CSPEnabled:   true,
		Default:      APIPolicy(),
		PathPolicies: map[string]*Policy{"/swagger/": SwaggerPolicy()},
	}

	api := serveWithHeaders(cfg, "/testimonials")
	assert.Equal(t, "nosniff", api.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", api.Get("X-Frame-Options"))
	assert.Equal(t, APIPolicy().String(), api.Get("Content-Security-Policy"))

	docs := serveWithHeaders(cfg, "/swagger/index.html")
	assert.Equal(t, SwaggerPolicy().String(), docs.Get("Content-Security-Policy"))
}

func TestSecurityHeaders_ReportOnlyAndDisabled(t *testing.T) {
	h := serveWithHeaders(SecurityHeadersConfig{CSPEnabled: true, ReportOnly: true, Default: APIPolicy()}, "/")
	assert.Empty(t, h.Get("Content-Security-Policy"))
	assert.NotEmpty(t, h.Get("Content-Security-Policy-Report-Only"))

	h = serveWithHeaders(SecurityHeadersConfig{CSPEnabled: false, Default: APIPolicy()}, "/")
	assert.Empty(t, h.Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
}

func TestLoadSecurityHeadersConfig(t *testing.T) {
	t.Setenv("CSP_REPORT_ONLY", "true")
	cfg, _ := LoadSecurityHeadersConfig()
	assert.True(t, cfg.CSPEnabled)
	assert.True(t, cfg.ReportOnly)
	assert.Contains(t, cfg.PathPolicies, "/swagger/")
}
