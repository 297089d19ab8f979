package middleware

import (
	"net/http"
	"strings"

	"opensox-api/internal/pkg/config"
)

// Policy is an ordered Content-Security-Policy.
//
//	p := NewPolicy().Directive("default-src", "'none'").Directive("frame-ancestors", "'none'")
//	p.String() // "default-src 'none'; frame-ancestors 'none'"
type Policy struct {
	names   []string
	sources map[string][]string
}

// NewPolicy returns an empty policy.
func NewPolicy() *Policy {
	return &Policy{sources: make(map[string][]string)}
}

// Directive sets name to sources, replacing earlier values but keeping the
// directive's original position.
func (p *Policy) Directive(name string, sources ...string) *Policy {
	if _, ok := p.sources[name]; !ok {
		p.names = append(p.names, name)
	}
	p.sources[name] = sources
	return p
}

func (p *Policy) String() string {
	parts := make([]string, 0, len(p.names))
	for _, name := range p.names {
		if src := p.sources[name]; len(src) > 0 {
			parts = append(parts, name+" "+strings.Join(src, " "))
		}
	}
	return strings.Join(parts, "; ")
}

// APIPolicy suits JSON endpoints that never render HTML.
func APIPolicy() *Policy {
	return NewPolicy().
		Directive("default-src", "'none'").
		Directive("connect-src", "'self'").
		Directive("frame-ancestors", "'none'").
		Directive("base-uri", "'self'").
		Directive("form-action", "'self'")
}

// SwaggerPolicy allows what the bundled Swagger UI needs: inline scripts and
// styles, data: images and blob: loading of the OpenAPI document.
func SwaggerPolicy() *Policy {
	return NewPolicy().
		Directive("default-src", "'self'").
		Directive("script-src", "'self'", "'unsafe-inline'").
		Directive("style-src", "'self'", "'unsafe-inline'").
		Directive("img-src", "'self'", "data:", "https:").
		Directive("font-src", "'self'", "data:").
		Directive("connect-src", "'self'", "blob:").
		Directive("frame-ancestors", "'none'").
		Directive("object-src", "'none'")
}

// SecurityHeadersConfig controls SecurityHeaders.
type SecurityHeadersConfig struct {
	// CSPEnabled adds a Content-Security-Policy header.
	CSPEnabled bool
	// ReportOnly sends the policy as Content-Security-Policy-Report-Only.
	ReportOnly bool
	// Default applies when no PathPolicies prefix matches.
	Default *Policy
	// PathPolicies maps a path prefix to its policy. The longest prefix wins.
	PathPolicies map[string]*Policy
}

// LoadSecurityHeadersConfig reads CSP_ENABLED (default true) and
// CSP_REPORT_ONLY (default false). Swagger UI gets its own policy.
func LoadSecurityHeadersConfig() (SecurityHeadersConfig, []config.Observed) {
	enabled := config.LoadEnvBool("CSP_ENABLED", true)
	reportOnly := config.LoadEnvBool("CSP_REPORT_ONLY", false)
	return SecurityHeadersConfig{
		CSPEnabled:   enabled.Value,
		ReportOnly:   reportOnly.Value,
		Default:      APIPolicy(),
		PathPolicies: map[string]*Policy{"/swagger/": SwaggerPolicy()},
	}, []config.Observed{enabled, reportOnly}
}

// SecurityHeaders sets nosniff, frame denial and referrer headers on every
// response, plus the CSP chosen for the request path.
func SecurityHeaders(cfg SecurityHeadersConfig) func(http.Handler) http.Handler {
	header := "Content-Security-Policy"
	if cfg.ReportOnly {
		header = "Content-Security-Policy-Report-Only"
	}

	rendered := make(map[string]string, len(cfg.PathPolicies))
	for prefix, p := range cfg.PathPolicies {
		rendered[prefix] = p.String()
	}
	def := ""
	if cfg.Default != nil {
		def = cfg.Default.String()
	}

	pick := func(path string) string {
		best, policy := -1, def
		for prefix, p := range rendered {
			if strings.HasPrefix(path, prefix) && len(prefix) > best {
				best, policy = len(prefix), p
			}
		}
		return policy
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if cfg.CSPEnabled {
				if p := pick(r.URL.Path); p != "" {
					h.Set(header, p)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
