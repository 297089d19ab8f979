package middleware

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"opensox-api/internal/pkg/config"
)

var validMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true, "PATCH": true, "OPTIONS": true,
}

// LoadCORSConfig reads CORS_ALLOWED_ORIGINS, CORS_ALLOWED_METHODS,
// CORS_ALLOWED_HEADERS and CORS_MAX_AGE. Origins default to the local web
// app. Malformed origins or methods are errors.
func LoadCORSConfig() (CORSConfig, error) {
	origins := config.LoadEnvStringList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"})
	for _, o := range origins {
		if err := validateOrigin(o); err != nil {
			return CORSConfig{}, err
		}
	}

	methods := config.LoadEnvStringList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "OPTIONS"})
	for i, m := range methods {
		m = strings.ToUpper(m)
		if !validMethods[m] {
			return CORSConfig{}, fmt.Errorf("invalid HTTP method '%s' in CORS_ALLOWED_METHODS", m)
		}
		methods[i] = m
	}

	maxAge := config.LoadEnvInt("CORS_MAX_AGE", 86400, func(v int) error {
		if v < 0 {
			return errors.New("must be non-negative")
		}
		return nil
	})

	return CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: methods,
		AllowedHeaders: config.LoadEnvStringList("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization", "X-Request-ID"}),
		MaxAge:         maxAge.Value,
	}, nil
}

func validateOrigin(o string) error {
	u, err := url.Parse(o)
	if err != nil {
		return fmt.Errorf("invalid origin URL '%s': %w", o, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("origin must use http or https scheme: %s", o)
	}
	if u.Host == "" {
		return fmt.Errorf("origin must include a host: %s", o)
	}
	if (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("origin must not include path, query or fragment: %s", o)
	}
	return nil
}
