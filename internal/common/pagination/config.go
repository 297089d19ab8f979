// Package pagination holds the page/limit envelope shared by list endpoints.
package pagination

import (
	"opensox-api/internal/pkg/config"
)

// Config holds pagination settings for one endpoint.
type Config struct {
	DefaultPage  int // usually 1
	DefaultLimit int // items per page when ?limit is absent
	MaxLimit     int // upper bound for ?limit
}

// DefaultConfig returns page=1, limit=5, max=50, the newsletter reader's
// page size.
func DefaultConfig() Config {
	return Config{
		DefaultPage:  1,
		DefaultLimit: 5,
		MaxLimit:     50,
	}
}

// LoadFromEnv reads PAGINATION_DEFAULT_LIMIT and PAGINATION_MAX_LIMIT on top
// of DefaultConfig. Out-of-range values fall back to the defaults.
func LoadFromEnv() (Config, []config.Observed) {
	cfg := DefaultConfig()
	maxLimit := config.LoadEnvInt("PAGINATION_MAX_LIMIT", cfg.MaxLimit, func(v int) error {
		return config.ValidateIntRange(v, 1, 500)
	})
	defLimit := config.LoadEnvInt("PAGINATION_DEFAULT_LIMIT", cfg.DefaultLimit, func(v int) error {
		return config.ValidateIntRange(v, 1, maxLimit.Value)
	})
	cfg.MaxLimit = maxLimit.Value
	cfg.DefaultLimit = defLimit.Value
	return cfg, []config.Observed{maxLimit, defLimit}
}
