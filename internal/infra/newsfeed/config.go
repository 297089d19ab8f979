package newsfeed

import (
	"errors"
	"fmt"
	"time"

	"opensox-api/internal/pkg/config"
)

// Config controls the newsletter feed reader and the readability fallback.
type Config struct {
	// FeedURL is the RSS or Atom feed of published newsletters.
	FeedURL string

	// FeedTimeout bounds one feed download.
	// Default: 10s
	FeedTimeout time.Duration

	// CacheTTL is how long the parsed feed is reused.
	// Default: 10m
	CacheTTL time.Duration

	// ContentFetchEnabled turns on the readability fallback for items that
	// carry no body.
	// Default: true
	ContentFetchEnabled bool

	// ContentTimeout bounds one page download.
	// Default: 10s
	ContentTimeout time.Duration

	// MaxBodySize caps the bytes read from a page.
	// Default: 10MB
	MaxBodySize int64

	// MaxRedirects caps redirects per page fetch.
	// Default: 5
	MaxRedirects int

	// DenyPrivateIPs rejects URLs resolving to private, loopback or
	// link-local addresses. Keep true in production.
	// Default: true
	DenyPrivateIPs bool

	UserAgent string
}

// DefaultConfig returns the production defaults. FeedURL has no default.
func DefaultConfig() Config {
	return Config{
		FeedTimeout:         10 * time.Second,
		CacheTTL:            10 * time.Minute,
		ContentFetchEnabled: true,
		ContentTimeout:      10 * time.Second,
		MaxBodySize:         10 * 1024 * 1024,
		MaxRedirects:        5,
		DenyPrivateIPs:      true,
		UserAgent:           "OpenSoxNewsletterBot/1.0",
	}
}

// ErrFeedURLRequired is returned by Validate when no feed is configured.
var ErrFeedURLRequired = errors.New("NEWSLETTER_FEED_URL is required")

// Validate checks the configuration before use.
func (c *Config) Validate() error {
	if c.FeedURL == "" {
		return ErrFeedURLRequired
	}
	if err := config.ValidateAbsoluteURL(c.FeedURL); err != nil {
		return fmt.Errorf("feed url: %w", err)
	}
	if err := config.ValidateDuration(c.FeedTimeout, time.Second, 2*time.Minute); err != nil {
		return fmt.Errorf("feed timeout: %w", err)
	}
	if err := config.ValidatePositiveDuration(c.CacheTTL); err != nil {
		return fmt.Errorf("cache ttl: %w", err)
	}
	if err := config.ValidateDuration(c.ContentTimeout, time.Second, 2*time.Minute); err != nil {
		return fmt.Errorf("content timeout: %w", err)
	}
	if c.MaxBodySize < 1024 || c.MaxBodySize > 100*1024*1024 {
		return fmt.Errorf("max body size must be between 1KB and 100MB, got %d", c.MaxBodySize)
	}
	if err := config.ValidateIntRange(c.MaxRedirects, 0, 10); err != nil {
		return fmt.Errorf("max redirects: %w", err)
	}
	return nil
}

// LoadConfigFromEnv reads NEWSLETTER_* and CONTENT_FETCH_* variables on top
// of DefaultConfig. Invalid values fall back to defaults; the results are
// returned so the caller can report them.
func LoadConfigFromEnv() (Config, []config.Observed) {
	cfg := DefaultConfig()
	cfg.FeedURL = config.LoadEnvString("NEWSLETTER_FEED_URL", "")

	feedTimeout := config.LoadEnvDuration("NEWSLETTER_FEED_TIMEOUT", cfg.FeedTimeout, config.ValidatePositiveDuration)
	cacheTTL := config.LoadEnvDuration("NEWSLETTER_CACHE_TTL", cfg.CacheTTL, config.ValidatePositiveDuration)
	enabled := config.LoadEnvBool("CONTENT_FETCH_ENABLED", cfg.ContentFetchEnabled)
	contentTimeout := config.LoadEnvDuration("CONTENT_FETCH_TIMEOUT", cfg.ContentTimeout, config.ValidatePositiveDuration)
	maxBody := config.LoadEnvInt64("CONTENT_FETCH_MAX_BODY_SIZE", cfg.MaxBodySize, func(v int64) error {
		if v <= 0 {
			return errors.New("must be positive")
		}
		return nil
	})
	maxRedirects := config.LoadEnvInt("CONTENT_FETCH_MAX_REDIRECTS", cfg.MaxRedirects, func(v int) error {
		return config.ValidateIntRange(v, 0, 10)
	})
	denyPrivate := config.LoadEnvBool("CONTENT_FETCH_DENY_PRIVATE_IPS", cfg.DenyPrivateIPs)

	cfg.FeedTimeout = feedTimeout.Value
	cfg.CacheTTL = cacheTTL.Value
	cfg.ContentFetchEnabled = enabled.Value
	cfg.ContentTimeout = contentTimeout.Value
	cfg.MaxBodySize = maxBody.Value
	cfg.MaxRedirects = maxRedirects.Value
	cfg.DenyPrivateIPs = denyPrivate.Value

	return cfg, []config.Observed{feedTimeout, cacheTTL, enabled, contentTimeout, maxBody, maxRedirects, denyPrivate}
}
