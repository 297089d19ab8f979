package avatar

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultMaxImageBytes is the largest avatar accepted (5 MiB).
	DefaultMaxImageBytes int64 = 5 * 1024 * 1024

	// DefaultTimeout bounds the live probe.
	DefaultTimeout = 5000 * time.Millisecond

	// DefaultUserAgent identifies the validator to image hosts.
	DefaultUserAgent = "OpenSox-Avatar-Validator/1.0"

	// DefaultMaxRedirects caps redirects followed by the probe.
	DefaultMaxRedirects = 5
)

// Config holds the avatar admission policy.
//
// Security settings:
//   - AllowedHosts: image hosts (and their subdomains) accepted as avatar sources
//   - GuardResolvedAddrs: refuse to connect when a trusted name resolves to a private address
//   - MaxRedirects: redirect cap for the live probe
//
// Limits:
//   - MaxImageBytes: declared content-length ceiling
//   - Timeout: upper bound for the live probe, including redirects
type Config struct {
	AllowedHosts []string `yaml:"allowed_hosts"`

	// MaxImageBytes rejects responses whose content-length exceeds it.
	// Default: 5242880 (5MB)
	MaxImageBytes int64 `yaml:"max_image_bytes"`

	// Timeout bounds the HEAD probe. The caller's context can only shorten it.
	// Default: 5s
	Timeout time.Duration `yaml:"timeout"`

	UserAgent string `yaml:"user_agent"`

	// MaxRedirects bounds redirects followed by the probe.
	// Default: 5
	MaxRedirects int `yaml:"max_redirects"`

	// GuardResolvedAddrs re-checks every resolved address at dial time.
	// Without it a trusted name that resolves into a private range
	// (DNS rebinding) would still be probed.
	// Default: true
	GuardResolvedAddrs bool `yaml:"guard_resolved_addrs"`
}

// DefaultConfig returns the production avatar policy.
func DefaultConfig() Config {
	hosts := make([]string, len(DefaultAllowedHosts))
	copy(hosts, DefaultAllowedHosts)
	return Config{
		AllowedHosts:       hosts,
		MaxImageBytes:      DefaultMaxImageBytes,
		Timeout:            DefaultTimeout,
		UserAgent:          DefaultUserAgent,
		MaxRedirects:       DefaultMaxRedirects,
		GuardResolvedAddrs: true,
	}
}

// Validate checks the policy for values that would make the pipeline unsafe
// or useless.
//
// Validation rules:
//   - AllowedHosts: at least one well-formed host
//   - MaxImageBytes: 1KB-50MB
//   - Timeout: 100ms-60s
//   - MaxRedirects: 0-10
//   - UserAgent: non-empty
func (c *Config) Validate() error {
	if len(c.AllowedHosts) == 0 {
		return fmt.Errorf("allowed hosts must not be empty")
	}
	for _, h := range c.AllowedHosts {
		if !isWellFormedHost(strings.ToLower(strings.TrimSpace(h))) {
			return fmt.Errorf("allowed host %q is not a valid hostname", h)
		}
	}

	minBytes := int64(1024)
	maxBytes := int64(50 * 1024 * 1024)
	if c.MaxImageBytes < minBytes || c.MaxImageBytes > maxBytes {
		return fmt.Errorf("max image bytes must be between %d and %d, got %d", minBytes, maxBytes, c.MaxImageBytes)
	}

	if c.Timeout < 100*time.Millisecond || c.Timeout > time.Minute {
		return fmt.Errorf("timeout must be between 100ms and 1m, got %v", c.Timeout)
	}

	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}

	if strings.TrimSpace(c.UserAgent) == "" {
		return fmt.Errorf("user agent must not be empty")
	}

	return nil
}

// LoadConfigFromEnv loads the avatar policy. When AVATAR_CONFIG_FILE is set
// the YAML file is applied first; environment variables override it.
//
// Environment variables:
//   - AVATAR_CONFIG_FILE: path to a YAML policy file
//   - AVATAR_ALLOWED_HOSTS: comma-separated hosts
//   - AVATAR_MAX_IMAGE_BYTES: integer in bytes (default: 5242880)
//   - AVATAR_PROBE_TIMEOUT: duration string, e.g. "5s" (default: 5s)
//   - AVATAR_USER_AGENT: string (default: OpenSox-Avatar-Validator/1.0)
//   - AVATAR_MAX_REDIRECTS: integer (default: 5)
//   - AVATAR_GUARD_RESOLVED_ADDRS: "true" or "false" (default: true)
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("AVATAR_CONFIG_FILE"); path != "" {
		fileCfg, err := LoadConfigFile(path)
		if err != nil {
			return cfg, err
		}
		cfg = fileCfg
	}

	if val := os.Getenv("AVATAR_ALLOWED_HOSTS"); val != "" {
		var hosts []string
		for _, h := range strings.Split(val, ",") {
			if h = strings.TrimSpace(h); h != "" {
				hosts = append(hosts, h)
			}
		}
		cfg.AllowedHosts = hosts
	}

	if val := os.Getenv("AVATAR_MAX_IMAGE_BYTES"); val != "" {
		parsed, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid AVATAR_MAX_IMAGE_BYTES: %v", err)
		}
		cfg.MaxImageBytes = parsed
	}

	if val := os.Getenv("AVATAR_PROBE_TIMEOUT"); val != "" {
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid AVATAR_PROBE_TIMEOUT: %v (expected format: '5s', '1500ms')", err)
		}
		cfg.Timeout = parsed
	}

	if val := os.Getenv("AVATAR_USER_AGENT"); val != "" {
		cfg.UserAgent = val
	}

	if val := os.Getenv("AVATAR_MAX_REDIRECTS"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid AVATAR_MAX_REDIRECTS: %v", err)
		}
		cfg.MaxRedirects = parsed
	}

	if val := os.Getenv("AVATAR_GUARD_RESOLVED_ADDRS"); val != "" {
		cfg.GuardResolvedAddrs = val == "true"
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("avatar configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigFile reads a YAML policy file. Fields missing from the file keep
// their defaults.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	// #nosec G304 -- path comes from deployment configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read avatar config file: %w", err)
	}

	var doc struct {
		Avatar Config `yaml:"avatar"`
	}
	doc.Avatar = cfg
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return cfg, fmt.Errorf("failed to parse avatar config file: %w", err)
	}
	return doc.Avatar, nil
}
