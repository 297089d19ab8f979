// Package config loads typed values from environment variables. Invalid
// values never fail the load: the default is used and a warning is returned
// so the caller can log it and record a fallback metric.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Result is the outcome of loading one environment variable.
//
// Example:
//
//	res := LoadEnvDuration("NEWSLETTER_CACHE_TTL", 10*time.Minute, ValidatePositiveDuration)
//	for _, w := range res.Warnings {
//	    slog.Warn("configuration fallback", slog.String("warning", w))
//	}
//	ttl := res.Value
type Result[T any] struct {
	Key             string
	Value           T
	Warnings        []string
	FallbackApplied bool
}

// load reads key, parses it and validates it. Unset or empty variables yield
// the default without a warning.
func load[T any](key string, def T, parse func(string) (T, error), validate func(T) error) Result[T] {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return Result[T]{Key: key, Value: def}
	}

	v, err := parse(raw)
	if err == nil && validate != nil {
		err = validate(v)
	}
	if err != nil {
		return Result[T]{
			Key:             key,
			Value:           def,
			Warnings:        []string{fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%v'", key, raw, err, def)},
			FallbackApplied: true,
		}
	}
	return Result[T]{Key: key, Value: v}
}

// LoadEnvString returns the variable or def when it is unset.
func LoadEnvString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// LoadEnvWithFallback loads a string checked by validator.
func LoadEnvWithFallback(key, def string, validator func(string) error) Result[string] {
	return load(key, def, func(s string) (string, error) { return s, nil }, validator)
}

// LoadEnvDuration loads a Go duration string such as "30s" or "1h30m".
func LoadEnvDuration(key string, def time.Duration, validator func(time.Duration) error) Result[time.Duration] {
	return load(key, def, time.ParseDuration, validator)
}

// LoadEnvInt loads a base-10 integer.
func LoadEnvInt(key string, def int, validator func(int) error) Result[int] {
	return load(key, def, strconv.Atoi, validator)
}

// LoadEnvInt64 loads a base-10 64-bit integer.
func LoadEnvInt64(key string, def int64, validator func(int64) error) Result[int64] {
	return load(key, def, func(s string) (int64, error) {
		return strconv.ParseInt(s, 10, 64)
	}, validator)
}

// LoadEnvBool loads a boolean in any form strconv.ParseBool accepts.
func LoadEnvBool(key string, def bool) Result[bool] {
	return load(key, def, func(s string) (bool, error) {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return false, fmt.Errorf("invalid boolean format, expected 'true' or 'false'")
		}
		return b, nil
	}, nil)
}

// LoadEnvStringList loads a comma-separated list, trimming entries and
// dropping empty ones. An empty result falls back to def.
func LoadEnvStringList(key string, def []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	out := make([]string, 0, strings.Count(raw, ",")+1)
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// Warnings collects the warnings of several results.
func Warnings(results ...Observed) []string {
	var out []string
	for _, r := range results {
		_, ws, _ := r.observed()
		out = append(out, ws...)
	}
	return out
}
