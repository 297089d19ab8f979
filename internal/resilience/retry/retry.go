// Package retry provides retry logic with exponential backoff and jitter.
// It helps handle transient failures gracefully by automatically retrying failed operations.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// retryAttemptsTotal counts retries (not first attempts) per operation.
var retryAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "retry_attempts_total",
		Help: "Total number of retried operations by operation name",
	},
	[]string{"operation"},
)

// Config holds the configuration for retry logic.
type Config struct {
	// Operation names the retried call in logs and metrics.
	Operation string

	// MaxAttempts is the maximum number of attempts, including the first one
	MaxAttempts int

	// InitialDelay is the delay before the first retry
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries
	MaxDelay time.Duration

	// Multiplier is the multiplier for exponential backoff
	Multiplier float64

	// JitterFraction is the fraction of delay to add as random jitter (0.0 to 1.0)
	JitterFraction float64

	// Retryable decides whether an error is worth another attempt.
	// nil means IsRetryable.
	Retryable func(error) bool
}

// DefaultConfig returns a default retry configuration.
func DefaultConfig() Config {
	return Config{
		Operation:      "operation",
		MaxAttempts:    3,
		InitialDelay:   1 * time.Second,
		MaxDelay:       30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// FeedFetchConfig returns configuration for fetching the newsletter feed.
func FeedFetchConfig() Config {
	return Config{
		Operation:      "feed fetch",
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// DBConfig returns configuration for database reads: three retries after the
// first attempt, starting at 100ms and doubling. Only transient connection
// failures are retried.
func DBConfig(operation string) Config {
	return Config{
		Operation:      operation,
		MaxAttempts:    4,
		InitialDelay:   100 * time.Millisecond,
		MaxDelay:       1 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Retryable:      IsTransientDBError,
	}
}

// WithBackoff executes the given function with retry logic and exponential backoff.
// It returns nil if the function succeeds, or the last error if all attempts fail.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	_, err := Do(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// Do is WithBackoff for functions that return a value.
//
// Example:
//
//	sub, err := retry.Do(ctx, retry.DBConfig("subscription check"), func() (*entity.Subscription, error) {
//	    return repo.GetActive(ctx, userID, now)
//	})
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)
	retryable := cfg.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		v, err := fn()
		if err == nil {
			if attempt > 1 {
				slog.Info("operation succeeded after retry",
					slog.String("operation", cfg.Operation),
					slog.Int("attempt", attempt))
			}
			return v, nil
		}
		lastErr = err

		if !retryable(err) {
			if attempt > 1 {
				slog.Warn("non-retryable error, aborting",
					slog.String("operation", cfg.Operation),
					slog.Int("attempt", attempt),
					slog.Any("error", err))
			}
			return zero, err
		}

		// Don't wait after last attempt
		if attempt == maxAttempts {
			break
		}

		slog.Warn("operation failed, retrying",
			slog.String("operation", cfg.Operation),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxAttempts),
			slog.Duration("delay", delay),
			slog.Any("error", err))
		retryAttemptsTotal.WithLabelValues(cfg.Operation).Inc()

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("retry aborted: %w", ctx.Err())
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}

		// Add jitter to prevent thundering herd
		delay = addJitter(delay, cfg.JitterFraction)
	}

	slog.Error("operation failed after all retries",
		slog.String("operation", cfg.Operation),
		slog.Int("max_attempts", maxAttempts),
		slog.Any("error", lastErr))
	return zero, fmt.Errorf("max retry attempts (%d) exceeded: %w", maxAttempts, lastErr)
}

// IsRetryable determines if a network or HTTP error is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are not retryable
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Network errors (timeout)
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// Syscall errors
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	// HTTP status codes
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		// 5xx server errors are retryable
		if httpErr.StatusCode >= 500 && httpErr.StatusCode < 600 {
			return true
		}
		if httpErr.StatusCode == http.StatusTooManyRequests ||
			httpErr.StatusCode == http.StatusRequestTimeout {
			return true
		}
	}

	return false
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// addJitter adds random jitter to a duration to prevent thundering herd.
func addJitter(duration time.Duration, jitterFraction float64) time.Duration {
	if jitterFraction <= 0 {
		return duration
	}
	if jitterFraction > 1.0 {
		jitterFraction = 1.0
	}
	// #nosec G404 -- Using math/rand is acceptable for jitter calculation.
	jitter := time.Duration(rand.Float64() * float64(duration) * jitterFraction)
	return duration + jitter
}
