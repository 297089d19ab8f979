package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"opensox-api/internal/handler/http/respond"
	"opensox-api/internal/observability/metrics"
	"opensox-api/internal/pkg/config"
)

// RateLimitConfig configures a token-bucket limiter keyed per caller.
type RateLimitConfig struct {
	// Name labels metrics and logs.
	Name string

	// Requests are allowed per Window on average.
	// Default: 5 per minute
	Requests int
	Window   time.Duration

	// Burst is the bucket size.
	// Default: Requests
	Burst int

	// IdleTTL drops buckets not used for this long.
	// Default: 10m
	IdleTTL time.Duration
}

// LoadRateLimitConfig reads RATE_LIMIT_SUBMIT_REQUESTS and
// RATE_LIMIT_SUBMIT_WINDOW.
func LoadRateLimitConfig(name string) (RateLimitConfig, []config.Observed) {
	requests := config.LoadEnvInt("RATE_LIMIT_SUBMIT_REQUESTS", 5, func(v int) error {
		return config.ValidateIntRange(v, 1, 10000)
	})
	window := config.LoadEnvDuration("RATE_LIMIT_SUBMIT_WINDOW", time.Minute, config.ValidatePositiveDuration)
	return RateLimitConfig{
		Name:     name,
		Requests: requests.Value,
		Window:   window.Value,
	}, []config.Observed{requests, window}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// UserRateLimiter keeps one token bucket per key. Requests without a key
// pass through; the limiter sits behind authentication.
type UserRateLimiter struct {
	cfg   RateLimitConfig
	key   func(*http.Request) string
	limit rate.Limit
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewUserRateLimiter creates a limiter. key extracts the caller identity
// from a request.
func NewUserRateLimiter(cfg RateLimitConfig, key func(*http.Request) string) *UserRateLimiter {
	if cfg.Requests <= 0 {
		cfg.Requests = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.Requests
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	return &UserRateLimiter{
		cfg:     cfg,
		key:     key,
		limit:   rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds()),
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Allow takes one token from key's bucket. When the bucket is empty it
// returns false and the wait until the next token.
func (l *UserRateLimiter) Allow(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.cfg.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, l.cfg.Window
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, d
	}
	return true, 0
}

// Middleware answers 429 with Retry-After once a caller exhausts its bucket.
func (l *UserRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := l.key(r)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		ok, wait := l.Allow(key)
		if !ok {
			metrics.RecordRateLimited(l.cfg.Name)
			slog.Warn("rate limit exceeded",
				slog.String("limiter", l.cfg.Name),
				slog.String("user_id", key),
				slog.String("path", r.URL.Path))
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			respond.Fail(w, http.StatusTooManyRequests, "Too many requests, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Len returns the number of tracked buckets.
func (l *UserRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Run evicts idle buckets every interval until ctx is done.
func (l *UserRateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.evictIdle(); n > 0 {
				slog.Debug("rate limit buckets evicted",
					slog.String("limiter", l.cfg.Name),
					slog.Int("count", n))
			}
		}
	}
}

func (l *UserRateLimiter) evictIdle() int {
	cutoff := l.now().Add(-l.cfg.IdleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, k)
			n++
		}
	}
	return n
}
