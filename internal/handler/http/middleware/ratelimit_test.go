package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opensox-api/internal/handler/http/respond"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func headerKey(r *http.Request) string { return r.Header.Get("X-User") }

func newTestLimiter(requests int, window time.Duration) (*UserRateLimiter, *testClock) {
	clock := &testClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewUserRateLimiter(RateLimitConfig{Name: "test", Requests: requests, Window: window}, headerKey)
	l.now = clock.Now
	return l, clock
}

func TestUserRateLimiter_Allow(t *testing.T) {
	l, clock := newTestLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		ok, _ := l.Allow("u1")
		require.True(t, ok, "request %d", i+1)
	}
	ok, wait := l.Allow("u1")
	assert.False(t, ok)
	assert.InDelta(t, 20*time.Second, wait, float64(time.Second))

	// 別ユーザーは独立
	ok, _ = l.Allow("u2")
	assert.True(t, ok)

	clock.Advance(20 * time.Second)
	ok, _ = l.Allow("u1")
	assert.True(t, ok)
}

func TestUserRateLimiter_RejectedRequestsDoNotConsumeTokens(t *testing.T) {
	l, clock := newTestLimiter(1, time.Minute)

	ok, _ := l.Allow("u1")
	require.True(t, ok)
	for i := 0; i < 5; i++ {
		ok, _ = l.Allow("u1")
		require.False(t, ok)
	}
	clock.Advance(time.Minute)
	ok, _ = l.Allow("u1")
	assert.True(t, ok)
}

func TestUserRateLimiter_Middleware(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	do := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/testimonials", nil)
		if user != "" {
			req.Header.Set("X-User", user)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusCreated, do("u1").Code)

	w := do("u1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	var body respond.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, respond.CodeTooManyRequests, body.Code)

	// キーなしは素通し
	assert.Equal(t, http.StatusCreated, do("").Code)
	assert.Equal(t, http.StatusCreated, do("").Code)
}

func TestUserRateLimiter_EvictIdle(t *testing.T) {
	l, clock := newTestLimiter(5, time.Minute)

	l.Allow("u1")
	clock.Advance(5 * time.Minute)
	l.Allow("u2")
	clock.Advance(6 * time.Minute)

	assert.Equal(t, 1, l.evictIdle())
	assert.Equal(t, 1, l.Len())
}

func TestUserRateLimiter_RunStopsOnCancel(t *testing.T) {
	l, _ := newTestLimiter(5, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		l.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestLoadRateLimitConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_SUBMIT_REQUESTS", "10")
	t.Setenv("RATE_LIMIT_SUBMIT_WINDOW", "30s")

	cfg, _ := LoadRateLimitConfig("testimonial_submit")
	assert.Equal(t, RateLimitConfig{Name: "testimonial_submit", Requests: 10, Window: 30 * time.Second}, cfg)
}
