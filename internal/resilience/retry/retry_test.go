package retry

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(op string, attempts int) Config {
	return Config{
		Operation:      op,
		MaxAttempts:    attempts,
		InitialDelay:   time.Millisecond,
		MaxDelay:       5 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// failing returns an fn that fails with err until it has been called n times.
func failing(n int, err error) (func() error, *int) {
	calls := 0
	return func() error {
		calls++
		if calls <= n {
			return err
		}
		return nil
	}, &calls
}

func TestWithBackoff(t *testing.T) {
	badGateway := &HTTPError{StatusCode: 502, Message: "Bad Gateway"}
	notFound := &HTTPError{StatusCode: 404, Message: "Not Found"}

	tests := []struct {
		name      string
		failures  int
		err       error
		attempts  int
		wantCalls int
		wantErr   error
	}{
		{"first attempt succeeds", 0, badGateway, 3, 1, nil},
		{"succeeds on third", 2, badGateway, 3, 3, nil},
		{"exhausts attempts", 10, badGateway, 3, 3, badGateway},
		{"does not retry 4xx", 10, notFound, 3, 1, notFound},
		{"zero attempts runs once", 10, syscall.ECONNREFUSED, 0, 1, syscall.ECONNREFUSED},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, calls := failing(tt.failures, tt.err)
			err := WithBackoff(context.Background(), fastConfig("feed fetch", tt.attempts), fn)

			assert.Equal(t, tt.wantCalls, *calls)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig("feed fetch", 5)
	cfg.InitialDelay = 50 * time.Millisecond

	calls := 0
	err := WithBackoff(ctx, cfg, func() error {
		calls++
		cancel()
		return syscall.ECONNRESET
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestWithBackoff_CountsRetries(t *testing.T) {
	before := testutil.ToFloat64(retryAttemptsTotal.WithLabelValues("testimonial list"))

	fn, _ := failing(2, syscall.ECONNRESET)
	require.NoError(t, WithBackoff(context.Background(), fastConfig("testimonial list", 4), fn))

	after := testutil.ToFloat64(retryAttemptsTotal.WithLabelValues("testimonial list"))
	assert.Equal(t, float64(2), after-before)
}

func TestDo(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastConfig("user count", 3), func() (int64, error) {
		calls++
		if calls == 1 {
			return 0, syscall.ECONNRESET
		}
		return 1234, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1234), got)
	assert.Equal(t, 2, calls)

	errFlaky := errors.New("flaky")
	cfg := fastConfig("custom", 3)
	cfg.Retryable = func(err error) bool { return errors.Is(err, errFlaky) }
	calls = 0
	_, err = Do(context.Background(), cfg, func() (string, error) {
		calls++
		return "", errFlaky
	})
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 3, calls)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"500", &HTTPError{StatusCode: 500}, true},
		{"503", &HTTPError{StatusCode: 503}, true},
		{"429", &HTTPError{StatusCode: 429}, true},
		{"408", &HTTPError{StatusCode: 408}, true},
		{"400", &HTTPError{StatusCode: 400}, false},
		{"404", &HTTPError{StatusCode: 404}, false},
		{"refused", syscall.ECONNREFUSED, true},
		{"reset", syscall.ECONNRESET, true},
		{"timed out", syscall.ETIMEDOUT, true},
		{"unreachable", syscall.ENETUNREACH, true},
		{"generic", errors.New("parse error"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestPresetConfigs(t *testing.T) {
	def := DefaultConfig()
	assert.Equal(t, 3, def.MaxAttempts)
	assert.Equal(t, time.Second, def.InitialDelay)
	assert.Nil(t, def.Retryable)

	feed := FeedFetchConfig()
	assert.Equal(t, "feed fetch", feed.Operation)
	assert.Equal(t, 500*time.Millisecond, feed.InitialDelay)

	// 1回目 + リトライ3回
	db := DBConfig("session fetch")
	assert.Equal(t, 4, db.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, db.InitialDelay)
	assert.Equal(t, "session fetch", db.Operation)
	require.NotNil(t, db.Retryable)
	assert.True(t, db.Retryable(syscall.ECONNREFUSED))
	assert.False(t, db.Retryable(&HTTPError{StatusCode: 503}), "DB predicate must not retry HTTP errors")
}

func TestHTTPError_Error(t *testing.T) {
	assert.Equal(t, "HTTP 500: Internal Server Error",
		(&HTTPError{StatusCode: 500, Message: "Internal Server Error"}).Error())
}

func TestAddJitter(t *testing.T) {
	base := 100 * time.Millisecond
	assert.Equal(t, base, addJitter(base, 0))

	seen := map[time.Duration]bool{}
	for i := 0; i < 20; i++ {
		d := addJitter(base, 0.2)
		assert.GreaterOrEqual(t, d, base)
		assert.LessOrEqual(t, d, 120*time.Millisecond)
		seen[d] = true
	}
	assert.Greater(t, len(seen), 1)
}
