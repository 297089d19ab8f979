package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opensox-api/internal/observability/metrics"
)

/*──── ヘルパ ────*/

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RunOnStart = false
	return cfg
}

func newTestScheduler(t *testing.T, cfg Config, tasks ...Task) (*Scheduler, *Metrics, *HealthServer) {
	t.Helper()
	m := NewMetrics(prometheus.NewRegistry())
	hs := NewHealthServer(":0", discardLogger())
	s, err := NewScheduler(cfg, discardLogger(), m, hs, tasks...)
	require.NoError(t, err)
	return s, m, hs
}

/*──── テスト ────*/

func TestNewScheduler_RejectsBadConfig(t *testing.T) {
	noop := Task{Name: "noop", Run: func(context.Context) error { return nil }}

	cfg := testConfig()
	cfg.CronSchedule = "* *"
	_, err := NewScheduler(cfg, discardLogger(), nil, nil, noop)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Timezone = "Nowhere/City"
	_, err = NewScheduler(cfg, discardLogger(), nil, nil, noop)
	assert.Error(t, err)

	_, err = NewScheduler(testConfig(), discardLogger(), nil, nil)
	assert.Error(t, err)
}

func TestScheduler_RunOnceRunsAllTasksInOrder(t *testing.T) {
	var order []string
	boom := errors.New("db down")

	s, m, hs := newTestScheduler(t, testConfig(),
		Task{Name: "expire_subscriptions", Run: func(context.Context) error {
			order = append(order, "expire")
			return boom
		}},
		Task{Name: "warm_testimonials", Run: func(context.Context) error {
			order = append(order, "warm")
			return nil
		}},
	)

	failedBefore := testutil.ToFloat64(metrics.WorkerRunsTotal.WithLabelValues("expire_subscriptions", "failure"))

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "expire_subscriptions")
	assert.Equal(t, []string{"expire", "warm"}, order)

	assert.Equal(t, failedBefore+1, testutil.ToFloat64(metrics.WorkerRunsTotal.WithLabelValues("expire_subscriptions", "failure")))
	assert.Greater(t, testutil.ToFloat64(m.LastSuccess.WithLabelValues("warm_testimonials")), float64(0))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.LastSuccess.WithLabelValues("expire_subscriptions")))

	report := hs.lastRun.Load()
	require.NotNil(t, report)
	assert.Equal(t, []string{"expire_subscriptions"}, report.Failed)
}

func TestScheduler_RunOnceAppliesTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.RunTimeout = 20 * time.Millisecond

	s, _, _ := newTestScheduler(t, cfg, Task{Name: "slow", Run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})

	err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.RunOnStart = true

	var runs atomic.Int32
	s, _, hs := newTestScheduler(t, cfg, Task{Name: "count", Run: func(context.Context) error {
		runs.Add(1)
		return nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, hs.ready.Load, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, hs.ready.Load())
}

func TestSkipLogger_CountsSkippedTicks(t *testing.T) {
	s, m, _ := newTestScheduler(t, testConfig(), Task{Name: "noop", Run: func(context.Context) error { return nil }})

	l := skipLogger{s}
	l.Info("skip")
	l.Info("wait")
	l.Error(errors.New("x"), "panic")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.RunsSkipped))
}
