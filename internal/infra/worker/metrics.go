package worker

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"opensox-api/internal/pkg/config"
)

// Metrics are the worker-only series. Per-task run counts and durations
// live in observability/metrics so the API and worker share one definition.
type Metrics struct {
	// Config tracks configuration fallbacks under the "worker" prefix.
	Config *config.ConfigMetrics

	// LastSuccess is the Unix time a task last finished without error.
	LastSuccess *prometheus.GaugeVec

	// RunsSkipped counts ticks dropped because the previous run was still
	// in progress.
	RunsSkipped prometheus.Counter
}

// NewMetrics registers the worker metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Config: config.NewConfigMetricsWith("worker", reg),
		LastSuccess: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "worker_task_last_success_timestamp",
			Help: "Unix timestamp of the last successful run per task",
		}, []string{"task"}),
		RunsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "worker_runs_skipped_total",
			Help: "Scheduled runs skipped because the previous run had not finished",
		}),
	}
}

// MetricsServer exposes /metrics from the default gatherer.
type MetricsServer struct {
	addr   string
	logger *slog.Logger
}

// NewMetricsServer creates a server listening on addr.
func NewMetricsServer(addr string, logger *slog.Logger) *MetricsServer {
	return &MetricsServer{addr: addr, logger: logger}
}

// Handler returns the metrics route.
func (m *MetricsServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Start serves until ctx is cancelled.
func (m *MetricsServer) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         m.addr,
		Handler:      m.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return serve(ctx, srv, m.logger, "metrics")
}
