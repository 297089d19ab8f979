package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// HealthServer serves the worker probes:
//   - GET /health: liveness, always 200
//   - GET /health/ready: 200 once the scheduler is running, 503 before and
//     during shutdown
type HealthServer struct {
	addr    string
	logger  *slog.Logger
	ready   atomic.Bool
	lastRun atomic.Pointer[RunReport]
}

type healthResponse struct {
	Status  string     `json:"status"`
	LastRun *RunReport `json:"last_run,omitempty"`
}

// NewHealthServer creates a server listening on addr. It starts not ready.
func NewHealthServer(addr string, logger *slog.Logger) *HealthServer {
	return &HealthServer{addr: addr, logger: logger}
}

// SetReady flips the readiness probe.
func (h *HealthServer) SetReady(ready bool) {
	h.ready.Store(ready)
	h.logger.Info("worker readiness changed", slog.Bool("ready", ready))
}

// RecordRun publishes the outcome of the latest scheduled run on the
// readiness endpoint.
func (h *HealthServer) RecordRun(r RunReport) {
	h.lastRun.Store(&r)
}

// Handler returns the probe routes.
func (h *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.handleLiveness)
	mux.HandleFunc("GET /health/ready", h.handleReadiness)
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (h *HealthServer) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         h.addr,
		Handler:      h.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return serve(ctx, srv, h.logger, "health")
}

func (h *HealthServer) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	h.write(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (h *HealthServer) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", LastRun: h.lastRun.Load()}
	code := http.StatusOK
	if !h.ready.Load() {
		resp.Status = "not ready"
		code = http.StatusServiceUnavailable
	}
	h.write(w, code, resp)
}

func (h *HealthServer) write(w http.ResponseWriter, code int, body healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode health response", slog.Any("error", err))
	}
}

// serve runs srv until ctx is done. A graceful shutdown returns nil so the
// caller's errgroup only sees real failures.
func serve(ctx context.Context, srv *http.Server, logger *slog.Logger, name string) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info(name+" server starting", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("%s server: %w", name, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s server shutdown: %w", name, err)
	}
	logger.Info(name + " server stopped")
	return nil
}
