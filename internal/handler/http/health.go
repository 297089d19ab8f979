// Package http holds the HTTP surface shared by every resource: the
// middleware stack, metrics, and the health, readiness and liveness probes.
// Resource handlers live in subpackages.
package http

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"opensox-api/internal/handler/http/respond"
)

// Health statuses.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus is the result of one health check.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// BreakerState reports a circuit breaker's state.
type BreakerState interface {
	Name() string
	State() gobreaker.State
}

// HealthHandler reports database connectivity, pool usage and breaker
// states. Only an unreachable database makes it return 503; a degraded pool
// or an open breaker is informational.
type HealthHandler struct {
	DB       *sql.DB
	Breakers []BreakerState
	Version  string
	Now      func() time.Time
}

// ServeHTTP godoc
// @Summary      Service health
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Failure      503  {object}  HealthResponse
// @Router       /health [get]
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]CheckStatus, 1+len(h.Breakers))
	healthy := true

	if h.DB == nil {
		checks["database"] = CheckStatus{Status: StatusUnhealthy, Message: "not configured"}
		healthy = false
	} else {
		c := h.checkDatabase(ctx)
		checks["database"] = c
		healthy = c.Status != StatusUnhealthy
	}

	for _, b := range h.Breakers {
		checks["breaker:"+b.Name()] = checkBreaker(b)
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	resp := HealthResponse{
		Status:    StatusHealthy,
		Timestamp: now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	}
	code := http.StatusOK
	if !healthy {
		resp.Status = StatusUnhealthy
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, code, resp)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) CheckStatus {
	if err := h.DB.PingContext(ctx); err != nil {
		return CheckStatus{Status: StatusUnhealthy, Message: "ping failed"}
	}

	stats := h.DB.Stats()
	details := map[string]any{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}

	if stats.MaxOpenConnections == 0 {
		return CheckStatus{
			Status:  StatusDegraded,
			Message: "connection pool max connections not configured",
			Details: details,
		}
	}

	utilization := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
	details["utilization_percent"] = utilization
	if utilization >= 80 {
		return CheckStatus{
			Status:  StatusDegraded,
			Message: "connection pool utilization above 80%",
			Details: details,
		}
	}
	return CheckStatus{Status: StatusHealthy, Details: details}
}

func checkBreaker(b BreakerState) CheckStatus {
	state := b.State()
	status := StatusHealthy
	if state != gobreaker.StateClosed {
		status = StatusDegraded
	}
	return CheckStatus{Status: status, Details: map[string]any{"state": state.String()}}
}

// ReadyHandler answers readiness probes. It is ready once the database
// answers a ping.
type ReadyHandler struct {
	DB *sql.DB
}

// ServeHTTP godoc
// @Summary      Readiness probe
// @Tags         health
// @Produce      plain
// @Success      200  {string}  string  "ready"
// @Failure      503  {string}  string  "not ready"
// @Router       /ready [get]
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.DB == nil {
		writePlain(w, http.StatusServiceUnavailable, "database not configured")
		return
	}
	if err := h.DB.PingContext(ctx); err != nil {
		writePlain(w, http.StatusServiceUnavailable, "database not ready")
		return
	}
	writePlain(w, http.StatusOK, "ready")
}

// LiveHandler answers liveness probes.
type LiveHandler struct{}

// ServeHTTP godoc
// @Summary      Liveness probe
// @Tags         health
// @Produce      plain
// @Success      200  {string}  string  "alive"
// @Router       /live [get]
func (LiveHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	writePlain(w, http.StatusOK, "alive")
}

func writePlain(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}
