package circuitbreaker

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"opensox-api/internal/resilience/retry"

	"github.com/sony/gobreaker"
)

// DBCircuitBreaker guards the repositories' queries. It satisfies the
// repositories' DBTX interface so it can stand in for *sql.DB.
type DBCircuitBreaker struct {
	cb *CircuitBreaker
	db *sql.DB
}

// DBConfig trips after five requests in a minute that all failed at the
// connection level and re-probes after 30s. Query errors and sql.ErrNoRows
// count as successes.
func DBConfig() Config {
	return Config{
		Name:             "database",
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 1.0,
		MinRequests:      5,
		IsSuccessful:     isHealthyDBResult,
	}
}

func isHealthyDBResult(err error) bool {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return true
	}
	return !retry.IsTransientDBError(err)
}

// NewDBCircuitBreaker wraps db with DBConfig.
func NewDBCircuitBreaker(db *sql.DB) *DBCircuitBreaker {
	return NewDBCircuitBreakerWithConfig(db, DBConfig())
}

// NewDBCircuitBreakerWithConfig wraps db with cfg.
func NewDBCircuitBreakerWithConfig(db *sql.DB, cfg Config) *DBCircuitBreaker {
	return &DBCircuitBreaker{cb: New(cfg), db: db}
}

// QueryContext runs a query, failing fast with gobreaker.ErrOpenState
// while the circuit is open.
func (d *DBCircuitBreaker) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return Run(d.cb, func() (*sql.Rows, error) {
		return d.db.QueryContext(ctx, query, args...)
	})
}

// ExecContext runs a statement, failing fast while the circuit is open.
func (d *DBCircuitBreaker) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return Run(d.cb, func() (sql.Result, error) {
		return d.db.ExecContext(ctx, query, args...)
	})
}

// QueryRowContext passes straight through: *sql.Row defers its error to
// Scan, after the breaker could have observed it.
func (d *DBCircuitBreaker) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return d.db.QueryRowContext(ctx, query, args...)
}

// PingContext checks connectivity through the breaker.
func (d *DBCircuitBreaker) PingContext(ctx context.Context) error {
	_, err := Run(d.cb, func() (struct{}, error) {
		return struct{}{}, d.db.PingContext(ctx)
	})
	return err
}

// State returns the breaker state.
func (d *DBCircuitBreaker) State() gobreaker.State { return d.cb.State() }

// IsOpen reports whether queries are currently rejected.
func (d *DBCircuitBreaker) IsOpen() bool { return d.cb.IsOpen() }

// DB returns the unguarded pool, for migrations and pool stats.
func (d *DBCircuitBreaker) DB() *sql.DB { return d.db }

// Name returns the breaker name.
func (d *DBCircuitBreaker) Name() string { return d.cb.Name() }
