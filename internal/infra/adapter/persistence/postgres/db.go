package postgres

import (
	"context"
	"database/sql"
)

// DBTX is the subset of *sql.DB used by the repositories. The database
// circuit breaker implements it too.
type DBTX interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
