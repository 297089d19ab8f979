package retry

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// transientSQLStates are server-side conditions that usually clear on their
// own: admin shutdown, crash shutdown, cannot connect now, too many connections.
var transientSQLStates = map[string]struct{}{
	"57P01": {},
	"57P02": {},
	"57P03": {},
	"53300": {},
}

// IsTransientDBError reports whether err is a connection-level database
// failure that a short retry can recover from. Query errors such as
// constraint violations or syntax errors are never transient.
func IsTransientDBError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if len(pgErr.Code) == 5 && pgErr.Code[:2] == "08" {
			return true
		}
		_, ok := transientSQLStates[pgErr.Code]
		return ok
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}

	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && (dnsErr.IsNotFound || dnsErr.IsTimeout || dnsErr.IsTemporary) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
