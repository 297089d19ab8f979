// Package user provides account-level use cases: the public user count, the
// caller's subscription status and their learning-sheet progress.
package user

import "errors"

var (
	// ErrUserNotFound is returned when the authenticated user has no row.
	ErrUserNotFound = errors.New("user not found")
)
