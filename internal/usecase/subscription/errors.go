// Package subscription answers whether a user is on an active paid plan and
// expires plans whose end date has passed.
package subscription

import "errors"

var (
	// ErrUserIDRequired is returned when the caller passes an empty user ID.
	ErrUserIDRequired = errors.New("user id is required")
)
