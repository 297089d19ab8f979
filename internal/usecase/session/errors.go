// Package session serves the recorded weekly sessions to paid users.
package session

import "errors"

var (
	// ErrSubscriptionRequired is returned when the user has no active
	// subscription. The text is shown to the user.
	ErrSubscriptionRequired = errors.New("Active subscription required to access sessions")

	// ErrFetchFailed is returned when sessions could not be loaded. The cause
	// is logged, not returned.
	ErrFetchFailed = errors.New("Failed to fetch sessions")
)
