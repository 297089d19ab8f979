// Package newsletter serves the premium newsletter reader: a searchable,
// paginated list of published issues and the full text of one issue.
package newsletter

import "errors"

var (
	// ErrPremiumRequired is returned for callers without an active subscription.
	ErrPremiumRequired = errors.New("Newsletters are available to premium users only")

	// ErrNotFound is returned by Get for an unknown slug.
	ErrNotFound = errors.New("Newsletter not found")

	// ErrInvalidFilter wraps bad month or sort values.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrFeedUnavailable is returned when the feed cannot be read. The
	// underlying error is logged, not returned.
	ErrFeedUnavailable = errors.New("Failed to fetch newsletters")

	// ErrUserIDRequired is returned when the caller passes an empty user ID.
	ErrUserIDRequired = errors.New("user id is required")
)
