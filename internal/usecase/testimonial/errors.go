// Package testimonial implements the public testimonial wall: listing,
// reading the caller's own entry and submitting one after the avatar URL
// passes the admission pipeline.
package testimonial

import "errors"

var (
	// ErrPremiumRequired is returned when a non-paid user reads or submits
	// their testimonial. The text is shown to the user.
	ErrPremiumRequired = errors.New("Only premium users can submit testimonials")

	// ErrUserIDRequired is returned when the caller passes an empty user ID.
	ErrUserIDRequired = errors.New("user id is required")
)
