package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by repositories when no row matches.
	ErrNotFound = errors.New("entity not found")

	// ErrValidationFailed wraps validator failures that have no field to
	// report. Every *ValidationError also matches it with errors.Is.
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError is a single field failure. Message is shown to the user
// as-is, so it must not contain internal details.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrValidationFailed) match field failures too.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
