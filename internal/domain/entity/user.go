package entity

import (
	"errors"
	"strings"
	"time"
)

// User is an Opensox account. CompletedSteps tracks the learning sheet.
type User struct {
	ID             string
	Email          string
	FirstName      string
	CompletedSteps []string
	CreatedAt      time.Time
}

// NormalizeSteps trims step IDs, drops blanks and removes duplicates while
// keeping first-seen order.
func NormalizeSteps(steps []string) []string {
	seen := make(map[string]struct{}, len(steps))
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		s = trimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// StepsInput is the body of a completed-steps update.
type StepsInput struct {
	CompletedSteps []string `json:"completedSteps" validate:"max=500,dive,required,max=100"`
}

var stepsMessages = map[string]string{
	"completedSteps.max": "Too many completed steps",
}

// Validate trims each step ID and rejects blank or oversized ones.
func (in *StepsInput) Validate() error {
	if in.CompletedSteps == nil {
		return &ValidationError{Field: "completedSteps", Message: "completedSteps is required"}
	}
	for i, s := range in.CompletedSteps {
		in.CompletedSteps[i] = trimSpace(s)
	}
	if err := validateStruct(in, stepsMessages); err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) && strings.HasPrefix(vErr.Field, "completedSteps[") {
			vErr.Message = "Step IDs must be non-empty and at most 100 characters"
		}
		return err
	}
	return nil
}
