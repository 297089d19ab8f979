package avatar

import "errors"

// Reason identifies which gate rejected a candidate URL.
type Reason string

const (
	ReasonInvalidFormat            Reason = "invalid_format"
	ReasonInvalidScheme            Reason = "invalid_scheme"
	ReasonDirectIPNotAllowed       Reason = "direct_ip_not_allowed"
	ReasonPrivateAddressNotAllowed Reason = "private_address_not_allowed"
	ReasonHostNotTrusted           Reason = "host_not_trusted"
	ReasonResourceNotAccessible    Reason = "resource_not_accessible"
	ReasonNotAnImage               Reason = "not_an_image"
	ReasonImageTooLarge            Reason = "image_too_large"
	ReasonValidationTimedOut       Reason = "validation_timed_out"
	ReasonValidationFailed         Reason = "validation_failed"
)

// Verdict is the outcome of one validation: accepted, or rejected with a
// reason, a caller-presentable message and, for unexpected failures, the
// underlying cause.
type Verdict struct {
	Accepted bool
	Reason   Reason
	Message  string
	Cause    error
}

func accept() Verdict { return Verdict{Accepted: true} }

func reject(reason Reason, msg string) Verdict {
	return Verdict{Reason: reason, Message: msg}
}

func rejectWithCause(reason Reason, msg string, cause error) Verdict {
	return Verdict{Reason: reason, Message: msg, Cause: cause}
}

// Unexpected reports whether the rejection came from a fault on our side of
// the probe rather than from the URL itself.
func (v Verdict) Unexpected() bool {
	return !v.Accepted && v.Reason == ReasonValidationFailed
}

// Err returns nil for an accepted verdict and a *RejectionError otherwise.
func (v Verdict) Err() error {
	if v.Accepted {
		return nil
	}
	return &RejectionError{Reason: v.Reason, Message: v.Message, Cause: v.Cause}
}

// RejectionError is the error form of a rejected Verdict.
type RejectionError struct {
	Reason  Reason
	Message string
	Cause   error
}

func (e *RejectionError) Error() string { return e.Message }

func (e *RejectionError) Unwrap() error { return e.Cause }

// AsRejection extracts a *RejectionError from err.
func AsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
