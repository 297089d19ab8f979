// Package respond writes JSON responses and the uniform error body
// {"error", "code", "reason"} with internal details kept out of it.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// Error codes carried in the "code" field.
const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
	CodeInternal        = "INTERNAL_SERVER_ERROR"
)

// InternalMessage replaces the message of every unclassified error.
const InternalMessage = "Internal server error"

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Reason string `json:"reason,omitempty"`
}

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			// ヘッダ送信済みなのでログのみ
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// CodeFor maps an HTTP status to its error code.
func CodeFor(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		return CodeBadRequest
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusTooManyRequests:
		return CodeTooManyRequests
	}
	if status >= 400 && status < 500 {
		return CodeBadRequest
	}
	return CodeInternal
}

// Fail writes an error body with msg shown to the user as is.
func Fail(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{Error: msg, Code: CodeFor(status)})
}

// AppError carries a user-facing message alongside the internal cause.
type AppError struct {
	UserMsg string // shown to users
	Err     error  // logged, never shown
	Code    int    // HTTP status
	Reason  string // machine-readable detail, optional
}

// Error returns the internal message when there is one.
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.UserMsg
}

// Unwrap returns the internal cause.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError.
func NewAppError(code int, userMsg string, err error) *AppError {
	return &AppError{Code: code, UserMsg: userMsg, Err: err}
}

// WithReason sets Reason and returns e.
func (e *AppError) WithReason(reason string) *AppError {
	e.Reason = reason
	return e
}

// Error writes err as an error body. An *AppError in the chain supplies the
// status, message and reason; anything else becomes a 500 with a generic
// message. Server-side causes are logged after sanitising.
func Error(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		slog.Default().Error("internal server error",
			slog.Any("error", SanitizeError(err)))
		JSON(w, http.StatusInternalServerError, ErrorBody{Error: InternalMessage, Code: CodeInternal})
		return
	}

	msg := appErr.UserMsg
	if appErr.Code >= 500 {
		if appErr.Err != nil {
			slog.Default().Error("application error",
				slog.String("status", http.StatusText(appErr.Code)),
				slog.Int("code", appErr.Code),
				slog.String("user_message", appErr.UserMsg),
				slog.Any("error", SanitizeError(appErr.Err)))
		}
		if msg == "" {
			msg = InternalMessage
		}
	}
	JSON(w, appErr.Code, ErrorBody{Error: msg, Code: CodeFor(appErr.Code), Reason: appErr.Reason})
}
