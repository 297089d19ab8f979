package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MsgInvalidBody is shown for bodies that are not a single JSON object.
const MsgInvalidBody = "Invalid request body"

// DecodeJSON reads one JSON value from r's body into dst. Unknown fields and
// trailing data are rejected. Failures are returned as *AppError: 413 for a
// body over the MaxBytesReader limit, 400 otherwise.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return NewAppError(http.StatusRequestEntityTooLarge, "Request body too large", err)
		}
		if errors.Is(err, io.EOF) {
			return NewAppError(http.StatusBadRequest, "Request body is required", err)
		}
		return NewAppError(http.StatusBadRequest, MsgInvalidBody, err)
	}
	if dec.More() {
		return NewAppError(http.StatusBadRequest, MsgInvalidBody, fmt.Errorf("trailing data after JSON value"))
	}
	return nil
}
