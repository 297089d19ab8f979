package testimonial

import (
	"errors"
	"net/http"

	"opensox-api/internal/domain/entity"
	"opensox-api/internal/handler/http/auth"
	"opensox-api/internal/handler/http/respond"
	"opensox-api/internal/infra/avatar"
	tUC "opensox-api/internal/usecase/testimonial"
)

// toAppError maps usecase errors to HTTP errors. Unknown errors pass
// through and become a sanitised 500.
func toAppError(err error) error {
	var vErr *entity.ValidationError
	if errors.As(err, &vErr) {
		return respond.NewAppError(http.StatusBadRequest, vErr.Message, err)
	}
	if rej, ok := avatar.AsRejection(err); ok {
		return respond.NewAppError(http.StatusBadRequest, rej.Message, err).WithReason(string(rej.Reason))
	}
	switch {
	case errors.Is(err, tUC.ErrPremiumRequired):
		return respond.NewAppError(http.StatusForbidden, err.Error(), err)
	case errors.Is(err, tUC.ErrUserIDRequired):
		return respond.NewAppError(http.StatusUnauthorized, auth.MsgMissingHeader, err)
	}
	return err
}
