package user

import (
	"context"
	"errors"
	"net/http"

	"opensox-api/internal/domain/entity"
	"opensox-api/internal/handler/http/auth"
	"opensox-api/internal/handler/http/respond"
	"opensox-api/internal/usecase/subscription"
	userUC "opensox-api/internal/usecase/user"
)

// Service is the part of the user usecase the handlers call.
type Service interface {
	Count(ctx context.Context) (int64, error)
	SubscriptionStatus(ctx context.Context, userID string) (subscription.Status, error)
	GetCompletedSteps(ctx context.Context, userID string) ([]string, error)
	UpdateCompletedSteps(ctx context.Context, userID string, in entity.StepsInput) ([]string, error)
}

func toAppError(err error) error {
	var vErr *entity.ValidationError
	switch {
	case errors.As(err, &vErr):
		return respond.NewAppError(http.StatusBadRequest, vErr.Message, err)
	case errors.Is(err, userUC.ErrUserNotFound):
		return respond.NewAppError(http.StatusNotFound, "User not found", err)
	case errors.Is(err, subscription.ErrUserIDRequired):
		return respond.NewAppError(http.StatusUnauthorized, auth.MsgMissingHeader, err)
	}
	return err
}

type CountHandler struct{ Svc Service }

// ServeHTTP returns the number of registered users
// @Summary      Count users
// @Tags         users
// @Produce      json
// @Success      200  {object}  CountResponse
// @Failure      500  {object}  respond.ErrorBody
// @Router       /users/count [get]
func (h CountHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n, err := h.Svc.Count(r.Context())
	if err != nil {
		respond.Error(w, toAppError(err))
		return
	}
	respond.JSON(w, http.StatusOK, CountResponse{TotalUsers: n})
}

type SubscriptionHandler struct{ Svc Service }

// ServeHTTP reports whether the caller is on an active paid plan
// @Summary      My subscription status
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  SubscriptionResponse
// @Failure      401  {object}  respond.ErrorBody
// @Failure      500  {object}  respond.ErrorBody
// @Router       /users/me/subscription [get]
func (h SubscriptionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	st, err := h.Svc.SubscriptionStatus(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respond.Error(w, toAppError(err))
		return
	}
	out := SubscriptionResponse{IsPaidUser: st.IsPaidUser}
	if sub := st.Subscription; sub != nil {
		out.Subscription = &SubscriptionDTO{
			ID:        sub.ID,
			PlanID:    sub.PlanID,
			Status:    string(sub.Status),
			StartDate: sub.StartDate,
			EndDate:   sub.EndDate,
		}
	}
	respond.JSON(w, http.StatusOK, out)
}

type GetStepsHandler struct{ Svc Service }

// ServeHTTP returns the caller's completed learning-sheet steps
// @Summary      Get completed steps
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  StepsBody
// @Failure      401  {object}  respond.ErrorBody
// @Failure      404  {object}  respond.ErrorBody
// @Router       /users/me/steps [get]
func (h GetStepsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	steps, err := h.Svc.GetCompletedSteps(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respond.Error(w, toAppError(err))
		return
	}
	respond.JSON(w, http.StatusOK, StepsBody{CompletedSteps: steps})
}

type UpdateStepsHandler struct{ Svc Service }

// ServeHTTP replaces the caller's completed steps
// @Summary      Update completed steps
// @Description  Step IDs are trimmed; blank IDs are rejected and duplicates dropped in first-seen order.
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        steps  body      StepsBody  true  "Completed steps"
// @Success      200    {object}  StepsBody
// @Failure      400    {object}  respond.ErrorBody
// @Failure      401    {object}  respond.ErrorBody
// @Failure      404    {object}  respond.ErrorBody
// @Router       /users/me/steps [put]
func (h UpdateStepsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req StepsBody
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, err)
		return
	}
	steps, err := h.Svc.UpdateCompletedSteps(r.Context(), auth.UserID(r.Context()),
		entity.StepsInput{CompletedSteps: req.CompletedSteps})
	if err != nil {
		respond.Error(w, toAppError(err))
		return
	}
	respond.JSON(w, http.StatusOK, StepsBody{CompletedSteps: steps})
}
