// Package session provides the HTTP handler for recorded weekly sessions.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"opensox-api/internal/domain/entity"
	"opensox-api/internal/handler/http/auth"
	"opensox-api/internal/handler/http/respond"
	sessUC "opensox-api/internal/usecase/session"
)

// DTO is one recorded session with its chapter markers.
type DTO struct {
	ID          string     `json:"id"`
	Title       string     `json:"title" example:"Your first open source contribution"`
	Description string     `json:"description"`
	YoutubeURL  string     `json:"youtubeUrl" example:"https://www.youtube.com/watch?v=abc"`
	SessionDate time.Time  `json:"sessionDate"`
	Topics      []TopicDTO `json:"topics"`
}

// TopicDTO is a chapter marker.
type TopicDTO struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp" example:"12:30"`
	Topic     string `json:"topic" example:"Finding good first issues"`
	Order     int    `json:"order"`
}

// Service lists sessions for a user. *session.Service implements it.
type Service interface {
	GetAll(ctx context.Context, userID string) ([]*entity.WeeklySession, error)
}

type ListHandler struct{ Svc Service }

// ServeHTTP lists recorded sessions
// @Summary      List weekly sessions
// @Description  Paid users only. Sessions are newest first; topics keep their chapter order.
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   DTO
// @Failure      401  {object}  respond.ErrorBody
// @Failure      403  {object}  respond.ErrorBody  "Active subscription required to access sessions"
// @Failure      500  {object}  respond.ErrorBody  "Failed to fetch sessions"
// @Router       /sessions [get]
func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.Svc.GetAll(r.Context(), auth.UserID(r.Context()))
	switch {
	case errors.Is(err, sessUC.ErrSubscriptionRequired):
		respond.Error(w, respond.NewAppError(http.StatusForbidden, err.Error(), err))
		return
	case errors.Is(err, sessUC.ErrFetchFailed):
		respond.Error(w, respond.NewAppError(http.StatusInternalServerError, err.Error(), err))
		return
	case err != nil:
		respond.Error(w, err)
		return
	}

	out := make([]DTO, 0, len(sessions))
	for _, s := range sessions {
		topics := make([]TopicDTO, 0, len(s.Topics))
		for _, t := range s.Topics {
			topics = append(topics, TopicDTO{ID: t.ID, Timestamp: t.Timestamp, Topic: t.Topic, Order: t.Order})
		}
		out = append(out, DTO{
			ID:          s.ID,
			Title:       s.Title,
			Description: s.Description,
			YoutubeURL:  s.YoutubeURL,
			SessionDate: s.SessionDate,
			Topics:      topics,
		})
	}
	respond.JSON(w, http.StatusOK, out)
}

// Register mounts the session routes.
func Register(mux *http.ServeMux, svc Service, authn *auth.Authenticator) {
	mux.Handle("GET /sessions", authn.Require(ListHandler{svc}))
}
