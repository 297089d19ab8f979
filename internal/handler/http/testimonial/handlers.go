package testimonial

import (
	"context"
	"net/http"

	"opensox-api/internal/domain/entity"
	"opensox-api/internal/handler/http/auth"
	"opensox-api/internal/handler/http/respond"
	"opensox-api/internal/infra/avatar"
)

// Service is the part of the testimonial usecase the handlers call.
// *testimonial.Service implements it.
type Service interface {
	GetAll(ctx context.Context) ([]*entity.Testimonial, error)
	GetMine(ctx context.Context, userID string) (*entity.Testimonial, error)
	Submit(ctx context.Context, userID string, in entity.TestimonialInput) (*entity.Testimonial, error)
	CheckAvatar(ctx context.Context, raw string) avatar.Verdict
}

// ListHandler serves the public testimonial list.
type ListHandler struct{ Svc Service }

// ServeHTTP lists testimonials
// @Summary      List testimonials
// @Description  Returns every testimonial, newest first. Served from cache for up to five minutes.
// @Tags         testimonials
// @Produce      json
// @Success      200  {array}   DTO
// @Failure      500  {object}  respond.ErrorBody
// @Router       /testimonials [get]
func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ts, err := h.Svc.GetAll(r.Context())
	if err != nil {
		respond.Error(w, toAppError(err))
		return
	}
	respond.JSON(w, http.StatusOK, toDTOs(ts))
}

// MineHandler serves the caller's own testimonial.
type MineHandler struct{ Svc Service }

// ServeHTTP returns the caller's testimonial
// @Summary      Get my testimonial
// @Description  Premium users only. The testimonial is null when none has been submitted.
// @Tags         testimonials
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  MineResponse
// @Failure      401  {object}  respond.ErrorBody
// @Failure      403  {object}  respond.ErrorBody  "Only premium users can submit testimonials"
// @Failure      500  {object}  respond.ErrorBody
// @Router       /testimonials/me [get]
func (h MineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t, err := h.Svc.GetMine(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respond.Error(w, toAppError(err))
		return
	}
	var out MineResponse
	if t != nil {
		dto := toDTO(t)
		out.Testimonial = &dto
	}
	respond.JSON(w, http.StatusOK, out)
}

// SubmitHandler stores the caller's testimonial once its avatar is admitted.
type SubmitHandler struct{ Svc Service }

// ServeHTTP creates or replaces the caller's testimonial
// @Summary      Submit testimonial
// @Description  Premium users only. The avatar URL must pass the admission pipeline: https, trusted host, no IP literals or private addresses, reachable image under 5MB.
// @Tags         testimonials
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        testimonial  body      SubmitRequest  true  "Testimonial"
// @Success      201          {object}  DTO
// @Failure      400          {object}  respond.ErrorBody  "Validation failed or avatar rejected (reason set)"
// @Failure      401          {object}  respond.ErrorBody
// @Failure      403          {object}  respond.ErrorBody
// @Failure      429          {object}  respond.ErrorBody
// @Header       429          {integer} Retry-After "Seconds until the client should retry"
// @Failure      500          {object}  respond.ErrorBody
// @Router       /testimonials [post]
func (h SubmitHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, err)
		return
	}

	saved, err := h.Svc.Submit(r.Context(), auth.UserID(r.Context()), entity.TestimonialInput{
		Name:    req.Name,
		Content: req.Content,
		Avatar:  req.Avatar,
	})
	if err != nil {
		respond.Error(w, toAppError(err))
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(saved))
}

// AvatarCheckHandler runs avatar admission without storing anything.
type AvatarCheckHandler struct{ Svc Service }

// ServeHTTP runs the avatar pipeline without saving anything
// @Summary      Check avatar URL
// @Description  Runs the avatar admission pipeline for live form feedback. A rejected URL is still a 200.
// @Tags         testimonials
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      AvatarCheckRequest  true  "Candidate URL"
// @Success      200      {object}  AvatarCheckResponse
// @Failure      400      {object}  respond.ErrorBody
// @Failure      401      {object}  respond.ErrorBody
// @Failure      429      {object}  respond.ErrorBody
// @Router       /testimonials/avatar/check [post]
func (h AvatarCheckHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req AvatarCheckRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, err)
		return
	}

	v := h.Svc.CheckAvatar(r.Context(), req.URL)
	out := AvatarCheckResponse{Valid: v.Accepted}
	if !v.Accepted {
		out.Reason = string(v.Reason)
		out.Message = v.Message
	}
	respond.JSON(w, http.StatusOK, out)
}
