package newsletter

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"opensox-api/internal/common/pagination"
	"opensox-api/internal/domain/entity"
	"opensox-api/internal/handler/http/auth"
	"opensox-api/internal/handler/http/respond"
	"opensox-api/internal/observability/logging"
	nlUC "opensox-api/internal/usecase/newsletter"
)

const resource = "newsletters"

// Service is the part of the newsletter usecase the handlers call.
type Service interface {
	List(ctx context.Context, userID string, f nlUC.Filter) (pagination.Response[entity.Newsletter], error)
	Get(ctx context.Context, userID, slug string) (*entity.Newsletter, error)
}

func toAppError(err error) error {
	switch {
	case errors.Is(err, nlUC.ErrPremiumRequired):
		return respond.NewAppError(http.StatusForbidden, nlUC.ErrPremiumRequired.Error(), err)
	case errors.Is(err, nlUC.ErrNotFound):
		return respond.NewAppError(http.StatusNotFound, nlUC.ErrNotFound.Error(), err)
	case errors.Is(err, nlUC.ErrInvalidFilter):
		return respond.NewAppError(http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, nlUC.ErrFeedUnavailable):
		return respond.NewAppError(http.StatusInternalServerError, nlUC.ErrFeedUnavailable.Error(), err)
	case errors.Is(err, nlUC.ErrUserIDRequired):
		return respond.NewAppError(http.StatusUnauthorized, auth.MsgMissingHeader, err)
	}
	return err
}

type ListHandler struct {
	Svc           Service
	PaginationCfg pagination.Config
}

// ServeHTTP lists newsletters
// @Summary      List newsletters
// @Description  Premium users only. Filters by a case-insensitive query on title, description and excerpt, and by English month name.
// @Tags         newsletters
// @Security     BearerAuth
// @Produce      json
// @Param        q      query     string  false  "Search text"
// @Param        month  query     string  false  "Month name, or all"  example(march)
// @Param        sort   query     string  false  "newest or oldest"    Enums(newest, oldest)
// @Param        page   query     int     false  "Page number"         minimum(1)  default(1)
// @Param        limit  query     int     false  "Items per page"      minimum(1)  default(5)
// @Success      200    {object}  ListResponse
// @Failure      400    {object}  respond.ErrorBody
// @Failure      401    {object}  respond.ErrorBody
// @Failure      403    {object}  respond.ErrorBody  "Newsletters are available to premium users only"
// @Failure      500    {object}  respond.ErrorBody  "Failed to fetch newsletters"
// @Router       /newsletters [get]
func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger := logging.FromContext(r.Context())

	params, err := pagination.ParseQueryParams(r, h.PaginationCfg)
	if err != nil {
		pagination.RecordError(resource, "validation")
		pagination.LogError(logger, resource, params, err)
		respond.Error(w, respond.NewAppError(http.StatusBadRequest, err.Error(), err))
		return
	}

	q := r.URL.Query()
	page, err := h.Svc.List(r.Context(), auth.UserID(r.Context()), nlUC.Filter{
		Query: q.Get("q"),
		Month: q.Get("month"),
		Sort:  q.Get("sort"),
		Page:  params.Page,
		Limit: params.Limit,
	})
	if err != nil {
		appErr := toAppError(err)
		var ae *respond.AppError
		if errors.As(appErr, &ae) && ae.Code < http.StatusInternalServerError {
			pagination.RecordRequest(resource, ae.Code, params.Page)
		} else {
			pagination.RecordError(resource, "upstream")
			logger.Error("newsletter list failed", slog.Any("error", err))
		}
		respond.Error(w, appErr)
		return
	}

	out := make([]DTO, 0, len(page.Data))
	for _, n := range page.Data {
		out = append(out, toDTO(n))
	}
	pagination.RecordRequest(resource, http.StatusOK, params.Page)
	pagination.LogResponse(logger, resource, params, len(out), time.Since(start))
	respond.JSON(w, http.StatusOK, pagination.NewResponse(out, page.Pagination))
}

type GetHandler struct{ Svc Service }

// ServeHTTP returns one newsletter with its full content
// @Summary      Get newsletter
// @Description  Premium users only. Content is the feed body, or the article extracted from the issue page.
// @Tags         newsletters
// @Security     BearerAuth
// @Produce      json
// @Param        slug  path      string  true  "Newsletter slug"
// @Success      200   {object}  DTO
// @Failure      401   {object}  respond.ErrorBody
// @Failure      403   {object}  respond.ErrorBody
// @Failure      404   {object}  respond.ErrorBody  "Newsletter not found"
// @Failure      500   {object}  respond.ErrorBody
// @Router       /newsletters/{slug} [get]
func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n, err := h.Svc.Get(r.Context(), auth.UserID(r.Context()), r.PathValue("slug"))
	if err != nil {
		respond.Error(w, toAppError(err))
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(*n))
}

// Register mounts the newsletter routes.
func Register(mux *http.ServeMux, svc Service, cfg pagination.Config, authn *auth.Authenticator) {
	mux.Handle("GET /newsletters", authn.Require(ListHandler{Svc: svc, PaginationCfg: cfg}))
	mux.Handle("GET /newsletters/{slug}", authn.Require(GetHandler{Svc: svc}))
}
