package newsletter_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opensox-api/internal/common/pagination"
	"opensox-api/internal/domain/entity"
	"opensox-api/internal/handler/http/auth"
	"opensox-api/internal/handler/http/newsletter"
	"opensox-api/internal/handler/http/respond"
	nlUC "opensox-api/internal/usecase/newsletter"
)

/*──────────────────── スタブ ────────────────────*/

type stubService struct {
	items     []entity.Newsletter
	err       error
	gotFilter nlUC.Filter
	gotSlug   string
	gotUser   string
}

func (s *stubService) List(_ context.Context, userID string, f nlUC.Filter) (pagination.Response[entity.Newsletter], error) {
	s.gotUser, s.gotFilter = userID, f
	if s.err != nil {
		return pagination.Response[entity.Newsletter]{}, s.err
	}
	return pagination.Slice(s.items, pagination.Params{Page: f.Page, Limit: f.Limit}), nil
}

func (s *stubService) Get(_ context.Context, userID, slug string) (*entity.Newsletter, error) {
	s.gotUser, s.gotSlug = userID, slug
	if s.err != nil {
		return nil, s.err
	}
	for i := range s.items {
		if s.items[i].ID == slug {
			return &s.items[i], nil
		}
	}
	return nil, nlUC.ErrNotFound
}

/*──────────────────── ヘルパ ────────────────────*/

const secret = "test-secret-0123456789abcdefghijklmnop"

func serve(t *testing.T, svc *stubService, path string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	newsletter.Register(mux, svc, pagination.DefaultConfig(), auth.NewAuthenticator(secret))

	tok, err := auth.Sign(secret, "user-1", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func sampleItems(n int) []entity.Newsletter {
	out := make([]entity.Newsletter, n)
	for i := range out {
		out[i] = entity.Newsletter{
			ID:    "issue-" + string(rune('a'+i)),
			Title: "Issue",
			Date:  time.Date(2025, 3, 1+i, 0, 0, 0, 0, time.UTC),
		}
	}
	return out
}

/*──────────────────── テスト ────────────────────*/

func TestList_PassesFilterAndPaginates(t *testing.T) {
	svc := &stubService{items: sampleItems(7)}

	rec := serve(t, svc, "/newsletters?q=go&month=March&sort=oldest&page=2&limit=3")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, nlUC.Filter{Query: "go", Month: "March", Sort: "oldest", Page: 2, Limit: 3}, svc.gotFilter)
	assert.Equal(t, "user-1", svc.gotUser)

	var got newsletter.ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got.Data, 3)
	assert.Equal(t, pagination.Metadata{Total: 7, Page: 2, Limit: 3, TotalPages: 3, HasNext: true, HasPrev: true}, got.Pagination)
	assert.Equal(t, []string{}, got.Data[0].Tags)
}

func TestList_DefaultLimit(t *testing.T) {
	svc := &stubService{items: sampleItems(2)}
	rec := serve(t, svc, "/newsletters")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.gotFilter.Page)
	assert.Equal(t, 5, svc.gotFilter.Limit)
}

func TestList_Errors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"bad limit", "/newsletters?limit=0", nil, http.StatusBadRequest, ""},
		{"bad page", "/newsletters?page=x", nil, http.StatusBadRequest, ""},
		{"bad month", "/newsletters?month=smarch", nlUC.ErrInvalidFilter, http.StatusBadRequest, ""},
		{"free user", "/newsletters", nlUC.ErrPremiumRequired, http.StatusForbidden, "Newsletters are available to premium users only"},
		{"feed down", "/newsletters", nlUC.ErrFeedUnavailable, http.StatusInternalServerError, "Failed to fetch newsletters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, &stubService{err: tt.err}, tt.path)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantMsg != "" {
				var body respond.ErrorBody
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.wantMsg, body.Error)
			}
		})
	}
}

func TestGet(t *testing.T) {
	items := sampleItems(2)
	items[1].Content = "<p>full text</p>"
	svc := &stubService{items: items}

	rec := serve(t, svc, "/newsletters/issue-b")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "issue-b", svc.gotSlug)

	var got newsletter.DTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "<p>full text</p>", got.Content)
}

func TestGet_NotFound(t *testing.T) {
	rec := serve(t, &stubService{}, "/newsletters/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body respond.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, respond.CodeNotFound, body.Code)
	assert.Equal(t, "Newsletter not found", body.Error)
}
