package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func readAll(w http.ResponseWriter, r *http.Request) {
	if _, err := io.ReadAll(r.Body); err != nil {
		http.Error(w, "too large", http.StatusRequestEntityTooLarge)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func TestInputValidation(t *testing.T) {
	limits := InputLimits{MaxAuthHeader: 16, MaxPath: 20, MaxBody: 10}

	tests := []struct {
		name   string
		req    func() *http.Request
		status int
	}{
		{
			name:   "within limits",
			req:    func() *http.Request { return httptest.NewRequest(http.MethodPost, "/testimonials", strings.NewReader("{}")) },
			status: http.StatusOK,
		},
		{
			name: "auth header too large",
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/sessions", nil)
				r.Header.Set("Authorization", "Bearer "+strings.Repeat("x", 20))
				return r
			},
			status: http.StatusBadRequest,
		},
		{
			name:   "path too long",
			req:    func() *http.Request { return httptest.NewRequest(http.MethodGet, "/"+strings.Repeat("a", 30), nil) },
			status: http.StatusRequestURITooLong,
		},
		{
			name: "declared body too large",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodPost, "/testimonials", strings.NewReader(strings.Repeat("a", 11)))
			},
			status: http.StatusRequestEntityTooLarge,
		},
		{
			name: "streamed body too large",
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/testimonials", strings.NewReader(strings.Repeat("a", 11)))
				r.ContentLength = -1
				return r
			},
			status: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			InputValidation(limits)(http.HandlerFunc(readAll)).ServeHTTP(rec, tt.req())
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestDefaultInputLimits(t *testing.T) {
	assert.Equal(t, int64(1<<20), DefaultInputLimits().MaxBody)
}
