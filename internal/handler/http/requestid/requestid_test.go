package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	assert.Equal(t, "test-id-123", FromContext(WithRequestID(context.Background(), "test-id-123")))
	assert.Equal(t, "", FromContext(context.Background()))
}

func serve(t *testing.T, incoming string) (seen, header string) {
	t.Helper()
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/testimonials", nil)
	if incoming != "" {
		req.Header.Set(Header, incoming)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return seen, w.Header().Get(Header)
}

func TestMiddleware_ReusesWellFormedID(t *testing.T) {
	seen, header := serve(t, "web-7f3a.trace_01")
	assert.Equal(t, "web-7f3a.trace_01", seen)
	assert.Equal(t, seen, header)
}

func TestMiddleware_GeneratesWhenMissing(t *testing.T) {
	seen, header := serve(t, "")
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, header)
}

func TestMiddleware_ReplacesMalformedID(t *testing.T) {
	for _, bad := range []string{
		strings.Repeat("a", 65),
		"id with spaces",
		"id\r\nX-Injected: 1",
		`{"json":true}`,
	} {
		t.Run(bad[:min(len(bad), 12)], func(t *testing.T) {
			seen, _ := serve(t, bad)
			assert.NotEqual(t, bad, seen)
			_, err := uuid.Parse(seen)
			assert.NoError(t, err)
		})
	}
}

func TestMiddleware_UniquePerRequest(t *testing.T) {
	ids := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		id, _ := serve(t, "")
		ids[id] = struct{}{}
	}
	assert.Len(t, ids, 50)
}
