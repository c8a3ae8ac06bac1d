package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	m := NewMiddleware(func(*http.Request) string { return "127.0.0.1" })

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusInternalServerError)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/gastos", nil))

	require.True(t, strings.HasPrefix(seen, "req_"))
	require.Len(t, seen, len("req_")+16)
	require.Equal(t, seen, rec.Header().Get(HeaderRequestID))

	c := m.Counters()
	require.Equal(t, int64(1), c.Requests)
	require.Equal(t, int64(1), c.ServerErrors)
}

func TestMiddlewareHonoursIncomingID(t *testing.T) {
	m := NewMiddleware(nil)
	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r)
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "abc", seen)
	require.Equal(t, "abc", rec.Header().Get(HeaderRequestID))
	require.Zero(t, m.Counters().ServerErrors)
}

func TestMiddlewareReplacesOversizedID(t *testing.T) {
	m := NewMiddleware(nil)
	h := m.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, strings.Repeat("x", maxIncomingID+1))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.True(t, strings.HasPrefix(rec.Header().Get(HeaderRequestID), "req_"))
}
