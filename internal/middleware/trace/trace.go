// Package trace tags every request with an id and logs its outcome.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	applog "presupuesto/internal/log"
)

// HeaderRequestID is honoured on the way in and echoed on the way out.
const HeaderRequestID = "X-Request-ID"

const maxIncomingID = 64

type ctxKey struct{}

// Counters summarises the traffic seen so far.
type Counters struct {
	Requests     int64
	ServerErrors int64
	LastLatency  time.Duration
}

// Middleware assigns request ids and writes one log line per request.
type Middleware struct {
	clientIP func(*http.Request) string

	requests     atomic.Int64
	serverErrors atomic.Int64
	lastLatency  atomic.Int64
}

// NewMiddleware uses clientIP, when non-nil, to annotate log lines.
func NewMiddleware(clientIP func(*http.Request) string) *Middleware {
	return &Middleware{clientIP: clientIP}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.requests.Add(1)

		id := r.Header.Get(HeaderRequestID)
		if id == "" || len(id) > maxIncomingID {
			id = NewRequestID()
		}
		w.Header().Set(HeaderRequestID, id)
		ctx := context.WithValue(r.Context(), ctxKey{}, id)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		m.lastLatency.Store(int64(elapsed))

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
			m.serverErrors.Add(1)
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		attrs := []any{
			applog.FieldRequestID, id,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, status,
			applog.FieldDuration, elapsed.Milliseconds(),
			"bytes", ww.BytesWritten(),
		}
		if r.URL.RawQuery != "" {
			attrs = append(attrs, applog.FieldQuery, r.URL.RawQuery)
		}
		if m.clientIP != nil {
			attrs = append(attrs, applog.FieldClientIP, m.clientIP(r))
		}
		applog.FromContext(ctx).Log(ctx, level, r.Method+" "+r.URL.Path+" "+strconv.Itoa(status), attrs...)
	})
}

func (m *Middleware) Counters() Counters {
	return Counters{
		Requests:     m.requests.Load(),
		ServerErrors: m.serverErrors.Load(),
		LastLatency:  time.Duration(m.lastLatency.Load()),
	}
}

// NewRequestID returns "req_" followed by 16 hex characters.
func NewRequestID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "req_" + strconv.FormatInt(time.Now().UnixNano(), 16)
	}
	return "req_" + hex.EncodeToString(b[:])
}

// FromContext returns the id stored by Middleware, or "".
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// RequestID reads the id assigned by the middleware; suitable for
// log.RequestIDMiddleware.
func RequestID(r *http.Request) string {
	return FromContext(r.Context())
}
