// Package ratelimit throttles write requests per client with a fixed
// one-minute window.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const (
	window  = time.Minute
	idleTTL = 10 * time.Minute
)

// Config holds rate limiter configuration.
type Config struct {
	RequestsPerMinute int
	SweepEvery        time.Duration
}

// DefaultConfig returns the limits used when a field is left at zero.
func DefaultConfig() Config {
	return Config{RequestsPerMinute: 60, SweepEvery: 5 * time.Minute}
}

// Stats reports the limiter state.
type Stats struct {
	Rejected int64
	Clients  int
}

type bucket struct {
	opened time.Time
	count  int
}

// Limiter counts requests per key. A background goroutine forgets idle
// keys until Stop is called.
type Limiter struct {
	limit int

	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time

	rejected atomic.Int64
	quit     chan struct{}
	stop     sync.Once
}

func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.SweepEvery <= 0 {
		cfg.SweepEvery = def.SweepEvery
	}

	l := &Limiter{
		limit:   cfg.RequestsPerMinute,
		buckets: make(map[string]*bucket),
		now:     time.Now,
		quit:    make(chan struct{}),
	}
	go l.sweepLoop(cfg.SweepEvery)
	return l
}

// Allow records one request for key. When the key is over its limit it
// returns false and the time until its window reopens.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b := l.buckets[key]
	if b == nil || now.Sub(b.opened) >= window {
		l.buckets[key] = &bucket{opened: now, count: 1}
		return true, 0
	}

	b.count++
	if b.count <= l.limit {
		return true, 0
	}
	l.rejected.Add(1)
	return false, window - now.Sub(b.opened)
}

func (l *Limiter) sweepLoop(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			l.sweep()
		case <-l.quit:
			return
		}
	}
}

func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idleTTL)
	for key, b := range l.buckets {
		if b.opened.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Stop ends the sweep goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stop.Do(func() { close(l.quit) })
}

func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	n := len(l.buckets)
	l.mu.Unlock()
	return Stats{Rejected: l.rejected.Load(), Clients: n}
}

// MutatingOnly selects POST, PUT, PATCH and DELETE.
func MutatingOnly(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// Middleware limits the requests selected by applies, keyed by clientKey.
// A nil applies limits every request; a nil onLimit writes a plain 429.
func (l *Limiter) Middleware(clientKey func(*http.Request) string, applies func(*http.Request) bool, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	if onLimit == nil {
		onLimit = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if applies == nil || applies(r) {
				if ok, wait := l.Allow(clientKey(r)); !ok {
					w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(wait)))
					onLimit(w, r)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func retrySeconds(d time.Duration) int {
	s := int((d + time.Second - 1) / time.Second)
	if s < 1 {
		return 1
	}
	return s
}
