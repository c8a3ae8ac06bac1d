package security

import (
	"net/http"
	"strconv"
	"strings"
)

// CORS answers cross-origin requests from an allow-list of origins. "*"
// allows any origin. Requests from other origins get no CORS headers and are
// left to the browser to block.
type CORS struct {
	allowed map[string]struct{}
	any     bool
	methods string
	headers string
	maxAge  int
}

// NewCORS builds the middleware for origins.
func NewCORS(origins []string) *CORS {
	c := &CORS{
		allowed: make(map[string]struct{}, len(origins)),
		methods: "GET, POST, PUT, DELETE, OPTIONS",
		headers: "Content-Type, X-Request-ID",
		maxAge:  600,
	}
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" {
			continue
		}
		if o == "*" {
			c.any = true
			continue
		}
		c.allowed[o] = struct{}{}
	}
	return c
}

// Allows reports whether origin may call the API.
func (c *CORS) Allows(origin string) bool {
	if origin == "" {
		return false
	}
	if c.any {
		return true
	}
	_, ok := c.allowed[origin]
	return ok
}

func (c *CORS) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if !c.Allows(origin) {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Add("Vary", "Origin")
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", c.methods)
			h.Set("Access-Control-Allow-Headers", c.headers)
			h.Set("Access-Control-Max-Age", strconv.Itoa(c.maxAge))
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
