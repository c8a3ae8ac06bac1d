package security

import (
	"net/http"
	"strconv"
	"strings"
)

// Policy is the set of response headers applied to one class of routes.
type Policy struct {
	ContentSecurity string
	CacheControl    string
}

// HeadersConfig describes the headers set on every response. Requests under
// APIPrefix get the API policy; everything else gets the page policy.
type HeadersConfig struct {
	Page      Policy
	API       Policy
	APIPrefix string

	// HSTSMaxAge is in seconds; zero disables the header.
	HSTSMaxAge int

	Common map[string]string
}

// DefaultHeadersConfig serves the dashboard with its own script and
// stylesheet only, and forbids the JSON endpoints from loading anything.
func DefaultHeadersConfig() HeadersConfig {
	page := []string{
		"default-src 'self'",
		"script-src 'self'",
		"style-src 'self'",
		"img-src 'self' data:",
		"connect-src 'self'",
		"object-src 'none'",
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"form-action 'self'",
	}
	return HeadersConfig{
		Page: Policy{ContentSecurity: strings.Join(page, "; ")},
		API: Policy{
			ContentSecurity: "default-src 'none'; frame-ancestors 'none'",
			CacheControl:    "no-store",
		},
		APIPrefix:  "/api/",
		HSTSMaxAge: 365 * 24 * 60 * 60,
		Common: map[string]string{
			"X-Content-Type-Options":     "nosniff",
			"X-Frame-Options":            "DENY",
			"Referrer-Policy":            "same-origin",
			"Permissions-Policy":         "camera=(), microphone=(), geolocation=(), payment=()",
			"Cross-Origin-Opener-Policy": "same-origin",
		},
	}
}

// HeadersMiddleware sets the configured headers before the handler runs.
type HeadersMiddleware struct {
	cfg  HeadersConfig
	hsts string
}

func NewHeadersMiddleware(cfg HeadersConfig) *HeadersMiddleware {
	h := &HeadersMiddleware{cfg: cfg}
	if cfg.HSTSMaxAge > 0 {
		h.hsts = "max-age=" + strconv.Itoa(cfg.HSTSMaxAge) + "; includeSubDomains"
	}
	return h
}

func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := w.Header()
		for k, v := range h.cfg.Common {
			hdr.Set(k, v)
		}

		p := h.policyFor(r)
		if p.ContentSecurity != "" {
			hdr.Set("Content-Security-Policy", p.ContentSecurity)
		}
		if p.CacheControl != "" {
			hdr.Set("Cache-Control", p.CacheControl)
		}

		// Browsers ignore HSTS over plain HTTP.
		if r.TLS != nil && h.hsts != "" {
			hdr.Set("Strict-Transport-Security", h.hsts)
		}
		next.ServeHTTP(w, r)
	})
}

func (h *HeadersMiddleware) policyFor(r *http.Request) Policy {
	if h.cfg.APIPrefix != "" && strings.HasPrefix(r.URL.Path, h.cfg.APIPrefix) {
		return h.cfg.API
	}
	return h.cfg.Page
}

// StaticAssetMiddleware lets browsers cache embedded assets for maxAge seconds.
func StaticAssetMiddleware(maxAge int) func(http.Handler) http.Handler {
	value := "public, max-age=" + strconv.Itoa(maxAge)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", value)
			}
			next.ServeHTTP(w, r)
		})
	}
}
