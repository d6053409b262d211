// Package security sets response hardening headers and resolves client
// addresses behind trusted proxies.
package security

import (
	"fmt"
	"net/http"
)

// HeadersConfig holds security headers configuration
type HeadersConfig struct {
	CSP string

	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	PermissionsPolicy   string
	CrossOriginOpener   string
	CrossOriginResource string
	CacheControl        string
}

// DefaultHeadersConfig suits a JSON and PDF API that never serves markup.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP: "default-src 'none'; frame-ancestors 'none'",

		HSTSMaxAge:            31536000, // 1 year
		HSTSIncludeSubdomains: true,

		XFrameOptions:       "DENY",
		XContentTypeOptions: "nosniff",
		ReferrerPolicy:      "no-referrer",
		PermissionsPolicy:   "geolocation=(), microphone=(), camera=(), payment=()",
		CrossOriginOpener:   "same-origin",
		CrossOriginResource: "same-origin",
		CacheControl:        "no-store",
	}
}

// Headers returns middleware applying cfg to every response.
func Headers(cfg HeadersConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			applyHeaders(w.Header(), r, cfg)
			next.ServeHTTP(w, r)
		})
	}
}

func applyHeaders(h http.Header, r *http.Request, cfg HeadersConfig) {
	setIf(h, "X-Content-Type-Options", cfg.XContentTypeOptions)
	setIf(h, "X-Frame-Options", cfg.XFrameOptions)
	setIf(h, "Content-Security-Policy", cfg.CSP)
	setIf(h, "Referrer-Policy", cfg.ReferrerPolicy)
	setIf(h, "Permissions-Policy", cfg.PermissionsPolicy)
	setIf(h, "Cross-Origin-Opener-Policy", cfg.CrossOriginOpener)
	setIf(h, "Cross-Origin-Resource-Policy", cfg.CrossOriginResource)
	setIf(h, "Cache-Control", cfg.CacheControl)

	// HSTS only means something over TLS
	if r.TLS != nil && cfg.HSTSMaxAge > 0 {
		v := fmt.Sprintf("max-age=%d", cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubdomains {
			v += "; includeSubDomains"
		}
		h.Set("Strict-Transport-Security", v)
	}
}

func setIf(h http.Header, key, value string) {
	if value != "" {
		h.Set(key, value)
	}
}
