package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHeaders(t *testing.T) {
	h := Headers(DefaultHeadersConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/bills", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
	if got := rec.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("HSTS should not be sent over plain HTTP, got %q", got)
	}

	req := httptest.NewRequest("GET", "/api/bills", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Errorf("HSTS = %q", got)
	}
}

func TestIPExtractor_ClientIP(t *testing.T) {
	e := NewIPExtractor()

	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct public peer ignores headers", "203.0.113.9:4000", "198.51.100.1", "", "203.0.113.9"},
		{"trusted proxy uses first forwarded", "10.0.0.2:4000", "198.51.100.1, 10.0.0.1", "", "198.51.100.1"},
		{"trusted proxy falls back to real ip", "127.0.0.1:4000", "garbage", "198.51.100.7", "198.51.100.7"},
		{"trusted proxy without headers", "192.168.1.5:80", "", "", "192.168.1.5"},
		{"unparseable remote", "not-an-addr", "", "", "not-an-addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := e.ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}

	if err := e.AddTrustedProxy("not-a-cidr"); err == nil {
		t.Error("AddTrustedProxy should reject invalid CIDR")
	}
}
