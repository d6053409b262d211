package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 2, CleanupInterval: time.Hour})
	defer rl.Stop()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("a") {
		t.Fatal("third request in the window should be rejected")
	}
	if !rl.Allow("b") {
		t.Fatal("other clients have their own window")
	}

	now = now.Add(61 * time.Second)
	if !rl.Allow("a") {
		t.Fatal("new window should reset the counter")
	}
	if rl.Rejected() != 1 {
		t.Fatalf("rejected = %d, want 1", rl.Rejected())
	}
}

func TestLimiter_CleanupStaleEntries(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 5, CleanupInterval: time.Hour})
	defer rl.Stop()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.Allow("old")

	now = now.Add(11 * time.Minute)
	rl.Allow("fresh")
	rl.cleanupStaleEntries()

	if rl.ActiveClients() != 1 {
		t.Fatalf("active clients = %d, want 1", rl.ActiveClients())
	}
}

func TestLimiter_Middleware(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1, CleanupInterval: time.Hour})
	defer rl.Stop()

	h := rl.Middleware(func(r *http.Request) string { return "k" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/bills", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first request status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/bills", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After header missing")
	}

	rl.Stop()
}
