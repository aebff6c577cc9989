package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 2})
	defer rl.Stop()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests must pass")
	}
	if rl.Allow("a") {
		t.Fatal("third request within a minute must be refused")
	}
	if !rl.Allow("b") {
		t.Fatal("clients are limited independently")
	}
	if rl.Rejected() != 1 {
		t.Fatalf("rejected = %d", rl.Rejected())
	}

	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatal("a new window must reset the counter")
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	defer rl.Stop()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.Allow("a")
	now = now.Add(11 * time.Minute)
	rl.Allow("b")

	rl.cleanupStaleEntries()
	if rl.ActiveClients() != 1 {
		t.Fatalf("active clients = %d, want 1", rl.ActiveClients())
	}
	rl.Stop()
}

func TestLimiter_Middleware(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1})
	defer rl.Stop()

	h := rl.Middleware(func(*http.Request) string { return "c" }, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("first status = %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") != "60" {
		t.Fatalf("second status = %d, headers %v", rr.Code, rr.Header())
	}
}
