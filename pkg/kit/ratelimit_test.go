package kit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_BlocksOverLimit(t *testing.T) {
	l := NewLimiter(3, time.Minute)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/add", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i, w.Code)
		}
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/add", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("got %d, want 429", w.Code)
	}
}

func TestLimiter_WindowExpires(t *testing.T) {
	l := NewLimiter(1, time.Minute)

	now := time.Now()
	if !l.allow("1.2.3.4", now) {
		t.Fatal("first request should pass")
	}
	if l.allow("1.2.3.4", now) {
		t.Fatal("second request inside window should be blocked")
	}
	if !l.allow("1.2.3.4", now.Add(2*time.Minute)) {
		t.Fatal("request after the window should pass")
	}
}

func TestLimiter_PerIP(t *testing.T) {
	l := NewLimiter(1, time.Minute)

	now := time.Now()
	if !l.allow("1.1.1.1", now) || !l.allow("2.2.2.2", now) {
		t.Fatal("distinct IPs must not share a budget")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:4242"
	if got := clientIP(r); got != "10.0.0.1" {
		t.Fatalf("got %q, want 10.0.0.1", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientIP(r); got != "203.0.113.9" {
		t.Fatalf("got %q, want 203.0.113.9", got)
	}
}
