package kit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIPRateLimiter_Allow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if _, limited := l.Allow("1.2.3.4"); limited {
			t.Fatalf("hit #%d limited", i)
		}
	}

	retry, limited := l.Allow("1.2.3.4")
	if !limited {
		t.Fatalf("third hit not limited")
	}
	if retry != time.Minute {
		t.Fatalf("retry=%v want=%v", retry, time.Minute)
	}

	if _, limited := l.Allow("5.6.7.8"); limited {
		t.Fatalf("other ip limited")
	}

	now = now.Add(time.Minute + time.Second)
	if _, limited := l.Allow("1.2.3.4"); limited {
		t.Fatalf("limited after window elapsed")
	}
}

func TestIPRateLimiter_Middleware(t *testing.T) {
	l := NewIPRateLimiter(1, time.Minute)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first status=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status=%d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("retry-after=%q", rec.Header().Get("Retry-After"))
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	if got := clientIP(req); got != "192.0.2.1" {
		t.Fatalf("ip=%s", got)
	}

	req.Header.Set("X-Forwarded-For", " 203.0.113.7 ,192.0.2.1")
	if got := clientIP(req); got != "203.0.113.7" {
		t.Fatalf("ip=%s", got)
	}
}
