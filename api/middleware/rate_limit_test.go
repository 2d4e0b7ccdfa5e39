package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/iscore-hr/helpdesk-backend/pkg/config"
)

type fakeLimiter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (f *fakeLimiter) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[scope]++
	count := f.counts[scope]
	return count <= limit, count, nil
}

// expiringLimiter mirrors the redis INCR+EXPIRE fixed window with an
// injectable clock so window expiry can be tested without sleeping.
type expiringLimiter struct {
	now func() time.Time

	mu      sync.Mutex
	windows map[string]time.Time
	counts  map[string]int64
}

func (f *expiringLimiter) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts == nil {
		f.counts = map[string]int64{}
		f.windows = map[string]time.Time{}
	}
	at := f.now()
	if start, ok := f.windows[scope]; !ok || at.Sub(start) >= window {
		f.windows[scope] = at
		f.counts[scope] = 0
	}
	f.counts[scope]++
	count := f.counts[scope]
	return count <= limit, count, nil
}

func limitedHandler(store *fakeLimiter, cfg config.RateLimitConfig) http.Handler {
	return RateLimit("test", cfg, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRateLimitAllowsUnderLimit(t *testing.T) {
	store := &fakeLimiter{}
	handler := limitedHandler(store, config.RateLimitConfig{NotificationWindow: time.Minute, NotificationLimit: 10})

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(WithUserID(req.Context(), "user-1"))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 got %d", i+1, resp.Code)
		}
	}
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	store := &fakeLimiter{}
	handler := limitedHandler(store, config.RateLimitConfig{NotificationWindow: time.Minute, NotificationLimit: 10})

	var last *httptest.ResponseRecorder
	for i := 0; i < 11; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(WithUserID(req.Context(), "user-1"))
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", last.Code)
	}
	if last.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected Retry-After 60, got %q", last.Header().Get("Retry-After"))
	}
}

func TestRateLimitAllowsAgainAfterWindowExpires(t *testing.T) {
	current := time.Now()
	store := &expiringLimiter{now: func() time.Time { return current }}
	handler := RateLimit("test", config.RateLimitConfig{NotificationWindow: time.Minute, NotificationLimit: 10}, store, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(WithUserID(req.Context(), "user-1"))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		return resp.Code
	}

	for i := 0; i < 10; i++ {
		if code := send(); code != http.StatusOK {
			t.Fatalf("request %d: expected 200 got %d", i+1, code)
		}
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 inside the window, got %d", code)
	}

	current = current.Add(time.Minute + time.Second)
	if code := send(); code != http.StatusOK {
		t.Fatalf("expected 200 after the window reset, got %d", code)
	}
}

func TestRateLimitKeysAnonymousCallersByIP(t *testing.T) {
	store := &fakeLimiter{}
	handler := limitedHandler(store, config.RateLimitConfig{NotificationWindow: time.Minute, NotificationLimit: 1})

	first := httptest.NewRequest(http.MethodPost, "/", nil)
	first.RemoteAddr = "10.0.0.1:1234"
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, first)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/", nil)
	second.RemoteAddr = "10.0.0.1:9999"
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, second)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("same IP should share a window, got %d", resp.Code)
	}

	other := httptest.NewRequest(http.MethodPost, "/", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, other)
	if resp.Code != http.StatusOK {
		t.Fatalf("different IP should get its own window, got %d", resp.Code)
	}
}

func TestRateLimitDisabledWithoutStore(t *testing.T) {
	handler := RateLimit("test", config.RateLimitConfig{NotificationWindow: time.Minute, NotificationLimit: 1}, nil, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected pass-through, got %d", resp.Code)
		}
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:4321"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if ip := clientIP(req); ip != "203.0.113.7" {
		t.Fatalf("expected forwarded ip, got %s", ip)
	}

	req.Header.Del("X-Forwarded-For")
	req.Header.Set("X-Real-IP", "203.0.113.8")
	if ip := clientIP(req); ip != "203.0.113.8" {
		t.Fatalf("expected real ip, got %s", ip)
	}

	req.Header.Del("X-Real-IP")
	if ip := clientIP(req); ip != "10.0.0.9" {
		t.Fatalf("expected remote host, got %s", ip)
	}
}
