package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// testCounterValue reads the current value of a counter without a registry.
func testCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("reading counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestRateLimitConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  RateLimitConfig
		wantErr bool
	}{
		{
			name:    "valid config",
			config:  RateLimitConfig{RequestsPerWindow: 60, WindowDuration: time.Minute},
			wantErr: false,
		},
		{
			name:    "zero requests",
			config:  RateLimitConfig{RequestsPerWindow: 0, WindowDuration: time.Minute},
			wantErr: true,
		},
		{
			name:    "negative requests",
			config:  RateLimitConfig{RequestsPerWindow: -1, WindowDuration: time.Minute},
			wantErr: true,
		},
		{
			name:    "zero window",
			config:  RateLimitConfig{RequestsPerWindow: 60, WindowDuration: 0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultLimits(t *testing.T) {
	global := DefaultGlobalLimit()
	if global.RequestsPerWindow != 100 || global.WindowDuration != time.Minute {
		t.Errorf("DefaultGlobalLimit() = %+v, want 100/min", global)
	}

	// Comparison sessions submit one verdict every few seconds, so the
	// compare endpoints get a tighter per-user budget than the global one.
	compare := DefaultCompareLimit()
	if compare.RequestsPerWindow != 60 || compare.WindowDuration != time.Minute {
		t.Errorf("DefaultCompareLimit() = %+v, want 60/min", compare)
	}
	if compare.RequestsPerWindow >= global.RequestsPerWindow {
		t.Error("compare limit should be tighter than the global limit")
	}
}

func TestInMemoryStoreAllow(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	ctx := context.Background()
	config := RateLimitConfig{RequestsPerWindow: 3, WindowDuration: time.Minute}

	for i := 0; i < 3; i++ {
		allowed, retryAfter := store.Allow(ctx, "user:alice", config)
		if !allowed {
			t.Fatalf("request %d blocked, want allowed", i+1)
		}
		if retryAfter != 0 {
			t.Errorf("request %d retryAfter = %d, want 0", i+1, retryAfter)
		}
	}

	allowed, retryAfter := store.Allow(ctx, "user:alice", config)
	if allowed {
		t.Fatal("request over the limit was allowed")
	}
	if retryAfter < 1 || retryAfter > 60 {
		t.Errorf("retryAfter = %d, want within (0, 60]", retryAfter)
	}
}

func TestInMemoryStoreIndependentKeys(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	ctx := context.Background()
	config := RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute}

	if allowed, _ := store.Allow(ctx, "user:alice", config); !allowed {
		t.Fatal("alice's first request blocked")
	}
	if allowed, _ := store.Allow(ctx, "user:alice", config); allowed {
		t.Fatal("alice's second request allowed over the limit")
	}

	// Exhausting alice's budget must not touch bob's.
	if allowed, _ := store.Allow(ctx, "user:bob", config); !allowed {
		t.Error("bob blocked by alice's exhausted budget")
	}
}

func TestInMemoryStoreWindowExpiry(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	ctx := context.Background()
	config := RateLimitConfig{RequestsPerWindow: 1, WindowDuration: 10 * time.Millisecond}

	if allowed, _ := store.Allow(ctx, "ip:10.0.0.1", config); !allowed {
		t.Fatal("first request blocked")
	}
	if allowed, _ := store.Allow(ctx, "ip:10.0.0.1", config); allowed {
		t.Fatal("second request in window allowed over the limit")
	}

	time.Sleep(15 * time.Millisecond)

	if allowed, _ := store.Allow(ctx, "ip:10.0.0.1", config); !allowed {
		t.Error("request after window expiry blocked")
	}
}

func TestInMemoryStoreConcurrent(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	ctx := context.Background()
	config := RateLimitConfig{RequestsPerWindow: 50, WindowDuration: time.Minute}

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := store.Allow(ctx, "user:carol", config); allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowedCount != 50 {
		t.Errorf("allowed %d of 100 concurrent requests, want exactly 50", allowedCount)
	}
}

func TestInMemoryStoreCleanup(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	ctx := context.Background()

	expired := RateLimitConfig{RequestsPerWindow: 10, WindowDuration: time.Millisecond}
	live := RateLimitConfig{RequestsPerWindow: 10, WindowDuration: time.Minute}

	store.Allow(ctx, "user:old", expired)
	store.Allow(ctx, "user:current", live)

	time.Sleep(5 * time.Millisecond)
	store.Cleanup()

	store.mu.RLock()
	defer store.mu.RUnlock()
	if _, exists := store.buckets["user:old"]; exists {
		t.Error("expired bucket survived Cleanup")
	}
	if _, exists := store.buckets["user:current"]; !exists {
		t.Error("live bucket removed by Cleanup")
	}
}

func TestIPKeyFunc(t *testing.T) {
	keyFunc := IPKeyFunc()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "X-Forwarded-For single IP",
			remoteAddr: "10.0.0.1:54321",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7"},
			want:       "203.0.113.7",
		},
		{
			name:       "X-Forwarded-For chain uses first hop",
			remoteAddr: "10.0.0.1:54321",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2, 10.0.0.3"},
			want:       "203.0.113.7",
		},
		{
			name:       "X-Forwarded-For with whitespace",
			remoteAddr: "10.0.0.1:54321",
			headers:    map[string]string{"X-Forwarded-For": " 203.0.113.7 , 10.0.0.2"},
			want:       "203.0.113.7",
		},
		{
			name:       "X-Real-IP when no forwarded header",
			remoteAddr: "10.0.0.1:54321",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "203.0.113.9",
		},
		{
			name:       "X-Forwarded-For wins over X-Real-IP",
			remoteAddr: "10.0.0.1:54321",
			headers: map[string]string{
				"X-Forwarded-For": "203.0.113.7",
				"X-Real-IP":       "203.0.113.9",
			},
			want: "203.0.113.7",
		},
		{
			name:       "RemoteAddr fallback strips port",
			remoteAddr: "192.0.2.4:33000",
			want:       "192.0.2.4",
		},
		{
			name:       "IPv6 RemoteAddr strips port",
			remoteAddr: "[2001:db8::1]:33000",
			want:       "2001:db8::1",
		},
		{
			name:       "RemoteAddr without port",
			remoteAddr: "192.0.2.4",
			want:       "192.0.2.4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/compare/next", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := keyFunc(req); got != tt.want {
				t.Errorf("key = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserKeyFunc(t *testing.T) {
	keyFunc := UserKeyFunc()

	t.Run("authenticated request keyed by user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/compare", nil)
		req = req.WithContext(SetUserID(req.Context(), "user-42"))
		if got := keyFunc(req); got != "user:user-42" {
			t.Errorf("key = %q, want user:user-42", got)
		}
	})

	t.Run("anonymous request falls back to IP", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "192.0.2.4:33000"
		if got := keyFunc(req); got != "ip:192.0.2.4" {
			t.Errorf("key = %q, want ip:192.0.2.4", got)
		}
	})
}

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{RequestsPerWindow: 2, WindowDuration: time.Minute}

	handler := RateLimiter(store, config, UserKeyFunc(), nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	doRequest := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/compare", nil)
		req = req.WithContext(SetUserID(req.Context(), "user-7"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := doRequest(); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := doRequest()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}

	retryAfter, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	if err != nil || retryAfter < 1 {
		t.Errorf("Retry-After = %q, want positive integer seconds", rec.Header().Get("Retry-After"))
	}

	reset, err := strconv.ParseInt(rec.Header().Get("X-RateLimit-Reset"), 10, 64)
	if err != nil {
		t.Fatalf("X-RateLimit-Reset = %q, want Unix timestamp", rec.Header().Get("X-RateLimit-Reset"))
	}
	now := time.Now().Unix()
	if reset < now || reset > now+61 {
		t.Errorf("X-RateLimit-Reset = %d, want within the next minute of %d", reset, now)
	}
}

func TestRateLimiterPerUserIsolation(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute}

	handler := RateLimiter(store, config, UserKeyFunc(), nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	doRequest := func(userID string) int {
		req := httptest.NewRequest(http.MethodPost, "/compare", nil)
		req = req.WithContext(SetUserID(req.Context(), userID))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := doRequest("alice"); code != http.StatusOK {
		t.Fatalf("alice's first request: status = %d, want 200", code)
	}
	if code := doRequest("alice"); code != http.StatusTooManyRequests {
		t.Fatalf("alice's second request: status = %d, want 429", code)
	}
	if code := doRequest("bob"); code != http.StatusOK {
		t.Errorf("bob's first request: status = %d, want 200; budgets must not be shared", code)
	}
}

func TestRateLimiterMetrics(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute}
	m := NewMetrics()

	handler := RateLimiter(store, config, UserKeyFunc(), m)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/compare", nil)
		req = req.WithContext(SetUserID(req.Context(), "user-7"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	}

	requests := testCounterValue(t, m.rateLimitRequests.WithLabelValues("/compare", "user"))
	if requests != 2 {
		t.Errorf("rate_limit_requests_total = %f, want 2", requests)
	}
	blocked := testCounterValue(t, m.rateLimitBlocked.WithLabelValues("/compare", "user"))
	if blocked != 1 {
		t.Errorf("rate_limit_blocked_total = %f, want 1", blocked)
	}
}
