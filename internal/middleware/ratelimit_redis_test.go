package middleware

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisTestClient connects to a local Redis, skipping the test when none
// is available.
func redisTestClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available, skipping integration test")
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisRateLimitStore_Allow(t *testing.T) {
	client := redisTestClient(t)
	store := NewRedisRateLimitStore(client)
	config := RateLimitConfig{
		RequestsPerWindow: 5,
		WindowDuration:    time.Minute,
	}

	testKey := "test-redis-key-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	ctx := context.Background()
	defer client.Del(ctx, redisRateLimitPrefix+testKey)

	for i := 0; i < 5; i++ {
		allowed, _ := store.Allow(ctx, testKey, config)
		if !allowed {
			t.Errorf("request %d should be allowed", i+1)
		}
	}

	allowed, retryAfter := store.Allow(ctx, testKey, config)
	if allowed {
		t.Error("6th request should be blocked")
	}
	if retryAfter <= 0 || retryAfter > 60 {
		t.Errorf("expected retryAfter between 1 and 60, got %d", retryAfter)
	}
}

func TestRedisRateLimitStore_DifferentKeys(t *testing.T) {
	client := redisTestClient(t)
	store := NewRedisRateLimitStore(client)
	config := RateLimitConfig{
		RequestsPerWindow: 1,
		WindowDuration:    time.Minute,
	}

	key1 := "test-redis-key1-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	key2 := "test-redis-key2-" + strconv.FormatInt(time.Now().UnixNano()+1, 10)
	ctx := context.Background()
	defer client.Del(ctx, redisRateLimitPrefix+key1, redisRateLimitPrefix+key2)

	allowed1, _ := store.Allow(ctx, key1, config)
	allowed2, _ := store.Allow(ctx, key2, config)
	if !allowed1 || !allowed2 {
		t.Error("both keys should be allowed their first request")
	}

	blocked1, _ := store.Allow(ctx, key1, config)
	blocked2, _ := store.Allow(ctx, key2, config)
	if blocked1 || blocked2 {
		t.Error("both keys should be blocked after reaching limit")
	}
}

func TestRedisRateLimitStore_WindowExpiry(t *testing.T) {
	client := redisTestClient(t)
	store := NewRedisRateLimitStore(client)
	config := RateLimitConfig{
		RequestsPerWindow: 1,
		WindowDuration:    time.Second,
	}

	key := "test-redis-expiry-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	ctx := context.Background()
	defer client.Del(ctx, redisRateLimitPrefix+key)

	if allowed, _ := store.Allow(ctx, key, config); !allowed {
		t.Fatal("first request should be allowed")
	}
	if allowed, _ := store.Allow(ctx, key, config); allowed {
		t.Fatal("second request should be blocked")
	}

	time.Sleep(1100 * time.Millisecond)

	if allowed, _ := store.Allow(ctx, key, config); !allowed {
		t.Error("request after window expiry should be allowed")
	}
}

func TestRedisRateLimitStore_FailOpen(t *testing.T) {
	// Point at a port nothing listens on.
	client := redis.NewClient(&redis.Options{
		Addr:        "localhost:6390",
		DialTimeout: 100 * time.Millisecond,
	})
	defer client.Close()

	store := NewRedisRateLimitStore(client)
	config := RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute}

	allowed, retryAfter := store.Allow(context.Background(), "any-key", config)
	if !allowed {
		t.Error("store should fail open when Redis is unreachable")
	}
	if retryAfter != 0 {
		t.Errorf("retryAfter = %d, want 0 on fail-open", retryAfter)
	}
}
