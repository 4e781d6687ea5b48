package catalog

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// testRedisURL defaults to a local instance. Set REDIS_TEST_URL to override.
func testRedisURL() string {
	if url := os.Getenv("REDIS_TEST_URL"); url != "" {
		return url
	}
	return "redis://localhost:6379/15"
}

func setupRedisCache(t *testing.T) *RedisQueryCache {
	t.Helper()
	opts, err := redis.ParseURL(testRedisURL())
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	opts.DialTimeout = time.Second
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	cache := NewRedisQueryCache(client, time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := cache.Ping(ctx); err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisURL(), err)
	}
	return cache
}

func TestRedisQueryCacheRoundTrip(t *testing.T) {
	cache := setupRedisCache(t)
	ctx := context.Background()
	key := fmt.Sprintf("test:%d", time.Now().UnixNano())

	if _, found, err := cache.Get(ctx, key); err != nil || found {
		t.Fatalf("expected clean miss, got found=%v err=%v", found, err)
	}
	if err := cache.Set(ctx, key, []string{"movie-3", "movie-1"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ids, found, err := cache.Get(ctx, key)
	if err != nil || !found {
		t.Fatalf("expected hit, got found=%v err=%v", found, err)
	}
	if len(ids) != 2 || ids[0] != "movie-3" || ids[1] != "movie-1" {
		t.Fatalf("unexpected ids: %v", ids)
	}

	empty := key + ":empty"
	if err := cache.Set(ctx, empty, nil); err != nil {
		t.Fatalf("Set empty: %v", err)
	}
	ids, found, err = cache.Get(ctx, empty)
	if err != nil || !found || len(ids) != 0 {
		t.Fatalf("empty result must be cached as a hit: ids=%v found=%v err=%v", ids, found, err)
	}
}
