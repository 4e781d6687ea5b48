package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisQueryPrefix     = "mhub:query:"
	DefaultQueryCacheTTL = 5 * time.Minute
)

// RedisQueryCache stores filtered id lists in Redis with JSON serialization.
type RedisQueryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisQueryCache(client *redis.Client, ttl time.Duration) *RedisQueryCache {
	if ttl <= 0 {
		ttl = DefaultQueryCacheTTL
	}
	return &RedisQueryCache{client: client, ttl: ttl}
}

func (r *RedisQueryCache) Get(ctx context.Context, key string) ([]string, bool, error) {
	data, err := r.client.Get(ctx, redisQueryPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, false, err
	}
	return ids, true, nil
}

func (r *RedisQueryCache) Set(ctx context.Context, key string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisQueryPrefix+key, data, r.ttl).Err()
}

func (r *RedisQueryCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
