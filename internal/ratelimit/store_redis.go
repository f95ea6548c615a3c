package ratelimit

import (
	"context"
	"fmt"
	"time"

	platformredis "journey/internal/platform/redis"
)

// RedisWindowStore implements WindowStore on Redis so limits hold across
// replicas.
type RedisWindowStore struct {
	client *platformredis.Client
}

func NewRedisWindowStore(client *platformredis.Client) *RedisWindowStore {
	return &RedisWindowStore{client: client}
}

func (s *RedisWindowStore) Incr(ctx context.Context, key string, d time.Duration) (int64, time.Time, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	// NX keeps the window anchored at the first hit.
	pipe.ExpireNX(ctx, key, d)
	ttl := pipe.TTL(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, fmt.Errorf("redis window incr: %w", err)
	}

	remaining := ttl.Val()
	if remaining < 0 {
		remaining = d
	}
	return incr.Val(), time.Now().Add(remaining), nil
}
