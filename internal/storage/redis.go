package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores each key as a plain redis string.
type RedisBackend struct {
	client redis.Cmdable
	prefix string
}

// NewRedisBackend wraps a redis client. prefix is prepended to every key.
func NewRedisBackend(client redis.Cmdable, prefix string) *RedisBackend {
	if client == nil {
		panic("storage: redis client required")
	}
	return &RedisBackend{client: client, prefix: prefix}
}

// GetItem fetches the value under key.
func (r *RedisBackend) GetItem(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("storage: redis get %s: %w", key, err)
	}
	return value, nil
}

// SetItem stores the value without expiry.
func (r *RedisBackend) SetItem(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("storage: redis set %s: %w", key, err)
	}
	return nil
}
