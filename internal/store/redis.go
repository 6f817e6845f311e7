package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces our keys inside a shared Redis.
const redisKeyPrefix = "mailsmith:state:"

// RedisStore persists each namespace as a JSON blob in Redis.
// A single SET replaces the whole namespace, so readers never see a
// partial write.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse Redis URL: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping Redis: %v", ErrUnavailable, err)
	}

	return &RedisStore{client: client}, nil
}

// Load fetches and decodes a namespace blob.
func (s *RedisStore) Load(ctx context.Context, namespace string, dest any) (bool, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+namespace).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: get %s: %v", ErrUnavailable, namespace, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", namespace, err)
	}
	return true, nil
}

// Save replaces a namespace blob. No TTL; state is durable.
func (s *RedisStore) Save(ctx context.Context, namespace string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", namespace, err)
	}

	if err := s.client.Set(ctx, redisKeyPrefix+namespace, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrUnavailable, namespace, err)
	}
	return nil
}

// Ping checks Redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
