package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKV is the Redis-backed KV implementation used in production.
type RedisKV struct {
	client *redis.Client
	prefix string
}

// NewRedisKV wraps an existing Redis client. All keys are namespaced under
// prefix.
func NewRedisKV(client *redis.Client, prefix string) *RedisKV {
	return &RedisKV{client: client, prefix: prefix}
}

// Get implements KV.
func (s *RedisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

// Set implements KV.
func (s *RedisKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, value, ttl).Err()
}

// Delete implements KV.
func (s *RedisKV) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// RedisEvents publishes events over Redis pub/sub channels.
type RedisEvents struct {
	client *redis.Client
}

// NewRedisEvents returns a Redis-backed Events publisher.
func NewRedisEvents(client *redis.Client) *RedisEvents {
	return &RedisEvents{client: client}
}

// Publish implements Events.
func (e *RedisEvents) Publish(ctx context.Context, channel string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return e.client.Publish(ctx, channel, body).Err()
}
