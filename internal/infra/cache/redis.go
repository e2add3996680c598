package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 2 * time.Second

// Dial connects to Redis and verifies the connection.
func Dial(addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

// Redis is a typed cache over a shared Redis instance. Values are stored
// as JSON, so T must round-trip through encoding/json. port.Cache has no
// context on it, so each operation runs under a short internal timeout;
// a slow or absent Redis degrades to cache misses instead of hanging
// request handlers.
type Redis[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis wraps client as a typed cache. Keys are namespaced with prefix
// so differently-typed caches can share one instance.
func NewRedis[T any](client *redis.Client, prefix string, ttl time.Duration) *Redis[T] {
	return &Redis[T]{client: client, prefix: prefix, ttl: ttl}
}

// Get retrieves and decodes a value. Any transport or decode failure reads
// as a miss.
func (r *Redis[T]) Get(key string) (T, bool) {
	var zero T
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		return zero, false
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return zero, false
	}
	return value, true
}

// Set encodes and stores a value with the configured TTL. Failures are
// dropped: a cache that cannot accept writes just means recomputation.
func (r *Redis[T]) Set(key string, value T) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	r.client.Set(ctx, r.prefix+key, raw, r.ttl)
}

// Delete removes a key.
func (r *Redis[T]) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	r.client.Del(ctx, r.prefix+key)
}
