package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces the token key in a shared Redis.
const redisKeyPrefix = "speakerdir:"

// RedisStore keeps the token in Redis so several hosts share one session.
// Tokens carrying an exp claim are stored with a matching TTL.
type RedisStore struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

// NewRedisStore connects lazily to the Redis at addr.
func NewRedisStore(addr, password string) *RedisStore {
	return NewRedisStoreWithClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	}))
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		key:    redisKeyPrefix + Key,
		now:    time.Now,
	}
}

func (r *RedisStore) Get(ctx context.Context) (string, bool, error) {
	token, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get token: %w", err)
	}
	return token, token != "", nil
}

func (r *RedisStore) Set(ctx context.Context, token string) error {
	var ttl time.Duration
	if claims, err := Inspect(token); err == nil && !claims.ExpiresAt.IsZero() {
		ttl = claims.ExpiresAt.Sub(r.now())
		if ttl <= 0 {
			// Already expired: keep it briefly so verification can reject it.
			ttl = time.Second
		}
	}
	if err := r.client.Set(ctx, r.key, token, ttl).Err(); err != nil {
		return fmt.Errorf("redis set token: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis clear token: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
