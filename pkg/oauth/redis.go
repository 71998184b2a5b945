package oauth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-backed SessionStore for deployments where the
// gateway runs more than one process. Sessions are stored as JSON with
// no TTL; the gateway does not track token expiry.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis-backed session store.
func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// Get retrieves the session stored under key, if any.
func (r *RedisStore) Get(ctx context.Context, key string) (Session, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("oauth: get session: %w", err)
	}

	var s Session
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return Session{}, false, fmt.Errorf("oauth: unmarshal session: %w", err)
	}

	return s, true, nil
}

// Put stores a session under key, overwriting any existing one.
func (r *RedisStore) Put(ctx context.Context, key string, s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("oauth: marshal session: %w", err)
	}

	if err := r.client.Set(ctx, key, string(data), 0).Err(); err != nil {
		return fmt.Errorf("oauth: put session: %w", err)
	}

	return nil
}

// Clear removes the session stored under key.
func (r *RedisStore) Clear(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("oauth: clear session: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
