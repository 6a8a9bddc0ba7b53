package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dgtt-autoecole/api-backend/internal/logging"
)

const counterKeyPrefix = "dgtt:counter:"

// RedisCounterStore keeps counters in Redis so several instances share them
type RedisCounterStore struct {
	client *redis.Client
	ttl    time.Duration
}

// Ensure RedisCounterStore implements CounterStore
var _ CounterStore = (*RedisCounterStore)(nil)

// NewRedisClient creates a Redis client and checks the connection
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	logging.Info("Initializing Redis client", "addr", addr)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	logging.Info("Connected to Redis", "addr", addr)
	return client, nil
}

// NewRedisCounterStore wraps a Redis client; entries expire after ttl without access
func NewRedisCounterStore(client *redis.Client, ttl time.Duration) *RedisCounterStore {
	return &RedisCounterStore{client: client, ttl: ttl}
}

func counterKey(sessionID string) string {
	return counterKeyPrefix + sessionID
}

func (s *RedisCounterStore) Get(ctx context.Context, sessionID string) (int64, error) {
	if sessionID == "" {
		return 0, ErrEmptySessionID
	}

	count, err := s.client.GetEx(ctx, counterKey(sessionID), s.ttl).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read counter: %w", err)
	}
	return count, nil
}

func (s *RedisCounterStore) Increment(ctx context.Context, sessionID string) (int64, error) {
	if sessionID == "" {
		return 0, ErrEmptySessionID
	}

	key := counterKey(sessionID)
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter: %w", err)
	}
	return incr.Val(), nil
}

func (s *RedisCounterStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	if err := s.client.Del(ctx, counterKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete counter: %w", err)
	}
	return nil
}

func (s *RedisCounterStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisCounterStore) Name() string {
	return "redis"
}

func (s *RedisCounterStore) Close() error {
	return s.client.Close()
}
