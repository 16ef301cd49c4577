package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists the cooldown deadline. Implementations only ever extend
// the deadline, never shorten it.
type Store interface {
	BlockedUntil(ctx context.Context) (time.Time, error)
	ExtendBlockedUntil(ctx context.Context, until time.Time) error
}

// MemoryStore keeps the deadline in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	until time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// BlockedUntil implements Store.
func (s *MemoryStore) BlockedUntil(context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.until, nil
}

// ExtendBlockedUntil implements Store.
func (s *MemoryStore) ExtendBlockedUntil(_ context.Context, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if until.After(s.until) {
		s.until = until
	}
	return nil
}

// RedisStore shares the deadline through Redis. The key expires together
// with the cooldown.
type RedisStore struct {
	redis *redis.Client
	key   string
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		redis: redisClient,
		key:   RedisKeyBlockedUntil,
	}
}

// BlockedUntil implements Store. A missing key means no cooldown.
func (s *RedisStore) BlockedUntil(ctx context.Context) (time.Time, error) {
	ms, err := s.redis.Get(ctx, s.key).Int64()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("redis get: %w", err)
	}
	return time.UnixMilli(ms), nil
}

// ExtendBlockedUntil implements Store.
func (s *RedisStore) ExtendBlockedUntil(ctx context.Context, until time.Time) error {
	current, err := s.BlockedUntil(ctx)
	if err != nil {
		return err
	}
	if !until.After(current) {
		return nil
	}

	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}

	if err := s.redis.Set(ctx, s.key, until.UnixMilli(), ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
