//go:build integration

package ratelimit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestRedisStore_Integration_EmptyState(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	store := NewRedisStore(redisClient)

	until, err := store.BlockedUntil(context.Background())
	if err != nil {
		t.Fatalf("BlockedUntil() error: %v", err)
	}
	if !until.IsZero() {
		t.Errorf("BlockedUntil() = %v, want zero time", until)
	}
}

func TestRedisStore_Integration_ExtendOnly(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRedisStore(redisClient)

	far := time.Now().Add(time.Minute).Truncate(time.Millisecond)
	if err := store.ExtendBlockedUntil(ctx, far); err != nil {
		t.Fatalf("ExtendBlockedUntil() error: %v", err)
	}
	if err := store.ExtendBlockedUntil(ctx, time.Now().Add(5*time.Second)); err != nil {
		t.Fatalf("ExtendBlockedUntil() error: %v", err)
	}

	until, err := store.BlockedUntil(ctx)
	if err != nil {
		t.Fatalf("BlockedUntil() error: %v", err)
	}
	if !until.Equal(far) {
		t.Errorf("BlockedUntil() = %v, want %v", until, far)
	}

	ttl, err := redisClient.TTL(ctx, RedisKeyBlockedUntil).Result()
	if err != nil {
		t.Fatalf("TTL error: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL = %v, want within (0, 1m]", ttl)
	}
}

func TestTracker_Integration_SharedCooldown(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()

	// Two trackers stand in for two concurrent runs.
	first := NewTracker(NewRedisStore(redisClient), time.Minute, zerolog.Nop())
	second := NewTracker(NewRedisStore(redisClient), time.Minute, zerolog.Nop())

	first.ObserveResponse(ctx, http.StatusTooManyRequests, http.Header{"Retry-After": []string{"30"}})

	remaining := second.Remaining(ctx)
	if remaining <= 25*time.Second || remaining > 30*time.Second {
		t.Errorf("Remaining() on second tracker = %v, want about 30s", remaining)
	}
}
