package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestTracker(store Store, now time.Time) *Tracker {
	tr := NewTracker(store, 30*time.Second, zerolog.Nop())
	tr.now = func() time.Time { return now }
	return tr
}

func TestTracker_ObserveResponse(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		status int
		header http.Header
		want   time.Duration
	}{
		{name: "ok response", status: 200, header: http.Header{}, want: 0},
		{name: "not found", status: 404, header: http.Header{}, want: 0},
		{name: "too many requests with retry-after", status: 429, header: http.Header{"Retry-After": []string{"10"}}, want: 10 * time.Second},
		{name: "too many requests without retry-after", status: 429, header: http.Header{}, want: 30 * time.Second},
		{name: "unavailable with retry-after", status: 503, header: http.Header{"Retry-After": []string{"7"}}, want: 7 * time.Second},
		{name: "unavailable without retry-after", status: 503, header: http.Header{}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestTracker(NewMemoryStore(), now)
			ctx := context.Background()

			tr.ObserveResponse(ctx, tt.status, tt.header)

			if got := tr.Remaining(ctx); got != tt.want {
				t.Errorf("Remaining() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTracker_CooldownOnlyExtends(t *testing.T) {
	now := time.Now()
	tr := newTestTracker(NewMemoryStore(), now)
	ctx := context.Background()

	tr.ObserveResponse(ctx, 429, http.Header{"Retry-After": []string{"60"}})
	tr.ObserveResponse(ctx, 429, http.Header{"Retry-After": []string{"5"}})

	if got := tr.Remaining(ctx); got != time.Minute {
		t.Errorf("Remaining() = %v, want 1m0s", got)
	}
}

func TestTracker_CooldownExpires(t *testing.T) {
	now := time.Now()
	tr := newTestTracker(NewMemoryStore(), now)
	ctx := context.Background()

	tr.ObserveResponse(ctx, 429, http.Header{"Retry-After": []string{"2"}})

	tr.now = func() time.Time { return now.Add(3 * time.Second) }
	if got := tr.Remaining(ctx); got != 0 {
		t.Errorf("Remaining() after expiry = %v, want 0", got)
	}
}

type failingStore struct{}

func (failingStore) BlockedUntil(context.Context) (time.Time, error) {
	return time.Time{}, errors.New("connection refused")
}

func (failingStore) ExtendBlockedUntil(context.Context, time.Time) error {
	return errors.New("connection refused")
}

func TestTracker_StoreErrorsMeanNoCooldown(t *testing.T) {
	tr := newTestTracker(failingStore{}, time.Now())
	ctx := context.Background()

	tr.ObserveResponse(ctx, 429, http.Header{"Retry-After": []string{"10"}})

	if got := tr.Remaining(ctx); got != 0 {
		t.Errorf("Remaining() = %v, want 0", got)
	}
	if _, err := tr.State(ctx); err == nil {
		t.Error("State() should surface the store error")
	}
}

func TestNewTracker_DefaultCooldown(t *testing.T) {
	tr := NewTracker(NewMemoryStore(), 0, zerolog.Nop())
	if tr.cooldown != DefaultCooldown {
		t.Errorf("cooldown = %v, want %v", tr.cooldown, DefaultCooldown)
	}
}
