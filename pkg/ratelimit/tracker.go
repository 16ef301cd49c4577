package ratelimit

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for cooldown tracking.
var (
	cooldownsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spidy_rate_limit_cooldowns_total",
		Help: "Total number of server-requested cooldowns observed",
	})

	cooldownRemainingSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spidy_rate_limit_cooldown_remaining_seconds",
		Help: "Cooldown remaining at the last pre-request check",
	})

	storeErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spidy_rate_limit_store_errors_total",
		Help: "Total number of cooldown store errors by operation",
	}, []string{"operation"})
)

// Tracker turns rate limited responses into a cooldown that page sequences
// wait out before their next request.
type Tracker struct {
	store    Store
	cooldown time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewTracker creates a tracker. A cooldown <= 0 falls back to DefaultCooldown.
func NewTracker(store Store, cooldown time.Duration, logger zerolog.Logger) *Tracker {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Tracker{
		store:    store,
		cooldown: cooldown,
		logger:   logger,
		now:      time.Now,
	}
}

// ObserveResponse records a cooldown for 429 responses and for 503
// responses carrying Retry-After. Other responses are ignored.
func (t *Tracker) ObserveResponse(ctx context.Context, statusCode int, header http.Header) {
	retryAfter := header.Get("Retry-After")
	if statusCode != http.StatusTooManyRequests &&
		!(statusCode == http.StatusServiceUnavailable && retryAfter != "") {
		return
	}

	now := t.now()
	wait, ok := ParseRetryAfter(retryAfter, now)
	if !ok {
		wait = t.cooldown
	}
	until := now.Add(wait)

	cooldownsTotal.Inc()
	t.logger.Warn().
		Int("status", statusCode).
		Str("retry_after", retryAfter).
		Dur("cooldown", wait).
		Time("blocked_until", until).
		Msg("Server requested cooldown")

	if err := t.store.ExtendBlockedUntil(ctx, until); err != nil {
		storeErrorsTotal.WithLabelValues("set").Inc()
		t.logger.Warn().Err(err).Msg("Failed to store cooldown")
	}
}

// State returns the current cooldown state.
func (t *Tracker) State(ctx context.Context) (CooldownState, error) {
	until, err := t.store.BlockedUntil(ctx)
	if err != nil {
		return CooldownState{}, err
	}
	return CooldownState{BlockedUntil: until}, nil
}

// Remaining returns how long requests should still wait. Store errors are
// logged and treated as no cooldown.
func (t *Tracker) Remaining(ctx context.Context) time.Duration {
	state, err := t.State(ctx)
	if err != nil {
		storeErrorsTotal.WithLabelValues("get").Inc()
		t.logger.Warn().Err(err).Msg("Failed to read cooldown, proceeding without it")
		return 0
	}

	remaining := state.Remaining(t.now())
	cooldownRemainingSeconds.Set(remaining.Seconds())
	if remaining > 0 {
		t.logger.Info().
			Dur("remaining", remaining).
			Msg("Waiting out server cooldown")
	}
	return remaining
}
