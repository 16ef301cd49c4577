// Package ratelimit tracks server-requested cooldowns (429 responses and
// Retry-After headers) so later page requests wait them out.
//
// The state can live in memory or in Redis. Redis lets several concurrent
// runs against the same API share one view of the cooldown.
package ratelimit

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RedisKeyBlockedUntil stores the cooldown deadline in Unix milliseconds.
const RedisKeyBlockedUntil = "spidy:rate_limit:blocked_until"

// DefaultCooldown is used when a rate limited response carries no Retry-After.
const DefaultCooldown = 30 * time.Second

// CooldownState is the current cooldown as seen by a tracker.
type CooldownState struct {
	// BlockedUntil is the deadline before which no request should be sent.
	BlockedUntil time.Time `json:"blocked_until"`
}

// Remaining returns the time left at now, or 0 once expired.
func (s CooldownState) Remaining(now time.Time) time.Duration {
	d := s.BlockedUntil.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// ParseRetryAfter parses a Retry-After value given either as delay seconds
// or as an HTTP date. ok is false for empty or invalid values.
func ParseRetryAfter(value string, now time.Time) (d time.Duration, ok bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}

	at, err := http.ParseTime(value)
	if err != nil {
		return 0, false
	}
	if d := at.Sub(now); d > 0 {
		return d, true
	}
	return 0, true
}
