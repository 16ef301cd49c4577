// Package pacing computes the delays that throttle sustained pagination
// against the rate-limited GW2Spidy API.
//
// A Policy is consulted before every page request, including the first one,
// so it paces normal traffic rather than only error retries. Delays grow
// exponentially from InitialInterval and plateau at MaxInterval.
package pacing

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Config holds the pacing configuration.
type Config struct {
	// InitialInterval is the first delay returned by a fresh Policy.
	InitialInterval time.Duration

	// MaxInterval caps every delay. Zero disables pacing.
	MaxInterval time.Duration

	// Multiplier grows the delay after each call (must be >= 1).
	Multiplier float64

	// Jitter is the randomization factor in [0, 1). A jittered delay never
	// drops below (1-Jitter) times the un-jittered value.
	Jitter float64
}

// DefaultConfig returns the pacing defaults (1 second cap, no jitter).
func DefaultConfig() Config {
	return Config{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     1 * time.Second,
		Multiplier:      1.5,
		Jitter:          0,
	}
}

// Validate checks the configuration bounds.
func (c Config) Validate() error {
	if c.MaxInterval < 0 {
		return fmt.Errorf("max interval must be >= 0 (got %s)", c.MaxInterval)
	}
	if c.InitialInterval < 0 {
		return fmt.Errorf("initial interval must be >= 0 (got %s)", c.InitialInterval)
	}
	if c.Multiplier < 1 {
		return fmt.Errorf("multiplier must be >= 1 (got %g)", c.Multiplier)
	}
	if c.Jitter < 0 || c.Jitter >= 1 {
		return fmt.Errorf("jitter must be in [0, 1) (got %g)", c.Jitter)
	}
	return nil
}

// Policy is an exponential delay generator. It is not safe for concurrent
// use; each page sequence owns its own Policy.
type Policy struct {
	cfg Config
	exp *backoff.ExponentialBackOff
}

// New creates a Policy from cfg. An InitialInterval above MaxInterval is
// lowered to MaxInterval.
func New(cfg Config) (*Policy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pacing config: %w", err)
	}
	if cfg.InitialInterval > cfg.MaxInterval {
		cfg.InitialInterval = cfg.MaxInterval
	}

	exp := &backoff.ExponentialBackOff{
		InitialInterval:     cfg.InitialInterval,
		RandomizationFactor: cfg.Jitter,
		Multiplier:          cfg.Multiplier,
		MaxInterval:         cfg.MaxInterval,
		MaxElapsedTime:      0, // never stop
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	exp.Reset()

	return &Policy{cfg: cfg, exp: exp}, nil
}

// NextDelay returns the delay to wait before the next request and advances
// the exponent. It never fails.
func (p *Policy) NextDelay() time.Duration {
	d := p.exp.NextBackOff()
	if d == backoff.Stop || d > p.cfg.MaxInterval {
		return p.cfg.MaxInterval
	}
	if d < 0 {
		return 0
	}
	return d
}

// Reset restarts the sequence of delays at InitialInterval.
func (p *Policy) Reset() {
	p.exp.Reset()
}
