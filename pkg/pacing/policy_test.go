package pacing

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxInterval != 1*time.Second {
		t.Errorf("MaxInterval = %v, want 1s", cfg.MaxInterval)
	}
	if cfg.InitialInterval != 500*time.Millisecond {
		t.Errorf("InitialInterval = %v, want 500ms", cfg.InitialInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero max interval", mutate: func(c *Config) { c.MaxInterval = 0 }},
		{name: "negative max interval", mutate: func(c *Config) { c.MaxInterval = -time.Second }, wantErr: true},
		{name: "negative initial interval", mutate: func(c *Config) { c.InitialInterval = -time.Second }, wantErr: true},
		{name: "shrinking multiplier", mutate: func(c *Config) { c.Multiplier = 0.5 }, wantErr: true},
		{name: "jitter of one", mutate: func(c *Config) { c.Jitter = 1 }, wantErr: true},
		{name: "negative jitter", mutate: func(c *Config) { c.Jitter = -0.1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			_, err := New(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPolicy_FirstDelayIsBase(t *testing.T) {
	p, err := New(Config{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     time.Second,
		Multiplier:      2,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if got := p.NextDelay(); got != 100*time.Millisecond {
		t.Errorf("first NextDelay() = %v, want 100ms", got)
	}
}

func TestPolicy_MonotonicAndCapped(t *testing.T) {
	maxInterval := 2 * time.Second
	p, err := New(Config{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     maxInterval,
		Multiplier:      1.5,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	var prev time.Duration
	for k := 0; k < 50; k++ {
		d := p.NextDelay()
		if d < prev {
			t.Fatalf("delay %d = %v decreased from %v", k, d, prev)
		}
		if d > maxInterval {
			t.Fatalf("delay %d = %v exceeds max %v", k, d, maxInterval)
		}
		prev = d
	}

	if prev != maxInterval {
		t.Errorf("delay should plateau at %v, got %v", maxInterval, prev)
	}
}

func TestPolicy_ZeroMaxInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxInterval = 0

	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	for k := 0; k < 10; k++ {
		if d := p.NextDelay(); d != 0 {
			t.Fatalf("delay %d = %v, want 0", k, d)
		}
	}
}

func TestPolicy_InitialAboveMaxIsClamped(t *testing.T) {
	p, err := New(Config{
		InitialInterval: 5 * time.Second,
		MaxInterval:     time.Second,
		Multiplier:      2,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if got := p.NextDelay(); got != time.Second {
		t.Errorf("NextDelay() = %v, want 1s", got)
	}
}

func TestPolicy_JitterBounds(t *testing.T) {
	cfg := Config{
		InitialInterval: 400 * time.Millisecond,
		MaxInterval:     400 * time.Millisecond,
		Multiplier:      1,
		Jitter:          0.25,
	}

	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	floor := 300 * time.Millisecond
	for k := 0; k < 200; k++ {
		d := p.NextDelay()
		if d < floor || d > cfg.MaxInterval {
			t.Fatalf("jittered delay %v outside [%v, %v]", d, floor, cfg.MaxInterval)
		}
	}
}

func TestPolicy_Reset(t *testing.T) {
	p, err := New(Config{
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     time.Second,
		Multiplier:      2,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	p.NextDelay()
	p.NextDelay()
	p.Reset()

	if got := p.NextDelay(); got != 10*time.Millisecond {
		t.Errorf("NextDelay() after Reset = %v, want 10ms", got)
	}
}
