// Package config holds the configuration surface of spidy-listings.
//
// Values are layered: built-in defaults, an optional YAML file, an optional
// .env file, SPIDY_* environment variables, and finally command line flags
// applied by the caller. Validate runs last.
package config

import (
	"time"

	"github.com/Sternrassler/spidy-listings/pkg/logging"
	"github.com/Sternrassler/spidy-listings/pkg/pacing"
)

// Config is the full run configuration.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Pacing    PacingConfig    `yaml:"pacing"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Output    OutputConfig    `yaml:"output"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Selection SelectionConfig `yaml:"selection"`
}

// APIConfig locates the GW2Spidy API.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Version   string        `yaml:"version"`
	Format    string        `yaml:"format"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// PacingConfig configures the per-sequence backoff policy.
type PacingConfig struct {
	// MaxInterval caps the wait before a page request. Zero disables pacing.
	MaxInterval     time.Duration `yaml:"max_interval"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	Multiplier      float64       `yaml:"multiplier"`
	Jitter          float64       `yaml:"jitter"`
}

// Policy converts to the pacing package configuration.
func (p PacingConfig) Policy() pacing.Config {
	return pacing.Config{
		InitialInterval: p.InitialInterval,
		MaxInterval:     p.MaxInterval,
		Multiplier:      p.Multiplier,
		Jitter:          p.Jitter,
	}
}

// RateLimitConfig configures the server cooldown tracker.
type RateLimitConfig struct {
	// RedisAddr selects the Redis store. Empty keeps the cooldown in memory.
	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`

	// Cooldown applies when a rate limited response has no Retry-After.
	Cooldown time.Duration `yaml:"cooldown"`
}

// OutputConfig configures the CSV sink.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  logging.LogLevel `yaml:"level"`
	Pretty bool             `yaml:"pretty"`
}

// MetricsConfig configures the Prometheus listener.
type MetricsConfig struct {
	// Addr is the listen address. Empty disables the listener.
	Addr string `yaml:"addr"`
}

// SelectionConfig selects the items to fetch.
type SelectionConfig struct {
	ItemIDs   []int64  `yaml:"item_ids"`
	ItemNames []string `yaml:"item_names"`
	All       bool     `yaml:"all"`
}
