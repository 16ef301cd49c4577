package config

import (
	"time"

	"github.com/Sternrassler/spidy-listings/pkg/logging"
)

// Default values for configuration fields.
const (
	DefaultBaseURL         = "https://www.gw2spidy.com/api"
	DefaultVersion         = "v0.9"
	DefaultFormat          = "json"
	DefaultUserAgent       = "spidy-listings/0.1.0"
	DefaultAPITimeout      = 30 * time.Second
	DefaultMaxInterval     = 1 * time.Second
	DefaultInitialInterval = 500 * time.Millisecond
	DefaultMultiplier      = 1.5
	DefaultJitter          = 0.0
	DefaultCooldown        = 30 * time.Second
	DefaultOutputDir       = "output"
	DefaultLogLevel        = logging.LevelInfo
)

// Default returns a configuration with every default applied and no
// selection. Zero is a meaningful pacing.max_interval, so defaults are
// set up front and the YAML file overlays them.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   DefaultBaseURL,
			Version:   DefaultVersion,
			Format:    DefaultFormat,
			UserAgent: DefaultUserAgent,
			Timeout:   DefaultAPITimeout,
		},
		Pacing: PacingConfig{
			MaxInterval:     DefaultMaxInterval,
			InitialInterval: DefaultInitialInterval,
			Multiplier:      DefaultMultiplier,
			Jitter:          DefaultJitter,
		},
		RateLimit: RateLimitConfig{
			Cooldown: DefaultCooldown,
		},
		Output: OutputConfig{
			Dir: DefaultOutputDir,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}
