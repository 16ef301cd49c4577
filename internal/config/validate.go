package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/Sternrassler/spidy-listings/pkg/logging"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if err := c.API.validate("api"); err != nil {
		return err
	}
	if err := c.Pacing.validate("pacing"); err != nil {
		return err
	}

	if c.RateLimit.Cooldown <= 0 {
		return fmt.Errorf("rate_limit.cooldown must be > 0, got %s", c.RateLimit.Cooldown)
	}
	if c.RateLimit.RedisDB < 0 {
		return fmt.Errorf("rate_limit.redis_db must be >= 0, got %d", c.RateLimit.RedisDB)
	}

	if c.Output.Dir == "" {
		return errors.New("output.dir is required")
	}

	if !logging.ValidLevel(c.Log.Level) {
		return fmt.Errorf("log.level must be one of trace, debug, info, warn, error, got %q", c.Log.Level)
	}

	return c.Selection.validate("selection")
}

func (a *APIConfig) validate(prefix string) error {
	if a.BaseURL == "" {
		return fmt.Errorf("%s.base_url is required", prefix)
	}
	u, err := url.Parse(a.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s.base_url must be an absolute http(s) url, got %q", prefix, a.BaseURL)
	}
	if a.Version == "" {
		return fmt.Errorf("%s.version is required", prefix)
	}
	if a.Format != "json" {
		return fmt.Errorf("%s.format must be json, got %q", prefix, a.Format)
	}
	if a.UserAgent == "" {
		return fmt.Errorf("%s.user_agent is required", prefix)
	}
	if a.Timeout <= 0 {
		return fmt.Errorf("%s.timeout must be > 0, got %s", prefix, a.Timeout)
	}
	return nil
}

func (p *PacingConfig) validate(prefix string) error {
	if p.MaxInterval < 0 {
		return fmt.Errorf("%s.max_interval must be >= 0, got %s", prefix, p.MaxInterval)
	}
	if p.InitialInterval < 0 {
		return fmt.Errorf("%s.initial_interval must be >= 0, got %s", prefix, p.InitialInterval)
	}
	if p.Multiplier < 1 {
		return fmt.Errorf("%s.multiplier must be >= 1, got %g", prefix, p.Multiplier)
	}
	if p.Jitter < 0 || p.Jitter >= 1 {
		return fmt.Errorf("%s.jitter must be in [0, 1), got %g", prefix, p.Jitter)
	}
	return nil
}

func (s *SelectionConfig) validate(prefix string) error {
	explicit := len(s.ItemIDs) > 0 || len(s.ItemNames) > 0
	if s.All && explicit {
		return fmt.Errorf("%s.all cannot be combined with %s.item_ids or %s.item_names", prefix, prefix, prefix)
	}
	if !s.All && !explicit {
		return fmt.Errorf("%s requires item_ids, item_names or all", prefix)
	}
	for _, id := range s.ItemIDs {
		if id <= 0 {
			return fmt.Errorf("%s.item_ids must be > 0, got %d", prefix, id)
		}
	}
	for _, name := range s.ItemNames {
		if name == "" {
			return fmt.Errorf("%s.item_names must not contain empty terms", prefix)
		}
	}
	return nil
}
