package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/spidy-listings/pkg/logging"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SPIDY_"

// Load returns the defaults overlaid with the YAML file at path.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand ${VAR} environment variables
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads a .env file into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// LoadEnv loads the .env file, the YAML file and the SPIDY_* overrides.
// The .env file comes first so ${VAR} in the YAML can refer to it.
// Flags are applied by the caller before Validate.
func LoadEnv(path, dotEnvPath string) (*Config, error) {
	if dotEnvPath != "" {
		if err := LoadDotEnv(dotEnvPath); err != nil {
			return nil, err
		}
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from SPIDY_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	e := envReader{lookup: lookup}

	e.str("API_BASE_URL", &c.API.BaseURL)
	e.str("API_VERSION", &c.API.Version)
	e.str("API_FORMAT", &c.API.Format)
	e.str("API_USER_AGENT", &c.API.UserAgent)
	e.duration("API_TIMEOUT", &c.API.Timeout)

	e.duration("PACING_MAX_INTERVAL", &c.Pacing.MaxInterval)
	e.duration("PACING_INITIAL_INTERVAL", &c.Pacing.InitialInterval)
	e.float("PACING_MULTIPLIER", &c.Pacing.Multiplier)
	e.float("PACING_JITTER", &c.Pacing.Jitter)

	e.str("REDIS_ADDR", &c.RateLimit.RedisAddr)
	e.int("REDIS_DB", &c.RateLimit.RedisDB)
	e.duration("RATE_LIMIT_COOLDOWN", &c.RateLimit.Cooldown)

	e.str("OUTPUT_DIR", &c.Output.Dir)

	var level string
	if e.str("LOG_LEVEL", &level) {
		c.Log.Level = logging.LogLevel(level)
	}
	e.bool("LOG_PRETTY", &c.Log.Pretty)

	e.str("METRICS_ADDR", &c.Metrics.Addr)

	return e.err
}

// envReader records the first parse error and ignores later variables.
type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envReader) get(name string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	value, ok := e.lookup(EnvPrefix + name)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func (e *envReader) fail(name, value string, err error) {
	e.err = fmt.Errorf("parse %s%s=%q: %w", EnvPrefix, name, value, err)
}

func (e *envReader) str(name string, dst *string) bool {
	value, ok := e.get(name)
	if ok {
		*dst = value
	}
	return ok
}

func (e *envReader) duration(name string, dst *time.Duration) {
	value, ok := e.get(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		e.fail(name, value, err)
		return
	}
	*dst = d
}

func (e *envReader) float(name string, dst *float64) {
	value, ok := e.get(name)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		e.fail(name, value, err)
		return
	}
	*dst = f
}

func (e *envReader) int(name string, dst *int) {
	value, ok := e.get(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		e.fail(name, value, err)
		return
	}
	*dst = n
}

func (e *envReader) bool(name string, dst *bool) {
	value, ok := e.get(name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		e.fail(name, value, err)
		return
	}
	*dst = b
}
