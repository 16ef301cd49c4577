// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelTrace logs everything.
	LevelTrace LogLevel = "trace"

	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	// Set global log level
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	// Configure output
	var output io.Writer = cfg.Output
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: cfg.Output}
	}

	// Create logger with timestamp
	logger := zerolog.New(output).With().Timestamp().Logger()

	// Set as global logger
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// LevelFromVerbosity maps a repeated -v count to a level: none is info,
// one is debug, two or more is trace.
func LevelFromVerbosity(count int) LogLevel {
	switch {
	case count <= 0:
		return LevelInfo
	case count == 1:
		return LevelDebug
	default:
		return LevelTrace
	}
}

// ValidLevel reports whether level names a known log level.
func ValidLevel(level LogLevel) bool {
	switch strings.ToLower(string(level)) {
	case "trace", "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Trace: Wire-level detail
//   - Individual rows as they are written
//
// Debug: Detailed information for debugging
//   - Pacing delays before each page request
//   - Page numbers and last page of every fetched page
//   - Single item lookups
//
// Info: Normal operation events
//   - "[n of total]" progress per item
//   - Output file paths
//   - Run summary
//
// Warn: Recovered problems
//   - Search terms with zero or several matches
//   - Failed item lookups (skipped)
//   - Items whose retrieval failed
//   - Server cooldowns (429 / Retry-After)
//
// Error: Conditions that abort the run
//   - Output directory or file cannot be created/written
//   - Catalog pagination failure in "all items" mode
//   - Configuration errors
//
// Context Fields:
//   - run_id: Run identifier (uuid)
//   - item_id / item_name: Item being processed
//   - side: Listing side (buy, sell)
//   - sequence: Paginated endpoint name
//   - page / last_page: Pagination cursor
//   - delay: Pacing delay
//   - state: Per-item pipeline state
//   - error_class: Error classification (network, client, server, rate_limit, decode)
