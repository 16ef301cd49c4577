package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level to be Info, got %s", cfg.Level)
	}

	if cfg.Pretty != false {
		t.Error("Expected default pretty to be false")
	}
}

func TestSetup(t *testing.T) {
	tests := []struct {
		name   string
		level  LogLevel
		pretty bool
		emit   func(zerolog.Logger)
		want   string
	}{
		{
			name:  "trace_row",
			level: LevelTrace,
			emit:  func(l zerolog.Logger) { l.Trace().Str("side", "buy").Msg("Row written") },
			want:  `"side":"buy"`,
		},
		{
			name:  "debug_page",
			level: LevelDebug,
			emit:  func(l zerolog.Logger) { l.Debug().Int("page", 2).Msg("Fetched page") },
			want:  `"page":2`,
		},
		{
			name:  "info_progress",
			level: LevelInfo,
			emit:  func(l zerolog.Logger) { l.Info().Msg("[1 of 3] Fetching item listings") },
			want:  "[1 of 3] Fetching item listings",
		},
		{
			name:  "warn_failed_item",
			level: LevelWarn,
			emit:  func(l zerolog.Logger) { l.Warn().Int64("item_id", 19697).Msg("Item failed") },
			want:  `"item_id":19697`,
		},
		{
			name:   "pretty_console",
			level:  LevelInfo,
			pretty: true,
			emit:   func(l zerolog.Logger) { l.Info().Str("run_id", "abc").Msg("Run finished") },
			want:   "run_id=",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := Setup(Config{Level: tt.level, Pretty: tt.pretty, Output: buf})

			tt.emit(logger)

			if output := buf.String(); !strings.Contains(output, tt.want) {
				t.Errorf("Expected output to contain %q, got %q", tt.want, output)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    LogLevel
		expected zerolog.Level
	}{
		{LevelTrace, zerolog.TraceLevel},
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{LevelWarn, zerolog.WarnLevel},
		{"WARNING", zerolog.WarnLevel},
		{LevelError, zerolog.ErrorLevel},
		{"invalid", zerolog.InfoLevel}, // Should default to Info
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			result := parseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelInfo, Output: buf})

	logger := NewLogger("runner")
	logger.Info().Msg("Starting run")

	output := buf.String()
	if !strings.Contains(output, `"component":"runner"`) {
		t.Errorf("Expected component field, got %q", output)
	}
	if !strings.Contains(output, "Starting run") {
		t.Errorf("Expected message, got %q", output)
	}
}

func TestVerbosityFiltering(t *testing.T) {
	tests := []struct {
		count   int
		visible []string
		hidden  []string
	}{
		{0, []string{"info", "warn"}, []string{"debug", "trace"}},
		{1, []string{"debug", "info"}, []string{"trace"}},
		{2, []string{"trace", "debug", "info"}, nil},
	}

	for _, tt := range tests {
		buf := &bytes.Buffer{}
		Setup(Config{Level: LevelFromVerbosity(tt.count), Output: buf})

		logger := NewLogger("test")
		logger.Trace().Msg("trace message")
		logger.Debug().Msg("debug message")
		logger.Info().Msg("info message")
		logger.Warn().Msg("warn message")

		output := buf.String()
		for _, v := range tt.visible {
			if !strings.Contains(output, v+" message") {
				t.Errorf("-v x%d: %s message should be logged", tt.count, v)
			}
		}
		for _, h := range tt.hidden {
			if strings.Contains(output, h+" message") {
				t.Errorf("-v x%d: %s message should be filtered", tt.count, h)
			}
		}
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		count    int
		expected LogLevel
	}{
		{0, LevelInfo},
		{1, LevelDebug},
		{2, LevelTrace},
		{5, LevelTrace},
	}

	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.count); got != tt.expected {
			t.Errorf("LevelFromVerbosity(%d) = %q, want %q", tt.count, got, tt.expected)
		}
	}
}

func TestValidLevel(t *testing.T) {
	for _, level := range []LogLevel{LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError, "WARNING"} {
		if !ValidLevel(level) {
			t.Errorf("ValidLevel(%q) = false, want true", level)
		}
	}
	if ValidLevel("loud") {
		t.Error("ValidLevel(\"loud\") = true, want false")
	}
}
