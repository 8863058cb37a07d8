package logger

import (
	"log/slog"
	"os"
)

// NewTestLogger returns a quiet logger for tests: WARN and above, text, on
// stdout. TUNEQUEUE_TEST_DEBUG=1 turns on debug output with source locations
// when a test needs the engine's event trace.
func NewTestLogger() *slog.Logger {
	cfg := Config{Level: slog.LevelWarn, Format: "text", Output: os.Stdout}
	if os.Getenv("TUNEQUEUE_TEST_DEBUG") != "" {
		cfg.Level = slog.LevelDebug
	}
	return NewLogger(cfg)
}
