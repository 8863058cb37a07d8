// Package logger provides structured logging configuration using log/slog.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// Config holds logger configuration.
type Config struct {
	Level  slog.Level
	Format string // "text", "json" or "pretty"

	// Output defaults to os.Stderr
	Output io.Writer
}

// NewLogger creates a configured slog.Logger.
func NewLogger(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: cfg.Level,
		// Add a source location for debug and error levels
		AddSource: cfg.Level <= slog.LevelDebug,
	}

	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	case "pretty":
		handler = charmlog.NewWithOptions(out, charmlog.Options{
			Level:           charmlog.Level(cfg.Level),
			ReportTimestamp: true,
			ReportCaller:    cfg.Level <= slog.LevelDebug,
			Prefix:          "tunequeue",
		})
	default:
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler)
}

// ParseLevel converts a level name into a slog.Level.
// Valid values: DEBUG, INFO, WARN, WARNING, ERROR (any case).
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// DefaultConfig returns the default logger configuration: INFO, text
// format, with TUNEQUEUE_LOG_LEVEL applied.
func DefaultConfig() Config {
	return ApplyEnv(Config{
		Level:  slog.LevelInfo,
		Format: "text",
	})
}

// ApplyEnv lets TUNEQUEUE_LOG_LEVEL override a configured level.
// Unknown names are ignored.
func ApplyEnv(cfg Config) Config {
	if envLevel := os.Getenv("TUNEQUEUE_LOG_LEVEL"); envLevel != "" {
		if parsed, ok := ParseLevel(envLevel); ok {
			cfg.Level = parsed
		}
	}
	return cfg
}
