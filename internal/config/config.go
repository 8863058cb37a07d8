// Package config loads application settings from TOML files.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tejashwikalptaru/tunequeue/internal/domain"
)

const (
	appName        = "tunequeue"
	configFileName = "config.toml"
	stateFileName  = "state.db"
)

// Backend kinds.
const (
	BackendMPV  = "mpv"
	BackendMock = "mock"
)

// State stores.
const (
	StoreSQLite      = "sqlite"
	StorePreferences = "preferences"
)

type Config struct {
	Log      LogConfig      `koanf:"log"`
	Playback PlaybackConfig `koanf:"playback"`
	History  HistoryConfig  `koanf:"history"`
	Backend  BackendConfig  `koanf:"backend"`
	State    StateConfig    `koanf:"state"`
	MPRIS    MPRISConfig    `koanf:"mpris"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text, json or pretty
}

// PlaybackConfig holds engine tunables.
type PlaybackConfig struct {
	RewindThreshold  time.Duration `koanf:"rewind_threshold"`  // restart instead of going back after this much
	PositionInterval time.Duration `koanf:"position_interval"` // minimum gap between position updates
	Repeat           string        `koanf:"repeat"`            // none, queue or one
	Shuffle          bool          `koanf:"shuffle"`           // shuffle freshly loaded queues
}

// HistoryConfig bounds the play history.
type HistoryConfig struct {
	Limit int `koanf:"limit"`
}

// BackendConfig selects the media backend.
type BackendConfig struct {
	Kind   string `koanf:"kind"`   // mpv or mock
	Volume int    `koanf:"volume"` // startup volume in percent, 0 keeps the default
}

// StateConfig controls session persistence between runs.
type StateConfig struct {
	Enabled bool   `koanf:"enabled"`
	Store   string `koanf:"store"` // sqlite or preferences
	Path    string `koanf:"path"`  // sqlite file; empty uses the XDG data dir
}

// MPRISConfig toggles the D-Bus media player interface.
type MPRISConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Playback: PlaybackConfig{
			RewindThreshold:  5 * time.Second,
			PositionInterval: 250 * time.Millisecond,
			Repeat:           "none",
		},
		History: HistoryConfig{Limit: 100},
		Backend: BackendConfig{Kind: BackendMPV},
		State: StateConfig{
			Enabled: true,
			Store:   StoreSQLite,
		},
		MPRIS: MPRISConfig{Enabled: true},
	}
}

// Load reads the configuration. An explicit path must exist; without one the
// XDG config file and ./tunequeue.toml are merged in that order (last wins).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	paths := getConfigPaths()
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		paths = []string{path}
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := k.Load(file.Provider(p), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.State.Path = expandPath(cfg.State.Path)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json", "pretty":
	default:
		return domain.NewValidationError("log.format", c.Log.Format, "must be text, json or pretty")
	}
	if c.Playback.RewindThreshold < 0 {
		return domain.NewValidationError("playback.rewind_threshold", c.Playback.RewindThreshold, "must not be negative")
	}
	if c.Playback.PositionInterval < 0 {
		return domain.NewValidationError("playback.position_interval", c.Playback.PositionInterval, "must not be negative")
	}
	if _, err := domain.ParseRepeatMode(c.Playback.Repeat); err != nil {
		return domain.NewValidationError("playback.repeat", c.Playback.Repeat, "must be none, queue or one")
	}
	if c.History.Limit < 1 {
		return domain.NewValidationError("history.limit", c.History.Limit, "must be at least 1")
	}
	switch c.Backend.Kind {
	case BackendMPV, BackendMock:
	default:
		return domain.NewValidationError("backend.kind", c.Backend.Kind, "must be mpv or mock")
	}
	if c.Backend.Volume < 0 || c.Backend.Volume > 100 {
		return domain.NewValidationError("backend.volume", c.Backend.Volume, "must be between 0 and 100")
	}
	switch c.State.Store {
	case StoreSQLite, StorePreferences:
	default:
		return domain.NewValidationError("state.store", c.State.Store, "must be sqlite or preferences")
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, domain.NewValidationError("log.level", c.Log.Level, "must be debug, info, warn or error")
	}
	return level, nil
}

// RepeatMode parses Playback.Repeat. Validate has already vetted it.
func (c *Config) RepeatMode() domain.RepeatMode {
	mode, _ := domain.ParseRepeatMode(c.Playback.Repeat)
	return mode
}

// StatePath returns the SQLite file, defaulting to the XDG data directory.
func (c *Config) StatePath() (string, error) {
	if c.State.Path != "" {
		return c.State.Path, nil
	}
	return xdg.DataFile(filepath.Join(appName, stateFileName))
}

func getConfigPaths() []string {
	return []string{
		filepath.Join(xdg.ConfigHome, appName, configFileName),
		appName + ".toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
