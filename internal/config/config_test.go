package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunequeue/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5*time.Second, cfg.Playback.RewindThreshold)
	assert.Equal(t, 250*time.Millisecond, cfg.Playback.PositionInterval)
	assert.Equal(t, 100, cfg.History.Limit)
	assert.Equal(t, BackendMPV, cfg.Backend.Kind)
	assert.Equal(t, StoreSQLite, cfg.State.Store)
	assert.True(t, cfg.State.Enabled)
	assert.Equal(t, domain.RepeatNone, cfg.RepeatMode())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
[log]
level = "DEBUG"
format = "json"

[playback]
rewind_threshold = "3s"
position_interval = "1s"
repeat = "queue"
shuffle = true

[history]
limit = 20

[backend]
kind = "mock"
volume = 70

[state]
store = "preferences"
path = "~/tq/state.db"

[mpris]
enabled = false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 3*time.Second, cfg.Playback.RewindThreshold)
	assert.Equal(t, time.Second, cfg.Playback.PositionInterval)
	assert.Equal(t, domain.RepeatQueue, cfg.RepeatMode())
	assert.True(t, cfg.Playback.Shuffle)
	assert.Equal(t, 20, cfg.History.Limit)
	assert.Equal(t, BackendMock, cfg.Backend.Kind)
	assert.Equal(t, 70, cfg.Backend.Volume)
	assert.Equal(t, StorePreferences, cfg.State.Store)
	assert.True(t, cfg.State.Enabled, "unset keys keep their defaults")
	assert.False(t, cfg.MPRIS.Enabled)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	if home, err := os.UserHomeDir(); err == nil {
		assert.Equal(t, filepath.Join(home, "tq", "state.db"), cfg.State.Path)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[history]\nlimit = 5\n"))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.History.Limit)
	assert.Equal(t, 5*time.Second, cfg.Playback.RewindThreshold)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_InvalidTOML(t *testing.T) {
	_, err := Load(writeConfig(t, "[log\nlevel ="))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"negative rewind", func(c *Config) { c.Playback.RewindThreshold = -time.Second }, "playback.rewind_threshold"},
		{"negative interval", func(c *Config) { c.Playback.PositionInterval = -time.Second }, "playback.position_interval"},
		{"bad repeat", func(c *Config) { c.Playback.Repeat = "forever" }, "playback.repeat"},
		{"zero history", func(c *Config) { c.History.Limit = 0 }, "history.limit"},
		{"bad backend", func(c *Config) { c.Backend.Kind = "bass" }, "backend.kind"},
		{"loud volume", func(c *Config) { c.Backend.Volume = 130 }, "backend.volume"},
		{"bad store", func(c *Config) { c.State.Store = "redis" }, "state.store"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			var vErr *domain.ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestStatePath(t *testing.T) {
	cfg := Default()
	cfg.State.Path = "/tmp/custom.db"
	path, err := cfg.StatePath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.db", path)

	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	xdg.Reload()
	cfg.State.Path = ""
	path, err = cfg.StatePath()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, filepath.Join("tunequeue", "state.db")))
}

func TestGetConfigPaths(t *testing.T) {
	paths := getConfigPaths()
	require.Len(t, paths, 2)
	assert.Equal(t, "tunequeue.toml", paths[len(paths)-1], "local file has the highest priority")
}
