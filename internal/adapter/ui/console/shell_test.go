package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunequeue/internal/adapter/backend/mock"
	"github.com/tejashwikalptaru/tunequeue/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunequeue/internal/domain"
	"github.com/tejashwikalptaru/tunequeue/internal/logger"
	"github.com/tejashwikalptaru/tunequeue/internal/service"
)

// stubSource turns every ref into a track with the same ID.
type stubSource struct{}

func (stubSource) Resolve(refs []string) ([]domain.Track, error) {
	tracks := make([]domain.Track, len(refs))
	for i, ref := range refs {
		tracks[i] = domain.Track{ID: ref, Locator: ref}
	}
	return tracks, nil
}

func newTestShell(t *testing.T) (*Shell, *service.Engine, *mock.Backend, *bytes.Buffer) {
	t.Helper()

	backend := mock.NewBackend()
	bus := eventbus.NewSyncEventBus()
	cfg := service.DefaultEngineConfig()
	cfg.PositionInterval = 0
	engine := service.NewEngine(logger.NewTestLogger(), backend, bus, cfg)
	t.Cleanup(func() {
		_ = engine.Shutdown()
		_ = backend.Close()
		_ = bus.Close()
	})

	var out bytes.Buffer
	shell := NewShell(logger.NewTestLogger(), engine, stubSource{}, NewView(&out), &out)
	return shell, engine, backend, &out
}

func trackIDs(snap domain.SessionSnapshot) []string {
	ids := make([]string, len(snap.Queue))
	for i, e := range snap.Queue {
		ids[i] = e.Track.ID
	}
	return ids
}

func TestShell_QueueEditing(t *testing.T) {
	shell, engine, _, _ := newTestShell(t)
	ctx := context.Background()

	require.NoError(t, engine.Load(ctx, []domain.Track{{ID: "a", Locator: "a"}, {ID: "b", Locator: "b"}}))

	require.NoError(t, shell.Execute(ctx, "add x y"))
	assert.Equal(t, []string{"x", "y", "a", "b"}, trackIDs(engine.Snapshot()), "nothing current: added at the front")

	require.NoError(t, shell.Execute(ctx, "insert 2 z"))
	assert.Equal(t, []string{"x", "z", "y", "a", "b"}, trackIDs(engine.Snapshot()))

	require.NoError(t, shell.Execute(ctx, "rm 1"))
	assert.Equal(t, []string{"z", "y", "a", "b"}, trackIDs(engine.Snapshot()))

	err := shell.Execute(ctx, "remove 9")
	assert.True(t, errors.Is(err, domain.ErrOutOfRange))
}

func TestShell_Transport(t *testing.T) {
	shell, engine, backend, _ := newTestShell(t)
	ctx := context.Background()
	require.NoError(t, engine.Load(ctx, []domain.Track{{ID: "a", Locator: "a"}, {ID: "b", Locator: "b"}}))

	require.NoError(t, shell.Execute(ctx, "play 2"))
	require.Eventually(t, func() bool {
		s := engine.Snapshot()
		return s.CurrentIndex == 1 && s.Status == domain.StatusPlaying
	}, 2*time.Second, time.Millisecond)

	require.NoError(t, shell.Execute(ctx, "seek 1:05"))
	assert.Contains(t, backend.Calls(), mock.Call{Op: mock.OpSeek, Position: 65 * time.Second})

	require.NoError(t, shell.Execute(ctx, "repeat one"))
	require.NoError(t, shell.Execute(ctx, "shuffle"))
	snap := engine.Snapshot()
	assert.Equal(t, domain.RepeatOne, snap.RepeatMode)
	assert.True(t, snap.Shuffle)

	require.NoError(t, shell.Execute(ctx, "repeat"))
	assert.Equal(t, domain.RepeatNone, engine.Snapshot().RepeatMode)
}

func TestShell_Open(t *testing.T) {
	shell, engine, _, _ := newTestShell(t)
	ctx := context.Background()
	require.NoError(t, engine.Load(ctx, []domain.Track{{ID: "a", Locator: "a"}}))

	require.NoError(t, shell.Execute(ctx, "open 2 x y z"))
	require.Eventually(t, func() bool {
		s := engine.Snapshot()
		return s.CurrentIndex == 1 && s.Status == domain.StatusPlaying
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, []string{"x", "y", "z"}, trackIDs(engine.Snapshot()))

	// shuffle carries over and the chosen track plays first
	require.NoError(t, shell.Execute(ctx, "shuffle"))
	require.NoError(t, shell.Execute(ctx, "open 3 p q r s"))
	snap := engine.Snapshot()
	assert.True(t, snap.Shuffle)
	assert.Equal(t, "r", snap.Queue[0].Track.ID)
	assert.Equal(t, 0, snap.CurrentIndex)
	assert.ElementsMatch(t, []string{"p", "q", "r", "s"}, trackIDs(snap))

	require.NoError(t, shell.Execute(ctx, "open song"))
	assert.Equal(t, []string{"song"}, trackIDs(engine.Snapshot()))

	assert.ErrorContains(t, shell.Execute(ctx, "open"), "no paths")
	assert.ErrorIs(t, shell.Execute(ctx, "open 4 a b"), domain.ErrOutOfRange)
}

func TestShell_Errors(t *testing.T) {
	shell, _, _, _ := newTestShell(t)
	ctx := context.Background()

	assert.NoError(t, shell.Execute(ctx, "   "))
	assert.ErrorContains(t, shell.Execute(ctx, "dance"), "unknown command")
	assert.ErrorContains(t, shell.Execute(ctx, "play two"), "invalid position")
	assert.ErrorContains(t, shell.Execute(ctx, "seek 1:75"), "invalid position")
	assert.ErrorContains(t, shell.Execute(ctx, "add"), "no paths")
	assert.Error(t, shell.Execute(ctx, "repeat sometimes"))
	assert.ErrorIs(t, shell.Execute(ctx, "quit"), ErrQuit)
}

func TestShell_Run(t *testing.T) {
	shell, engine, _, out := newTestShell(t)
	ctx := context.Background()

	input := strings.NewReader("add a b\nbogus\nqueue\nhelp\nquit\nadd never\n")
	require.NoError(t, shell.Run(ctx, input))

	assert.Equal(t, []string{"a", "b"}, trackIDs(engine.Snapshot()), "commands after quit are not run")
	assert.Contains(t, out.String(), "error: Command failed: unknown command \"bogus\"")
	assert.Contains(t, out.String(), "queue: 2 tracks")
	assert.Contains(t, out.String(), "commands:")
}

func TestShell_RunStopsAtEOF(t *testing.T) {
	shell, _, _, _ := newTestShell(t)
	assert.NoError(t, shell.Run(context.Background(), strings.NewReader("status\n")))
}

func TestShell_RunReturnsOnCancel(t *testing.T) {
	shell, _, _, _ := newTestShell(t)
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- shell.Run(ctx, pr) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"0", 0},
		{"90", 90 * time.Second},
		{"2.5", 2500 * time.Millisecond},
		{"3:04", 3*time.Minute + 4*time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parsePosition(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
