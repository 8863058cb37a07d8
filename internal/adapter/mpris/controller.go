// Package mpris exposes the playback session on the D-Bus MPRIS interface,
// so desktop media keys and applets can drive the engine.
package mpris

import (
	"context"
	"time"

	"github.com/tejashwikalptaru/tunequeue/internal/domain"
)

// commandTimeout bounds how long a D-Bus call waits for the engine.
const commandTimeout = 2 * time.Second

// Controller is the subset of the engine driven over MPRIS.
type Controller interface {
	Snapshot() domain.SessionSnapshot
	Elapsed() time.Duration
	TogglePlayPause(ctx context.Context) error
	Skip(ctx context.Context, explicit bool) error
	Rewind(ctx context.Context) error
	Stop(ctx context.Context) error
	Seek(ctx context.Context, position time.Duration) error
	SetRepeat(ctx context.Context, mode domain.RepeatMode) error
	ToggleShuffle(ctx context.Context) error
}

func withTimeout(fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	return fn(ctx)
}
