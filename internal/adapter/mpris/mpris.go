//go:build linux

package mpris

import (
	"context"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/tejashwikalptaru/tunequeue/internal/adapter/source/files"
	"github.com/tejashwikalptaru/tunequeue/internal/domain"
)

const busName = "tunequeue"

// Adapter connects the engine to MPRIS over D-Bus.
type Adapter struct {
	server *server.Server
	logger *slog.Logger
}

// New creates and starts a new MPRIS adapter.
func New(ctrl Controller, logger *slog.Logger) (*Adapter, error) {
	if logger == nil {
		logger = slog.Default()
	}

	a := &Adapter{
		server: server.NewServer(busName, &rootAdapter{}, &playerAdapter{ctrl: ctrl}),
		logger: logger,
	}

	go func() {
		if err := a.server.Listen(); err != nil {
			a.logger.Warn("mpris server stopped", slog.Any("error", err))
		}
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil
}

func (r *rootAdapter) Quit() error {
	return nil
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "TuneQueue", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file", "http", "https"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/ogg", "audio/opus", "audio/wav"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter and the loop
// and shuffle extensions.
type playerAdapter struct {
	ctrl Controller
}

func (p *playerAdapter) status() domain.PlaybackStatus {
	return p.ctrl.Snapshot().Status
}

func (p *playerAdapter) Next() error {
	return withTimeout(func(ctx context.Context) error {
		return p.ctrl.Skip(ctx, true)
	})
}

func (p *playerAdapter) Previous() error {
	return withTimeout(p.ctrl.Rewind)
}

func (p *playerAdapter) Pause() error {
	if p.status() != domain.StatusPlaying {
		return nil
	}
	return withTimeout(p.ctrl.TogglePlayPause)
}

func (p *playerAdapter) PlayPause() error {
	return withTimeout(p.ctrl.TogglePlayPause)
}

func (p *playerAdapter) Stop() error {
	return withTimeout(p.ctrl.Stop)
}

func (p *playerAdapter) Play() error {
	if p.status() == domain.StatusPlaying {
		return nil
	}
	return withTimeout(p.ctrl.TogglePlayPause)
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	target := p.ctrl.Elapsed() + time.Duration(offset)*time.Microsecond
	return withTimeout(func(ctx context.Context) error {
		return p.ctrl.Seek(ctx, target)
	})
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	return withTimeout(func(ctx context.Context) error {
		return p.ctrl.Seek(ctx, time.Duration(position)*time.Microsecond)
	})
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.status() {
	case domain.StatusPlaying:
		return types.PlaybackStatusPlaying, nil
	case domain.StatusPaused:
		return types.PlaybackStatusPaused, nil
	case domain.StatusStopped:
		return types.PlaybackStatusStopped, nil
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	entry := p.ctrl.Snapshot().Current()
	if entry == nil {
		return types.Metadata{}, nil
	}

	meta := types.Metadata{
		TrackId: trackObjectPath(entry.Track),
		Length:  types.Microseconds(entry.Track.Duration.Microseconds()),
		Title:   entry.Track.DisplayName(),
		Album:   entry.Track.Album,
	}
	if entry.Track.Artist != "" {
		meta.Artist = []string{entry.Track.Artist}
	}
	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetVolume(_ float64) error {
	return nil
}

func (p *playerAdapter) Position() (int64, error) {
	return p.ctrl.Elapsed().Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	snap := p.ctrl.Snapshot()
	return snap.HasNext() || (len(snap.Queue) > 0 && snap.RepeatMode != domain.RepeatNone), nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return p.ctrl.Snapshot().CurrentIndex != domain.NoIndex, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return len(p.ctrl.Snapshot().Queue) > 0, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

// LoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) LoopStatus() (types.LoopStatus, error) {
	switch p.ctrl.Snapshot().RepeatMode {
	case domain.RepeatOne:
		return types.LoopStatusTrack, nil
	case domain.RepeatQueue:
		return types.LoopStatusPlaylist, nil
	case domain.RepeatNone:
		return types.LoopStatusNone, nil
	}
	return types.LoopStatusNone, nil
}

// SetLoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) SetLoopStatus(status types.LoopStatus) error {
	mode := domain.RepeatNone
	switch status {
	case types.LoopStatusTrack:
		mode = domain.RepeatOne
	case types.LoopStatusPlaylist:
		mode = domain.RepeatQueue
	case types.LoopStatusNone:
	}
	return withTimeout(func(ctx context.Context) error {
		return p.ctrl.SetRepeat(ctx, mode)
	})
}

// Shuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) Shuffle() (bool, error) {
	return p.ctrl.Snapshot().Shuffle, nil
}

// SetShuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) SetShuffle(shuffle bool) error {
	if p.ctrl.Snapshot().Shuffle == shuffle {
		return nil
	}
	return withTimeout(p.ctrl.ToggleShuffle)
}

// trackObjectPath derives a D-Bus object path from the track identity.
// Object path elements only allow [A-Za-z0-9_].
func trackObjectPath(track domain.Track) dbus.ObjectPath {
	id := track.ID
	if id == "" {
		id = files.TrackID(track.Locator)
	}
	clean := make([]byte, 0, len(id))
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			clean = append(clean, c)
		default:
			clean = append(clean, '_')
		}
	}
	return dbus.ObjectPath("/org/mpris/MediaPlayer2/Track/t" + string(clean))
}
