// Package mpv drives libmpv as the media backend.
//
// The cgo binding is only compiled with the libmpv build tag:
//
//	go build -tags libmpv ./cmd/tunequeue
//
// Without the tag, New reports ErrNotCompiled and callers fall back to
// another backend.
package mpv

import (
	"errors"
	"log/slog"
	"time"
)

// ErrNotCompiled is returned by New when the binary was built without libmpv.
var ErrNotCompiled = errors.New("libmpv backend is not enabled; build with -tags libmpv")

// DefaultPollInterval is how often the playback position is sampled.
const DefaultPollInterval = 250 * time.Millisecond

// Options configures the backend.
type Options struct {
	Logger *slog.Logger

	// PollInterval is the time-pos sampling period while playing
	PollInterval time.Duration

	// Volume in percent, applied at startup (0 keeps mpv's default)
	Volume int
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	return o
}
