// Package ports define interfaces for dependency inversion.
// These interfaces keep the engine independent of the concrete media backend,
// storage and presentation layers.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/tunequeue/internal/domain"
)

// TransportSink receives transport events from a media backend.
// Backends may call it from any goroutine, including their own internal workers.
type TransportSink func(event domain.TransportEvent)

// MediaBackend is the interface for the external playback backend.
// The engine issues commands and learns the outcome from pushed events;
// it never assumes a command took effect until the matching event arrives.
//
// Implementations must be thread-safe.
type MediaBackend interface {
	// SetQueueSource replaces the backend's ordered list of locators.
	// It must not interrupt the media currently loaded.
	SetQueueSource(locators []string) error

	// PlayAt loads the item at index of the last queue source and starts playback.
	// The backend confirms with MediaChanged followed by Playing.
	PlayAt(index int) error

	// Play resumes the loaded media.
	Play() error

	// Pause pauses the loaded media, preserving its position.
	Pause() error

	// Stop stops output. The loaded media may be released.
	Stop() error

	// Seek moves the playback position within the loaded media.
	Seek(position time.Duration) error

	// Next advances the backend to the following item of its queue source.
	Next() error

	// Previous moves the backend to the preceding item of its queue source.
	Previous() error

	// Elapsed returns the playback position within the loaded media.
	Elapsed() (time.Duration, error)

	// Duration returns the length of the loaded media.
	// The boolean is false while the length is unknown.
	Duration() (time.Duration, bool, error)

	// SetEventSink registers the receiver of transport events.
	// Passing nil detaches the current sink.
	SetEventSink(sink TransportSink)

	// Close releases backend resources. Events are not delivered after Close returns.
	Close() error
}
