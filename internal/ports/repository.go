// Package ports define repository interfaces for data persistence abstraction.
package ports

import (
	"github.com/tejashwikalptaru/tunequeue/internal/domain"
)

// SessionRepository persists the playback session between application runs.
// Implementations can use a database, preferences storage or memory.
//
// Thread-safety: Implementations must be thread-safe.
type SessionRepository interface {
	// SaveSession replaces the stored session.
	SaveSession(session domain.SavedSession) error

	// LoadSession returns the stored session.
	// Returns domain.ErrNoSavedSession if nothing was saved.
	LoadSession() (*domain.SavedSession, error)

	// Clear removes the stored session.
	Clear() error
}

// TrackSource resolves a queue source into an ordered list of tracks.
// Resolution from storage happens before the engine sees the tracks.
type TrackSource interface {
	// Resolve returns the tracks for the given references, in order.
	Resolve(refs []string) ([]domain.Track, error)
}
