// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the tunequeue playback engine.
package domain

import (
	"time"
)

// Track is an opaque, read-only reference to playable content.
// Tracks are owned by the catalog; the engine never mutates them.
type Track struct {
	// ID is a stable identifier for the track
	ID string

	// Locator is the path or URI the media backend resolves for playback
	Locator string

	// Title is the song title (from metadata or filename)
	Title string

	// Artist is the performing artist name
	Artist string

	// Album is the album name
	Album string

	// Duration is the total length of the track (zero if unknown)
	Duration time.Duration
}

// DisplayName returns the title, falling back to the locator.
func (t Track) DisplayName() string {
	if t.Title != "" {
		return t.Title
	}
	return t.Locator
}

// QueueEntry is a single item in the playback queue.
type QueueEntry struct {
	// EntryID identifies this queue slot independently of its position.
	// The same track queued twice gets two entry IDs.
	EntryID string

	// Position is the 0-based index of the entry in the queue
	Position int

	// Track is the queued content
	Track Track

	// ManuallyAdded is true for entries injected via "add to queue"
	// rather than loaded from the queue source
	ManuallyAdded bool
}

// HistoryRecord is a previously played track with the time it finished.
type HistoryRecord struct {
	Track    Track
	PlayedAt time.Time
}

// PlaybackStatus represents the confirmed playback state.
type PlaybackStatus int

const (
	// StatusStopped indicates playback is stopped
	StatusStopped PlaybackStatus = iota

	// StatusPlaying indicates playback is active
	StatusPlaying

	// StatusPaused indicates playback is paused
	StatusPaused
)

// String returns a human-readable representation of the playback status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// RepeatMode controls what happens when the queue advances.
type RepeatMode int

const (
	// RepeatNone stops at the end of the queue
	RepeatNone RepeatMode = iota

	// RepeatQueue wraps from the last entry to the first
	RepeatQueue

	// RepeatOne replays the current entry
	RepeatOne
)

// Next returns the mode that follows m in the cycle
// none -> queue -> one -> none.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatNone:
		return RepeatQueue
	case RepeatQueue:
		return RepeatOne
	default:
		return RepeatNone
	}
}

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatNone:
		return "none"
	case RepeatQueue:
		return "queue"
	case RepeatOne:
		return "one"
	default:
		return "unknown"
	}
}

// ParseRepeatMode converts a config or CLI value into a RepeatMode.
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch s {
	case "", "none", "off":
		return RepeatNone, nil
	case "queue", "all":
		return RepeatQueue, nil
	case "one", "track":
		return RepeatOne, nil
	default:
		return RepeatNone, NewValidationError("repeat", s, "must be one of none, queue, one")
	}
}

// NoIndex marks the absence of a current entry.
const NoIndex = -1

// SessionSnapshot is an immutable copy of the engine state handed to readers.
// Slices are never shared with the engine.
type SessionSnapshot struct {
	// Queue is the ordered list of entries
	Queue []QueueEntry

	// CurrentIndex points into Queue (NoIndex if nothing loaded)
	CurrentIndex int

	// Status is the last confirmed backend status
	Status PlaybackStatus

	// RepeatMode is the active repeat mode
	RepeatMode RepeatMode

	// Shuffle reports whether the upcoming suffix is shuffled
	Shuffle bool

	// History lists played tracks, newest first
	History []HistoryRecord
}

// Current returns the now-playing entry, or nil if none.
func (s SessionSnapshot) Current() *QueueEntry {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Queue) {
		return nil
	}
	entry := s.Queue[s.CurrentIndex]
	return &entry
}

// HasNext reports whether a skip would reach another entry under the repeat mode.
func (s SessionSnapshot) HasNext() bool {
	if len(s.Queue) == 0 {
		return false
	}
	if s.RepeatMode != RepeatNone {
		return true
	}
	return s.CurrentIndex < len(s.Queue)-1
}

// SavedSession is the persisted form of a session, restored on startup.
type SavedSession struct {
	Entries      []QueueEntry
	CurrentIndex int
	RepeatMode   RepeatMode
	Shuffle      bool

	// ShuffleOrigin holds the pre-shuffle upcoming order as entry IDs
	ShuffleOrigin []string

	History []HistoryRecord
}
