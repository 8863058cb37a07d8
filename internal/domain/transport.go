package domain

import "time"

// TransportEvent is a notification pushed by the media backend.
// The set of implementations is closed: only the types in this file satisfy it.
type TransportEvent interface {
	transportEvent()

	// Kind returns a short name for logging
	Kind() string
}

// Playing reports that the backend started or resumed output.
type Playing struct{}

// Paused reports that the backend paused output.
type Paused struct{}

// Stopped reports that the backend stopped output.
type Stopped struct{}

// MediaChanged reports that the backend switched to another item of its queue source.
type MediaChanged struct {
	// Index is the position in the last source the backend received (-1 if unknown)
	Index int

	// Locator identifies the loaded media
	Locator string
}

// TimeChanged reports the elapsed time within the loaded media.
type TimeChanged struct {
	Elapsed time.Duration
}

// EndReached reports that the loaded media finished naturally.
type EndReached struct{}

func (Playing) transportEvent()      {}
func (Paused) transportEvent()       {}
func (Stopped) transportEvent()      {}
func (MediaChanged) transportEvent() {}
func (TimeChanged) transportEvent()  {}
func (EndReached) transportEvent()   {}

func (Playing) Kind() string      { return "playing" }
func (Paused) Kind() string       { return "paused" }
func (Stopped) Kind() string      { return "stopped" }
func (MediaChanged) Kind() string { return "media_changed" }
func (TimeChanged) Kind() string  { return "time_changed" }
func (EndReached) Kind() string   { return "end_reached" }
