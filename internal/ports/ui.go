// Package ports define the View interface for presentation abstraction.
// The presenter translates bus notifications into View calls, so a view never
// subscribes to the bus or reads engine state directly.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/tunequeue/internal/domain"
)

// View is the interface for the user-facing presentation layer.
//
// Thread-safety: the presenter may call View methods from the dispatcher goroutine
// and, for SetPosition, from the backend goroutine. Implementations serialize
// their own output.
type View interface {
	// SetNowPlaying shows the current entry and transport state.
	// entry is nil when nothing is loaded.
	SetNowPlaying(entry *domain.QueueEntry, status domain.PlaybackStatus)

	// SetModes shows the repeat mode and shuffle flag.
	SetModes(mode domain.RepeatMode, shuffle bool)

	// SetPosition shows the elapsed time within the current track.
	SetPosition(elapsed time.Duration)

	// ShowQueue renders the queue with the current entry highlighted.
	ShowQueue(queue []domain.QueueEntry, currentIndex int)

	// ShowHistory renders the play history, newest first.
	ShowHistory(history []domain.HistoryRecord)

	// ShowError displays a transient error notification.
	ShowError(title, message string)
}
