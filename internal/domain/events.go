// Package domain defines the notifications the engine publishes to the UI layer.
// Notifications are delivered through the event bus; no component holds callbacks
// into another.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	EventStateChanged    EventType = "session.state_changed"
	EventQueueChanged    EventType = "session.queue_changed"
	EventPositionChanged EventType = "session.position_changed"
	EventHistoryChanged  EventType = "session.history_changed"
	EventBackendError    EventType = "backend.error"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// StateChangedEvent is published after every successful transition of the
// (current index, status, repeat mode, shuffle) tuple.
type StateChangedEvent struct {
	baseEvent
	CurrentIndex int
	Status       PlaybackStatus
	RepeatMode   RepeatMode
	Shuffle      bool
}

// Type returns the event type.
func (e StateChangedEvent) Type() EventType {
	return EventStateChanged
}

// NewStateChangedEvent creates a new StateChangedEvent.
func NewStateChangedEvent(index int, status PlaybackStatus, mode RepeatMode, shuffle bool) StateChangedEvent {
	return StateChangedEvent{
		baseEvent:    newBaseEvent(),
		CurrentIndex: index,
		Status:       status,
		RepeatMode:   mode,
		Shuffle:      shuffle,
	}
}

// QueueChangedEvent is published when entries are loaded, inserted, removed or reordered.
type QueueChangedEvent struct {
	baseEvent
	Queue        []QueueEntry
	CurrentIndex int
}

// Type returns the event type.
func (e QueueChangedEvent) Type() EventType {
	return EventQueueChanged
}

// NewQueueChangedEvent creates a new QueueChangedEvent.
func NewQueueChangedEvent(queue []QueueEntry, index int) QueueChangedEvent {
	return QueueChangedEvent{
		baseEvent:    newBaseEvent(),
		Queue:        queue,
		CurrentIndex: index,
	}
}

// PositionChangedEvent is the high-frequency elapsed-time update.
// It may be throttled; a dropped update is never invalidated by a later one.
type PositionChangedEvent struct {
	baseEvent
	Elapsed time.Duration
}

// Type returns the event type.
func (e PositionChangedEvent) Type() EventType {
	return EventPositionChanged
}

// NewPositionChangedEvent creates a new PositionChangedEvent.
func NewPositionChangedEvent(elapsed time.Duration) PositionChangedEvent {
	return PositionChangedEvent{
		baseEvent: newBaseEvent(),
		Elapsed:   elapsed,
	}
}

// HistoryChangedEvent is published when a track is recorded into history.
type HistoryChangedEvent struct {
	baseEvent
	History []HistoryRecord
}

// Type returns the event type.
func (e HistoryChangedEvent) Type() EventType {
	return EventHistoryChanged
}

// NewHistoryChangedEvent creates a new HistoryChangedEvent.
func NewHistoryChangedEvent(history []HistoryRecord) HistoryChangedEvent {
	return HistoryChangedEvent{
		baseEvent: newBaseEvent(),
		History:   history,
	}
}

// BackendErrorEvent is a transient notification that a backend command failed.
// It is not a state transition: the engine keeps its last confirmed state.
type BackendErrorEvent struct {
	baseEvent
	Op    string
	Error error
}

// Type returns the event type.
func (e BackendErrorEvent) Type() EventType {
	return EventBackendError
}

// NewBackendErrorEvent creates a new BackendErrorEvent.
func NewBackendErrorEvent(op string, err error) BackendErrorEvent {
	return BackendErrorEvent{
		baseEvent: newBaseEvent(),
		Op:        op,
		Error:     err,
	}
}
