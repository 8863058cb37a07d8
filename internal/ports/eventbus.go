// Package ports define the EventBus interface for event-driven communication.
// The engine publishes notifications on the bus; presenters and adapters subscribe.
package ports

import (
	"github.com/tejashwikalptaru/tunequeue/internal/domain"
)

// EventBus is the interface for publishing and subscribing to notifications.
//
// The engine publishes from its dispatcher goroutine, except position updates
// which are published from the backend's goroutine. Handlers therefore must be
// quick and must not call blocking engine commands: doing so from the dispatcher
// goroutine deadlocks. Handlers that need to issue commands should hand off to
// their own goroutine.
//
// Thread-safety: Implementations must be thread-safe.
//
// Example usage:
//
//	subID := bus.Subscribe(domain.EventStateChanged, func(event domain.Event) {
//	    e := event.(domain.StateChangedEvent)
//	    view.SetStatus(e.Status)
//	})
//	defer bus.Unsubscribe(subID)
type EventBus interface {
	// Publish delivers an event to all subscribers of its type, then to
	// wildcard subscribers, in subscription order.
	Publish(event domain.Event)

	// Subscribe registers a handler for events of the specified type.
	// Returns a SubscriptionID that can be used to unsubscribe later.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a previously registered handler.
	// Unknown IDs are ignored.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers a handler that receives all events regardless of type.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// HasSubscribers reports whether anyone listens for the given event type.
	// Publishers use it to skip building expensive snapshots.
	HasSubscribers(eventType domain.EventType) bool

	// Close shuts down the event bus. Publishing after Close is a no-op.
	Close() error
}

// EventFilter is a function that determines if an event should be delivered to a subscriber.
type EventFilter func(event domain.Event) bool

// FilteringEventBus extends EventBus with filtered subscriptions.
type FilteringEventBus interface {
	EventBus

	// SubscribeFiltered registers a handler that only sees events passing the filter.
	//
	// Example: only react to transitions into the playing state
	//	bus.SubscribeFiltered(domain.EventStateChanged, func(e domain.Event) bool {
	//	    return e.(domain.StateChangedEvent).Status == domain.StatusPlaying
	//	}, handlePlaying)
	SubscribeFiltered(eventType domain.EventType, filter EventFilter, handler domain.EventHandler) domain.SubscriptionID
}
