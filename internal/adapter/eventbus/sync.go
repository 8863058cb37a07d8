// Package eventbus provides implementations of the EventBus interface.
package eventbus

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tejashwikalptaru/tunequeue/internal/domain"
	"github.com/tejashwikalptaru/tunequeue/internal/ports"
)

// SyncEventBus delivers events on the publisher's goroutine.
// Type-specific handlers run first, in subscription order, then wildcard handlers.
//
// The engine relies on this: notifications published from the dispatcher loop
// are observed by subscribers in exactly the order the engine applied them.
//
// Thread-safety: Publish, Subscribe and Unsubscribe may be called concurrently.
// The subscriber list is copied before delivery, so a handler may unsubscribe
// itself without deadlocking.
type SyncEventBus struct {
	logger *slog.Logger

	subscribers    map[domain.EventType][]subscription
	allSubscribers []subscription

	// mu protects subscribers, allSubscribers and closed
	mu sync.RWMutex

	idCounter uint64
	closed    bool
}

type subscription struct {
	id      domain.SubscriptionID
	filter  ports.EventFilter
	handler domain.EventHandler
}

// NewSyncEventBus creates a new synchronous event bus.
func NewSyncEventBus() *SyncEventBus {
	return &SyncEventBus{
		subscribers: make(map[domain.EventType][]subscription),
	}
}

// SetLogger sets the logger used to report handler panics.
func (bus *SyncEventBus) SetLogger(logger *slog.Logger) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.logger = logger
}

// Publish delivers event to its subscribers. Nil events and publishing
// on a closed bus are ignored.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	bus.mu.RLock()
	if bus.closed {
		bus.mu.RUnlock()
		return
	}
	targets := make([]subscription, 0, len(bus.subscribers[event.Type()])+len(bus.allSubscribers))
	targets = append(targets, bus.subscribers[event.Type()]...)
	targets = append(targets, bus.allSubscribers...)
	logger := bus.logger
	bus.mu.RUnlock()

	for _, sub := range targets {
		if sub.filter != nil && !sub.filter(event) {
			continue
		}
		bus.deliver(logger, sub, event)
	}
}

// deliver calls one handler and recovers from its panic so the remaining
// handlers still run.
func (bus *SyncEventBus) deliver(logger *slog.Logger, sub subscription, event domain.Event) {
	defer func() {
		if r := recover(); r != nil && logger != nil {
			logger.Error("event handler panicked",
				slog.Any("panic", r),
				slog.String("event_type", string(event.Type())),
				slog.String("subscription", string(sub.id)))
		}
	}()
	sub.handler(event)
}

// Subscribe registers a handler for events of the specified type.
// Panics on a nil handler or a closed bus, both programmer errors.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	return bus.SubscribeFiltered(eventType, nil, handler)
}

// SubscribeFiltered registers a handler that only receives events passing filter.
// A nil filter accepts everything.
func (bus *SyncEventBus) SubscribeFiltered(eventType domain.EventType, filter ports.EventFilter, handler domain.EventHandler) domain.SubscriptionID {
	sub := bus.newSubscription("sub", filter, handler)

	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.mustBeOpen()
	bus.subscribers[eventType] = append(bus.subscribers[eventType], sub)
	return sub.id
}

// SubscribeAll registers a handler that receives every event.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	sub := bus.newSubscription("sub-all", nil, handler)

	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.mustBeOpen()
	bus.allSubscribers = append(bus.allSubscribers, sub)
	return sub.id
}

func (bus *SyncEventBus) newSubscription(prefix string, filter ports.EventFilter, handler domain.EventHandler) subscription {
	if handler == nil {
		panic("event handler cannot be nil")
	}
	return subscription{
		id:      domain.SubscriptionID(fmt.Sprintf("%s-%d", prefix, atomic.AddUint64(&bus.idCounter, 1))),
		filter:  filter,
		handler: handler,
	}
}

// mustBeOpen panics if the bus is closed. Caller holds mu.
func (bus *SyncEventBus) mustBeOpen() {
	if bus.closed {
		panic("cannot subscribe to closed event bus")
	}
}

// Unsubscribe removes a subscription. Order of the remaining handlers is preserved.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	for eventType, subs := range bus.subscribers {
		if i := indexOf(subs, id); i >= 0 {
			bus.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
	if i := indexOf(bus.allSubscribers, id); i >= 0 {
		bus.allSubscribers = append(bus.allSubscribers[:i:i], bus.allSubscribers[i+1:]...)
	}
}

func indexOf(subs []subscription, id domain.SubscriptionID) int {
	for i, sub := range subs {
		if sub.id == id {
			return i
		}
	}
	return -1
}

// HasSubscribers reports whether a Publish of eventType would reach any handler.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.subscribers[eventType]) > 0 || len(bus.allSubscribers) > 0
}

// Close drops all subscriptions. Returns an error if already closed.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return fmt.Errorf("event bus already closed")
	}
	bus.closed = true
	bus.subscribers = make(map[domain.EventType][]subscription)
	bus.allSubscribers = nil
	return nil
}

// SubscriberCount returns the number of active subscriptions.
func (bus *SyncEventBus) SubscriberCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	count := len(bus.allSubscribers)
	for _, subs := range bus.subscribers {
		count += len(subs)
	}
	return count
}

// Verify that SyncEventBus implements the FilteringEventBus interface
var _ ports.FilteringEventBus = (*SyncEventBus)(nil)
