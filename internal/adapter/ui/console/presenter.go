// Package console provides a terminal front end for the playback engine.
package console

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/tunequeue/internal/domain"
	"github.com/tejashwikalptaru/tunequeue/internal/ports"
)

// SnapshotSource provides the session state used for the initial render.
type SnapshotSource interface {
	Snapshot() domain.SessionSnapshot
}

// Presenter maps bus notifications onto View calls (MVP).
// Views never subscribe to the bus or query the engine themselves.
//
// Thread-safety: handlers run on the publisher's goroutine; presentation
// state is guarded by mu.
type Presenter struct {
	logger *slog.Logger
	bus    ports.EventBus
	view   ports.View

	// Presentation state
	queue   []domain.QueueEntry
	current int
	status  domain.PlaybackStatus
	mu      sync.Mutex

	subscriptions []domain.SubscriptionID
	shutdownOnce  sync.Once
}

// NewPresenter creates a presenter, subscribes it to the bus and renders
// the current session once.
func NewPresenter(logger *slog.Logger, bus ports.EventBus, source SnapshotSource, view ports.View) *Presenter {
	p := &Presenter{
		logger:  logger,
		bus:     bus,
		view:    view,
		current: domain.NoIndex,
	}

	p.subscribeToEvents()
	if source != nil {
		p.syncInitialState(source.Snapshot())
	}
	return p
}

func (p *Presenter) subscribeToEvents() {
	subscriptions := []struct {
		eventType domain.EventType
		handler   domain.EventHandler
	}{
		{domain.EventQueueChanged, p.onQueueChanged},
		{domain.EventStateChanged, p.onStateChanged},
		{domain.EventHistoryChanged, p.onHistoryChanged},
		{domain.EventPositionChanged, p.onPositionChanged},
		{domain.EventBackendError, p.onBackendError},
	}

	for _, s := range subscriptions {
		p.subscriptions = append(p.subscriptions, p.bus.Subscribe(s.eventType, s.handler))
	}
}

func (p *Presenter) syncInitialState(snap domain.SessionSnapshot) {
	p.mu.Lock()
	p.queue = snap.Queue
	p.current = snap.CurrentIndex
	p.status = snap.Status
	p.mu.Unlock()

	p.view.ShowQueue(snap.Queue, snap.CurrentIndex)
	p.view.SetModes(snap.RepeatMode, snap.Shuffle)
	p.view.SetNowPlaying(snap.Current(), snap.Status)
	if len(snap.History) > 0 {
		p.view.ShowHistory(snap.History)
	}
}

// Event handlers

func (p *Presenter) onQueueChanged(event domain.Event) {
	e, ok := event.(domain.QueueChangedEvent)
	if !ok {
		return
	}

	p.mu.Lock()
	p.queue = e.Queue
	p.current = e.CurrentIndex
	entry := p.entryLocked()
	status := p.status
	p.mu.Unlock()

	p.view.ShowQueue(e.Queue, e.CurrentIndex)
	p.view.SetNowPlaying(entry, status)
}

func (p *Presenter) onStateChanged(event domain.Event) {
	e, ok := event.(domain.StateChangedEvent)
	if !ok {
		return
	}

	p.mu.Lock()
	p.current = e.CurrentIndex
	p.status = e.Status
	entry := p.entryLocked()
	p.mu.Unlock()

	p.view.SetNowPlaying(entry, e.Status)
	p.view.SetModes(e.RepeatMode, e.Shuffle)
}

func (p *Presenter) onHistoryChanged(event domain.Event) {
	if e, ok := event.(domain.HistoryChangedEvent); ok {
		p.view.ShowHistory(e.History)
	}
}

func (p *Presenter) onPositionChanged(event domain.Event) {
	if e, ok := event.(domain.PositionChangedEvent); ok {
		p.view.SetPosition(e.Elapsed)
	}
}

func (p *Presenter) onBackendError(event domain.Event) {
	e, ok := event.(domain.BackendErrorEvent)
	if !ok {
		return
	}
	p.logger.Debug("showing backend error", slog.String("op", e.Op))
	p.view.ShowError("Playback error", fmt.Sprintf("%s: %v", e.Op, e.Error))
}

func (p *Presenter) entryLocked() *domain.QueueEntry {
	if p.current < 0 || p.current >= len(p.queue) {
		return nil
	}
	entry := p.queue[p.current]
	return &entry
}

// Shutdown unsubscribes from the bus.
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		for _, id := range p.subscriptions {
			p.bus.Unsubscribe(id)
		}
		p.subscriptions = nil
	})
}
