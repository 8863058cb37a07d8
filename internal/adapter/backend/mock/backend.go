// Package mock provides an in-memory implementation of the MediaBackend interface.
// It simulates a playback backend without producing audio: commands update an
// internal model and the matching transport events are delivered from the
// backend's own goroutine, the way a real player reports from its worker thread.
package mock

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tejashwikalptaru/tunequeue/internal/domain"
	"github.com/tejashwikalptaru/tunequeue/internal/ports"
)

// Op names a backend command, as recorded in Calls.
type Op string

// Recorded operations.
const (
	OpSetQueueSource Op = "set_queue_source"
	OpPlayAt         Op = "play_at"
	OpPlay           Op = "play"
	OpPause          Op = "pause"
	OpStop           Op = "stop"
	OpSeek           Op = "seek"
	OpNext           Op = "next"
	OpPrevious       Op = "previous"
	OpElapsed        Op = "elapsed"
)

// ErrInjected is returned by commands configured to fail.
var ErrInjected = errors.New("mock backend failure")

// DefaultDuration is the simulated length of every loaded item.
const DefaultDuration = 3 * time.Minute

// Call is one recorded backend command.
type Call struct {
	Op       Op
	Index    int           // for play_at
	Position time.Duration // for seek
	Source   []string      // for set_queue_source
}

// Backend is a mock implementation of the MediaBackend interface.
//
// Thread-safety: This implementation is thread-safe.
type Backend struct {
	// Dependencies
	logger *slog.Logger

	// Playback model
	source   []string
	index    int
	status   domain.PlaybackStatus
	elapsed  time.Duration
	duration time.Duration
	known    bool

	// Behavior configuration (for testing error scenarios)
	fail   map[Op]bool
	silent bool

	calls []Call
	mu    sync.Mutex

	// Event delivery
	sink      ports.TransportSink
	sinkMu    sync.RWMutex
	events    chan domain.TransportEvent
	sent      atomic.Uint64
	delivered atomic.Uint64
	wg        sync.WaitGroup
	closed    bool
}

// NewBackend creates a mock backend and starts its event goroutine.
func NewBackend() *Backend {
	b := &Backend{
		index:    -1,
		duration: DefaultDuration,
		known:    true,
		fail:     make(map[Op]bool),
		events:   make(chan domain.TransportEvent, 1024),
	}

	b.wg.Add(1)
	go b.deliver()

	return b
}

// SetLogger sets the logger for this backend.
func (b *Backend) SetLogger(logger *slog.Logger) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger = logger
}

// SetFail configures op to fail with ErrInjected (for testing).
func (b *Backend) SetFail(op Op, fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail[op] = fail
}

// SetSilent stops commands from emitting their confirmation events.
// Tests use it to hold the engine in the "command issued, not yet confirmed" state.
func (b *Backend) SetSilent(silent bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.silent = silent
}

// SetElapsed sets the simulated playback position.
func (b *Backend) SetElapsed(elapsed time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.elapsed = elapsed
}

// SetDuration sets the simulated length of loaded items.
func (b *Backend) SetDuration(d time.Duration, known bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.duration = d
	b.known = known
}

// SetQueueSource replaces the list of locators.
func (b *Backend) SetQueueSource(locators []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	source := append([]string(nil), locators...)
	b.record(Call{Op: OpSetQueueSource, Source: source})
	if b.fail[OpSetQueueSource] {
		return ErrInjected
	}

	b.source = source
	return nil
}

// PlayAt loads item index of the queue source and starts it.
func (b *Backend) PlayAt(index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(Call{Op: OpPlayAt, Index: index})
	if b.fail[OpPlayAt] {
		return ErrInjected
	}
	if index < 0 || index >= len(b.source) {
		return fmt.Errorf("play_at: index %d outside source of %d items", index, len(b.source))
	}

	b.load(index)
	return nil
}

// Play resumes the loaded item.
func (b *Backend) Play() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(Call{Op: OpPlay})
	if b.fail[OpPlay] {
		return ErrInjected
	}
	if b.index < 0 {
		return errors.New("play: nothing loaded")
	}

	b.status = domain.StatusPlaying
	b.emit(domain.Playing{})
	return nil
}

// Pause pauses the loaded item.
func (b *Backend) Pause() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(Call{Op: OpPause})
	if b.fail[OpPause] {
		return ErrInjected
	}
	if b.status != domain.StatusPlaying {
		return nil
	}

	b.status = domain.StatusPaused
	b.emit(domain.Paused{})
	return nil
}

// Stop stops output and releases the loaded item.
func (b *Backend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(Call{Op: OpStop})
	if b.fail[OpStop] {
		return ErrInjected
	}

	b.index = -1
	b.elapsed = 0
	b.status = domain.StatusStopped
	b.emit(domain.Stopped{})
	return nil
}

// Seek moves the playback position within the loaded item.
func (b *Backend) Seek(position time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(Call{Op: OpSeek, Position: position})
	if b.fail[OpSeek] {
		return ErrInjected
	}
	if b.index < 0 {
		return errors.New("seek: nothing loaded")
	}
	if b.known && position > b.duration {
		position = b.duration
	}

	b.elapsed = position
	b.emit(domain.TimeChanged{Elapsed: position})
	return nil
}

// Next loads the following item of the queue source.
func (b *Backend) Next() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(Call{Op: OpNext})
	if b.fail[OpNext] {
		return ErrInjected
	}
	if b.index+1 >= len(b.source) {
		return errors.New("next: at end of source")
	}

	b.load(b.index + 1)
	return nil
}

// Previous loads the preceding item of the queue source.
func (b *Backend) Previous() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(Call{Op: OpPrevious})
	if b.fail[OpPrevious] {
		return ErrInjected
	}
	if b.index <= 0 {
		return errors.New("previous: at start of source")
	}

	b.load(b.index - 1)
	return nil
}

// Elapsed returns the simulated playback position.
func (b *Backend) Elapsed() (time.Duration, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.fail[OpElapsed] {
		return 0, ErrInjected
	}
	return b.elapsed, nil
}

// Duration returns the simulated length of the loaded item.
func (b *Backend) Duration() (time.Duration, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.index < 0 {
		return 0, false, nil
	}
	return b.duration, b.known, nil
}

// SetEventSink registers the receiver of transport events.
func (b *Backend) SetEventSink(sink ports.TransportSink) {
	b.sinkMu.Lock()
	defer b.sinkMu.Unlock()
	b.sink = sink
}

// Close stops event delivery. Events already queued are delivered first.
func (b *Backend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.events)
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}

// Emit pushes an arbitrary transport event through the delivery goroutine,
// as if the backend had produced it.
func (b *Backend) Emit(event domain.TransportEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.send(event)
}

// FinishTrack simulates the loaded item playing to its end.
func (b *Backend) FinishTrack() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.elapsed = b.duration
	b.status = domain.StatusStopped
	b.send(domain.EndReached{})
}

// Idle reports whether every queued event has been handed to the sink.
func (b *Backend) Idle() bool {
	return b.sent.Load() == b.delivered.Load()
}

// Calls returns a copy of the recorded commands.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// CallCount returns how many times op was issued.
func (b *Backend) CallCount(op Op) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, c := range b.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// PlayAtCalls returns the indexes passed to PlayAt, in order.
func (b *Backend) PlayAtCalls() []int {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []int
	for _, c := range b.calls {
		if c.Op == OpPlayAt {
			out = append(out, c.Index)
		}
	}
	return out
}

// ResetCalls clears the recorded commands.
func (b *Backend) ResetCalls() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

// Source returns the last queue source received.
func (b *Backend) Source() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.source...)
}

// LoadedIndex returns the index of the loaded item, or -1.
func (b *Backend) LoadedIndex() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index
}

// Status returns the simulated transport status.
func (b *Backend) Status() domain.PlaybackStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// load switches to index and confirms with MediaChanged then Playing.
// Caller holds mu.
func (b *Backend) load(index int) {
	b.index = index
	b.elapsed = 0
	b.status = domain.StatusPlaying
	b.emit(domain.MediaChanged{Index: index, Locator: b.source[index]})
	b.emit(domain.Playing{})
}

// record appends a call. Caller holds mu.
func (b *Backend) record(c Call) {
	b.calls = append(b.calls, c)
	if b.logger != nil {
		b.logger.Debug("mock backend command", slog.String("op", string(c.Op)))
	}
}

// emit queues a confirmation event unless silenced. Caller holds mu.
func (b *Backend) emit(event domain.TransportEvent) {
	if b.silent {
		return
	}
	b.send(event)
}

// send queues event for delivery. Caller holds mu, which keeps events in
// command order.
func (b *Backend) send(event domain.TransportEvent) {
	if b.closed {
		return
	}
	b.sent.Add(1)
	b.events <- event
}

func (b *Backend) deliver() {
	defer b.wg.Done()

	for event := range b.events {
		b.sinkMu.RLock()
		sink := b.sink
		b.sinkMu.RUnlock()

		if sink != nil {
			sink(event)
		}
		b.delivered.Add(1)
	}
}

// Verify that Backend implements the MediaBackend interface
var _ ports.MediaBackend = (*Backend)(nil)
