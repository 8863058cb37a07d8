// Package service provides the playback queue engine and its helpers.
package service

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tejashwikalptaru/tunequeue/internal/domain"
	"github.com/tejashwikalptaru/tunequeue/internal/ports"
)

// EngineConfig holds the tunables of the engine.
type EngineConfig struct {
	// RewindThreshold is the elapsed time after which Rewind restarts the
	// current track instead of moving to the previous one
	RewindThreshold time.Duration

	// PositionInterval is the minimum gap between position notifications.
	// Zero forwards every update.
	PositionInterval time.Duration

	// HistoryLimit caps the number of history records
	HistoryLimit int

	// RepeatMode is the initial repeat mode
	RepeatMode domain.RepeatMode

	// Rand drives shuffling. Nil seeds from the clock.
	Rand *rand.Rand

	// NewID generates queue entry IDs. Nil uses random UUIDs.
	NewID func() string
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		RewindThreshold:  5 * time.Second,
		PositionInterval: 250 * time.Millisecond,
		HistoryLimit:     DefaultHistoryLimit,
		RepeatMode:       domain.RepeatNone,
	}
}

// change flags select which notifications commit publishes.
type change uint8

const (
	changeState change = 1 << iota
	changeQueue
	changeHistory
)

// Engine is the playback queue state machine.
//
// User commands and backend events are funneled through a Dispatcher and
// applied one at a time on its goroutine. Session fields below are only
// touched from that goroutine, so they carry no lock. Readers use Snapshot.
//
// Backend commands are fire-and-forget: status changes are taken from the
// Playing, Paused and Stopped events, never assumed from a successful call.
type Engine struct {
	// Dependencies (injected)
	logger  *slog.Logger
	backend ports.MediaBackend
	bus     ports.EventBus

	dispatcher *Dispatcher
	shuffler   *ShuffleManager
	history    *HistoryTracker
	position   *rate.Sometimes
	cfg        EngineConfig

	// Session state, dispatcher goroutine only
	queue         []domain.QueueEntry
	current       int
	status        domain.PlaybackStatus
	repeat        domain.RepeatMode
	shuffle       bool
	shuffleOrigin []string
	loaded        bool // backend holds the current entry's media
	finished      bool // queue end reached under RepeatNone

	// PlayAt awaiting its MediaChanged; empty when none
	pendingEntry   string
	pendingLocator string
	pendingIndexed bool // a MediaChanged for the pending index but another locator arrived

	// sourceDirty is set while the backend's queue source lags the queue
	sourceDirty bool

	snapshot atomic.Pointer[domain.SessionSnapshot]
	elapsed  atomic.Int64 // last reported position, nanoseconds

	shutdownOnce sync.Once
}

// NewEngine creates an engine and starts its dispatcher goroutine.
// The engine registers itself as the backend's event sink.
func NewEngine(
	logger *slog.Logger,
	backend ports.MediaBackend,
	bus ports.EventBus,
	cfg EngineConfig,
) *Engine {
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.RewindThreshold <= 0 {
		cfg.RewindThreshold = DefaultEngineConfig().RewindThreshold
	}

	position := &rate.Sometimes{Interval: cfg.PositionInterval}
	if cfg.PositionInterval <= 0 {
		position = &rate.Sometimes{Every: 1}
	}

	e := &Engine{
		logger:     logger,
		backend:    backend,
		bus:        bus,
		dispatcher: NewDispatcher(logger),
		shuffler:   NewShuffleManager(cfg.Rand),
		history:    NewHistoryTracker(cfg.HistoryLimit),
		position:   position,
		cfg:        cfg,
		current:    domain.NoIndex,
		status:     domain.StatusStopped,
		repeat:     cfg.RepeatMode,
	}
	e.storeSnapshot()

	backend.SetEventSink(e.handleTransport)

	logger.Debug("engine initialized",
		slog.Duration("rewind_threshold", cfg.RewindThreshold),
		slog.Int("history_limit", e.history.limit))

	return e
}

// Snapshot returns the last committed session state. Safe from any goroutine.
func (e *Engine) Snapshot() domain.SessionSnapshot {
	return *e.snapshot.Load()
}

// Elapsed returns the last position reported by the backend, or zero while
// stopped. Safe from any goroutine.
func (e *Engine) Elapsed() time.Duration {
	if e.Snapshot().Status == domain.StatusStopped {
		return 0
	}
	return time.Duration(e.elapsed.Load())
}

// Load replaces the session with tracks. Current index becomes none,
// history is cleared, shuffle turns off, repeat mode is kept.
// Load always succeeds; backend failures are only published.
func (e *Engine) Load(ctx context.Context, tracks []domain.Track) error {
	return e.dispatcher.Call(ctx, func() error {
		e.load(tracks)
		return nil
	})
}

// LoadAndPlay replaces the session with tracks and plays the one at start.
// With shuffle the whole queue is shuffled and the chosen track moved to the
// front, so it still plays first. A bad start leaves the session untouched.
func (e *Engine) LoadAndPlay(ctx context.Context, tracks []domain.Track, start int, shuffle bool) error {
	return e.dispatcher.Call(ctx, func() error {
		if len(tracks) == 0 {
			e.load(tracks)
			return nil
		}
		if start < 0 || start >= len(tracks) {
			return domain.NewIndexError("load_and_play", start, len(tracks), domain.NoIndex)
		}

		e.load(tracks)
		if shuffle {
			chosen := e.queue[start].EntryID
			e.shuffleOrigin = e.shuffler.Shuffle(e.queue, domain.NoIndex)
			e.shuffle = true
			for i := range e.queue {
				if e.queue[i].EntryID == chosen {
					e.queue[0], e.queue[i] = e.queue[i], e.queue[0]
					break
				}
			}
			renumber(e.queue)
			start = 0
			e.commit(changeQueue | changeState)
		}
		return e.playAt(start)
	})
}

// PlayAt starts playback of the entry at index.
func (e *Engine) PlayAt(ctx context.Context, index int) error {
	return e.dispatcher.Call(ctx, func() error {
		if len(e.queue) == 0 {
			return nil
		}
		if index < 0 || index >= len(e.queue) {
			return domain.NewIndexError("play_at", index, len(e.queue), e.current)
		}
		return e.playAt(index)
	})
}

// TogglePlayPause pauses when playing, otherwise resumes or starts playback.
func (e *Engine) TogglePlayPause(ctx context.Context) error {
	return e.dispatcher.Call(ctx, e.togglePlayPause)
}

// Rewind restarts the current track when it has played past the rewind
// threshold or is the first entry, otherwise plays the previous entry.
func (e *Engine) Rewind(ctx context.Context) error {
	return e.dispatcher.Call(ctx, e.rewind)
}

// Skip advances according to the repeat mode. explicit is false when the
// backend reported the end of the track, which also records it in history.
func (e *Engine) Skip(ctx context.Context, explicit bool) error {
	return e.dispatcher.Call(ctx, func() error {
		return e.skip(explicit)
	})
}

// InsertAt inserts track as a manual entry at index. index must be after the
// current entry and at most the queue length.
func (e *Engine) InsertAt(ctx context.Context, index int, track domain.Track) error {
	return e.dispatcher.Call(ctx, func() error {
		if index <= e.current || index > len(e.queue) {
			return domain.NewIndexError("insert_at", index, len(e.queue), e.current)
		}
		e.insert(index, track)
		e.commit(changeQueue)
		return nil
	})
}

// Enqueue adds tracks as manual entries right after the current entry,
// keeping their order.
func (e *Engine) Enqueue(ctx context.Context, tracks ...domain.Track) error {
	return e.dispatcher.Call(ctx, func() error {
		if len(tracks) == 0 {
			return nil
		}
		for i, track := range tracks {
			e.insert(e.current+1+i, track)
		}
		e.commit(changeQueue)
		return nil
	})
}

// RemoveAt removes the entry at index. Removing the current entry advances
// to the entry that takes its slot.
func (e *Engine) RemoveAt(ctx context.Context, index int) error {
	return e.dispatcher.Call(ctx, func() error {
		if len(e.queue) == 0 {
			return nil
		}
		if index < 0 || index >= len(e.queue) {
			return domain.NewIndexError("remove_at", index, len(e.queue), e.current)
		}
		return e.removeAt(index)
	})
}

// ToggleShuffle shuffles the upcoming entries, or restores their order.
func (e *Engine) ToggleShuffle(ctx context.Context) error {
	return e.dispatcher.Call(ctx, func() error {
		e.toggleShuffle()
		return nil
	})
}

// CycleRepeat moves to the next repeat mode: none, queue, one.
func (e *Engine) CycleRepeat(ctx context.Context) error {
	return e.dispatcher.Call(ctx, func() error {
		e.repeat = e.repeat.Next()
		e.commit(changeState)
		return nil
	})
}

// SetRepeat sets the repeat mode directly.
func (e *Engine) SetRepeat(ctx context.Context, mode domain.RepeatMode) error {
	return e.dispatcher.Call(ctx, func() error {
		if e.repeat == mode {
			return nil
		}
		e.repeat = mode
		e.commit(changeState)
		return nil
	})
}

// Seek moves the position within the loaded track.
func (e *Engine) Seek(ctx context.Context, position time.Duration) error {
	return e.dispatcher.Call(ctx, func() error {
		if len(e.queue) == 0 || !e.loaded {
			return nil
		}
		if position < 0 {
			position = 0
		}
		if err := e.backend.Seek(position); err != nil {
			return e.backendFailed("seek", e.currentLocator(), err)
		}
		return nil
	})
}

// Stop stops playback. The current index is kept.
func (e *Engine) Stop(ctx context.Context) error {
	return e.dispatcher.Call(ctx, func() error {
		if len(e.queue) == 0 || (!e.loaded && e.status == domain.StatusStopped) {
			return nil
		}
		if err := e.backend.Stop(); err != nil {
			return e.backendFailed("stop", e.currentLocator(), err)
		}
		e.loaded = false
		e.clearPending()
		return nil
	})
}

// PlayHistoryEntry jumps to the history record at i (0 is the newest).
// The current track is recorded first; the chosen track is inserted after it
// as a manual entry and played. If the backend refuses, nothing changes.
func (e *Engine) PlayHistoryEntry(ctx context.Context, i int) error {
	return e.dispatcher.Call(ctx, func() error {
		record, ok := e.history.At(i)
		if !ok {
			return domain.NewIndexError("play_history", i, e.history.Len(), e.current)
		}

		prevQueue := cloneQueue(e.queue)
		prevHistory := e.history.Records()

		if e.current != domain.NoIndex {
			e.history.Record(e.queue[e.current].Track)
		}
		target := e.current + 1
		e.insert(target, record.Track)
		e.sourceDirty = true

		if err := e.requestPlay(target); err != nil {
			e.queue = prevQueue
			e.history.Replace(prevHistory)
			e.sourceDirty = true
			if syncErr := e.syncSource(); syncErr != nil {
				e.logger.Debug("queue source still out of sync", slog.Any("error", syncErr))
			}
			return err
		}
		e.commit(changeQueue | changeHistory | changeState)
		return nil
	})
}

// Restore replaces the session with a saved one. Playback is not started.
func (e *Engine) Restore(ctx context.Context, saved domain.SavedSession) error {
	return e.dispatcher.Call(ctx, func() error {
		e.restore(saved)
		return nil
	})
}

// SavedSession returns the session in its persisted form.
func (e *Engine) SavedSession(ctx context.Context) (domain.SavedSession, error) {
	var saved domain.SavedSession
	err := e.dispatcher.Call(ctx, func() error {
		saved = domain.SavedSession{
			Entries:       cloneQueue(e.queue),
			CurrentIndex:  e.current,
			RepeatMode:    e.repeat,
			Shuffle:       e.shuffle,
			ShuffleOrigin: append([]string(nil), e.shuffleOrigin...),
			History:       e.history.Records(),
		}
		return nil
	})
	return saved, err
}

// Shutdown detaches from the backend and stops the dispatcher after draining
// queued work. The backend itself is not closed.
func (e *Engine) Shutdown() error {
	e.shutdownOnce.Do(func() {
		e.backend.SetEventSink(nil)
		e.dispatcher.Close()
		e.logger.Debug("engine shut down")
	})
	return nil
}

// handleTransport is the backend event sink. It runs on backend goroutines.
// Position updates skip the dispatcher queue; everything else is applied in
// arrival order.
func (e *Engine) handleTransport(event domain.TransportEvent) {
	if tc, ok := event.(domain.TimeChanged); ok {
		e.elapsed.Store(int64(tc.Elapsed))
		e.position.Do(func() {
			e.bus.Publish(domain.NewPositionChangedEvent(tc.Elapsed))
		})
		return
	}

	if !e.dispatcher.Post(func() { e.apply(event) }) {
		e.logger.Debug("transport event after shutdown", slog.String("kind", event.Kind()))
	}
}

// apply handles one transport event on the dispatcher goroutine.
// Playing and Paused with no current entry are left over from a session
// replaced by Load and are dropped.
func (e *Engine) apply(event domain.TransportEvent) {
	e.logger.Debug("transport event", slog.String("kind", event.Kind()))

	switch ev := event.(type) {
	case domain.Playing:
		if e.current == domain.NoIndex {
			return
		}
		if e.pendingIndexed {
			e.clearPending()
		}
		e.loaded = true
		e.setStatus(domain.StatusPlaying)
		e.fillDuration()
	case domain.Paused:
		if e.current == domain.NoIndex {
			return
		}
		e.loaded = true
		e.setStatus(domain.StatusPaused)
	case domain.Stopped:
		e.loaded = false
		e.setStatus(domain.StatusStopped)
	case domain.MediaChanged:
		e.mediaChanged(ev)
	case domain.EndReached:
		if e.pendingEntry != "" {
			e.logger.Debug("ignoring end of superseded media")
			return
		}
		if err := e.skip(false); err != nil {
			e.logger.Warn("advance after end of track failed", slog.Any("error", err))
			e.loaded = false
			e.setStatus(domain.StatusStopped)
		}
	}
}

func (e *Engine) setStatus(status domain.PlaybackStatus) {
	if status == domain.StatusPlaying {
		e.finished = false
	}
	if e.status == status {
		return
	}
	e.status = status
	e.commit(changeState)
}

// mediaChanged reconciles the current index with what the backend loaded.
// While a PlayAt is pending only its own confirmation is accepted; older
// confirmations belong to superseded commands. A change at the pending index
// with another locator means the backend source lagged the queue: the next
// Playing settles the command and the source is pushed again before the next
// PlayAt. With no current entry the session was just replaced and
// backend-initiated changes are dropped.
func (e *Engine) mediaChanged(ev domain.MediaChanged) {
	if e.pendingEntry != "" {
		switch {
		case ev.Locator == e.pendingLocator:
			e.clearPending()
			e.loaded = true
		case ev.Index == e.current:
			e.logger.Warn("backend loaded another locator at the requested index",
				slog.String("locator", ev.Locator),
				slog.String("pending", e.pendingLocator))
			e.pendingIndexed = true
			e.sourceDirty = true
			e.loaded = true
		default:
			e.logger.Debug("ignoring stale media change",
				slog.String("locator", ev.Locator),
				slog.String("pending", e.pendingLocator))
		}
		return
	}

	if e.current == domain.NoIndex {
		e.logger.Debug("ignoring media change without a current entry", slog.String("locator", ev.Locator))
		return
	}

	index := e.locate(ev)
	if index == domain.NoIndex {
		e.logger.Warn("backend loaded media not in queue", slog.String("locator", ev.Locator))
		return
	}
	e.loaded = true
	if index != e.current {
		e.current = index
		e.commit(changeState)
	}
}

// locate finds the queue index for a backend-initiated media change.
func (e *Engine) locate(ev domain.MediaChanged) int {
	if ev.Index >= 0 && ev.Index < len(e.queue) &&
		(ev.Locator == "" || e.queue[ev.Index].Track.Locator == ev.Locator) {
		return ev.Index
	}
	if ev.Locator == "" {
		return domain.NoIndex
	}
	// nearest match after the current entry wins
	for step := 1; step <= len(e.queue); step++ {
		i := (e.current + step) % len(e.queue)
		if i < 0 {
			i += len(e.queue)
		}
		if e.queue[i].Track.Locator == ev.Locator {
			return i
		}
	}
	return domain.NoIndex
}

// fillDuration asks the backend for the length of a track whose duration
// was unknown when it was queued.
func (e *Engine) fillDuration() {
	if e.current == domain.NoIndex || e.queue[e.current].Track.Duration > 0 {
		return
	}
	d, known, err := e.backend.Duration()
	if err != nil || !known || d <= 0 {
		return
	}
	e.queue[e.current].Track.Duration = d
	e.commit(changeQueue)
}

// stopForReset stops the backend before the session is replaced, including
// when a PlayAt was issued but not confirmed yet.
func (e *Engine) stopForReset() {
	if !e.loaded && e.status == domain.StatusStopped && e.pendingEntry == "" {
		return
	}
	if err := e.backend.Stop(); err != nil {
		_ = e.backendFailed("stop", e.currentLocator(), err)
	}
}

func (e *Engine) load(tracks []domain.Track) {
	e.stopForReset()

	e.queue = make([]domain.QueueEntry, len(tracks))
	for i, track := range tracks {
		e.queue[i] = domain.QueueEntry{
			EntryID:  e.cfg.NewID(),
			Position: i,
			Track:    track,
		}
	}
	e.current = domain.NoIndex
	e.status = domain.StatusStopped
	e.shuffle = false
	e.shuffleOrigin = nil
	e.loaded = false
	e.finished = false
	e.clearPending()
	e.history.Clear()

	e.logger.Debug("queue loaded", slog.Int("entries", len(e.queue)))
	e.commit(changeQueue | changeHistory | changeState)
}

func (e *Engine) restore(saved domain.SavedSession) {
	e.stopForReset()

	e.queue = cloneQueue(saved.Entries)
	for i := range e.queue {
		if e.queue[i].EntryID == "" {
			e.queue[i].EntryID = e.cfg.NewID()
		}
	}
	renumber(e.queue)

	e.current = saved.CurrentIndex
	if e.current < 0 || e.current >= len(e.queue) {
		e.current = domain.NoIndex
	}
	e.repeat = saved.RepeatMode
	e.shuffle = saved.Shuffle && len(e.queue) > 0
	e.shuffleOrigin = nil
	if e.shuffle {
		e.shuffleOrigin = append([]string(nil), saved.ShuffleOrigin...)
	}
	e.status = domain.StatusStopped
	e.loaded = false
	e.finished = false
	e.clearPending()
	e.history.Replace(saved.History)

	e.logger.Debug("session restored",
		slog.Int("entries", len(e.queue)),
		slog.Int("current", e.current))
	e.commit(changeQueue | changeHistory | changeState)
}

// playAt targets index and asks the backend to play it. The index is
// assumed valid. Status follows later from backend events.
func (e *Engine) playAt(index int) error {
	if err := e.requestPlay(index); err != nil {
		return err
	}
	e.commit(changeState)
	return nil
}

// requestPlay issues the backend command and records it as pending without
// publishing anything.
func (e *Engine) requestPlay(index int) error {
	entry := e.queue[index]
	if err := e.syncSource(); err != nil {
		// the backend plays its stale source; mediaChanged settles by index
		_ = e.backendFailed("set_queue_source", "", err)
	}
	if err := e.backend.PlayAt(index); err != nil {
		return e.backendFailed("play_at", entry.Track.Locator, err)
	}

	e.current = index
	e.finished = false
	e.clearPending()
	e.pendingEntry = entry.EntryID
	e.pendingLocator = entry.Track.Locator

	e.logger.Debug("play requested",
		slog.Int("index", index),
		slog.String("locator", entry.Track.Locator))
	return nil
}

// syncSource pushes the queue to the backend when an earlier push failed.
func (e *Engine) syncSource() error {
	if !e.sourceDirty {
		return nil
	}
	if err := e.backend.SetQueueSource(locators(e.queue)); err != nil {
		return err
	}
	e.sourceDirty = false
	return nil
}

func (e *Engine) togglePlayPause() error {
	if len(e.queue) == 0 {
		return nil
	}

	switch {
	case e.status == domain.StatusPlaying:
		if err := e.backend.Pause(); err != nil {
			return e.backendFailed("pause", e.currentLocator(), err)
		}
	case e.loaded && e.current != domain.NoIndex:
		if err := e.backend.Play(); err != nil {
			return e.backendFailed("play", e.currentLocator(), err)
		}
	default:
		start := e.current
		if start == domain.NoIndex || e.finished {
			start = 0
		}
		return e.playAt(start)
	}
	return nil
}

func (e *Engine) rewind() error {
	if len(e.queue) == 0 || e.current == domain.NoIndex {
		return nil
	}

	if e.current > 0 {
		elapsed, err := e.backend.Elapsed()
		if err != nil {
			return e.backendFailed("elapsed", e.currentLocator(), err)
		}
		if elapsed <= e.cfg.RewindThreshold {
			return e.playAt(e.current - 1)
		}
	}

	if !e.loaded {
		return e.playAt(e.current)
	}
	if err := e.backend.Seek(0); err != nil {
		return e.backendFailed("seek", e.currentLocator(), err)
	}
	return nil
}

func (e *Engine) skip(explicit bool) error {
	if len(e.queue) == 0 {
		return nil
	}

	if !explicit && e.current != domain.NoIndex {
		e.history.Record(e.queue[e.current].Track)
		e.commit(changeHistory)
	}

	if e.current == domain.NoIndex {
		return e.playAt(0)
	}

	switch e.repeat {
	case domain.RepeatOne:
		return e.playAt(e.current)
	case domain.RepeatQueue:
		return e.playAt((e.current + 1) % len(e.queue))
	default:
		if e.current == len(e.queue)-1 {
			return e.stopAtEnd()
		}
		return e.playAt(e.current + 1)
	}
}

// stopAtEnd handles running off the end of the queue under RepeatNone.
// The current index stays on the last entry.
func (e *Engine) stopAtEnd() error {
	var err error
	if e.loaded || e.status != domain.StatusStopped {
		if stopErr := e.backend.Stop(); stopErr != nil {
			err = e.backendFailed("stop", e.currentLocator(), stopErr)
		}
	}

	e.loaded = false
	e.finished = true
	e.clearPending()
	e.status = domain.StatusStopped

	e.logger.Debug("end of queue reached")
	e.commit(changeState)
	return err
}

// insert adds a manual entry at index and pushes the new order to the backend.
func (e *Engine) insert(index int, track domain.Track) {
	entry := domain.QueueEntry{
		EntryID:       e.cfg.NewID(),
		Track:         track,
		ManuallyAdded: true,
	}
	e.queue = append(e.queue, domain.QueueEntry{})
	copy(e.queue[index+1:], e.queue[index:])
	e.queue[index] = entry
	renumber(e.queue)
}

func (e *Engine) removeAt(index int) error {
	active := e.loaded || e.status != domain.StatusStopped
	removed := e.queue[index]

	e.queue = append(e.queue[:index], e.queue[index+1:]...)
	renumber(e.queue)

	e.logger.Debug("entry removed",
		slog.Int("index", index),
		slog.String("entry_id", removed.EntryID))

	switch {
	case index < e.current:
		e.current--
		e.commit(changeQueue | changeState)
		return nil
	case index > e.current:
		e.commit(changeQueue)
		return nil
	}

	// the current entry went away
	if len(e.queue) == 0 {
		e.current = domain.NoIndex
		e.shuffle = false
		e.shuffleOrigin = nil
		e.commit(changeQueue)
		if active {
			return e.stopAtEnd()
		}
		e.commit(changeState)
		return nil
	}

	next := index
	if next >= len(e.queue) {
		if e.repeat == domain.RepeatNone {
			e.current = len(e.queue) - 1
			e.commit(changeQueue)
			return e.stopAtEnd()
		}
		next = 0
	}

	e.current = next
	e.commit(changeQueue)
	if active {
		return e.playAt(next)
	}
	e.loaded = false
	e.commit(changeState)
	return nil
}

func (e *Engine) toggleShuffle() {
	if len(e.queue) == 0 {
		return
	}

	if e.shuffle {
		e.shuffler.Unshuffle(e.queue, e.current, e.shuffleOrigin)
		e.shuffleOrigin = nil
		e.shuffle = false
	} else {
		e.shuffleOrigin = e.shuffler.Shuffle(e.queue, e.current)
		e.shuffle = true
	}

	e.logger.Debug("shuffle toggled", slog.Bool("shuffle", e.shuffle))
	e.commit(changeQueue | changeState)
}

func (e *Engine) clearPending() {
	e.pendingEntry = ""
	e.pendingLocator = ""
	e.pendingIndexed = false
}

func (e *Engine) currentLocator() string {
	if e.current == domain.NoIndex || e.current >= len(e.queue) {
		return ""
	}
	return e.queue[e.current].Track.Locator
}

// backendFailed publishes a failed backend command and returns it as an error.
// Session state is left as last confirmed.
func (e *Engine) backendFailed(op, locator string, err error) error {
	berr := domain.NewBackendError(op, locator, err)
	e.logger.Warn("backend command failed",
		slog.String("op", op),
		slog.String("locator", locator),
		slog.Any("error", err))
	e.bus.Publish(domain.NewBackendErrorEvent(op, berr))
	return berr
}

// commit stores a fresh snapshot and publishes the selected notifications.
// Queue changes are also pushed to the backend as its new queue source; a
// failed push is retried before the next PlayAt.
func (e *Engine) commit(changes change) {
	snap := e.storeSnapshot()

	if changes&changeQueue != 0 {
		if err := e.backend.SetQueueSource(locators(e.queue)); err != nil {
			e.sourceDirty = true
			_ = e.backendFailed("set_queue_source", "", err)
		} else {
			e.sourceDirty = false
		}
		e.bus.Publish(domain.NewQueueChangedEvent(snap.Queue, snap.CurrentIndex))
	}
	if changes&changeHistory != 0 {
		e.bus.Publish(domain.NewHistoryChangedEvent(snap.History))
	}
	if changes&changeState != 0 {
		e.bus.Publish(domain.NewStateChangedEvent(snap.CurrentIndex, snap.Status, snap.RepeatMode, snap.Shuffle))
	}
}

func (e *Engine) storeSnapshot() *domain.SessionSnapshot {
	snap := &domain.SessionSnapshot{
		Queue:        cloneQueue(e.queue),
		CurrentIndex: e.current,
		Status:       e.status,
		RepeatMode:   e.repeat,
		Shuffle:      e.shuffle,
		History:      e.history.Records(),
	}
	e.snapshot.Store(snap)
	return snap
}

func cloneQueue(queue []domain.QueueEntry) []domain.QueueEntry {
	out := make([]domain.QueueEntry, len(queue))
	copy(out, queue)
	return out
}

func locators(queue []domain.QueueEntry) []string {
	out := make([]string, len(queue))
	for i, entry := range queue {
		out[i] = entry.Track.Locator
	}
	return out
}
