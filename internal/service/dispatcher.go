package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/tunequeue/internal/domain"
)

var errTaskPanicked = errors.New("dispatcher task panicked")

// task is a unit of work executed on the dispatcher goroutine.
type task func()

// Dispatcher serializes work onto a single goroutine.
// Tasks run one at a time in the order they were submitted, from any number of
// producer goroutines. The queue is unbounded so producers never block; a
// backend callback must never stall on a slow consumer.
//
// Thread-safety: Post, Call and Close may be called from any goroutine.
type Dispatcher struct {
	logger *slog.Logger

	// mu protects pending and closed
	mu      sync.Mutex
	pending []task
	closed  bool

	// wake has capacity 1; a pending signal means "pending may be non-empty"
	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

// NewDispatcher creates a dispatcher and starts its consumer goroutine.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	d.wg.Add(1)
	go d.loop()

	return d
}

// Post enqueues fn without waiting for it to run.
// Returns false if the dispatcher is closed.
func (d *Dispatcher) Post(fn func()) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	d.pending = append(d.pending, fn)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return true
}

// Call enqueues fn and waits for it to finish.
// If ctx is cancelled before fn starts, fn still runs later but Call returns ctx.Err().
// Calling Call from inside a task deadlocks; tasks must use Post.
func (d *Dispatcher) Call(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	if !d.Post(func() {
		err := errTaskPanicked
		defer func() { result <- err }()
		err = fn()
	}) {
		return domain.ErrEngineClosed
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-d.done:
		// the loop drains before exiting, so the result may already be there
		select {
		case err := <-result:
			return err
		default:
			return domain.ErrEngineClosed
		}
	}
}

// Close stops accepting tasks, runs everything already queued and waits for
// the consumer goroutine to exit. Calling Close more than once is safe.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.wg.Wait()
		return
	}
	d.closed = true
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	d.wg.Wait()
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()
	defer close(d.done)

	for range d.wake {
		for {
			batch, closed := d.take()
			for _, fn := range batch {
				d.run(fn)
			}
			if len(batch) > 0 {
				continue
			}
			if closed {
				return
			}
			break
		}
	}
}

// take swaps out the pending slice.
func (d *Dispatcher) take() ([]task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	batch := d.pending
	d.pending = nil
	return batch, d.closed
}

// run executes one task, recovering from a panic so the loop keeps going.
func (d *Dispatcher) run(fn task) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatcher task panicked", slog.Any("panic", r))
		}
	}()
	fn()
}
