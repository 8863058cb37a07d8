//go:build libmpv

package mpv

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	mpv "github.com/gen2brain/go-mpv"

	"github.com/tejashwikalptaru/tunequeue/internal/domain"
	"github.com/tejashwikalptaru/tunequeue/internal/ports"
)

const (
	propPause    = "pause"
	propTimePos  = "time-pos"
	propDuration = "duration"
	propVolume   = "volume"
)

var errClosed = fmt.Errorf("mpv backend closed: %w", domain.ErrBackendUnavailable)

// backend keeps its own copy of the queue source and loads one file at a
// time; mpv's playlist is not used, so indexes always match the engine's.
type backend struct {
	logger *slog.Logger
	poll   time.Duration

	mu     sync.Mutex
	client *mpv.Mpv
	source []string
	index  int
	loaded bool
	paused bool

	sink   ports.TransportSink
	sinkMu sync.RWMutex

	closing   atomic.Bool
	closeOnce sync.Once
	loopWG    sync.WaitGroup
}

// New creates and initializes a libmpv instance configured for audio only.
func New(opts Options) (ports.MediaBackend, error) {
	opts = opts.withDefaults()

	client := mpv.New()
	if client == nil {
		return nil, errors.New("create libmpv instance")
	}

	setOptionString(client, "terminal", "no")
	setOptionString(client, "video", "no")
	setOptionString(client, "audio-display", "no")
	setOptionString(client, "keep-open", "no")
	setOptionString(client, "idle", "yes")

	if err := client.Initialize(); err != nil {
		client.TerminateDestroy()
		return nil, fmt.Errorf("initialize libmpv: %w", err)
	}

	_ = client.RequestEvent(mpv.EventEnd, true)
	if opts.Volume > 0 {
		_ = client.SetProperty(propVolume, mpv.FormatDouble, float64(opts.Volume))
	}

	b := &backend{
		logger: opts.Logger,
		poll:   opts.PollInterval,
		client: client,
		index:  -1,
	}

	b.loopWG.Add(1)
	go b.eventLoop()

	return b, nil
}

func (b *backend) SetQueueSource(locators []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.source = append([]string(nil), locators...)
	return nil
}

func (b *backend) PlayAt(index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client == nil {
		return errClosed
	}
	return b.loadLocked(index)
}

func (b *backend) loadLocked(index int) error {
	if index < 0 || index >= len(b.source) {
		return fmt.Errorf("load index %d: %w", index, domain.ErrOutOfRange)
	}
	locator := b.source[index]

	if err := b.client.Command([]string{"loadfile", locator, "replace"}); err != nil {
		return fmt.Errorf("load file %q: %w", locator, err)
	}
	if err := b.client.SetPropertyString(propPause, "no"); err != nil {
		return fmt.Errorf("start playback: %w", err)
	}

	b.index = index
	b.loaded = true
	b.paused = false
	b.emit(domain.MediaChanged{Index: index, Locator: locator})
	b.emit(domain.Playing{})
	return nil
}

func (b *backend) Play() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client == nil {
		return errClosed
	}
	if !b.loaded {
		return errors.New("nothing loaded")
	}
	if err := b.client.SetPropertyString(propPause, "no"); err != nil {
		return fmt.Errorf("resume playback: %w", err)
	}
	b.paused = false
	b.emit(domain.Playing{})
	return nil
}

func (b *backend) Pause() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client == nil {
		return errClosed
	}
	if err := b.client.SetPropertyString(propPause, "yes"); err != nil {
		return fmt.Errorf("pause playback: %w", err)
	}
	if b.loaded && !b.paused {
		b.paused = true
		b.emit(domain.Paused{})
	}
	return nil
}

func (b *backend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client == nil {
		return errClosed
	}
	if err := b.client.Command([]string{"stop"}); err != nil {
		return fmt.Errorf("stop playback: %w", err)
	}
	b.loaded = false
	b.paused = false
	b.index = -1
	b.emit(domain.Stopped{})
	return nil
}

func (b *backend) Seek(position time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client == nil {
		return errClosed
	}
	if !b.loaded {
		return nil
	}
	if err := b.client.SetProperty(propTimePos, mpv.FormatDouble, position.Seconds()); err != nil {
		return fmt.Errorf("seek playback: %w", err)
	}
	b.emit(domain.TimeChanged{Elapsed: position})
	return nil
}

func (b *backend) Next() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client == nil {
		return errClosed
	}
	return b.loadLocked(b.index + 1)
}

func (b *backend) Previous() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client == nil {
		return errClosed
	}
	return b.loadLocked(b.index - 1)
}

func (b *backend) Elapsed() (time.Duration, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client == nil {
		return 0, errClosed
	}
	d, _, err := b.readDurationLocked(propTimePos)
	return d, err
}

func (b *backend) Duration() (time.Duration, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client == nil {
		return 0, false, errClosed
	}
	return b.readDurationLocked(propDuration)
}

func (b *backend) SetEventSink(sink ports.TransportSink) {
	b.sinkMu.Lock()
	defer b.sinkMu.Unlock()
	b.sink = sink
}

func (b *backend) Close() error {
	b.closeOnce.Do(func() {
		b.closing.Store(true)
		b.mu.Lock()
		b.client.Wakeup()
		b.mu.Unlock()
		b.loopWG.Wait()

		b.mu.Lock()
		b.client.TerminateDestroy()
		b.client = nil
		b.loaded = false
		b.mu.Unlock()

		b.SetEventSink(nil)
	})
	return nil
}

// emit forwards an event to the sink. Called with mu held so events keep
// the order of the commands that caused them.
func (b *backend) emit(event domain.TransportEvent) {
	if b.closing.Load() {
		return
	}
	b.sinkMu.RLock()
	sink := b.sink
	b.sinkMu.RUnlock()
	if sink != nil {
		sink(event)
	}
}

func (b *backend) eventLoop() {
	defer b.loopWG.Done()

	client := b.client
	timeout := b.poll.Seconds()
	lastPoll := time.Now()

	for !b.closing.Load() {
		event := client.WaitEvent(timeout)
		if b.closing.Load() {
			return
		}

		if event != nil {
			switch event.EventID {
			case mpv.EventShutdown:
				return
			case mpv.EventEnd:
				b.handleEnd(event)
			}
		}

		if time.Since(lastPoll) >= b.poll {
			lastPoll = time.Now()
			b.pollPosition()
		}
	}
}

// handleEnd reports natural end of file. Ends caused by loadfile or stop
// are ignored: the command already produced its own events.
func (b *backend) handleEnd(event *mpv.Event) {
	end := event.EndFile()
	if end.Reason != mpv.EndFileEOF {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.loaded {
		return
	}
	b.loaded = false
	b.paused = false
	b.logger.Debug("mpv end of file", slog.Int("index", b.index))
	b.emit(domain.EndReached{})
}

func (b *backend) pollPosition() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.loaded || b.paused {
		return
	}
	elapsed, ok, err := b.readDurationLocked(propTimePos)
	if err != nil {
		b.logger.Debug("mpv position poll failed", slog.Any("error", err))
		return
	}
	if ok {
		b.emit(domain.TimeChanged{Elapsed: elapsed})
	}
}

func (b *backend) readDurationLocked(property string) (time.Duration, bool, error) {
	value, err := b.client.GetProperty(property, mpv.FormatDouble)
	if err != nil {
		if errors.Is(err, mpv.ErrPropertyUnavailable) || errors.Is(err, mpv.ErrPropertyNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read %s: %w", property, err)
	}

	seconds, ok := asFloat64(value)
	if !ok || math.IsNaN(seconds) || seconds < 0 {
		return 0, false, nil
	}
	return time.Duration(math.Round(seconds * float64(time.Second))), true, nil
}

func asFloat64(value any) (float64, bool) {
	switch cast := value.(type) {
	case float64:
		return cast, true
	case float32:
		return float64(cast), true
	case int:
		return float64(cast), true
	case int64:
		return float64(cast), true
	default:
		return 0, false
	}
}

func setOptionString(client *mpv.Mpv, name string, value string) {
	_ = client.SetOptionString(name, value)
}
