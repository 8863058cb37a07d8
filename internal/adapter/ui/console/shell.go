package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/tejashwikalptaru/tunequeue/internal/domain"
	"github.com/tejashwikalptaru/tunequeue/internal/ports"
)

// Commander is the engine surface driven by the shell.
type Commander interface {
	SnapshotSource
	PlayAt(ctx context.Context, index int) error
	TogglePlayPause(ctx context.Context) error
	Rewind(ctx context.Context) error
	Skip(ctx context.Context, explicit bool) error
	Stop(ctx context.Context) error
	Seek(ctx context.Context, position time.Duration) error
	ToggleShuffle(ctx context.Context) error
	CycleRepeat(ctx context.Context) error
	SetRepeat(ctx context.Context, mode domain.RepeatMode) error
	Enqueue(ctx context.Context, tracks ...domain.Track) error
	InsertAt(ctx context.Context, index int, track domain.Track) error
	RemoveAt(ctx context.Context, index int) error
	PlayHistoryEntry(ctx context.Context, i int) error
	LoadAndPlay(ctx context.Context, tracks []domain.Track, start int, shuffle bool) error
}

// ErrQuit is returned by Execute for the quit command.
var ErrQuit = errors.New("quit")

// Shell reads one command per line and applies it to the engine.
// Positions typed by the user are 1-based.
type Shell struct {
	logger *slog.Logger
	engine Commander
	source ports.TrackSource
	view   ports.View
	out    io.Writer
}

// NewShell creates a shell. source resolves paths for add and insert.
func NewShell(logger *slog.Logger, engine Commander, source ports.TrackSource, view ports.View, out io.Writer) *Shell {
	return &Shell{
		logger: logger,
		engine: engine,
		source: source,
		view:   view,
		out:    out,
	}
}

// Run processes commands from in until EOF, quit or ctx is done.
// On cancellation Run returns at once, but the goroutine reading in stays
// blocked in Read until in yields data, EOF or an error; callers that own
// in should close it after Run returns.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			err := s.Execute(ctx, line)
			if errors.Is(err, ErrQuit) {
				return nil
			}
			if err != nil {
				s.view.ShowError("Command failed", err.Error())
			}
		}
	}
}

// Execute runs a single command line.
func (s *Shell) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	s.logger.Debug("shell command", slog.String("cmd", cmd), slog.Int("args", len(args)))

	switch cmd {
	case "play":
		if len(args) == 0 {
			return s.engine.TogglePlayPause(ctx)
		}
		i, err := position(args[0])
		if err != nil {
			return err
		}
		return s.engine.PlayAt(ctx, i)
	case "pause", "p", "toggle":
		return s.engine.TogglePlayPause(ctx)
	case "next", "n", "skip":
		return s.engine.Skip(ctx, true)
	case "prev", "previous", "b", "rewind":
		return s.engine.Rewind(ctx)
	case "stop":
		return s.engine.Stop(ctx)
	case "seek":
		if len(args) != 1 {
			return errors.New("usage: seek <seconds|m:ss>")
		}
		d, err := parsePosition(args[0])
		if err != nil {
			return err
		}
		return s.engine.Seek(ctx, d)
	case "shuffle":
		return s.engine.ToggleShuffle(ctx)
	case "repeat":
		if len(args) == 0 {
			return s.engine.CycleRepeat(ctx)
		}
		mode, err := domain.ParseRepeatMode(args[0])
		if err != nil {
			return err
		}
		return s.engine.SetRepeat(ctx, mode)
	case "open", "load":
		start := 0
		if len(args) > 1 {
			if i, err := position(args[0]); err == nil {
				start, args = i, args[1:]
			}
		}
		tracks, err := s.resolve(args)
		if err != nil {
			return err
		}
		if len(tracks) == 0 {
			return errors.New("no playable files found")
		}
		return s.engine.LoadAndPlay(ctx, tracks, start, s.engine.Snapshot().Shuffle)
	case "add":
		tracks, err := s.resolve(args)
		if err != nil {
			return err
		}
		return s.engine.Enqueue(ctx, tracks...)
	case "insert":
		if len(args) < 2 {
			return errors.New("usage: insert <position> <path>")
		}
		i, err := position(args[0])
		if err != nil {
			return err
		}
		tracks, err := s.resolve(args[1:])
		if err != nil {
			return err
		}
		for offset, track := range tracks {
			if err := s.engine.InsertAt(ctx, i+offset, track); err != nil {
				return err
			}
		}
		return nil
	case "remove", "rm":
		if len(args) != 1 {
			return errors.New("usage: remove <position>")
		}
		i, err := position(args[0])
		if err != nil {
			return err
		}
		return s.engine.RemoveAt(ctx, i)
	case "replay":
		if len(args) != 1 {
			return errors.New("usage: replay <history position>")
		}
		i, err := position(args[0])
		if err != nil {
			return err
		}
		return s.engine.PlayHistoryEntry(ctx, i)
	case "queue", "ls":
		snap := s.engine.Snapshot()
		s.view.ShowQueue(snap.Queue, snap.CurrentIndex)
		return nil
	case "history":
		s.view.ShowHistory(s.engine.Snapshot().History)
		return nil
	case "status":
		snap := s.engine.Snapshot()
		s.view.SetNowPlaying(snap.Current(), snap.Status)
		s.view.SetModes(snap.RepeatMode, snap.Shuffle)
		return nil
	case "help", "?":
		fmt.Fprint(s.out, helpText)
		return nil
	case "quit", "exit", "q":
		return ErrQuit
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

func (s *Shell) resolve(refs []string) ([]domain.Track, error) {
	if len(refs) == 0 {
		return nil, errors.New("no paths given")
	}
	return s.source.Resolve(refs)
}

// position parses a 1-based position into a 0-based index.
func position(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid position %q", arg)
	}
	return n - 1, nil
}

// parsePosition accepts plain seconds or m:ss.
func parsePosition(arg string) (time.Duration, error) {
	if m, sec, ok := strings.Cut(arg, ":"); ok {
		minutes, err1 := strconv.Atoi(m)
		seconds, err2 := strconv.Atoi(sec)
		if err1 != nil || err2 != nil || seconds >= 60 {
			return 0, fmt.Errorf("invalid position %q", arg)
		}
		return time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second, nil
	}
	seconds, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid position %q", arg)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

const helpText = `commands:
  play [n]          toggle playback, or play queue position n
  pause             toggle play/pause
  next | prev       skip forward, rewind or go back
  stop              stop playback
  seek <s|m:ss>     jump within the current track
  shuffle           toggle shuffle
  repeat [mode]     cycle repeat, or set none|queue|one
  open [n] <path...> replace the queue and play track n (default 1)
  add <path...>     queue files after the current track
  insert <n> <path> insert at queue position n
  remove <n>        remove queue position n
  replay <n>        play history entry n next
  queue | history | status
  quit
`
