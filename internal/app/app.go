// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/tejashwikalptaru/tunequeue/internal/adapter/backend/mock"
	"github.com/tejashwikalptaru/tunequeue/internal/adapter/backend/mpv"
	"github.com/tejashwikalptaru/tunequeue/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunequeue/internal/adapter/mpris"
	"github.com/tejashwikalptaru/tunequeue/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/tunequeue/internal/adapter/repository/sqlite"
	"github.com/tejashwikalptaru/tunequeue/internal/adapter/source/files"
	"github.com/tejashwikalptaru/tunequeue/internal/adapter/ui/console"
	"github.com/tejashwikalptaru/tunequeue/internal/config"
	"github.com/tejashwikalptaru/tunequeue/internal/domain"
	"github.com/tejashwikalptaru/tunequeue/internal/logger"
	"github.com/tejashwikalptaru/tunequeue/internal/ports"
	"github.com/tejashwikalptaru/tunequeue/internal/service"
)

// AppID identifies the application to Fyne preferences storage.
const AppID = "io.github.tejashwikalptaru.tunequeue"

// stateTimeout bounds restore and save at startup and shutdown.
const stateTimeout = 5 * time.Second

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing a clean entry point for main.go
type Application struct {
	// Core dependencies
	logger *slog.Logger
	cfg    *config.Config

	// Infrastructure
	eventBus *eventbus.SyncEventBus
	backend  ports.MediaBackend
	source   *files.Source

	// Persistence (nil when disabled)
	sessionRepo ports.SessionRepository
	repoCloser  io.Closer

	// Engine
	engine *service.Engine

	// UI
	view      *console.View
	presenter *console.Presenter
	shell     *console.Shell
	mpris     *mpris.Adapter

	shutdownOnce sync.Once
}

// Options carries what NewApplication cannot derive from the config.
type Options struct {
	// Config defaults to config.Default()
	Config *config.Config

	// Logger overrides the configured logger
	Logger *slog.Logger

	// Output receives console rendering (defaults to os.Stdout)
	Output io.Writer

	// Backend overrides backend.kind (used by tests)
	Backend ports.MediaBackend

	// Preferences backs the preferences state store; nil opens the
	// platform store under AppID
	Preferences fyne.Preferences

	// Rand seeds shuffling; nil seeds from the clock
	Rand *rand.Rand

	// ShowPositions prints playback position updates
	ShowPositions bool
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(opts Options) (*Application, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{cfg: cfg}

	// Step 1: Create logger
	app.logger = opts.Logger
	if app.logger == nil {
		logCfg := logger.DefaultConfig()
		if level, err := cfg.LogLevel(); err == nil {
			logCfg.Level = level
		}
		if cfg.Log.Format != "" {
			logCfg.Format = cfg.Log.Format
		}
		app.logger = logger.NewLogger(logger.ApplyEnv(logCfg))
	}
	app.logger.Info("initializing application", slog.String("version", GetVersionInfo().FullString()))

	// Step 2: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus()
	app.eventBus.SetLogger(app.logger.With(slog.String("component", "eventbus")))

	// Step 3: Create the media backend
	backend, err := app.createBackend(opts.Backend)
	if err != nil {
		_ = app.eventBus.Close()
		return nil, err
	}
	app.backend = backend

	// Step 4: Create the session repository
	if cfg.State.Enabled {
		if err := app.createRepository(opts.Preferences); err != nil {
			// Non-fatal - the session just won't persist
			app.logger.Warn("session persistence disabled", slog.Any("error", err))
		}
	}

	// Step 5: Create the engine
	engineCfg := service.DefaultEngineConfig()
	engineCfg.RewindThreshold = cfg.Playback.RewindThreshold
	engineCfg.PositionInterval = cfg.Playback.PositionInterval
	engineCfg.HistoryLimit = cfg.History.Limit
	engineCfg.RepeatMode = cfg.RepeatMode()
	engineCfg.Rand = opts.Rand

	app.engine = service.NewEngine(
		app.logger.With(slog.String("service", "engine")),
		app.backend,
		app.eventBus,
		engineCfg,
	)

	// Step 6: Load saved state
	if err := app.loadSavedState(); err != nil {
		// Non-fatal - just log and continue
		app.logger.Warn("failed to load saved state", slog.Any("error", err))
	}

	// Step 7: Create UI
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	app.source = files.New(files.WithLogger(app.logger.With(slog.String("component", "files"))))
	app.view = console.NewView(out)
	app.view.ShowPositions = opts.ShowPositions
	app.presenter = console.NewPresenter(
		app.logger.With(slog.String("component", "presenter")),
		app.eventBus,
		app.engine,
		app.view,
	)
	app.shell = console.NewShell(
		app.logger.With(slog.String("component", "shell")),
		app.engine,
		app.source,
		app.view,
		out,
	)

	// Step 8: Expose the session over MPRIS
	if cfg.MPRIS.Enabled {
		adapter, err := mpris.New(app.engine, app.logger.With(slog.String("component", "mpris")))
		if err != nil {
			app.logger.Warn("mpris unavailable", slog.Any("error", err))
		} else {
			app.mpris = adapter
		}
	}

	return app, nil
}

func (a *Application) createBackend(injected ports.MediaBackend) (ports.MediaBackend, error) {
	if injected != nil {
		return injected, nil
	}

	if a.cfg.Backend.Kind == config.BackendMPV {
		backend, err := mpv.New(mpv.Options{
			Logger: a.logger.With(slog.String("backend", "mpv")),
			Volume: a.cfg.Backend.Volume,
		})
		if err == nil {
			return backend, nil
		}
		if !errors.Is(err, mpv.ErrNotCompiled) {
			return nil, fmt.Errorf("failed to initialize media backend: %w", err)
		}
		a.logger.Warn("mpv backend not compiled in, using silent mock backend")
	}

	backend := mock.NewBackend()
	backend.SetLogger(a.logger.With(slog.String("backend", "mock")))
	return backend, nil
}

func (a *Application) createRepository(prefs fyne.Preferences) error {
	switch a.cfg.State.Store {
	case config.StorePreferences:
		if prefs == nil {
			prefs = fyneapp.NewWithID(AppID).Preferences()
		}
		a.sessionRepo = memory.NewSessionRepository(prefs)
		return nil
	default:
		path, err := a.cfg.StatePath()
		if err != nil {
			return fmt.Errorf("resolve state path: %w", err)
		}
		repo, err := sqlite.Open(path)
		if err != nil {
			return err
		}
		a.logger.Debug("session database opened", slog.String("path", path))
		a.sessionRepo = repo
		a.repoCloser = repo
		return nil
	}
}

// loadSavedState restores the session from the previous run.
func (a *Application) loadSavedState() error {
	if a.sessionRepo == nil {
		return nil
	}

	saved, err := a.sessionRepo.LoadSession()
	if errors.Is(err, domain.ErrNoSavedSession) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), stateTimeout)
	defer cancel()
	if err := a.engine.Restore(ctx, *saved); err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	a.logger.Info("session restored",
		slog.Int("entries", len(saved.Entries)),
		slog.Int("current", saved.CurrentIndex))
	return nil
}

// saveState persists the current session.
func (a *Application) saveState() error {
	if a.sessionRepo == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), stateTimeout)
	defer cancel()

	saved, err := a.engine.SavedSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to snapshot session: %w", err)
	}
	if err := a.sessionRepo.SaveSession(saved); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Play replaces the queue with the tracks behind refs and starts the one at
// start (0-based, in resolved order). With shuffle that track is moved to
// the front of the shuffled queue. Without refs the restored session is
// left as is.
func (a *Application) Play(ctx context.Context, refs []string, start int, shuffle bool) error {
	if len(refs) == 0 {
		return nil
	}

	tracks, err := a.source.ResolveContext(ctx, refs)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return domain.NewServiceError("Application", "Play", "no playable files found", nil)
	}

	return a.engine.LoadAndPlay(ctx, tracks, start, shuffle || a.cfg.Playback.Shuffle)
}

// Run processes console commands from in until EOF, quit or ctx is done.
func (a *Application) Run(ctx context.Context, in io.Reader) error {
	a.logger.Info("tunequeue started")
	return a.shell.Run(ctx, in)
}

// Engine returns the playback engine.
func (a *Application) Engine() *service.Engine {
	return a.engine
}

// EventBus returns the application event bus.
func (a *Application) EventBus() ports.EventBus {
	return a.eventBus
}

// Shutdown gracefully shuts down the application.
// The session is saved first, then components close in reverse order of creation.
func (a *Application) Shutdown() error {
	var errs []error

	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")

		if err := a.saveState(); err != nil {
			a.logger.Warn("failed to save state", slog.Any("error", err))
			errs = append(errs, err)
		}

		if a.mpris != nil {
			if err := a.mpris.Close(); err != nil {
				a.logger.Warn("failed to close mpris", slog.Any("error", err))
			}
		}

		if a.presenter != nil {
			a.presenter.Shutdown()
		}

		if err := a.engine.Shutdown(); err != nil {
			errs = append(errs, err)
		}

		if err := a.backend.Close(); err != nil {
			a.logger.Warn("failed to close backend", slog.Any("error", err))
			errs = append(errs, err)
		}

		if a.repoCloser != nil {
			if err := a.repoCloser.Close(); err != nil {
				a.logger.Warn("failed to close session store", slog.Any("error", err))
				errs = append(errs, err)
			}
		}

		if err := a.eventBus.Close(); err != nil {
			errs = append(errs, err)
		}

		a.logger.Info("application shutdown complete")
	})

	return errors.Join(errs...)
}
