package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/tejashwikalptaru/tunequeue/internal/app"
	"github.com/tejashwikalptaru/tunequeue/internal/config"
)

// playCommand loads the given files, folders or stream URLs and opens the
// command prompt. Without arguments the saved session is resumed.
func playCommand() *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "Play files, folders or stream URLs",
		ArgsUsage: "[path|url ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
			},
			&cli.BoolFlag{
				Name:    "shuffle",
				Aliases: []string{"s"},
				Usage:   "Shuffle the loaded tracks",
			},
			&cli.IntFlag{
				Name:  "start",
				Usage: "Position of the first track to play (1-based, in load order)",
				Value: 1,
			},
			&cli.StringFlag{
				Name:    "repeat",
				Aliases: []string{"r"},
				Usage:   "Repeat mode: none, queue or one",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Media backend: mpv or mock",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn or error",
			},
			&cli.BoolFlag{
				Name:  "no-state",
				Usage: "Neither restore nor save the session",
			},
			&cli.BoolFlag{
				Name:  "positions",
				Usage: "Print playback position updates",
			},
		},
		Action: runPlay,
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(_ context.Context, _ *cli.Command) error {
			fmt.Println(app.GetVersionInfo().FullString())
			return nil
		},
	}
}

func runPlay(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cmd, cfg)

	application, err := app.NewApplication(app.Options{
		Config:        cfg,
		ShowPositions: cmd.Bool("positions"),
	})
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	// Ensure a graceful shutdown
	defer func() {
		if err := application.Shutdown(); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		}
	}()

	if err := application.Play(ctx, cmd.Args().Slice(), int(cmd.Int("start"))-1, cmd.Bool("shuffle")); err != nil {
		return err
	}

	// Blocks until quit, EOF on stdin or a signal
	return application.Run(ctx, os.Stdin)
}

func applyFlags(cmd *cli.Command, cfg *config.Config) {
	if cmd.IsSet("repeat") {
		cfg.Playback.Repeat = cmd.String("repeat")
	}
	if cmd.IsSet("backend") {
		cfg.Backend.Kind = cmd.String("backend")
	}
	if cmd.IsSet("log-level") {
		cfg.Log.Level = cmd.String("log-level")
	}
	if cmd.Bool("no-state") {
		cfg.State.Enabled = false
	}
}
