// Package main is the entry point for the tunequeue terminal player.
//
// Build:
//
//	go build -o build/tunequeue ./cmd/tunequeue
//
// With the mpv backend (needs libmpv):
//
//	go build -tags libmpv -o build/tunequeue ./cmd/tunequeue
//
// Run:
//
//	./build/tunequeue play ~/Music/album
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/tejashwikalptaru/tunequeue/internal/app"
)

func main() {
	cmd := &cli.Command{
		Name:    "tunequeue",
		Usage:   "Play local music and streams from a terminal queue",
		Version: app.GetVersionInfo().String(),
		Commands: []*cli.Command{
			playCommand(),
			versionCommand(),
		},
		DefaultCommand: "play",
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "tunequeue: %v\n", err)
		stop()
		os.Exit(1)
	}
}
