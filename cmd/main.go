package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/a2s/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "a2s",
		Usage:    "Migrate Anghami playlists to Spotify",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Before:   runner.Before,
		Commands: runner.register(),
		Action:   runner.Menu,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotImplemented):
			runner.logger.Warn("not implemented")
			os.Exit(0)
		case errors.Is(err, context.Canceled):
			runner.logger.Warn("interrupted; progress so far was saved")
			os.Exit(130)
		default:
			runner.logger.Fatalf("application error: %v", err)
		}
	}
}
