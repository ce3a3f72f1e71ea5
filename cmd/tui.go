package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/a2s/internal/shared"
	"github.com/desertthunder/a2s/internal/tasks"
	"github.com/desertthunder/a2s/internal/ui"
)

const tuiLogPath = "./tmp/a2s-tui.log"

// Menu launches the interactive terminal UI.
//
// The extractor never prompts on stdin here; without a stored cookie it relies on the browser profile.
func (r *Runner) Menu(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	if cmd.String("log-file") == "" {
		fileLogger, err := shared.NewFileLogger(tuiLogPath)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		r.SetLogger(fileLogger)
	}

	catalog, done, err := r.newCatalog(ctx)
	if err != nil {
		return err
	}
	defer done()

	pipeline := tasks.NewPipeline(r.config, r.newExtractor(false), catalog, r.logger)
	model := ui.NewModel(ctx, pipeline, ui.Options{
		URL:      cmd.String("url"),
		Name:     cmd.String("name"),
		Artifact: r.config.Paths.Artifact,
		Fresh:    cmd.Bool("fresh"),
	})

	final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	if m, ok := final.(*ui.Model); ok && m.Err() != nil {
		r.logger.Error("last run failed", "error", m.Err())
	}
	return nil
}
