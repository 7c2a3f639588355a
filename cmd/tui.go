package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kelarin/rosync/internal/repositories"
	"github.com/kelarin/rosync/internal/shared"
	"github.com/kelarin/rosync/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive run-history browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	db, err := r.openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/rosync-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(repositories.NewSyncRunRepository(db))
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
