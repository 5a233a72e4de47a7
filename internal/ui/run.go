package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"hostsgen/internal/host"
)

// Run launches the TUI against api and blocks until the user quits.
// An active job session is cancelled on exit.
func Run(ctx context.Context, api host.API, opts Options) error {
	m := NewModel(ctx, api, opts)
	prog := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	final, err := prog.Run()
	if fm, ok := final.(Model); ok {
		fm.cancel()
		fm.poller.Cancel()
	}
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
