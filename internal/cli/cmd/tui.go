package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"hostsgen/internal/ui"
)

func newTuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive view even when --no-ui is configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !isTerminal() {
				return &ExitError{Code: ExitCLIError, Err: errors.New("the interactive view needs a terminal")}
			}
			return runTUI(cmd)
		},
	}
}

func runTUI(cmd *cobra.Command) error {
	a, err := newApp(cmd, modeTUI)
	if err != nil {
		return err
	}
	defer a.Close()

	s := a.settings
	err = ui.Run(cmd.Context(), a.host, ui.Options{
		Lang:         s.Lang,
		PollInterval: s.PollInterval,
		PollRetries:  s.PollRetries,
		Logger:       a.log.WithComponent("ui"),
	})
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	return nil
}
