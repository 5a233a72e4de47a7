package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"hostsgen/internal/sources"
	"hostsgen/internal/util"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the data directory, source catalog and host connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := settingsFrom(cmd)
			out := cmd.OutOrStdout()

			if s.Host == "" {
				layout := s.Layout()
				if err := layout.Ensure(); err != nil {
					return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("data dir: %w", err)}
				}
				probe := filepath.Join(layout.Data, ".doctor")
				if err := os.WriteFile(probe, nil, 0o644); err != nil {
					return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("data dir not writable: %w", err)}
				}
				_ = util.RemoveIfExists(probe)
				fmt.Fprintf(out, "Data dir:  %s\n", layout.Data)

				catalog := "built-in"
				if _, err := os.Stat(layout.Catalog); err == nil {
					if _, err := sources.LoadFile(layout.Catalog); err != nil {
						return &ExitError{Code: ExitCLIError, Err: err}
					}
					catalog = layout.Catalog
				}
				fmt.Fprintf(out, "Catalog:   %s\n", catalog)
			}

			a, err := newApp(cmd, modeText)
			if err != nil {
				return err
			}
			defer a.Close()

			target := "in-process"
			if s.Host != "" {
				target = s.Host
			}
			st, err := a.host.SourcesStatus(cmd.Context())
			if err != nil {
				return hostError(fmt.Errorf("host %s: %w", target, err), ExitCLIError)
			}
			fmt.Fprintf(out, "Host:      %s\n", target)
			fmt.Fprintf(out, "Sources:   %d/%d available\n", st.Existing, st.Total)
			return nil
		},
	}
}
