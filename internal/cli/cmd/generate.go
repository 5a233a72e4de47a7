package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"hostsgen/internal/host"
)

func newGenerateCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "generate [extension...]",
		Short: "Merge the base list with the chosen extensions into a new hosts file",
		Long: "generate always starts from the base list and appends each named extension " +
			"that has been downloaded. With no arguments only the base list is written.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, modeText)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			exts := args
			if all {
				list, err := a.host.Extensions(ctx)
				if err != nil {
					return hostError(err, ExitGenerateFailed)
				}
				exts = nil
				for _, e := range list {
					if !e.IsBase && e.Available {
						exts = append(exts, e.Name)
					}
				}
			}

			res, err := a.host.Generate(ctx, exts)
			if err != nil {
				if errors.Is(err, host.ErrBaseMissing) {
					err = fmt.Errorf("%w (run 'hostsgen download' first)", err)
				}
				return hostError(err, ExitGenerateFailed)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include every downloaded extension")
	return cmd
}
