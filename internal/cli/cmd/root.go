package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"hostsgen/internal/api"
	"hostsgen/internal/config"
)

const (
	ExitOK              = 0
	ExitCLIError        = 1
	ExitHostUnavailable = 2
	ExitJobFailed       = 3
	ExitGenerateFailed  = 4
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// hostError picks the exit code for an error returned by the host API.
func hostError(err error, fallback int) error {
	if errors.Is(err, api.ErrUnavailable) {
		return &ExitError{Code: ExitHostUnavailable, Err: err}
	}
	return &ExitError{Code: fallback, Err: err}
}

type settingsKey struct{}

func settingsFrom(cmd *cobra.Command) config.Settings {
	if s, ok := cmd.Context().Value(settingsKey{}).(config.Settings); ok {
		return s
	}
	return config.Settings{}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hostsgen",
		Short: "Build custom hosts files from StevenBlack blocklists",
		Long: "hostsgen downloads the StevenBlack base hosts list and its alternate blocklists " +
			"(fakenews, gambling, porn, social) and merges the ones you pick into timestamped hosts files. " +
			"Run it without arguments on a terminal for the interactive view.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Init(cmd.Root()); err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			config.BindFlags(cmd.Flags())
			s, err := config.Load()
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			cmd.SetContext(context.WithValue(cmd.Context(), settingsKey{}, s))
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !settingsFrom(cmd).NoUI && isTerminal() {
				return runTUI(cmd)
			}
			return runSources(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("data-dir", "", "Data directory for sources, output and history (default: platform data dir)")
	pf.String("host", "", "Address of a remote 'hostsgen serve' instance; empty runs the host in-process")
	pf.String("lang", "", "UI language code (default: es)")
	pf.Duration("poll-interval", 0, "Job status poll interval, 100ms-500ms (default: 250ms)")
	pf.String("log-level", "", "Log level: trace, debug, info, warn, error")
	pf.BoolP("verbose", "v", false, "Verbose logging (same as --log-level debug)")
	pf.Bool("no-ui", false, "Disable the interactive view; use plain text output")

	root.AddCommand(newServeCmd())
	root.AddCommand(newDownloadCmd())
	root.AddCommand(newUpdateCmd())
	root.AddCommand(newGenerateCmd())
	root.AddCommand(newSourcesCmd())
	root.AddCommand(newExtensionsCmd())
	root.AddCommand(newFilesCmd())
	root.AddCommand(newOpenCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newLanguagesCmd())
	root.AddCommand(newTuiCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	return root.ExecuteContext(ctx)
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
