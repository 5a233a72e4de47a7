package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"hostsgen/internal/api"
	"hostsgen/internal/host"
	"hostsgen/internal/poller"
	"hostsgen/internal/progress"
)

func newDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download",
		Short: "Download the sources that are not present locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runJob(cmd, progress.KindDownload)
		},
	}
}

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Download every source again, replacing local copies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runJob(cmd, progress.KindUpdate)
		},
	}
}

// runJob starts a host job and polls it to completion, printing progress
// lines as the status changes. Failures surface through the returned
// ExitError.
func runJob(cmd *cobra.Command, kind progress.Kind) error {
	a, err := newApp(cmd, modeText)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	p := poller.New(
		poller.WithInterval(a.settings.PollInterval),
		poller.WithPollRetries(a.settings.PollRetries),
		poller.WithControls(textControls{w: out}),
		poller.WithBusyLabel(string(kind)),
		poller.WithLogger(a.log.WithComponent("poller")),
	)

	printer := &progressPrinter{w: out}
	outcome, err := p.Run(cmd.Context(), host.Start(a.host, kind), a.host.Status, poller.Callbacks{
		Progress: printer.print,
		Success: func() {
			fmt.Fprintf(out, "%s finished\n", kind)
		},
	})
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	return outcomeError(kind, outcome)
}

func outcomeError(kind progress.Kind, o poller.Outcome) error {
	switch o.Kind {
	case poller.OutcomeSuccess:
		return nil
	case poller.OutcomeCancelled:
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("%s cancelled", kind)}
	case poller.OutcomePollFailure:
		return &ExitError{Code: ExitHostUnavailable, Err: errors.New(o.Reason)}
	case poller.OutcomeStartFailure:
		if errors.Is(o.Err, api.ErrUnavailable) {
			return &ExitError{Code: ExitHostUnavailable, Err: o.Err}
		}
		return &ExitError{Code: ExitJobFailed, Err: o.Err}
	default:
		return &ExitError{Code: ExitJobFailed, Err: fmt.Errorf("%s failed: %s", kind, o.Reason)}
	}
}

// textControls reports the busy state on a plain writer.
type textControls struct {
	w io.Writer
}

func (c textControls) Disable(label string) {
	fmt.Fprintf(c.w, "%s...\n", label)
}

func (textControls) Enable() {}

// progressPrinter prints a line only when the visible status changes.
type progressPrinter struct {
	w    io.Writer
	last progress.Status
	seen bool
}

func (p *progressPrinter) print(st progress.Status) {
	if p.seen && st.Progress == p.last.Progress && st.CurrentSource == p.last.CurrentSource {
		return
	}
	p.seen = true
	p.last = st
	line := fmt.Sprintf("[%3d%%]", st.Clamp())
	if st.CurrentSource != "" {
		line += " " + st.CurrentSource
	}
	fmt.Fprintln(p.w, line)
}
