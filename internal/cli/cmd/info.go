package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hostsgen/internal/history"
	"hostsgen/internal/util/format"
)

func newSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "Show which sources are downloaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSources(cmd)
		},
	}
}

func runSources(cmd *cobra.Command) error {
	a, err := newApp(cmd, modeText)
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.host.SourcesStatus(cmd.Context())
	if err != nil {
		return hostError(err, ExitCLIError)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Sources: %d/%d available\n", st.Existing, st.Total)
	if len(st.Missing) > 0 {
		fmt.Fprintf(out, "Missing: %s\n", strings.Join(st.Missing, ", "))
	}
	return nil
}

func newExtensionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extensions",
		Short: "List the blocklists that can be merged",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, modeText)
			if err != nil {
				return err
			}
			defer a.Close()

			exts, err := a.host.Extensions(cmd.Context())
			if err != nil {
				return hostError(err, ExitCLIError)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSTATUS\tSIZE\tDESCRIPTION")
			for _, e := range exts {
				status, size := "missing", "-"
				if e.Available {
					status, size = "available", format.HumanizeBytes(e.Size)
				}
				name := e.Name
				if e.IsBase {
					name += " (base)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, status, size, e.Description)
			}
			return tw.Flush()
		},
	}
}

func newFilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List generated hosts files, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, modeText)
			if err != nil {
				return err
			}
			defer a.Close()

			files, err := a.host.OutputFiles(cmd.Context())
			if err != nil {
				return hostError(err, ExitCLIError)
			}
			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(out, "No files generated yet")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED")
			for _, f := range files {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Name, format.HumanizeBytes(f.Size), f.Modified)
			}
			return tw.Flush()
		},
	}
}

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open",
		Short: "Open the output folder in the system file manager",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, modeText)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.host.OpenOutputFolder(cmd.Context()); err != nil {
				return hostError(err, ExitCLIError)
			}
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent download/update runs and generated files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, modeText)
			if err != nil {
				return err
			}
			defer a.Close()

			h, err := a.host.History(cmd.Context(), limit)
			if err != nil {
				return hostError(err, ExitCLIError)
			}
			const stamp = "2006-01-02 15:04:05"
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tFINISHED\tPROGRESS\tRESULT")
			for _, r := range h.Runs {
				result := "ok"
				if !r.Success {
					result = r.Message
				}
				fmt.Fprintf(tw, "%s\t%s\t%d%%\t%s\n", r.Kind, r.FinishedAt.Local().Format(stamp), r.Progress, result)
			}
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "FILE\tCREATED\tSIZE\tEXTENSIONS")
			for _, g := range h.Generated {
				exts := "base"
				if len(g.Extensions) > 0 {
					exts = strings.Join(g.Extensions, ",")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", g.Filename, g.CreatedAt.Local().Format(stamp), format.FileSummary(g.Size, g.Lines), exts)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", history.DefaultLimit, "Number of entries per list")
	return cmd
}

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the available UI languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, modeText)
			if err != nil {
				return err
			}
			defer a.Close()

			langs, err := a.host.Languages(cmd.Context())
			if err != nil {
				return hostError(err, ExitCLIError)
			}
			out := cmd.OutOrStdout()
			for _, l := range langs {
				marker := " "
				if l.Code == a.settings.Lang {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\t%s\n", marker, l.Code, l.Name)
			}
			return nil
		},
	}
}
