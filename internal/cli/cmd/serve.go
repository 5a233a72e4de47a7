package cmd

import (
	"context"
	"fmt"
	"net"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"hostsgen/internal/api"
	"hostsgen/internal/config"
	"hostsgen/internal/scheduler"
)

const autoUpdateTask = "auto-update"

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the job host as an HTTP API",
		Long: "serve exposes the download, update and generate operations over HTTP so that " +
			"'hostsgen --host <addr>' and other clients can drive them remotely. " +
			"With --auto-update a cron schedule refreshes every source in the background.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, modeServe)
			if err != nil {
				return err
			}
			defer a.Close()
			return serve(cmd.Context(), a, nil)
		},
	}
	f := cmd.Flags()
	f.String("listen", config.DefaultListen, "Address the HTTP API listens on")
	f.String("auto-update", "", "Cron expression for scheduled source updates, e.g. \"0 4 * * *\"")
	f.StringSlice("allowed-origins", []string{"*"}, "CORS allowed origins")
	f.Int("workers", 0, "Concurrent source downloads (1-16)")
	f.Duration("timeout", 0, "Per-source download timeout")
	return cmd
}

// serve runs the HTTP API and the optional update schedule until ctx ends.
func serve(ctx context.Context, a *app, ready func(net.Addr)) error {
	s := a.settings
	logger := a.log.WithComponent("serve")

	var sched *scheduler.Scheduler
	if s.AutoUpdate != "" {
		var err error
		sched, err = scheduler.New(a.log.Logger)
		if err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
		if err := sched.Register(autoUpdateTask, s.AutoUpdate, a.gen.StartUpdate); err != nil {
			_ = sched.Shutdown()
			return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("invalid --auto-update: %w", err)}
		}
	}

	handler := api.SetupRouter(
		api.NewHandler(a.host, a.log.WithComponent("api")),
		api.RouterOptions{AllowedOrigins: s.AllowedOrigins},
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.Serve(gctx, s.Listen, handler, logger, ready)
	})
	if sched != nil {
		g.Go(func() error {
			sched.Start()
			if next, err := sched.NextRun(autoUpdateTask); err == nil {
				logger.Info().Str("cron", s.AutoUpdate).Time("next_run", next).Msg("auto-update scheduled")
			}
			<-gctx.Done()
			return sched.Shutdown()
		})
	}
	if err := g.Wait(); err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	return nil
}
