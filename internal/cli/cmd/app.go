package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"hostsgen/internal/api"
	"hostsgen/internal/config"
	"hostsgen/internal/dirs"
	"hostsgen/internal/downloader"
	"hostsgen/internal/history"
	"hostsgen/internal/host"
	"hostsgen/internal/i18n"
	"hostsgen/internal/logger"
	"hostsgen/internal/sources"
)

// app holds the wiring shared by every command.
type app struct {
	settings config.Settings
	log      *logger.Logger
	host     host.API
	gen      *host.Generator // nil when talking to a remote host
	closers  []func() error
}

type appMode int

const (
	modeText appMode = iota // logs to stderr
	modeTUI                 // logs only to the rotating file
	modeServe               // logs to stderr and the rotating file
)

func newApp(cmd *cobra.Command, mode appMode) (*app, error) {
	s := settingsFrom(cmd)
	a := &app{settings: s}

	logCfg := logger.Config{Level: s.LogLevel, Format: s.LogFormat}
	if mode != modeTUI {
		logCfg.Console = cmd.ErrOrStderr()
	}
	if mode != modeText {
		if stateDir, err := dirs.StateDir(); err == nil {
			logCfg.Dir = filepath.Join(stateDir, "logs")
		}
	}
	a.log = logger.New(logCfg)

	if s.Host != "" {
		if mode == modeServe {
			a.Close()
			return nil, &ExitError{Code: ExitCLIError, Err: errors.New("--host cannot be used with serve")}
		}
		c, err := api.NewClient(s.Host, nil)
		if err != nil {
			a.Close()
			return nil, &ExitError{Code: ExitCLIError, Err: fmt.Errorf("invalid --host: %w", err)}
		}
		a.host = c
		return a, nil
	}

	gen, err := a.newGenerator(cmd.Context())
	if err != nil {
		a.Close()
		return nil, &ExitError{Code: ExitCLIError, Err: err}
	}
	a.gen = gen
	a.host = gen
	return a, nil
}

func (a *app) newGenerator(ctx context.Context) (*host.Generator, error) {
	layout := a.settings.Layout()
	if err := layout.Ensure(); err != nil {
		return nil, fmt.Errorf("prepare data dir: %w", err)
	}

	catalog := sources.Default()
	if _, err := os.Stat(layout.Catalog); err == nil {
		c, err := sources.LoadFile(layout.Catalog)
		if err != nil {
			return nil, err
		}
		catalog = c
	}

	opts := []host.Option{
		host.WithCatalog(catalog),
		host.WithFetcher(downloader.New(downloader.Options{
			Timeout: a.settings.Timeout,
			Workers: a.settings.Workers,
		})),
		host.WithLanguages(i18n.New(layout.Lang, a.log.Logger)),
		host.WithLogger(a.log.Logger),
	}

	store, err := history.Open(ctx, layout.History)
	if err != nil {
		a.log.Warn().Err(err).Str("path", layout.History).Msg("history disabled")
	} else {
		a.closers = append(a.closers, store.Close)
		opts = append(opts, host.WithHistory(store))
	}

	gen := host.NewGenerator(layout.Sources, layout.Output, opts...)
	// Runs before the history store closes.
	a.closers = append([]func() error{gen.Close}, a.closers...)
	return gen, nil
}

// Close releases resources in order: job host, history, log file.
func (a *app) Close() {
	for _, c := range a.closers {
		_ = c()
	}
	a.closers = nil
	_ = a.log.Close()
}
