package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"hostsgen/internal/dirs"
	"hostsgen/internal/downloader"
	"hostsgen/internal/poller"
)

// Poll interval bounds accepted from configuration.
const (
	MinPollInterval = 100 * time.Millisecond
	MaxPollInterval = 500 * time.Millisecond

	DefaultListen = "127.0.0.1:7373"
	DefaultLang   = "es"
)

// Settings is the resolved configuration.
type Settings struct {
	DataDir        string
	Host           string // remote host API; empty runs the host in-process
	Lang           string
	PollInterval   time.Duration
	PollRetries    int
	LogLevel       string
	LogFormat      string
	Verbose        bool
	NoUI           bool
	Listen         string
	AutoUpdate     string // cron expression; empty disables scheduled updates
	AllowedOrigins []string
	Timeout        time.Duration
	Workers        int
}

// Layout returns the data directory layout.
func (s Settings) Layout() dirs.Layout {
	return dirs.NewLayout(s.DataDir)
}

func setDefaults() {
	if d, err := dirs.DataDir(); err == nil {
		viper.SetDefault("data_dir", d)
	}
	viper.SetDefault("lang", DefaultLang)
	viper.SetDefault("poll_interval", poller.DefaultInterval)
	viper.SetDefault("poll_retries", 0)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "console")
	viper.SetDefault("listen", DefaultListen)
	viper.SetDefault("allowed_origins", []string{"*"})
	viper.SetDefault("timeout", downloader.DefaultTimeout)
	viper.SetDefault("workers", downloader.DefaultWorkers)
}

// Init wires Viper with config paths, .env files, env, defaults and flag
// bindings. It is non-fatal: missing files are ignored.
func Init(root *cobra.Command) error {
	setDefaults()

	cfgDir, err := dirs.ConfigDir()
	if err == nil {
		_ = dirs.Ensure(cfgDir)
		viper.AddConfigPath(cfgDir)
	}
	viper.SetConfigName("config") // supports config.{yaml|yml|json|toml}

	// .env in the working directory wins over the one in the config dir;
	// neither overrides variables already set in the environment.
	envFiles := []string{".env"}
	if cfgDir != "" {
		envFiles = append(envFiles, filepath.Join(cfgDir, ".env"))
	}
	for _, f := range envFiles {
		if _, statErr := os.Stat(f); statErr == nil {
			if loadErr := godotenv.Load(f); loadErr != nil {
				return fmt.Errorf("load %s: %w", f, loadErr)
			}
		}
	}

	// Environment variables: HOSTSGEN_*
	viper.SetEnvPrefix("HOSTSGEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	BindFlags(root.PersistentFlags())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// BindFlags binds every flag in fs to the Viper key with dashes replaced by
// underscores (--poll-interval -> poll_interval).
func BindFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
}

// Load resolves and validates the settings. Poll intervals outside
// [MinPollInterval, MaxPollInterval] are clamped.
func Load() (Settings, error) {
	s := Settings{
		DataDir:        viper.GetString("data_dir"),
		Host:           strings.TrimSpace(viper.GetString("host")),
		Lang:           viper.GetString("lang"),
		PollInterval:   viper.GetDuration("poll_interval"),
		PollRetries:    viper.GetInt("poll_retries"),
		LogLevel:       strings.ToLower(viper.GetString("log_level")),
		LogFormat:      strings.ToLower(viper.GetString("log_format")),
		Verbose:        viper.GetBool("verbose"),
		NoUI:           viper.GetBool("no_ui"),
		Listen:         viper.GetString("listen"),
		AutoUpdate:     strings.TrimSpace(viper.GetString("auto_update")),
		AllowedOrigins: viper.GetStringSlice("allowed_origins"),
		Timeout:        viper.GetDuration("timeout"),
		Workers:        viper.GetInt("workers"),
	}
	if s.Verbose && s.LogLevel == "info" {
		s.LogLevel = "debug"
	}
	return s, s.normalize()
}

func (s *Settings) normalize() error {
	if s.DataDir == "" {
		return errors.New("data directory is not set")
	}
	if abs, err := filepath.Abs(s.DataDir); err == nil {
		s.DataDir = abs
	}
	if s.Lang == "" {
		s.Lang = DefaultLang
	}
	s.PollInterval = ClampPollInterval(s.PollInterval)
	if s.PollRetries < 0 {
		return fmt.Errorf("poll retries must be >= 0, got %d", s.PollRetries)
	}
	switch s.LogLevel {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q", s.LogLevel)
	}
	switch s.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q (want console or json)", s.LogFormat)
	}
	if _, _, err := net.SplitHostPort(s.Listen); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", s.Listen, err)
	}
	if s.Timeout <= 0 {
		s.Timeout = downloader.DefaultTimeout
	}
	if s.Workers < 1 || s.Workers > 16 {
		return fmt.Errorf("workers must be between 1 and 16, got %d", s.Workers)
	}
	return nil
}

// ClampPollInterval bounds d to the accepted poll interval range; zero or
// negative values yield the default.
func ClampPollInterval(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return poller.DefaultInterval
	case d < MinPollInterval:
		return MinPollInterval
	case d > MaxPollInterval:
		return MaxPollInterval
	default:
		return d
	}
}
