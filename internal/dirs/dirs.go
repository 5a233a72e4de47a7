package dirs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "hostsgen"

// AppName returns the canonical application name for directory paths.
func AppName() string {
	return appName
}

// platformDir resolves an app directory:
// - Linux: $<xdgEnv>/hostsgen or ~/<linuxHome>/hostsgen
// - macOS: ~/Library/<darwinHome>/hostsgen
// - others: fallback()/hostsgen
func platformDir(xdgEnv string, linuxHome, darwinHome []string, fallback func() (string, error)) (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(append(append([]string{home, "Library"}, darwinHome...), AppName())...), nil
	case "linux":
		if xdg := os.Getenv(xdgEnv); xdg != "" {
			return filepath.Join(xdg, AppName()), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(append(append([]string{home}, linuxHome...), AppName())...), nil
	default:
		base, err := fallback()
		if err != nil {
			return "", err
		}
		return filepath.Join(base, AppName()), nil
	}
}

// ConfigDir returns the directory searched for config.{yaml,json,toml} and .env.
func ConfigDir() (string, error) {
	return platformDir("XDG_CONFIG_HOME", []string{".config"}, []string{"Application Support"}, os.UserConfigDir)
}

// DataDir returns the default data directory holding sources, output and history.
func DataDir() (string, error) {
	return platformDir("XDG_DATA_HOME", []string{".local", "share"}, []string{"Application Support"}, os.UserConfigDir)
}

// StateDir returns the directory for logs.
func StateDir() (string, error) {
	return platformDir("XDG_STATE_HOME", []string{".local", "state"}, []string{"Logs"}, func() (string, error) {
		if la := os.Getenv("LOCALAPPDATA"); la != "" {
			return la, nil
		}
		return os.UserCacheDir()
	})
}

// Layout is the on-disk structure below a data directory.
type Layout struct {
	Data    string
	Sources string // downloaded <name>.txt sources
	Output  string // generated hosts_* files
	Lang    string // language overrides (<code>.json)
	History string // SQLite history database
	Catalog string // optional sources.yaml replacing the built-in catalog
}

// NewLayout derives the layout for dataDir.
func NewLayout(dataDir string) Layout {
	return Layout{
		Data:    dataDir,
		Sources: filepath.Join(dataDir, "hosts_sources"),
		Output:  filepath.Join(dataDir, "output"),
		Lang:    filepath.Join(dataDir, "lang"),
		History: filepath.Join(dataDir, "history.db"),
		Catalog: filepath.Join(dataDir, "sources.yaml"),
	}
}

// Ensure creates the data, sources and output directories.
func (l Layout) Ensure() error {
	for _, p := range []string{l.Data, l.Sources, l.Output} {
		if err := Ensure(p); err != nil {
			return err
		}
	}
	return nil
}

// Ensure creates the directory if it doesn't exist.
func Ensure(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}
