package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoot() *cobra.Command {
	root := &cobra.Command{Use: "hostsgen"}
	pf := root.PersistentFlags()
	pf.String("data-dir", "", "")
	pf.String("host", "", "")
	pf.String("lang", "", "")
	pf.Duration("poll-interval", 0, "")
	pf.String("log-level", "", "")
	pf.Bool("verbose", false, "")
	pf.Bool("no-ui", false, "")
	return root
}

func setup(t *testing.T) *cobra.Command {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Chdir(t.TempDir())
	root := newRoot()
	require.NoError(t, Init(root))
	return root
}

func TestLoad_Defaults(t *testing.T) {
	setup(t)
	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, s.PollInterval)
	assert.Equal(t, "es", s.Lang)
	assert.Equal(t, DefaultListen, s.Listen)
	assert.Equal(t, 5, s.Workers)
	assert.Equal(t, 45*time.Second, s.Timeout)
	assert.Equal(t, "info", s.LogLevel)
	assert.True(t, filepath.IsAbs(s.DataDir))
	assert.Equal(t, filepath.Join(s.DataDir, "output"), s.Layout().Output)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("HOSTSGEN_LANG", "en")
	t.Setenv("HOSTSGEN_POLL_INTERVAL", "300ms")
	root := setup(t)

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "en", s.Lang)
	assert.Equal(t, 300*time.Millisecond, s.PollInterval)

	require.NoError(t, root.PersistentFlags().Set("lang", "es"))
	require.NoError(t, root.PersistentFlags().Set("verbose", "true"))
	s, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "es", s.Lang)
	assert.Equal(t, "debug", s.LogLevel)
}

func TestLoad_DotEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HOSTSGEN_HOST=127.0.0.1:9000\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("HOSTSGEN_HOST") })

	require.NoError(t, Init(newRoot()))
	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", s.Host)
}

func TestLoad_ConfigFile(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on linux")
	}
	cfgHome := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(cfgHome, "hostsgen"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgHome, "hostsgen", "config.yaml"),
		[]byte("workers: 3\nauto_update: \"0 4 * * 0\"\n"), 0o644))

	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("XDG_CONFIG_HOME", cfgHome)
	t.Chdir(t.TempDir())
	require.NoError(t, Init(newRoot()))

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, s.Workers)
	assert.Equal(t, "0 4 * * 0", s.AutoUpdate)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{name: "log level", key: "log_level", val: "loud"},
		{name: "log format", key: "log_format", val: "xml"},
		{name: "listen", key: "listen", val: "nowhere"},
		{name: "workers", key: "workers", val: 0},
		{name: "retries", key: "poll_retries", val: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup(t)
			viper.Set(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestClampPollInterval(t *testing.T) {
	assert.Equal(t, 250*time.Millisecond, ClampPollInterval(0))
	assert.Equal(t, MinPollInterval, ClampPollInterval(10*time.Millisecond))
	assert.Equal(t, MaxPollInterval, ClampPollInterval(2*time.Second))
	assert.Equal(t, 400*time.Millisecond, ClampPollInterval(400*time.Millisecond))
}
