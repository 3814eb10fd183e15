//go:build !tinygo

package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
)

func TestReadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	loader := NewLoader(nil)
	conf, err := loader.Read()
	require.NoError(t, err)
	require.Equal(t, "info", conf.LogLevel)
	require.Equal(t, 800, conf.Display.Width)
	require.Equal(t, uint32(10), conf.Timing.FlushDelay)
	require.Equal(t, uint32(100), conf.Timing.LockWait)
	require.True(t, conf.Channels["uart1"].Loopback)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	body := []byte(`log_level: debug
flash:
  path: /tmp/test.flash
timing:
  lock_wait: 250
channels:
  rs232:
    port: /dev/ttyUSB0
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "busscope.yaml"), body, 0o600))

	loader := NewLoader(nil)
	conf, err := loader.Read()
	require.NoError(t, err)
	require.Equal(t, "debug", conf.LogLevel)
	require.Equal(t, "/tmp/test.flash", conf.Flash.Path)
	require.Equal(t, uint32(250), conf.Timing.LockWait)
	require.Equal(t, "/dev/ttyUSB0", conf.Channels["rs232"].Port)

	opts := conf.HostOptions(slog.Default())
	require.Equal(t, "/tmp/test.flash", opts.FlashPath)
	require.Equal(t, "/dev/ttyUSB0", opts.Lines["rs232"].Port)
}

func TestOnConfigChangeSendsConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	changes := make(chan Config, 1)
	loader := NewLoader(changes)
	loader.onConfigChange(fsnotify.Event{Name: "busscope.yaml", Op: fsnotify.Write})

	select {
	case conf := <-changes:
		require.Equal(t, "info", conf.LogLevel)
	default:
		t.Fatal("expected a config change")
	}

	// Chmod events are ignored.
	loader.onConfigChange(fsnotify.Event{Name: "busscope.yaml", Op: fsnotify.Chmod})
	require.Empty(t, changes)
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestLoggerInitLevelVar(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	lv := LoggerInit(&buf, slog.LevelWarn)
	slog.Info("hidden")
	require.Empty(t, buf.String())

	lv.Set(slog.LevelDebug)
	slog.Info("shown")
	require.Contains(t, buf.String(), "shown")
}
