//go:build !tinygo

package config

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"

	"busscope/hal"
)

var (
	errConfigRead = errors.New("failed to read config file")
	errConfigDir  = errors.New("failed to create config directory")
)

const (
	ConfigDirName     = "busscope"
	DefaultConfigName = "busscope"
	DefaultFlashName  = "busscope.flash"
	EnvPrefix         = "busscope"
)

type Config struct {
	LogLevel string                   `mapstructure:"log_level"`
	Flash    FlashConfig              `mapstructure:"flash"`
	Display  DisplayConfig            `mapstructure:"display"`
	Headless HeadlessConfig           `mapstructure:"headless"`
	Timing   TimingConfig             `mapstructure:"timing"`
	Channels map[string]ChannelConfig `mapstructure:"channels"`
}

type FlashConfig struct {
	Path string `mapstructure:"path"`
	// SizeBytes is only used when the image file is created.
	SizeBytes uint32 `mapstructure:"size_bytes"`
}

type DisplayConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

type HeadlessConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Hz      int    `mapstructure:"hz"`
	Ticks   uint64 `mapstructure:"ticks"`
}

// TimingConfig holds firmware timings in 1 ms ticks.
type TimingConfig struct {
	FlushDelay    uint32 `mapstructure:"flush_delay"`
	LockWait      uint32 `mapstructure:"lock_wait"`
	ClearLockWait uint32 `mapstructure:"clear_lock_wait"`
	Refresh       uint32 `mapstructure:"refresh"`
	SaveInterval  uint32 `mapstructure:"save_interval"`
	DebugInterval uint32 `mapstructure:"debug_interval"`
}

// ChannelConfig binds a channel to a host line.
type ChannelConfig struct {
	// Port is a serial device such as /dev/ttyUSB0.
	Port string `mapstructure:"port"`
	// Loopback feeds transmitted bytes back into the channel.
	Loopback bool `mapstructure:"loopback"`
}

// Path generates a path pointing to the filename under this apps defined $XDG_CONFIG_HOME.
func Path(name string) string {
	fullPath, errFullPath := xdg.ConfigFile(path.Join(ConfigDirName, name))
	if errFullPath != nil {
		return name
	}

	return fullPath
}

// DataPath generates a path under $XDG_DATA_HOME for flash images.
func DataPath(name string) string {
	fullPath, errFullPath := xdg.DataFile(path.Join(ConfigDirName, name))
	if errFullPath != nil {
		return name
	}

	return fullPath
}

// EnsureDirs creates the config directory.
func EnsureDirs() error {
	if err := os.MkdirAll(path.Join(xdg.ConfigHome, ConfigDirName), 0o750); err != nil {
		return errors.Join(err, errConfigDir)
	}

	return nil
}

// LoadDotEnv loads a .env file from the working directory if present.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("Could not load .env file", slog.String("error", err.Error()))
	}
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoggerInit installs a text slog handler writing to w as the default logger.
// The returned LevelVar can be changed at runtime (config reload).
func LoggerInit(w io.Writer, level slog.Level) *slog.LevelVar {
	lv := new(slog.LevelVar)
	lv.Set(level)

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		AddSource: false,
		Level:     lv,
	}))

	slog.SetDefault(logger)

	return lv
}

// HostOptions converts the config into host HAL options.
func (c Config) HostOptions(log *slog.Logger) hal.HostOptions {
	opts := hal.DefaultHostOptions()
	if c.Flash.Path != "" {
		opts.FlashPath = c.Flash.Path
	}
	if c.Flash.SizeBytes != 0 {
		opts.FlashSize = c.Flash.SizeBytes
	}
	if c.Display.Width > 0 && c.Display.Height > 0 {
		opts.Width, opts.Height = c.Display.Width, c.Display.Height
	}
	if len(c.Channels) > 0 {
		opts.Lines = make(map[string]hal.LineOptions, len(c.Channels))
		for name, ch := range c.Channels {
			opts.Lines[strings.ToLower(name)] = hal.LineOptions{Port: ch.Port, Loopback: ch.Loopback}
		}
	}
	opts.Log = log
	return opts
}
