//go:build !tinygo

package config

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Loader handles setting up viper, loading configuration from files, and broadcasting configuration changes.
type Loader struct {
	*viper.Viper
	changes chan<- Config
}

func NewLoader(changes chan<- Config) *Loader {
	loader := Loader{changes: changes, Viper: viper.New()}
	loader.SetDefault("log_level", "info")
	loader.SetDefault("flash.path", DataPath(DefaultFlashName))
	loader.SetDefault("flash.size_bytes", 16*1024*1024)
	loader.SetDefault("display.width", 800)
	loader.SetDefault("display.height", 480)
	loader.SetDefault("headless.enabled", false)
	loader.SetDefault("headless.hz", 60)
	loader.SetDefault("headless.ticks", 0)
	loader.SetDefault("timing.flush_delay", 10)
	loader.SetDefault("timing.lock_wait", 100)
	loader.SetDefault("timing.clear_lock_wait", 1000)
	loader.SetDefault("timing.refresh", 100)
	loader.SetDefault("timing.save_interval", 5000)
	loader.SetDefault("timing.debug_interval", 1000)
	loader.SetDefault("channels", map[string]any{
		"uart1": map[string]any{"loopback": true},
		"uart2": map[string]any{"loopback": true},
	})
	loader.SetConfigName(DefaultConfigName)
	loader.SetConfigType("yaml")
	loader.SetEnvPrefix(EnvPrefix)
	loader.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	loader.AddConfigPath(Path(""))
	loader.AddConfigPath(".")
	loader.AutomaticEnv()

	return &loader
}

// Watch starts watching the config file and sends re-read configs on changes.
func (cl *Loader) Watch() {
	if cl.changes == nil {
		return
	}
	cl.OnConfigChange(cl.onConfigChange)
	cl.WatchConfig()
}

func (cl *Loader) Path() string {
	return cl.ConfigFileUsed()
}

func (cl *Loader) onConfigChange(in fsnotify.Event) {
	if !in.Has(fsnotify.Write) && !in.Has(fsnotify.Rename) {
		return
	}

	slog.Debug("External config reload triggered", slog.String("file", in.Name))
	config, err := cl.Read()
	if err != nil {
		slog.Error("Error reading config", slog.String("error", err.Error()))

		return
	}

	select {
	case cl.changes <- config:
	default:
		slog.Warn("Dropped config change, receiver busy")
	}
}

func (cl *Loader) Read() (Config, error) {
	if err := cl.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return Config{}, errors.Join(err, errConfigRead)
		}
	}

	var config Config
	if err := cl.Unmarshal(&config); err != nil {
		return Config{}, errors.Join(err, errConfigRead)
	}

	return config, nil
}
