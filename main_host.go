//go:build !tinygo

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"busscope/app"
	"busscope/hal"
	"busscope/internal/buildinfo"
	"busscope/internal/config"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "busscope",
		Short: "Multi-channel serial and CAN bus monitor",
		Long:  `busscope - runs the bus monitor firmware on the host, in a window or headless`,
		Args:  cobra.NoArgs,
		RunE:  run,
	}

	versionCmd = &cobra.Command{
		Use:               "version",
		Short:             "Print version information",
		Args:              cobra.NoArgs,
		ValidArgsFunction: cobra.NoFileCompletions,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Print(buildinfo.Long("busscope - bus monitor")) //nolint:forbidigo
		},
	}
)

var errApp = errors.New("application error")

func main() {
	config.LoadDotEnv()

	flags := rootCmd.Flags()
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file path")
	flags.Bool("headless", false, "Run without a window")
	flags.Int("hz", 60, "Frame rate in headless mode")
	flags.Uint64("ticks", 0, "Stop after N frames in headless mode (0 = run forever)")
	flags.String("flash", "", "Flash image path")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("Exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	if err := config.EnsureDirs(); err != nil {
		return errors.Join(err, errApp)
	}

	changes := make(chan config.Config, 1)
	loader := config.NewLoader(changes)
	if cfgFile != "" {
		loader.SetConfigFile(cfgFile)
	}
	for key, flag := range map[string]string{
		"headless.enabled": "headless",
		"headless.hz":      "hz",
		"headless.ticks":   "ticks",
		"flash.path":       "flash",
		"log_level":        "log-level",
	} {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			if err := loader.BindPFlag(key, f); err != nil {
				return errors.Join(err, errApp)
			}
		}
	}

	cfg, err := loader.Read()
	if err != nil {
		return errors.Join(err, errApp)
	}
	level := config.LoggerInit(os.Stderr, config.ParseLevel(cfg.LogLevel))
	slog.Info("Starting busscope", slog.String("version", buildinfo.Short()),
		slog.String("config", loader.Path()), slog.String("flash", cfg.Flash.Path))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	loader.Watch()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case next := <-changes:
				level.Set(config.ParseLevel(next.LogLevel))
				slog.Info("Config reloaded", slog.String("log_level", next.LogLevel))
			}
		}
	}()

	opts := cfg.HostOptions(slog.Default())
	newApp := func(h hal.HAL) func() error {
		return app.NewWithConfig(h, appConfig(cfg.Timing))
	}

	if cfg.Headless.Enabled {
		err := hal.RunHeadless(ctx, opts, newApp, hal.HeadlessConfig{
			Enabled: true,
			Hz:      cfg.Headless.Hz,
			Ticks:   cfg.Headless.Ticks,
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	return hal.RunWindow(opts, newApp)
}

// appConfig maps the timing section onto the firmware config; zero keeps the default.
func appConfig(t config.TimingConfig) app.Config {
	c := app.DefaultConfig()
	set := func(dst *uint64, v uint32) {
		if v != 0 {
			*dst = uint64(v)
		}
	}
	set(&c.FlushDelay, t.FlushDelay)
	set(&c.LockWait, t.LockWait)
	set(&c.ClearLockWait, t.ClearLockWait)
	set(&c.RefreshInterval, t.Refresh)
	set(&c.SaveInterval, t.SaveInterval)
	if t.DebugInterval != 0 {
		c.DebugInterval = t.DebugInterval
	}
	return c
}
