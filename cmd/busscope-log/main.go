// Command busscope-log inspects and edits a busscope flash image: the channel
// settings, the logged data and the per-channel erase.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"busscope/firmware/settings"
	"busscope/internal/buildinfo"
	"busscope/internal/config"
)

var (
	flashPath string
	dumpHex   bool
	dumpLimit uint32

	rootCmd = &cobra.Command{
		Use:   "busscope-log",
		Short: "Inspect a busscope flash image",
		Long:  `busscope-log - reads channel settings and logged data from a busscope flash image`,
	}

	infoCmd = &cobra.Command{
		Use:               "info",
		Short:             "Print per-channel settings and counters",
		Args:              cobra.NoArgs,
		ValidArgsFunction: cobra.NoFileCompletions,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withFlash(false, func(f *flashFile) error {
				return writeInfo(cmd.OutOrStdout(), f)
			})
		},
	}

	dumpCmd = &cobra.Command{
		Use:       "dump <channel>",
		Short:     "Print the logged data of a channel",
		Args:      cobra.ExactArgs(1),
		ValidArgs: channelNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := lookup(args[0])
			if err != nil {
				return err
			}
			return withFlash(false, func(f *flashFile) error {
				return writeDump(cmd.OutOrStdout(), f, d, dumpHex, dumpLimit)
			})
		},
	}

	eraseCmd = &cobra.Command{
		Use:       "erase <channel>",
		Short:     "Erase the log of a channel and reset its counters",
		Args:      cobra.ExactArgs(1),
		ValidArgs: channelNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := lookup(args[0])
			if err != nil {
				return err
			}
			return withFlash(true, func(f *flashFile) error {
				n, err := eraseChannel(f, d)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: erased %d sectors\n", d.Name, n)
				return nil
			})
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprint(cmd.OutOrStdout(), buildinfo.Long("busscope-log - flash image tool"))
		},
	}
)

var errChannel = errors.New("unknown channel")

func main() {
	config.LoggerInit(os.Stderr, config.ParseLevel(os.Getenv("BUSSCOPE_LOG_LEVEL")))

	rootCmd.PersistentFlags().StringVar(&flashPath, "flash", config.DataPath(config.DefaultFlashName), "Flash image path")
	dumpCmd.Flags().BoolVar(&dumpHex, "hex", false, "Force hex output")
	dumpCmd.Flags().Uint32Var(&dumpLimit, "limit", 0, "Print at most N bytes (0 = all)")
	rootCmd.AddCommand(infoCmd, dumpCmd, eraseCmd, versionCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("Exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func withFlash(writable bool, fn func(f *flashFile) error) error {
	f, err := openFlashFile(flashPath, writable)
	if err != nil {
		return err
	}
	defer func() {
		if errClose := f.Close(); errClose != nil {
			slog.Error("Failed to close flash image", slog.String("error", errClose.Error()))
		}
	}()
	return fn(f)
}

func channelNames() []string {
	names := make([]string, 0, len(settings.Defs))
	for _, d := range settings.Defs {
		names = append(names, d.Name)
	}
	return names
}

func lookup(name string) (settings.Def, error) {
	d, ok := settings.Lookup(strings.ToLower(name))
	if !ok {
		return settings.Def{}, fmt.Errorf("%w %q (one of %s)", errChannel, name, strings.Join(channelNames(), ", "))
	}
	return d, nil
}
