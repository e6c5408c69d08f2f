package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "speeddate",
		Short: "Speed-dating event scheduler and round timer service",
		Long: "speeddate runs the speed-dating event core: participant registration,\n" +
			"compatibility-aware rotation scheduling, and the shared round timer.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newServeCommand(&verbose))
	cmd.AddCommand(newMigrateCommand(&verbose))

	return cmd
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
