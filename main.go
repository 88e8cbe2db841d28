package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/korosuke613/ghasweep/cli"
)

var version = "dev"

func main() {
	// Bootstrap logger with JSON/stderr defaults (before config is available)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	rootCmd := &cobra.Command{
		Use:   "ghasweep",
		Short: "Prune GitHub Actions workflow run history",
		Long: `ghasweep queries and deletes GitHub Actions workflow runs, filtered by
conclusion, triggering actor, or age. It runs as a one-shot CLI or as a
daemon applying retention policies on cron schedules.`,
		Version: version,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(cli.NewQueryCommand())
	rootCmd.AddCommand(cli.NewDeleteCommand())
	rootCmd.AddCommand(cli.NewSweepCommand())
	rootCmd.AddCommand(cli.NewServeCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
