package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"recount/internal/cli"
	"recount/internal/config"
)

var (
	logLevel string
	rootCmd  = &cobra.Command{
		Use:   "recount",
		Short: "Voice-driven recyclable container counter",
		Long: `recount tallies recyclable containers by category from spoken commands
such as "count 3 PET" or "lock out glass", mirroring the running total to a
persistent store.`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			cli.LoadEnvFile()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(listenCmd())
	rootCmd.AddCommand(aliasesCmd())
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// effectiveLevel prefers the --log-level flag over the environment.
func effectiveLevel(cfg *config.Config) string {
	if logLevel != "" {
		return logLevel
	}
	return cfg.LogLevel
}
