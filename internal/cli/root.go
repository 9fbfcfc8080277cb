package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootConfig carries the persistent flags shared by every subcommand.
type RootConfig struct {
	ConfigPath string
	EnvFile    string
	DBPath     string
	LogLevel   string
}

var version = "dev"

func NewRootCmd() *cobra.Command {
	rc := &RootConfig{}

	cmd := &cobra.Command{
		Use:           "arena",
		Short:         "Arena: competition P&L engine, bracket edits and price lookups",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global / persistent flags
	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", "", "Path to config file (optional)")
	cmd.PersistentFlags().StringVar(&rc.EnvFile, "env-file", ".env", "Env file overlaid on the config (ignored if absent)")
	cmd.PersistentFlags().StringVar(&rc.DBPath, "db", "./arena.sqlite", "SQLite database")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "info", "Log level: debug|info|warn|error")

	cmd.AddCommand(
		newServeCmd(rc),
		newPnLCmd(rc),
		newPricesCmd(rc),
		newConfigCmd(rc),
		newSeedCmd(rc),
		newTokenCmd(rc),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "arena (%s)\n", version)
		},
	})

	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
