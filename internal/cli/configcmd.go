package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/arena/config"
)

func newConfigCmd(rc *RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check configuration files",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write a default config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "arena.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Default().SaveToFile(path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Load the effective configuration and report problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rc.loadConfig(cmd)
			if err != nil {
				return err
			}
			key := "unset"
			if cfg.Pricing.APIKey != "" {
				key = "set"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: db=%s listen=%s api_key=%s\n",
				cfg.Database.Path, cfg.Server.ListenAddr, key)
			return nil
		},
	}

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}
