package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/arena/pricing"
	"github.com/rustyeddy/arena/store"
)

func newPnLCmd(rc *RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pnl",
		Short: "Mark-to-market operations",
	}

	var refresh bool
	run := &cobra.Command{
		Use:   "run",
		Short: "Run a single mark-to-market pass and print the summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rc.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if refresh {
				prices, err := a.priceService()
				if err != nil {
					return err
				}
				if _, err := pricing.NewRefresher(a.store, prices, pricing.SystemClock{}, a.log).Refresh(ctx); err != nil {
					return err
				}
			}

			res, err := a.engine().Run(ctx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"success":           true,
				"message":           res.Message,
				"positions_updated": res.PositionsUpdated,
				"accounts_updated":  res.AccountsUpdated,
				"errors":            res.Errors,
				"stale_accounts":    res.StaleAccounts,
				"duration_ms":       res.Duration.Milliseconds(),
			})
		},
	}
	run.Flags().BoolVar(&refresh, "refresh", false, "Refresh quotes from upstream before the pass")

	var (
		accountID string
		asCSV     bool
	)
	history := &cobra.Command{
		Use:   "history",
		Short: "Print the equity snapshots recorded for an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if accountID == "" {
				return fmt.Errorf("--account is required")
			}

			a, err := rc.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			snaps, err := a.store.EquityHistory(cmd.Context(), accountID)
			if err != nil {
				return err
			}
			if asCSV {
				return store.WriteEquityCSV(cmd.OutOrStdout(), snaps)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tEQUITY\tPEAK\tMAX DD %\tMARGIN LEVEL")
			for _, e := range snaps {
				fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\n",
					e.Time.Format(time.RFC3339), e.Equity, e.PeakEquity, e.MaxDrawdownPct, e.MarginLevel)
			}
			return tw.Flush()
		},
	}
	history.Flags().StringVar(&accountID, "account", "", "Account id")
	history.Flags().BoolVar(&asCSV, "csv", false, "Write CSV instead of a table")

	cmd.AddCommand(run, history)
	return cmd
}
