package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/arena/pricing"
)

func newPricesCmd(rc *RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prices",
		Short: "Quote lookups and the latest-price table",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Fetch quotes for every instrument and store them",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rc.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			prices, err := a.priceService()
			if err != nil {
				return err
			}
			res, err := pricing.NewRefresher(a.store, prices, pricing.SystemClock{}, a.log).Refresh(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "updated=%d missing=%v errors=%d\n", res.Updated, res.Missing, res.Errors)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get SYMBOL...",
		Short: "Print live prices for the given symbols",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rc.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			prices, err := a.priceService()
			if err != nil {
				return err
			}
			got, err := prices.Prices(cmd.Context(), args)
			if err != nil {
				return err
			}

			symbols := make([]string, 0, len(got))
			for s := range got {
				symbols = append(symbols, s)
			}
			sort.Strings(symbols)
			for _, s := range symbols {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%v\n", s, got[s])
			}
			return nil
		},
	})

	return cmd
}
