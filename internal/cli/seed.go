package cli

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/arena/internal/id"
	"github.com/rustyeddy/arena/market"
	"github.com/rustyeddy/arena/store"
)

type seedOptions struct {
	userID        string
	competitionID string
	balance       float64
	positions     bool
}

func newSeedCmd(rc *RootConfig) *cobra.Command {
	opts := seedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the instrument catalog and a demo participant",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.balance <= 0 {
				return fmt.Errorf("invalid --balance")
			}

			a, err := rc.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := seed(cmd.Context(), a.store, opts, time.Now())
			if err != nil {
				return err
			}
			a.log.Info("seeded",
				zap.Int("instruments", res.instruments),
				zap.String("account_id", res.accountID),
				zap.Int("positions", res.positions))

			fmt.Fprintf(cmd.OutOrStdout(), "account=%s token=%s\n", res.accountID, res.token)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.userID, "user", "demo-user", "User id of the demo participant")
	cmd.Flags().StringVar(&opts.competitionID, "competition", "demo", "Competition id")
	cmd.Flags().Float64Var(&opts.balance, "balance", 10_000, "Starting balance")
	cmd.Flags().BoolVar(&opts.positions, "positions", true, "Open demo positions on the account")

	return cmd
}

type seedResult struct {
	instruments int
	accountID   string
	positions   int
	token       string
}

func seed(ctx context.Context, s *store.SQLite, opts seedOptions, now time.Time) (seedResult, error) {
	var res seedResult

	existing, err := s.ListInstruments(ctx)
	if err != nil {
		return res, err
	}
	bySymbol := make(map[string]string, len(existing))
	for _, inst := range existing {
		bySymbol[inst.Symbol] = inst.ID
	}

	symbols := make([]string, 0, len(market.Instruments))
	for sym := range market.Instruments {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	for _, sym := range symbols {
		if _, ok := bySymbol[sym]; ok {
			continue
		}
		inst := market.Instruments[sym]
		inst.ID = id.Prefixed("ins")
		if err := s.InsertInstrument(ctx, inst); err != nil {
			return res, err
		}
		bySymbol[sym] = inst.ID
		res.instruments++
	}

	participantID := id.Prefixed("par")
	if err := s.InsertParticipant(ctx, participantID, opts.competitionID, opts.userID); err != nil {
		return res, err
	}

	res.accountID = id.Prefixed("acc")
	if err := s.InsertAccount(ctx, market.Account{
		ID:            res.accountID,
		ParticipantID: participantID,
		Balance:       opts.balance,
		Equity:        opts.balance,
		PeakEquity:    opts.balance,
	}); err != nil {
		return res, err
	}

	if opts.positions {
		demo := []market.Position{
			{InstrumentID: bySymbol["EURUSD"], Side: market.Long, Quantity: 10_000, EntryPrice: 1.1000},
			{InstrumentID: bySymbol["XAUUSD"], Side: market.Short, Quantity: 0.1, EntryPrice: 2300},
		}
		for i, p := range demo {
			p.ID = id.Prefixed("pos")
			p.AccountID = res.accountID
			if err := s.InsertPosition(ctx, p, now.Add(time.Duration(i)*time.Second)); err != nil {
				return res, err
			}
			res.positions++
		}
	}

	res.token, err = s.IssueToken(ctx, opts.userID)
	if err != nil {
		return res, err
	}
	return res, nil
}
