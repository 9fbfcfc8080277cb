package pricing

import (
	"context"

	"go.uber.org/zap"

	"github.com/rustyeddy/arena/logger"
	"github.com/rustyeddy/arena/market"
	"github.com/rustyeddy/arena/pkg/errors"
)

type QuoteStore interface {
	ListInstruments(ctx context.Context) ([]market.Instrument, error)
	UpsertQuote(ctx context.Context, q market.Quote) error
}

type RefreshResult struct {
	Updated int
	Missing []string
	Errors  int
}

// Refresher writes fresh quotes for every listed instrument into the
// latest-price table the mark-to-market pass reads from.
type Refresher struct {
	store  QuoteStore
	prices *Service
	clock  Clock
	log    *logger.Logger
}

func NewRefresher(store QuoteStore, prices *Service, clock Clock, log *logger.Logger) *Refresher {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Refresher{store: store, prices: prices, clock: clock, log: log.Named("refresher")}
}

func (r *Refresher) Refresh(ctx context.Context) (RefreshResult, error) {
	var res RefreshResult

	instruments, err := r.store.ListInstruments(ctx)
	if err != nil {
		return res, errors.Wrap(errors.ErrCodeQueryFailed, "list instruments", err)
	}
	if len(instruments) == 0 {
		return res, nil
	}

	symbols := make([]string, 0, len(instruments))
	for _, inst := range instruments {
		symbols = append(symbols, inst.Symbol)
	}

	mids, err := r.prices.Prices(ctx, symbols)
	if err != nil {
		return res, err
	}

	now := r.clock.Now()
	for _, inst := range instruments {
		mid, ok := mids[inst.Symbol]
		if !ok {
			res.Missing = append(res.Missing, inst.Symbol)
			continue
		}
		q := QuoteFromMid(inst.ID, inst.Symbol, mid, now)
		if err := r.store.UpsertQuote(ctx, q); err != nil {
			r.log.Error("store quote", zap.String("symbol", inst.Symbol), zap.Error(err))
			res.Errors++
			continue
		}
		res.Updated++
	}

	r.log.Info("quotes refreshed",
		zap.Int("updated", res.Updated),
		zap.Strings("missing", res.Missing),
		zap.Int("errors", res.Errors))
	return res, nil
}
