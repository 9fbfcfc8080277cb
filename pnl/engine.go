package pnl

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/arena/logger"
	"github.com/rustyeddy/arena/market"
	"github.com/rustyeddy/arena/pkg/errors"
	"github.com/rustyeddy/arena/store"
)

// PriceLookup returns the latest quote for each instrument that has one.
// Instruments without a quote are absent from the result.
type PriceLookup interface {
	LatestQuotes(ctx context.Context, instrumentIDs []string) (map[string]market.Quote, error)
}

type PositionStore interface {
	OpenPositions(ctx context.Context) ([]store.OpenPosition, error)
	UpdatePositionMark(ctx context.Context, positionID string, mark, unrealized float64) error
}

type AccountStore interface {
	Account(ctx context.Context, accountID string) (market.Account, error)
	UpdateAccountEquity(ctx context.Context, accountID string, u store.EquityUpdate) error
}

// Journal records equity history. Optional.
type Journal interface {
	RecordEquity(ctx context.Context, s store.EquitySnapshot) error
}

// Result summarizes one pass.
type Result struct {
	Message          string
	PositionsUpdated int
	AccountsUpdated  int
	Errors           int
	// StaleAccounts have open positions but none were revalued this pass,
	// so their equity was not touched.
	StaleAccounts []string
	Duration      time.Duration
}

// Engine runs mark-to-market passes. Passes through the same Engine are
// serialized; overlapping passes from other processes are not.
type Engine struct {
	mu       sync.Mutex
	prices   PriceLookup
	pos      PositionStore
	accts    AccountStore
	journal  Journal
	log      *logger.Logger
	now      func() time.Time
	observer func(Result, error)
}

type Option func(*Engine)

func WithJournal(j Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithClock overrides the time source used for durations and snapshots.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithObserver registers a callback invoked after every pass, fatal or not.
func WithObserver(fn func(Result, error)) Option {
	return func(e *Engine) { e.observer = fn }
}

func NewEngine(prices PriceLookup, pos PositionStore, accts AccountStore, log *logger.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logger.NewNop()
	}
	e := &Engine{
		prices: prices,
		pos:    pos,
		accts:  accts,
		log:    log.Named("pnl"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run revalues every open position and refreshes the equity of each
// account that had at least one position revalued. Failure to load
// positions or quotes aborts the pass; a failed write for a single
// position or account is counted in Result.Errors and the sweep goes on.
func (e *Engine) Run(ctx context.Context) (res Result, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := e.now()
	defer func() {
		res.Duration = e.now().Sub(start)
		if e.observer != nil {
			e.observer(res, err)
		}
	}()

	positions, err := e.pos.OpenPositions(ctx)
	if err != nil {
		e.log.Error("fetch open positions", zap.Error(err))
		return res, errors.Wrap(errors.ErrCodeQueryFailed, "failed to fetch positions", err)
	}
	if len(positions) == 0 {
		res.Message = "No open positions found"
		return res, nil
	}

	quotes, err := e.prices.LatestQuotes(ctx, instrumentIDs(positions))
	if err != nil {
		e.log.Error("fetch latest prices", zap.Error(err))
		return res, errors.Wrap(errors.ErrCodeQueryFailed, "failed to fetch prices", err)
	}

	agg := e.markPositions(ctx, positions, quotes, &res)
	e.updateAccounts(ctx, agg, &res)

	res.StaleAccounts = staleAccounts(positions, agg)
	if len(res.StaleAccounts) > 0 {
		e.log.Warn("accounts left stale, no position revalued",
			zap.Strings("accounts", res.StaleAccounts))
	}

	e.log.Info("pass complete",
		zap.Int("positions_updated", res.PositionsUpdated),
		zap.Int("accounts_updated", res.AccountsUpdated),
		zap.Int("errors", res.Errors),
		zap.Duration("duration", e.now().Sub(start)),
	)
	return res, nil
}

// accountPnL keeps per-account sums in first-seen order.
type accountPnL struct {
	order []string
	sum   map[string]float64
}

func (a *accountPnL) add(accountID string, pl float64) {
	if _, ok := a.sum[accountID]; !ok {
		a.order = append(a.order, accountID)
	}
	a.sum[accountID] += pl
}

func (e *Engine) markPositions(ctx context.Context, positions []store.OpenPosition, quotes map[string]market.Quote, res *Result) *accountPnL {
	agg := &accountPnL{sum: make(map[string]float64)}

	for _, op := range positions {
		q, ok := quotes[op.Position.InstrumentID]
		if !ok {
			e.log.Debug("no quote, skipping position",
				zap.String("position_id", op.Position.ID),
				zap.String("instrument_id", op.Position.InstrumentID))
			continue
		}

		m := MarkPosition(op.Position, q, op.Instrument)

		if err := e.pos.UpdatePositionMark(ctx, op.Position.ID, m.Price, m.UnrealizedPnL); err != nil {
			e.log.Error("update position",
				zap.String("position_id", op.Position.ID),
				zap.Error(err))
			res.Errors++
			continue
		}

		res.PositionsUpdated++
		agg.add(op.Position.AccountID, m.UnrealizedPnL)
	}

	return agg
}

func (e *Engine) updateAccounts(ctx context.Context, agg *accountPnL, res *Result) {
	for _, accountID := range agg.order {
		unrealized := agg.sum[accountID]

		acct, err := e.accts.Account(ctx, accountID)
		if err != nil {
			e.log.Error("load account", zap.String("account_id", accountID), zap.Error(err))
			res.Errors++
			continue
		}

		u := UpdateEquity(acct, unrealized)
		if err := e.accts.UpdateAccountEquity(ctx, accountID, u); err != nil {
			e.log.Error("update account", zap.String("account_id", accountID), zap.Error(err))
			res.Errors++
			continue
		}
		res.AccountsUpdated++

		acct.Equity = u.Equity
		acct.PeakEquity = u.PeakEquity
		acct.MaxDrawdownPct = u.MaxDrawdownPct

		e.log.Debug("account revalued",
			zap.String("account_id", accountID),
			zap.Float64("equity", acct.Equity),
			zap.Float64("used_margin", acct.UsedMargin),
			zap.Float64("free_margin", acct.FreeMargin()),
			zap.Float64("margin_level", acct.MarginLevel()),
		)

		if e.journal == nil {
			continue
		}
		// History is best effort; the account row is already written.
		if err := e.journal.RecordEquity(ctx, store.EquitySnapshot{
			AccountID:      accountID,
			Time:           e.now(),
			Balance:        acct.Balance,
			Equity:         acct.Equity,
			PeakEquity:     acct.PeakEquity,
			MaxDrawdownPct: acct.MaxDrawdownPct,
			UsedMargin:     acct.UsedMargin,
			FreeMargin:     acct.FreeMargin(),
			MarginLevel:    acct.MarginLevel(),
		}); err != nil {
			e.log.Warn("record equity snapshot", zap.String("account_id", accountID), zap.Error(err))
		}
	}
}

func instrumentIDs(positions []store.OpenPosition) []string {
	seen := make(map[string]struct{}, len(positions))
	ids := make([]string, 0, len(positions))
	for _, op := range positions {
		id := op.Position.InstrumentID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func staleAccounts(positions []store.OpenPosition, agg *accountPnL) []string {
	var stale []string
	seen := map[string]struct{}{}
	for _, op := range positions {
		id := op.Position.AccountID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := agg.sum[id]; !ok {
			stale = append(stale, id)
		}
	}
	return stale
}
