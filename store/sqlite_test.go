package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/arena/market"
	"github.com/rustyeddy/arena/pkg/errors"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, path
}

func f64(v float64) *float64 { return &v }

// seed creates one user with one account holding a long EURUSD position
// and a short XAUUSD position, plus a closed position that must never be
// returned as open.
func seed(t *testing.T, s *SQLite) {
	t.Helper()
	ctx := context.Background()
	opened := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.InsertInstrument(ctx, market.Instrument{ID: "i-eur", Symbol: "EURUSD"}))
	require.NoError(t, s.InsertInstrument(ctx, market.Instrument{ID: "i-xau", Symbol: "XAUUSD", ContractSize: 100}))
	require.NoError(t, s.InsertParticipant(ctx, "part-1", "comp-1", "user-1"))
	require.NoError(t, s.InsertAccount(ctx, market.Account{
		ID: "acct-1", ParticipantID: "part-1",
		Balance: 10_000, Equity: 10_000, PeakEquity: 10_000, UsedMargin: 500,
	}))
	require.NoError(t, s.InsertPosition(ctx, market.Position{
		ID: "pos-1", AccountID: "acct-1", InstrumentID: "i-eur", Side: market.Long,
		Quantity: 10_000, EntryPrice: 1.1000, StopLoss: f64(1.0900),
	}, opened))
	require.NoError(t, s.InsertPosition(ctx, market.Position{
		ID: "pos-2", AccountID: "acct-1", InstrumentID: "i-xau", Side: market.Short,
		Quantity: 1, EntryPrice: 2000,
	}, opened.Add(time.Minute)))
	require.NoError(t, s.InsertPosition(ctx, market.Position{
		ID: "pos-3", AccountID: "acct-1", InstrumentID: "i-eur", Side: market.Long,
		Quantity: 1, EntryPrice: 1.2, Status: market.StatusClosed,
	}, opened.Add(-time.Hour)))
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	s, path := newTestSQLite(t)
	require.NoError(t, s.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table'`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	for _, table := range []string{
		"instruments", "competition_participants", "accounts", "positions",
		"market_prices_latest", "api_tokens", "equity_snapshots",
	} {
		assert.True(t, found[table], table)
	}
}

func TestOpenPositions(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	seed(t, s)

	got, err := s.OpenPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "pos-1", got[0].Position.ID)
	assert.Equal(t, market.Long, got[0].Position.Side)
	assert.Equal(t, "EURUSD", got[0].Instrument.Symbol)
	assert.Equal(t, "i-eur", got[0].Instrument.ID)
	assert.Equal(t, 0.0, got[0].Instrument.ContractSize, "NULL contract size")
	assert.Equal(t, 1.0, got[0].Instrument.Multiplier())
	require.NotNil(t, got[0].Position.StopLoss)
	assert.Equal(t, 1.09, *got[0].Position.StopLoss)
	assert.Nil(t, got[0].Position.TakeProfit)

	assert.Equal(t, "pos-2", got[1].Position.ID)
	assert.Equal(t, market.Short, got[1].Position.Side)
	assert.Equal(t, 100.0, got[1].Instrument.ContractSize)
}

func TestUpdatePositionMark(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.UpdatePositionMark(ctx, "pos-1", 1.1050, 50))

	p, err := s.Position(ctx, "pos-1")
	require.NoError(t, err)
	assert.Equal(t, 1.105, p.CurrentPrice)
	assert.Equal(t, 50.0, p.UnrealizedPnL)

	err = s.UpdatePositionMark(ctx, "missing", 1, 1)
	assert.True(t, errors.HasCode(err, errors.ErrCodePositionNotFound))
}

func TestOpenPositionForOwner(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	seed(t, s)
	ctx := context.Background()

	op, err := s.OpenPositionForOwner(ctx, "pos-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", op.UserID)
	assert.Equal(t, 1.1, op.Position.EntryPrice)

	_, err = s.OpenPositionForOwner(ctx, "pos-3")
	assert.True(t, errors.HasCode(err, errors.ErrCodePositionNotFound), "closed position")

	_, err = s.OpenPositionForOwner(ctx, "nope")
	assert.True(t, errors.HasCode(err, errors.ErrCodePositionNotFound))
}

func TestUpdateBracketsLeavesOmittedFieldUntouched(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.UpdateBrackets(ctx, "pos-1", market.Level{}, market.PriceLevel(1.12)))

	p, err := s.Position(ctx, "pos-1")
	require.NoError(t, err)
	require.NotNil(t, p.StopLoss)
	assert.Equal(t, 1.09, *p.StopLoss)
	require.NotNil(t, p.TakeProfit)
	assert.Equal(t, 1.12, *p.TakeProfit)

	err = s.UpdateBrackets(ctx, "pos-1", market.Level{}, market.Level{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeNoUpdates))
}

func TestUpdateBracketsClearWritesNull(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.UpdateBrackets(ctx, "pos-1", market.Level{}, market.PriceLevel(1.12)))
	require.NoError(t, s.UpdateBrackets(ctx, "pos-1", market.Level{Set: true}, market.Level{}))

	p, err := s.Position(ctx, "pos-1")
	require.NoError(t, err)
	assert.Nil(t, p.StopLoss)
	require.NotNil(t, p.TakeProfit)
	assert.Equal(t, 1.12, *p.TakeProfit)

	err = s.UpdateBrackets(ctx, "missing", market.Level{Set: true}, market.Level{})
	assert.True(t, errors.HasCode(err, errors.ErrCodePositionNotFound))
}

func TestAccountRoundTrip(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.UpdateAccountEquity(ctx, "acct-1", EquityUpdate{
		Equity: 9_900, PeakEquity: 10_050, MaxDrawdownPct: 1.49,
	}))

	a, err := s.Account(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, 10_000.0, a.Balance, "balance untouched")
	assert.Equal(t, 9_900.0, a.Equity)
	assert.Equal(t, 10_050.0, a.PeakEquity)
	assert.Equal(t, 1.49, a.MaxDrawdownPct)
	assert.Equal(t, 500.0, a.UsedMargin)

	_, err = s.Account(ctx, "missing")
	assert.True(t, errors.HasCode(err, errors.ErrCodeAccountNotFound))

	err = s.UpdateAccountEquity(ctx, "missing", EquityUpdate{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeAccountNotFound))
}

func TestRecordEquity(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	ctx := context.Background()
	ts := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)

	rec := EquitySnapshot{
		AccountID: "acct-1", Time: ts, Balance: 1000.1, Equity: 999.9,
		PeakEquity: 1001, MaxDrawdownPct: 0.1, UsedMargin: 10.5,
		FreeMargin: 989.4, MarginLevel: 9522.86,
	}
	require.NoError(t, s.RecordEquity(ctx, rec))
	require.NoError(t, s.RecordEquity(ctx, EquitySnapshot{AccountID: "other", Time: ts}))

	got, err := s.EquityHistory(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Time.Equal(ts))
	assert.InDelta(t, rec.Equity, got[0].Equity, 1e-6)
	assert.InDelta(t, rec.MarginLevel, got[0].MarginLevel, 1e-6)
}

func TestLatestQuotes(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	seed(t, s)
	ctx := context.Background()
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.UpsertQuote(ctx, market.Quote{InstrumentID: "i-eur", Price: 1.1, Bid: 1.0999, Ask: 1.1001, Time: ts}))
	require.NoError(t, s.UpsertQuote(ctx, market.Quote{InstrumentID: "i-eur", Price: 1.2, Bid: 1.1999, Ask: 1.2001, Time: ts.Add(time.Second)}))

	got, err := s.LatestQuotes(ctx, []string{"i-eur", "i-xau"})
	require.NoError(t, err)
	require.Len(t, got, 1, "instrument without a quote is absent")
	assert.Equal(t, 1.1999, got["i-eur"].Bid)
	assert.Equal(t, 1.2001, got["i-eur"].Ask)

	empty, err := s.LatestQuotes(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListInstruments(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	seed(t, s)

	got, err := s.ListInstruments(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "EURUSD", got[0].Symbol)
	assert.Equal(t, "XAUUSD", got[1].Symbol)
}

func TestTokens(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)
	ctx := context.Background()

	token, err := s.IssueToken(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, token, 48)

	user, err := s.UserForToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", user)

	_, err = s.UserForToken(ctx, "bogus")
	assert.True(t, errors.HasCode(err, errors.ErrCodeDataNotFound))
}
