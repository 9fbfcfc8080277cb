package store

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"

	"github.com/rustyeddy/arena/market"
	"github.com/rustyeddy/arena/pkg/errors"
)

// LatestQuotes returns the stored quote for each id that has one.
func (s *SQLite) LatestQuotes(ctx context.Context, instrumentIDs []string) (map[string]market.Quote, error) {
	out := make(map[string]market.Quote, len(instrumentIDs))
	if len(instrumentIDs) == 0 {
		return out, nil
	}

	query, args, err := s.sq.
		Select("instrument_id", "price", "bid", "ask", "updated_at").
		From("market_prices_latest").
		Where(squirrel.Eq{"instrument_id": instrumentIDs}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "build price query", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "query latest prices", err)
	}
	defer rows.Close()

	for rows.Next() {
		var q market.Quote
		if err := rows.Scan(&q.InstrumentID, &q.Price, &q.Bid, &q.Ask, &q.Time); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "scan latest price", err)
		}
		out[q.InstrumentID] = q
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "iterate latest prices", err)
	}
	return out, nil
}

// UpsertQuote replaces the latest quote for an instrument.
func (s *SQLite) UpsertQuote(ctx context.Context, q market.Quote) error {
	query, args, err := s.sq.
		Insert("market_prices_latest").
		Columns("instrument_id", "price", "bid", "ask", "updated_at").
		Values(q.InstrumentID, q.Price, q.Bid, q.Ask, q.Time.UTC()).
		Suffix("ON CONFLICT(instrument_id) DO UPDATE SET price = excluded.price, bid = excluded.bid, ask = excluded.ask, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeUpdateFailed, "build price upsert", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeUpdateFailed, "upsert latest price", err)
	}
	return nil
}

func (s *SQLite) ListInstruments(ctx context.Context) ([]market.Instrument, error) {
	query, args, err := s.sq.
		Select("id", "symbol", "contract_size").
		From("instruments").
		OrderBy("symbol ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "build instrument query", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "query instruments", err)
	}
	defer rows.Close()

	var out []market.Instrument
	for rows.Next() {
		var (
			i  market.Instrument
			cs sql.NullFloat64
		)
		if err := rows.Scan(&i.ID, &i.Symbol, &cs); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "scan instrument", err)
		}
		i.ContractSize = cs.Float64
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "iterate instruments", err)
	}
	return out, nil
}

// InsertInstrument adds an instrument. A zero contract size is stored as
// NULL.
func (s *SQLite) InsertInstrument(ctx context.Context, i market.Instrument) error {
	var cs sql.NullFloat64
	if i.ContractSize > 0 {
		cs = sql.NullFloat64{Float64: i.ContractSize, Valid: true}
	}

	query, args, err := s.sq.
		Insert("instruments").
		Columns("id", "symbol", "contract_size").
		Values(i.ID, i.Symbol, cs).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeUpdateFailed, "build instrument insert", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeUpdateFailed, "insert instrument", err)
	}
	return nil
}
