package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/rustyeddy/arena/market"
	"github.com/rustyeddy/arena/pkg/errors"
)

// OpenPositions returns every open position joined with its instrument,
// oldest first.
func (s *SQLite) OpenPositions(ctx context.Context) ([]OpenPosition, error) {
	query, args, err := s.sq.
		Select(
			"p.id", "p.account_id", "p.instrument_id", "p.side", "p.quantity",
			"p.entry_price", "p.stop_loss", "p.take_profit", "p.status",
			"p.current_price", "p.unrealized_pnl",
			"i.symbol", "i.contract_size",
		).
		From("positions p").
		Join("instruments i ON i.id = p.instrument_id").
		Where(squirrel.Eq{"p.status": string(market.StatusOpen)}).
		OrderBy("p.opened_at ASC", "p.id ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "build open positions query", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "query open positions", err)
	}
	defer rows.Close()

	var out []OpenPosition
	for rows.Next() {
		var (
			op           OpenPosition
			side, status string
			sl, tp, cs   sql.NullFloat64
		)
		if err := rows.Scan(
			&op.Position.ID, &op.Position.AccountID, &op.Position.InstrumentID, &side,
			&op.Position.Quantity, &op.Position.EntryPrice, &sl, &tp, &status,
			&op.Position.CurrentPrice, &op.Position.UnrealizedPnL,
			&op.Instrument.Symbol, &cs,
		); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "scan open position", err)
		}
		op.Position.Side, err = market.ParseSide(side)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "position %s", op.Position.ID)
		}
		op.Position.Status = market.PositionStatus(status)
		op.Position.StopLoss = floatPtr(sl)
		op.Position.TakeProfit = floatPtr(tp)
		op.Instrument.ID = op.Position.InstrumentID
		op.Instrument.ContractSize = cs.Float64

		out = append(out, op)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "iterate open positions", err)
	}

	return out, nil
}

// UpdatePositionMark stores the latest mark price and unrealized P&L.
func (s *SQLite) UpdatePositionMark(ctx context.Context, positionID string, mark, unrealized float64) error {
	query, args, err := s.sq.
		Update("positions").
		Set("current_price", mark).
		Set("unrealized_pnl", unrealized).
		Where(squirrel.Eq{"id": positionID}).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeUpdateFailed, "build position update", err)
	}

	return s.execOne(ctx, query, args, errors.ErrCodePositionNotFound, "position "+positionID)
}

// OpenPositionForOwner loads an open position and the user who owns it.
// A missing or closed position yields ErrCodePositionNotFound.
func (s *SQLite) OpenPositionForOwner(ctx context.Context, positionID string) (OwnedPosition, error) {
	query, args, err := s.sq.
		Select(
			"p.id", "p.account_id", "p.instrument_id", "p.side", "p.quantity",
			"p.entry_price", "p.stop_loss", "p.take_profit", "p.status",
			"cp.user_id",
		).
		From("positions p").
		Join("accounts a ON a.id = p.account_id").
		Join("competition_participants cp ON cp.id = a.participant_id").
		Where(squirrel.Eq{"p.id": positionID, "p.status": string(market.StatusOpen)}).
		ToSql()
	if err != nil {
		return OwnedPosition{}, errors.Wrap(errors.ErrCodeQueryFailed, "build position query", err)
	}

	var (
		op           OwnedPosition
		side, status string
		sl, tp       sql.NullFloat64
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&op.Position.ID, &op.Position.AccountID, &op.Position.InstrumentID, &side,
		&op.Position.Quantity, &op.Position.EntryPrice, &sl, &tp, &status,
		&op.UserID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return OwnedPosition{}, errors.Newf(errors.ErrCodePositionNotFound, "position %s not found or not open", positionID)
	}
	if err != nil {
		return OwnedPosition{}, errors.Wrap(errors.ErrCodeQueryFailed, "query position", err)
	}

	op.Position.Side, err = market.ParseSide(side)
	if err != nil {
		return OwnedPosition{}, errors.Wrapf(errors.ErrCodeQueryFailed, err, "position %s", positionID)
	}
	op.Position.Status = market.PositionStatus(status)
	op.Position.StopLoss = floatPtr(sl)
	op.Position.TakeProfit = floatPtr(tp)

	return op, nil
}

// UpdateBrackets writes the supplied stop loss and take profit. An unset
// level leaves its column untouched and a cleared one writes NULL.
func (s *SQLite) UpdateBrackets(ctx context.Context, positionID string, stopLoss, takeProfit market.Level) error {
	if !stopLoss.Set && !takeProfit.Set {
		return errors.New(errors.ErrCodeNoUpdates, "no bracket fields supplied")
	}

	b := s.sq.Update("positions").Where(squirrel.Eq{"id": positionID})
	if stopLoss.Set {
		b = b.Set("stop_loss", nullFloat(stopLoss.Value))
	}
	if takeProfit.Set {
		b = b.Set("take_profit", nullFloat(takeProfit.Value))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeUpdateFailed, "build bracket update", err)
	}

	return s.execOne(ctx, query, args, errors.ErrCodePositionNotFound, "position "+positionID)
}

// InsertPosition adds a position row. Used by seeding and tests.
func (s *SQLite) InsertPosition(ctx context.Context, p market.Position, openedAt time.Time) error {
	status := p.Status
	if status == "" {
		status = market.StatusOpen
	}

	query, args, err := s.sq.
		Insert("positions").
		Columns(
			"id", "account_id", "instrument_id", "side", "quantity", "entry_price",
			"stop_loss", "take_profit", "status", "current_price", "unrealized_pnl", "opened_at",
		).
		Values(
			p.ID, p.AccountID, p.InstrumentID, string(p.Side), p.Quantity, p.EntryPrice,
			nullFloat(p.StopLoss), nullFloat(p.TakeProfit), string(status),
			p.CurrentPrice, p.UnrealizedPnL, openedAt.UTC(),
		).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeUpdateFailed, "build position insert", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeUpdateFailed, "insert position", err)
	}
	return nil
}

// Position loads a position by id regardless of status.
func (s *SQLite) Position(ctx context.Context, positionID string) (market.Position, error) {
	query, args, err := s.sq.
		Select(
			"id", "account_id", "instrument_id", "side", "quantity", "entry_price",
			"stop_loss", "take_profit", "status", "current_price", "unrealized_pnl",
		).
		From("positions").
		Where(squirrel.Eq{"id": positionID}).
		ToSql()
	if err != nil {
		return market.Position{}, errors.Wrap(errors.ErrCodeQueryFailed, "build position query", err)
	}

	var (
		p            market.Position
		side, status string
		sl, tp       sql.NullFloat64
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&p.ID, &p.AccountID, &p.InstrumentID, &side, &p.Quantity, &p.EntryPrice,
		&sl, &tp, &status, &p.CurrentPrice, &p.UnrealizedPnL,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return market.Position{}, errors.Newf(errors.ErrCodePositionNotFound, "position %s not found", positionID)
	}
	if err != nil {
		return market.Position{}, errors.Wrap(errors.ErrCodeQueryFailed, "query position", err)
	}

	p.Side, err = market.ParseSide(side)
	if err != nil {
		return market.Position{}, errors.Wrapf(errors.ErrCodeQueryFailed, err, "position %s", positionID)
	}
	p.Status = market.PositionStatus(status)
	p.StopLoss = floatPtr(sl)
	p.TakeProfit = floatPtr(tp)
	return p, nil
}

func (s *SQLite) execOne(ctx context.Context, query string, args []any, notFound errors.ErrorCode, what string) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeUpdateFailed, err, "update %s", what)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(errors.ErrCodeUpdateFailed, err, "update %s", what)
	}
	if n == 0 {
		return errors.Newf(notFound, "%s not found", what)
	}
	return nil
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
