package store

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"

	"github.com/rustyeddy/arena/market"
	"github.com/rustyeddy/arena/pkg/errors"
)

func (s *SQLite) Account(ctx context.Context, accountID string) (market.Account, error) {
	query, args, err := s.sq.
		Select("id", "participant_id", "balance", "equity", "peak_equity", "max_drawdown_pct", "used_margin").
		From("accounts").
		Where(squirrel.Eq{"id": accountID}).
		ToSql()
	if err != nil {
		return market.Account{}, errors.Wrap(errors.ErrCodeQueryFailed, "build account query", err)
	}

	var a market.Account
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&a.ID, &a.ParticipantID, &a.Balance, &a.Equity, &a.PeakEquity, &a.MaxDrawdownPct, &a.UsedMargin,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return market.Account{}, errors.Newf(errors.ErrCodeAccountNotFound, "account %s not found", accountID)
	}
	if err != nil {
		return market.Account{}, errors.Wrap(errors.ErrCodeQueryFailed, "query account", err)
	}
	return a, nil
}

// UpdateAccountEquity writes equity, peak equity and max drawdown. The
// balance column is never touched here.
func (s *SQLite) UpdateAccountEquity(ctx context.Context, accountID string, u EquityUpdate) error {
	query, args, err := s.sq.
		Update("accounts").
		Set("equity", u.Equity).
		Set("peak_equity", u.PeakEquity).
		Set("max_drawdown_pct", u.MaxDrawdownPct).
		Where(squirrel.Eq{"id": accountID}).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeUpdateFailed, "build account update", err)
	}

	return s.execOne(ctx, query, args, errors.ErrCodeAccountNotFound, "account "+accountID)
}

// InsertAccount adds an account row. Used by seeding and tests.
func (s *SQLite) InsertAccount(ctx context.Context, a market.Account) error {
	query, args, err := s.sq.
		Insert("accounts").
		Columns("id", "participant_id", "balance", "equity", "peak_equity", "max_drawdown_pct", "used_margin").
		Values(a.ID, a.ParticipantID, a.Balance, a.Equity, a.PeakEquity, a.MaxDrawdownPct, a.UsedMargin).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeUpdateFailed, "build account insert", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeUpdateFailed, "insert account", err)
	}
	return nil
}

// InsertParticipant links a user to a competition.
func (s *SQLite) InsertParticipant(ctx context.Context, participantID, competitionID, userID string) error {
	query, args, err := s.sq.
		Insert("competition_participants").
		Columns("id", "competition_id", "user_id").
		Values(participantID, competitionID, userID).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeUpdateFailed, "build participant insert", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeUpdateFailed, "insert participant", err)
	}
	return nil
}

func (s *SQLite) RecordEquity(ctx context.Context, e EquitySnapshot) error {
	query, args, err := s.sq.
		Insert("equity_snapshots").
		Columns(
			"account_id", "time", "balance", "equity", "peak_equity",
			"max_drawdown_pct", "used_margin", "free_margin", "margin_level",
		).
		Values(
			e.AccountID, e.Time.UTC(), e.Balance, e.Equity, e.PeakEquity,
			e.MaxDrawdownPct, e.UsedMargin, e.FreeMargin, e.MarginLevel,
		).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeUpdateFailed, "build equity insert", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeUpdateFailed, "insert equity snapshot", err)
	}
	return nil
}

// EquityHistory returns an account's snapshots, oldest first.
func (s *SQLite) EquityHistory(ctx context.Context, accountID string) ([]EquitySnapshot, error) {
	query, args, err := s.sq.
		Select(
			"account_id", "time", "balance", "equity", "peak_equity",
			"max_drawdown_pct", "used_margin", "free_margin", "margin_level",
		).
		From("equity_snapshots").
		Where(squirrel.Eq{"account_id": accountID}).
		OrderBy("time ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "build equity query", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "query equity snapshots", err)
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		if err := rows.Scan(
			&e.AccountID, &e.Time, &e.Balance, &e.Equity, &e.PeakEquity,
			&e.MaxDrawdownPct, &e.UsedMargin, &e.FreeMargin, &e.MarginLevel,
		); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "scan equity snapshot", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "iterate equity snapshots", err)
	}
	return out, nil
}
