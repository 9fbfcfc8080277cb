package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/rustyeddy/arena/pkg/errors"
)

// UserForToken resolves a bearer token to its user id.
func (s *SQLite) UserForToken(ctx context.Context, token string) (string, error) {
	query, args, err := s.sq.
		Select("user_id").
		From("api_tokens").
		Where(squirrel.Eq{"token": token}).
		ToSql()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeQueryFailed, "build token query", err)
	}

	var userID string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errors.New(errors.ErrCodeDataNotFound, "token not found")
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeQueryFailed, "query token", err)
	}
	return userID, nil
}

// IssueToken creates a random bearer token for userID.
func (s *SQLite) IssueToken(ctx context.Context, userID string) (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(errors.ErrCodeUnknown, "generate token", err)
	}
	token := hex.EncodeToString(buf)

	query, args, err := s.sq.
		Insert("api_tokens").
		Columns("token", "user_id", "created_at").
		Values(token, userID, time.Now().UTC()).
		ToSql()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeUpdateFailed, "build token insert", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", errors.Wrap(errors.ErrCodeUpdateFailed, "insert token", err)
	}
	return token, nil
}
