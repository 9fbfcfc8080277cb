package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/arena/market"
	"github.com/rustyeddy/arena/pricing"
	"github.com/rustyeddy/arena/store"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "arena (dev)")
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.yaml")

	out, err := run(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")

	_, err = run(t, "config", "init", path)
	assert.ErrorContains(t, err, "already exists")

	_, err = run(t, "config", "init", path, "--force")
	require.NoError(t, err)

	out, err = run(t, "--config", path, "--db", "/tmp/x.db", "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "db=/tmp/x.db")
}

func TestSeedThenPass(t *testing.T) {
	db := filepath.Join(t.TempDir(), "arena.db")

	out, err := run(t, "--db", db, "--log-level", "error", "seed", "--user", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "token=")

	// Quote the seeded instruments directly.
	s, err := store.NewSQLite(db)
	require.NoError(t, err)
	ctx := context.Background()
	instruments, err := s.ListInstruments(ctx)
	require.NoError(t, err)
	require.Len(t, instruments, len(market.Instruments))
	now := time.Now()
	for _, inst := range instruments {
		mid := 1.1050
		if inst.Symbol == "XAUUSD" {
			mid = 2300
		}
		q := pricing.QuoteFromMid(inst.ID, inst.Symbol, mid, now)
		q.Bid, q.Ask = mid, mid
		require.NoError(t, s.UpsertQuote(ctx, q))
	}
	require.NoError(t, s.Close())

	out, err = run(t, "--db", db, "--log-level", "error", "pnl", "run")
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2.0, res["positions_updated"])
	assert.Equal(t, 1.0, res["accounts_updated"])
	assert.Equal(t, 0.0, res["errors"])

	s, err = store.NewSQLite(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	positions, err := s.OpenPositions(ctx)
	require.NoError(t, err)
	var total float64
	for _, p := range positions {
		total += p.Position.UnrealizedPnL
	}
	// long EURUSD 10k from 1.1000 to 1.1050, short gold flat
	assert.InDelta(t, 50.0, total, 1e-9)

	acct, err := s.Account(ctx, positions[0].Position.AccountID)
	require.NoError(t, err)
	assert.InDelta(t, 10_050.0, acct.Equity, 1e-9)
	assert.InDelta(t, 10_050.0, acct.PeakEquity, 1e-9)

	out, err = run(t, "--db", db, "--log-level", "error", "pnl", "history", "--account", acct.ID, "--csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], acct.ID)
}

func TestSeedIsRepeatable(t *testing.T) {
	db := filepath.Join(t.TempDir(), "arena.db")

	_, err := run(t, "--db", db, "seed", "--positions=false")
	require.NoError(t, err)
	_, err = run(t, "--db", db, "seed", "--positions=false")
	require.NoError(t, err)
}

func TestTokenIssue(t *testing.T) {
	db := filepath.Join(t.TempDir(), "arena.db")

	_, err := run(t, "--db", db, "token", "issue")
	assert.ErrorContains(t, err, "--user is required")

	out, err := run(t, "--db", db, "token", "issue", "--user", "bob")
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	assert.Len(t, token, 48)

	s, err := store.NewSQLite(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	user, err := s.UserForToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "bob", user)
}

func TestPricesGetWithoutKey(t *testing.T) {
	t.Setenv("TWELVE_DATA_API_KEY", "")
	require.NoError(t, os.Unsetenv("TWELVE_DATA_API_KEY"))

	db := filepath.Join(t.TempDir(), "arena.db")
	_, err := run(t, "--db", db, "--log-level", "error", "prices", "get", "EURUSD")
	assert.ErrorContains(t, err, "API key not configured")
}
