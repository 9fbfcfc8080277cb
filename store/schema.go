// store/schema.go
package store

const Schema = `
CREATE TABLE IF NOT EXISTS instruments (
	id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL UNIQUE,
	contract_size REAL
);

CREATE TABLE IF NOT EXISTS competition_participants (
	id TEXT PRIMARY KEY,
	competition_id TEXT NOT NULL,
	user_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	participant_id TEXT NOT NULL REFERENCES competition_participants(id),
	balance REAL NOT NULL,
	equity REAL NOT NULL,
	peak_equity REAL NOT NULL,
	max_drawdown_pct REAL NOT NULL DEFAULT 0,
	used_margin REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS positions (
	id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL REFERENCES accounts(id),
	instrument_id TEXT NOT NULL REFERENCES instruments(id),
	side TEXT NOT NULL,
	quantity REAL NOT NULL,
	entry_price REAL NOT NULL,
	stop_loss REAL,
	take_profit REAL,
	status TEXT NOT NULL,
	current_price REAL NOT NULL DEFAULT 0,
	unrealized_pnl REAL NOT NULL DEFAULT 0,
	opened_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_positions_status ON positions(status);

CREATE TABLE IF NOT EXISTS market_prices_latest (
	instrument_id TEXT PRIMARY KEY REFERENCES instruments(id),
	price REAL NOT NULL,
	bid REAL NOT NULL,
	ask REAL NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS api_tokens (
	token TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS equity_snapshots (
	account_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	balance REAL NOT NULL,
	equity REAL NOT NULL,
	peak_equity REAL NOT NULL,
	max_drawdown_pct REAL NOT NULL,
	used_margin REAL NOT NULL,
	free_margin REAL NOT NULL,
	margin_level REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_equity_snapshots_account_time ON equity_snapshots(account_id, time);
`
