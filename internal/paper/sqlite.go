package paper

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "modernc.org/sqlite"

	"github.com/tradeforge/stratsim/internal/types"
	"github.com/tradeforge/stratsim/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id              TEXT PRIMARY KEY,
    pair            TEXT NOT NULL,
    strategy        TEXT NOT NULL,
    initial_balance REAL NOT NULL,
    balance         REAL NOT NULL,
    entry_price     REAL NOT NULL DEFAULT 0,
    entry_time      INTEGER NOT NULL DEFAULT 0,
    size            REAL NOT NULL DEFAULT 0,
    created_at      INTEGER NOT NULL,
    updated_at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
    order_id    TEXT PRIMARY KEY,
    session_id  TEXT NOT NULL,
    seq         INTEGER NOT NULL,
    entry_price REAL NOT NULL,
    entry_time  INTEGER NOT NULL,
    exit_price  REAL NOT NULL DEFAULT 0,
    exit_time   INTEGER NOT NULL DEFAULT 0,
    size        REAL NOT NULL,
    fee_paid    REAL NOT NULL DEFAULT 0,
    pnl         REAL NOT NULL DEFAULT 0,
    pnl_pct     REAL NOT NULL DEFAULT 0,
    status      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_session ON trades(session_id, seq);
`

// SQLiteStore persists paper-trading sessions in a local sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and applies the
// schema. Use ":memory:" for tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to open sqlite database", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to apply schema", err)
	}

	return &SQLiteStore{db: db}, nil
}

// CreateSession inserts a new session row.
func (s *SQLiteStore) CreateSession(ctx context.Context, state SessionState) error {
	strategyJSON, err := json.Marshal(state.Strategy)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to encode strategy", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, pair, strategy, initial_balance, balance, entry_price, entry_time, size, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		state.ID, state.Pair, string(strategyJSON), state.InitialBalance, state.Balance,
		state.Position.EntryPrice, state.Position.EntryTime, state.Position.Size,
		state.CreatedAt, state.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to insert session", err)
	}

	return nil
}

// GetSession loads one session by id.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (SessionState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, pair, strategy, initial_balance, balance, entry_price, entry_time, size, created_at, updated_at
		FROM sessions WHERE id = ?`, id)

	state, err := scanSession(row)
	if err == sql.ErrNoRows {
		return SessionState{}, errors.Newf(errors.ErrCodeSessionNotFound, "session %q not found", id)
	}

	if err != nil {
		return SessionState{}, errors.Wrap(errors.ErrCodeStoreFailed, "failed to load session", err)
	}

	return state, nil
}

// ListSessions returns all persisted sessions.
func (s *SQLiteStore) ListSessions(ctx context.Context) ([]SessionState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pair, strategy, initial_balance, balance, entry_price, entry_time, size, created_at, updated_at
		FROM sessions ORDER BY created_at`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to list sessions", err)
	}
	defer rows.Close()

	var sessions []SessionState

	for rows.Next() {
		state, err := scanSession(rows)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to scan session", err)
		}

		sessions = append(sessions, state)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "error iterating sessions", err)
	}

	return sessions, nil
}

// UpdateSession writes the session state and the optional trade in one
// transaction, so a processed candle is either fully applied or not at all.
func (s *SQLiteStore) UpdateSession(ctx context.Context, state SessionState, trade *types.Trade) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to begin transaction", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE sessions SET balance = ?, entry_price = ?, entry_time = ?, size = ?, updated_at = ?
		WHERE id = ?`,
		state.Balance, state.Position.EntryPrice, state.Position.EntryTime, state.Position.Size,
		state.UpdatedAt, state.ID,
	)
	if err != nil {
		tx.Rollback()

		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to update session", err)
	}

	if trade != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO trades (order_id, session_id, seq, entry_price, entry_time, exit_price, exit_time, size, fee_paid, pnl, pnl_pct, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(order_id) DO UPDATE SET
				exit_price = excluded.exit_price,
				exit_time = excluded.exit_time,
				fee_paid = excluded.fee_paid,
				pnl = excluded.pnl,
				pnl_pct = excluded.pnl_pct,
				status = excluded.status`,
			trade.OrderID, state.ID, trade.ID, trade.EntryPrice, trade.EntryTime,
			trade.ExitPrice, trade.ExitTime, trade.Size, trade.FeePaid,
			trade.PnL, trade.PnLPct, string(trade.Status),
		)
		if err != nil {
			tx.Rollback()

			return errors.Wrap(errors.ErrCodeStoreFailed, "failed to upsert trade", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to commit transaction", err)
	}

	return nil
}

// DeleteSession removes a session and its trades.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to begin transaction", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM trades WHERE session_id = ?`, id); err != nil {
		tx.Rollback()

		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to delete trades", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		tx.Rollback()

		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to delete session", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to commit transaction", err)
	}

	return nil
}

// ListTrades returns all trades of a session in sequence order.
func (s *SQLiteStore) ListTrades(ctx context.Context, sessionID string) ([]types.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, seq, entry_price, entry_time, exit_price, exit_time, size, fee_paid, pnl, pnl_pct, status
		FROM trades WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var trades []types.Trade

	for rows.Next() {
		var trade types.Trade

		var status string

		err := rows.Scan(
			&trade.OrderID, &trade.ID, &trade.EntryPrice, &trade.EntryTime,
			&trade.ExitPrice, &trade.ExitTime, &trade.Size, &trade.FeePaid,
			&trade.PnL, &trade.PnLPct, &status,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to scan trade", err)
		}

		trade.Status = types.TradeStatus(status)
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "error iterating trades", err)
	}

	return trades, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (SessionState, error) {
	var state SessionState

	var strategyJSON string

	err := row.Scan(
		&state.ID, &state.Pair, &strategyJSON, &state.InitialBalance, &state.Balance,
		&state.Position.EntryPrice, &state.Position.EntryTime, &state.Position.Size,
		&state.CreatedAt, &state.UpdatedAt,
	)
	if err != nil {
		return SessionState{}, err
	}

	if err := json.Unmarshal([]byte(strategyJSON), &state.Strategy); err != nil {
		return SessionState{}, err
	}

	return state, nil
}
