// Package paper implements the paper-trading driver: the component that
// re-runs the shared evaluation engine incrementally over a rolling candle
// window and turns last-bar signals into simulated orders against a
// persisted session balance and position.
package paper

import (
	"context"

	"github.com/tradeforge/stratsim/internal/types"
)

// SessionState is the persisted state of one paper-trading session. The
// store owns durability; the driver owns the transitions.
type SessionState struct {
	ID             string             `json:"id"`
	Pair           string             `json:"pair"`
	Strategy       types.StrategySpec `json:"strategy"`
	InitialBalance float64            `json:"initial_balance"`
	Balance        float64            `json:"balance"`
	Position       types.Position     `json:"position"`
	CreatedAt      int64              `json:"created_at"`
	UpdatedAt      int64              `json:"updated_at"`
}

// Store persists paper-trading sessions, their open position and their trade
// history. UpdateSession must apply the session state and the optional trade
// record in a single transaction: a candle either fully happened or not at
// all.
type Store interface {
	CreateSession(ctx context.Context, state SessionState) error
	GetSession(ctx context.Context, id string) (SessionState, error)
	ListSessions(ctx context.Context) ([]SessionState, error)
	// UpdateSession writes the new session state and, when trade is
	// non-nil, upserts the trade record atomically.
	UpdateSession(ctx context.Context, state SessionState, trade *types.Trade) error
	DeleteSession(ctx context.Context, id string) error
	ListTrades(ctx context.Context, sessionID string) ([]types.Trade, error)
	Close() error
}
