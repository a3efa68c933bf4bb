package paper

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tradeforge/stratsim/internal/engine"
	"github.com/tradeforge/stratsim/internal/logger"
	"github.com/tradeforge/stratsim/internal/simulator"
	"github.com/tradeforge/stratsim/internal/types"
	"github.com/tradeforge/stratsim/pkg/errors"
)

// DefaultWindowSize is the rolling candle buffer length. 200 bars covers the
// longest default indicator period with room for EMA convergence.
const DefaultWindowSize = 200

// Status reports what the driver did with one delivered candle.
type Status string

const (
	// StatusCollecting means the buffer is still shorter than the
	// strategy's minimum history; no evaluation happened.
	StatusCollecting Status = "collecting"
	// StatusHold means signals were evaluated and no action was taken.
	StatusHold Status = "hold"
	StatusBought Status = "bought"
	StatusSold   Status = "sold"
	// StatusDuplicate means the candle timestamp was already processed.
	StatusDuplicate Status = "duplicate"
)

// Driver runs one paper-trading session. It owns the rolling candle buffer
// and serializes its own state transitions: concurrent OnCandle calls for
// the same session are processed one at a time.
type Driver struct {
	mu         sync.Mutex
	eng        *engine.Engine
	store      Store
	log        *logger.Logger
	state      SessionState
	sizing     simulator.SizingMode
	fraction   float64
	feeRate    float64
	windowSize int
	buffer     []types.Candle
	lastTime   int64
	nextSeq    int
	stopped    bool
}

// NewDriver creates a driver for an existing session state. The trade
// sequence continues from the persisted history.
func NewDriver(eng *engine.Engine, store Store, log *logger.Logger, state SessionState, cfg SessionConfig) (*Driver, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	windowSize := cfg.WindowSize
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}

	fraction := cfg.SizeFraction
	if fraction == 0 {
		fraction = 1.0
	}

	trades, err := store.ListTrades(context.Background(), state.ID)
	if err != nil {
		return nil, err
	}

	// Duplicate protection survives a restart: candles redelivered up to the
	// last persisted trade stay no-ops.
	var lastTime int64

	for _, t := range trades {
		if t.EntryTime > lastTime {
			lastTime = t.EntryTime
		}

		if t.ExitTime > lastTime {
			lastTime = t.ExitTime
		}
	}

	return &Driver{
		mu:         sync.Mutex{},
		eng:        eng,
		store:      store,
		log:        log,
		state:      state,
		sizing:     cfg.Sizing,
		fraction:   fraction,
		feeRate:    cfg.FeeRate,
		windowSize: windowSize,
		buffer:     nil,
		lastTime:   lastTime,
		nextSeq:    len(trades) + 1,
		stopped:    false,
	}, nil
}

// State returns a copy of the current session state.
func (d *Driver) State() SessionState {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.state
}

// OnCandle processes one closed candle: append to the buffer, trim to the
// window, evaluate the last-bar signal and, if it calls for action, apply
// the same entry/exit arithmetic as the trade simulator against the
// persisted balance. Delivering the same timestamp twice is a no-op.
func (d *Driver) OnCandle(ctx context.Context, candle types.Candle) (Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return StatusHold, errors.Newf(errors.ErrCodeSessionStopped, "session %q is stopped", d.state.ID)
	}

	if candle.Time <= d.lastTime {
		d.log.Debug("duplicate candle ignored",
			zap.String("session", d.state.ID),
			zap.Int64("time", candle.Time),
		)

		return StatusDuplicate, nil
	}

	d.buffer = append(d.buffer, candle)
	if len(d.buffer) > d.windowSize {
		d.buffer = d.buffer[len(d.buffer)-d.windowSize:]
	}

	d.lastTime = candle.Time

	action, err := d.eng.EvaluateSignal(d.buffer, d.state.Strategy, d.state.Position.IsOpen())
	if err != nil {
		if errors.IsInsufficientHistory(err) {
			return StatusCollecting, nil
		}

		// One bad candle must not corrupt future processing; surface the
		// error but keep the buffer and state intact.
		return StatusHold, err
	}

	if action.IsNone() {
		return StatusHold, nil
	}

	act, takeErr := action.Take()
	if takeErr != nil {
		return StatusHold, takeErr
	}

	switch act {
	case engine.ActionBuy:
		return d.enter(ctx, candle)
	case engine.ActionSell:
		return d.exit(ctx, candle)
	default:
		return StatusHold, nil
	}
}

// Stop marks the driver stopped; subsequent candles are rejected. In-flight
// processing finishes normally because Stop waits on the same lock.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
}

func (d *Driver) enter(ctx context.Context, candle types.Candle) (Status, error) {
	size := simulator.EntrySize(d.sizing, d.fraction, d.state.InitialBalance, d.state.Balance)
	if size <= types.PositionEpsilon {
		return StatusHold, nil
	}

	next := d.state
	next.Balance -= size
	next.Position = types.Position{
		EntryPrice: candle.Close,
		EntryTime:  candle.Time,
		Size:       size,
	}
	next.UpdatedAt = time.Now().Unix()

	trade := types.Trade{
		ID:         d.nextSeq,
		OrderID:    uuid.New().String(),
		EntryPrice: candle.Close,
		EntryTime:  candle.Time,
		Size:       size,
		Status:     types.TradeStatusOpen,
	}

	if err := d.store.UpdateSession(ctx, next, &trade); err != nil {
		// The write failed, so the in-memory state stays unchanged.
		return StatusHold, err
	}

	d.state = next
	d.nextSeq++

	d.log.Info("paper entry",
		zap.String("session", d.state.ID),
		zap.Float64("price", candle.Close),
		zap.Float64("size", size),
	)

	return StatusBought, nil
}

func (d *Driver) exit(ctx context.Context, candle types.Candle) (Status, error) {
	pos := d.state.Position
	if !pos.IsOpen() {
		return StatusHold, errors.New(errors.ErrCodeSimulationInvariant, "exit attempted without an open position")
	}

	pnl, pnlPct := types.SettlePnL(pos.EntryPrice, candle.Close, pos.Size, d.feeRate)

	trades, err := d.store.ListTrades(ctx, d.state.ID)
	if err != nil {
		return StatusHold, err
	}

	var open *types.Trade

	for i := range trades {
		if trades[i].Status == types.TradeStatusOpen {
			open = &trades[i]
		}
	}

	if open == nil {
		return StatusHold, errors.New(errors.ErrCodeSimulationInvariant, "open position without an open trade record")
	}

	open.ExitPrice = candle.Close
	open.ExitTime = candle.Time
	open.PnL = pnl
	open.PnLPct = pnlPct
	open.FeePaid = roundTripFee(pos, candle.Close, d.feeRate)
	open.Status = types.TradeStatusClosed

	next := d.state
	next.Balance += pos.Size + pnl
	next.Position = types.Position{}
	next.UpdatedAt = time.Now().Unix()

	if err := d.store.UpdateSession(ctx, next, open); err != nil {
		return StatusHold, err
	}

	d.state = next

	d.log.Info("paper exit",
		zap.String("session", d.state.ID),
		zap.Float64("price", candle.Close),
		zap.Float64("pnl", pnl),
	)

	return StatusSold, nil
}

// roundTripFee mirrors the simulator's fee accounting: the committed size
// contains the entry fee, so the notional is size/(1+fee).
func roundTripFee(pos types.Position, exitPrice, feeRate float64) float64 {
	if feeRate == 0 || pos.EntryPrice == 0 {
		return 0
	}

	notional := pos.Size / (1 + feeRate)

	return notional*feeRate + notional*(exitPrice/pos.EntryPrice)*feeRate
}
