// Package simulator implements the trade simulator: a two-state machine
// (FLAT, LONG) that walks a signal series chronologically, opens and closes a
// single long position, applies fees and sizing policy, and produces the
// trade ledger plus the equity curve. The same simulator is used by the
// backtester, the grid-search optimizer and the paper-trading driver, so its
// behavior is the single source of truth for what a strategy "does".
package simulator

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tradeforge/stratsim/internal/logger"
	"github.com/tradeforge/stratsim/internal/strategy"
	"github.com/tradeforge/stratsim/internal/types"
	"github.com/tradeforge/stratsim/pkg/errors"
)

// State is the simulator position state.
type State string

const (
	StateFlat State = "FLAT"
	StateLong State = "LONG"
)

// SizingMode selects how entry size relates to the account balance.
type SizingMode string

const (
	// SizingFixed commits a fixed fraction of the initial balance on every
	// entry, regardless of the running balance.
	SizingFixed SizingMode = "fixed"
	// SizingCompounding commits a fraction of the current running balance.
	SizingCompounding SizingMode = "compounding"
)

// Config holds the simulation parameters for one run.
type Config struct {
	InitialBalance float64    `yaml:"initial_balance" validate:"gt=0"`
	FeeRate        float64    `yaml:"fee_rate" validate:"gte=0,lt=1"`
	Sizing         SizingMode `yaml:"sizing" validate:"oneof=fixed compounding"`
	// SizeFraction scales the committed amount; 1.0 commits the full
	// balance reference.
	SizeFraction float64 `yaml:"size_fraction" validate:"gt=0,lte=1"`
	ForceClose   bool    `yaml:"force_close"`
}

// DefaultConfig returns a config with full-balance compounding and no fees.
func DefaultConfig(initialBalance float64) Config {
	return Config{
		InitialBalance: initialBalance,
		FeeRate:        0,
		Sizing:         SizingCompounding,
		SizeFraction:   1.0,
		ForceClose:     true,
	}
}

// Result is the outcome of one simulation run.
type Result struct {
	// Trades is the full ledger in chronological order. At most the last
	// trade may be OPEN (when the run ended in a position without force
	// close); its exit fields are provisional.
	Trades []types.Trade
	// FinalBalance is the realized cash balance; unrealized PnL of a
	// trailing open trade is not included.
	FinalBalance float64
	// Equity is the per-candle equity curve (balance + holdings value).
	Equity []types.EquityPoint
	// EndState reports whether the run ended FLAT or LONG.
	EndState State
}

// Simulator owns the mutable state of one run. Instances must not be shared
// across runs or parameter combinations; the optimizer creates one per
// combination.
type Simulator struct {
	cfg      Config
	log      *logger.Logger
	state    State
	balance  float64
	position types.Position
	trades   []types.Trade
	nextID   int
}

// New creates a simulator for a single run.
func New(cfg Config, log *logger.Logger) *Simulator {
	if log == nil {
		log = logger.NewNopLogger()
	}

	if cfg.SizeFraction == 0 {
		cfg.SizeFraction = 1.0
	}

	return &Simulator{
		cfg:      cfg,
		log:      log,
		state:    StateFlat,
		balance:  cfg.InitialBalance,
		position: types.Position{},
		trades:   nil,
		nextID:   1,
	}
}

// Run walks the candles and signals chronologically and returns the trade
// ledger. Fees are applied to both legs: the committed size already contains
// the entry fee (effective entry price = close * (1+fee)), and the exit
// proceeds are credited net of the exit fee (effective exit price =
// close * (1-fee)), so the realized balance change of a round trip equals the
// recorded trade PnL exactly.
func (s *Simulator) Run(candles []types.Candle, signals strategy.SignalSeries) (*Result, error) {
	if err := types.ValidateCandles(candles); err != nil {
		return nil, err
	}

	if signals.Len() != len(candles) {
		return nil, errors.Newf(errors.ErrCodeSignalLengthMismatch,
			"signal series length %d does not match candle count %d", signals.Len(), len(candles))
	}

	equity := make([]types.EquityPoint, 0, len(candles))

	for i, candle := range candles {
		switch {
		case s.state == StateLong && signals.Sell[i]:
			if err := s.exit(candle); err != nil {
				return nil, err
			}
		case s.state == StateFlat && signals.Buy[i]:
			// A concurrent sell signal on the same bar is ignored;
			// entry has priority when flat.
			if err := s.enter(candle); err != nil {
				return nil, err
			}
		}

		equity = append(equity, s.equityAt(candle))
	}

	if s.state == StateLong {
		last := candles[len(candles)-1]
		if s.cfg.ForceClose {
			if err := s.exit(last); err != nil {
				return nil, err
			}
		} else {
			s.markOpenTrade(last)
		}
	}

	return &Result{
		Trades:       s.trades,
		FinalBalance: s.balance,
		Equity:       equity,
		EndState:     s.state,
	}, nil
}

// EntrySize computes the monetary amount to commit for an entry, clamped so
// it never exceeds the available balance (no leverage, balance stays
// non-negative). Shared by the backtest simulator and the paper-trading
// driver so both size positions identically.
func EntrySize(mode SizingMode, fraction, initialBalance, balance float64) float64 {
	var size float64

	switch mode {
	case SizingFixed:
		size = initialBalance * fraction
	case SizingCompounding:
		size = balance * fraction
	default:
		size = balance * fraction
	}

	if size > balance {
		size = balance
	}

	return size
}

func (s *Simulator) entrySize() float64 {
	return EntrySize(s.cfg.Sizing, s.cfg.SizeFraction, s.cfg.InitialBalance, s.balance)
}

func (s *Simulator) enter(candle types.Candle) error {
	if s.state != StateFlat {
		return errors.New(errors.ErrCodeSimulationInvariant, "entry attempted while already in position")
	}

	size := s.entrySize()
	if size <= types.PositionEpsilon {
		s.log.Debug("skipping entry, size below tolerance", zap.Float64("size", size))

		return nil
	}

	s.balance -= size
	if s.balance < -types.BalanceEpsilon {
		return errors.Newf(errors.ErrCodeSimulationInvariant,
			"balance went negative on entry: %f", s.balance)
	}

	s.position = types.Position{
		EntryPrice: candle.Close,
		EntryTime:  candle.Time,
		Size:       size,
	}
	s.state = StateLong

	s.trades = append(s.trades, types.Trade{
		ID:         s.nextID,
		OrderID:    uuid.New().String(),
		EntryPrice: candle.Close,
		EntryTime:  candle.Time,
		Size:       size,
		Status:     types.TradeStatusOpen,
	})
	s.nextID++

	return nil
}

func (s *Simulator) exit(candle types.Candle) error {
	if s.state != StateLong || !s.position.IsOpen() {
		return errors.New(errors.ErrCodeSimulationInvariant, "exit attempted without an open position")
	}

	pnl, pnlPct := types.SettlePnL(s.position.EntryPrice, candle.Close, s.position.Size, s.cfg.FeeRate)

	s.balance += s.position.Size + pnl
	if s.balance < -types.BalanceEpsilon {
		return errors.Newf(errors.ErrCodeSimulationInvariant,
			"balance went negative on exit: %f", s.balance)
	}

	trade := &s.trades[len(s.trades)-1]
	trade.ExitPrice = candle.Close
	trade.ExitTime = candle.Time
	trade.PnL = pnl
	trade.PnLPct = pnlPct
	trade.FeePaid = s.feePaid(candle.Close)
	trade.Status = types.TradeStatusClosed

	s.position = types.Position{}
	s.state = StateFlat

	return nil
}

// markOpenTrade refreshes the provisional exit fields of the trailing open
// trade against the latest candle. The fields are overwritten, not
// finalized, and the realized balance is untouched.
func (s *Simulator) markOpenTrade(candle types.Candle) {
	trade := &s.trades[len(s.trades)-1]
	trade.ExitPrice = candle.Close
	trade.ExitTime = candle.Time
	trade.PnL, trade.PnLPct = types.SettlePnL(s.position.EntryPrice, candle.Close, s.position.Size, s.cfg.FeeRate)
	trade.FeePaid = s.feePaid(candle.Close)
}

// feePaid reports the total fee of the position's round trip at the given
// exit price. The committed size contains the entry fee, so the notional is
// size/(1+fee).
func (s *Simulator) feePaid(exitPrice float64) float64 {
	if s.cfg.FeeRate == 0 || s.position.EntryPrice == 0 {
		return 0
	}

	notional := s.position.Size / (1 + s.cfg.FeeRate)
	entryFee := notional * s.cfg.FeeRate
	exitFee := notional * (exitPrice / s.position.EntryPrice) * s.cfg.FeeRate

	return entryFee + exitFee
}

func (s *Simulator) equityAt(candle types.Candle) types.EquityPoint {
	holdings := 0.0
	if s.state == StateLong && s.position.EntryPrice > 0 {
		holdings = s.position.Size * (candle.Close / s.position.EntryPrice)
	}

	return types.EquityPoint{
		Timestamp:     candle.Time,
		Balance:       s.balance,
		HoldingsValue: holdings,
		TotalValue:    s.balance + holdings,
	}
}
