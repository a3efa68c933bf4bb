// Package engine wires the signal generators, trade simulator and metrics
// engine into the three operations the platform exposes: one-shot backtests,
// incremental signal evaluation for paper trading, and grid-search
// optimization. One engine serves all three paths so test results and live
// behavior cannot drift apart.
package engine

import (
	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/tradeforge/stratsim/internal/logger"
	"github.com/tradeforge/stratsim/internal/metrics"
	"github.com/tradeforge/stratsim/internal/simulator"
	"github.com/tradeforge/stratsim/internal/strategy"
	"github.com/tradeforge/stratsim/internal/types"
	"github.com/tradeforge/stratsim/pkg/errors"
)

// Action is a trading decision for the paper-trading driver.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Result bundles the outputs of one backtest run.
type Result struct {
	Trades   []types.Trade
	Metrics  metrics.Report
	Equity   []types.EquityPoint
	EndState simulator.State
}

// Engine is the shared evaluation engine. It is safe for concurrent use: all
// mutable per-run state lives in simulator instances created per call.
type Engine struct {
	registry *strategy.Registry
	validate *validator.Validate
	log      *logger.Logger
}

// New creates an engine with the full built-in strategy registry.
func New(log *logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Engine{
		registry: strategy.NewRegistry(),
		validate: validator.New(),
		log:      log,
	}
}

// Registry exposes strategy metadata for the API/UI layer.
func (e *Engine) Registry() *strategy.Registry {
	return e.registry
}

// RunBacktest runs one deterministic simulation: resolve the strategy,
// generate signals over the full series, simulate trades, compute metrics.
// The backtest path requires enough history for the strategy's indicators;
// too little data is an explicit error, never an empty-but-successful result.
func (e *Engine) RunBacktest(candles []types.Candle, spec types.StrategySpec, cfg simulator.Config) (*Result, error) {
	if err := e.validate.Struct(cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, "invalid backtest config", err)
	}

	if err := types.ValidateCandles(candles); err != nil {
		return nil, err
	}

	gen, err := e.registry.Resolve(spec)
	if err != nil {
		return nil, err
	}

	if minBars := gen.MinBars(spec); len(candles) < minBars {
		return nil, errors.Wrap(errors.ErrCodeInsufficientHistory, "not enough candles for backtest",
			insufficientHistory(minBars, len(candles)))
	}

	signals, err := gen.Generate(candles, spec)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSignalGeneration, "signal generation failed", err)
	}

	sim := simulator.New(cfg, e.log)

	simResult, err := sim.Run(candles, signals)
	if err != nil {
		return nil, err
	}

	report := metrics.Calculate(simResult.Trades, cfg.InitialBalance)

	e.log.Debug("backtest finished",
		zap.String("strategy", spec.Slug),
		zap.Int("trades", report.TotalTrades),
		zap.Float64("final_balance", report.FinalBalance),
	)

	return &Result{
		Trades:   simResult.Trades,
		Metrics:  report,
		Equity:   simResult.Equity,
		EndState: simResult.EndState,
	}, nil
}

// EvaluateSignal evaluates the strategy over a candle window and inspects
// only the last bar's signal. It is the incremental entry point used by the
// paper-trading driver: a window that is still too short yields None together
// with an InsufficientHistoryError the driver reports as "collecting".
func (e *Engine) EvaluateSignal(window []types.Candle, spec types.StrategySpec, hasPosition bool) (optional.Option[Action], error) {
	if len(window) == 0 {
		return optional.None[Action](), errors.New(errors.ErrCodeNoData, "empty candle window")
	}

	gen, err := e.registry.Resolve(spec)
	if err != nil {
		return optional.None[Action](), err
	}

	if minBars := gen.MinBars(spec); len(window) < minBars {
		return optional.None[Action](), errors.Wrap(errors.ErrCodeInsufficientHistory, "window shorter than strategy warmup",
			insufficientHistory(minBars, len(window)))
	}

	signals, err := gen.Generate(window, spec)
	if err != nil {
		return optional.None[Action](), errors.Wrap(errors.ErrCodeSignalGeneration, "signal generation failed", err)
	}

	last := signals.Len() - 1

	switch {
	case hasPosition && signals.Sell[last]:
		return optional.Some(ActionSell), nil
	case !hasPosition && signals.Buy[last]:
		return optional.Some(ActionBuy), nil
	default:
		return optional.None[Action](), nil
	}
}

func insufficientHistory(required, actual int) *errors.InsufficientHistoryError {
	return errors.NewInsufficientHistoryErrorf(required, actual,
		"need %d candles, have %d", required, actual)
}
