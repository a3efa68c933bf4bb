package simulator

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/tradeforge/stratsim/internal/strategy"
	"github.com/tradeforge/stratsim/internal/types"
	"github.com/tradeforge/stratsim/pkg/errors"
)

type SimulatorTestSuite struct {
	suite.Suite
}

func TestSimulatorSuite(t *testing.T) {
	suite.Run(t, new(SimulatorTestSuite))
}

// candlesAt builds one candle per close price, one minute apart.
func candlesAt(closes ...float64) []types.Candle {
	out := make([]types.Candle, len(closes))
	for i, c := range closes {
		out[i] = types.Candle{
			Time:   int64(i+1) * 60,
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 100,
		}
	}

	return out
}

// signalsFor marks buy/sell at the given indices.
func signalsFor(length int, buys, sells []int) strategy.SignalSeries {
	s := strategy.NewSignalSeries(length)
	for _, i := range buys {
		s.Buy[i] = true
	}

	for _, i := range sells {
		s.Sell[i] = true
	}

	return s
}

func (s *SimulatorTestSuite) TestRoundTripNoFees() {
	candles := candlesAt(100, 105, 110, 108)
	signals := signalsFor(4, []int{0}, []int{2})

	sim := New(DefaultConfig(1000), nil)

	result, err := sim.Run(candles, signals)
	s.Require().NoError(err)

	s.Require().Len(result.Trades, 1)
	trade := result.Trades[0]

	s.Equal(types.TradeStatusClosed, trade.Status)
	s.InDelta(100.0, trade.EntryPrice, 1e-9)
	s.InDelta(110.0, trade.ExitPrice, 1e-9)
	s.InDelta(100.0, trade.PnL, 1e-9)
	s.InDelta(10.0, trade.PnLPct, 1e-9)
	s.InDelta(1100.0, result.FinalBalance, 1e-9)
	s.Equal(StateFlat, result.EndState)
}

func (s *SimulatorTestSuite) TestRoundTripWithFees() {
	candles := candlesAt(100, 105, 110)
	signals := signalsFor(3, []int{0}, []int{2})

	cfg := DefaultConfig(1000)
	cfg.FeeRate = 0.001
	sim := New(cfg, nil)

	result, err := sim.Run(candles, signals)
	s.Require().NoError(err)

	s.Require().Len(result.Trades, 1)
	trade := result.Trades[0]

	s.InDelta(97.80, trade.PnL, 0.01)
	s.InDelta(9.78, trade.PnLPct, 0.001)
	s.Positive(trade.FeePaid)

	// The realized balance change of a round trip equals the recorded PnL.
	s.InDelta(1000+trade.PnL, result.FinalBalance, 1e-9)
}

func (s *SimulatorTestSuite) TestSinglePositionOnly() {
	candles := candlesAt(100, 101, 102, 103, 110)
	// Buy signals persist while LONG; only one position may exist.
	signals := signalsFor(5, []int{0, 1, 2, 3}, []int{4})

	sim := New(DefaultConfig(1000), nil)

	result, err := sim.Run(candles, signals)
	s.Require().NoError(err)
	s.Len(result.Trades, 1)
}

func (s *SimulatorTestSuite) TestConcurrentBuySellWhenFlatEnters() {
	candles := candlesAt(100, 110)
	signals := signalsFor(2, []int{0}, []int{0, 1})

	sim := New(DefaultConfig(1000), nil)

	result, err := sim.Run(candles, signals)
	s.Require().NoError(err)

	// The bar-0 sell is ignored when flat; the entry happens and the bar-1
	// sell closes it.
	s.Require().Len(result.Trades, 1)
	s.Equal(types.TradeStatusClosed, result.Trades[0].Status)
	s.InDelta(110.0, result.Trades[0].ExitPrice, 1e-9)
}

func (s *SimulatorTestSuite) TestSellWhileFlatIgnored() {
	candles := candlesAt(100, 101, 102)
	signals := signalsFor(3, nil, []int{0, 1, 2})

	sim := New(DefaultConfig(1000), nil)

	result, err := sim.Run(candles, signals)
	s.Require().NoError(err)
	s.Empty(result.Trades)
	s.InDelta(1000.0, result.FinalBalance, 1e-9)
}

func (s *SimulatorTestSuite) TestForceCloseAtEnd() {
	candles := candlesAt(100, 105, 120)
	signals := signalsFor(3, []int{0}, nil)

	cfg := DefaultConfig(1000)
	cfg.ForceClose = true
	sim := New(cfg, nil)

	result, err := sim.Run(candles, signals)
	s.Require().NoError(err)

	s.Require().Len(result.Trades, 1)
	s.Equal(types.TradeStatusClosed, result.Trades[0].Status)
	s.InDelta(120.0, result.Trades[0].ExitPrice, 1e-9)
	s.Equal(StateFlat, result.EndState)
	s.InDelta(1200.0, result.FinalBalance, 1e-9)
}

func (s *SimulatorTestSuite) TestOpenTradeWithoutForceClose() {
	candles := candlesAt(100, 105, 120)
	signals := signalsFor(3, []int{0}, nil)

	cfg := DefaultConfig(1000)
	cfg.ForceClose = false
	sim := New(cfg, nil)

	result, err := sim.Run(candles, signals)
	s.Require().NoError(err)

	s.Require().Len(result.Trades, 1)
	trade := result.Trades[0]

	s.Equal(types.TradeStatusOpen, trade.Status)
	// Provisional marks against the last candle.
	s.InDelta(120.0, trade.ExitPrice, 1e-9)
	s.InDelta(200.0, trade.PnL, 1e-9)
	s.Equal(StateLong, result.EndState)

	// Unrealized PnL stays out of the cash balance.
	s.InDelta(0.0, result.FinalBalance, 1e-9)
}

func (s *SimulatorTestSuite) TestSignalLengthMismatch() {
	candles := candlesAt(100, 101)
	signals := strategy.NewSignalSeries(3)

	sim := New(DefaultConfig(1000), nil)

	_, err := sim.Run(candles, signals)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeSignalLengthMismatch))
}

func (s *SimulatorTestSuite) TestEmptyCandles() {
	sim := New(DefaultConfig(1000), nil)

	_, err := sim.Run(nil, strategy.NewSignalSeries(0))
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeNoData))
}

func (s *SimulatorTestSuite) TestFeesMonotonicallyReduceBalance() {
	candles := candlesAt(100, 105, 110, 103, 99, 108, 115)
	signals := signalsFor(7, []int{0, 4}, []int{2, 6})

	balances := make([]float64, 0, 3)

	for _, fee := range []float64{0, 0.001, 0.01} {
		cfg := DefaultConfig(1000)
		cfg.FeeRate = fee

		result, err := New(cfg, nil).Run(candles, signals)
		s.Require().NoError(err)

		balances = append(balances, result.FinalBalance)
	}

	s.Greater(balances[0], balances[1])
	s.Greater(balances[1], balances[2])
}

func (s *SimulatorTestSuite) TestBalanceNeverNegative() {
	// A brutal drawdown with full-balance compounding entries.
	candles := candlesAt(100, 50, 25, 12, 6, 3)
	signals := signalsFor(6, []int{0, 2, 4}, []int{1, 3, 5})

	cfg := DefaultConfig(1000)
	cfg.FeeRate = 0.01

	result, err := New(cfg, nil).Run(candles, signals)
	s.Require().NoError(err)
	s.GreaterOrEqual(result.FinalBalance, 0.0)

	for _, p := range result.Equity {
		s.GreaterOrEqual(p.Balance, -types.BalanceEpsilon)
	}
}

func (s *SimulatorTestSuite) TestEquityCurveLengthAndContinuity() {
	candles := candlesAt(100, 105, 110, 108, 112)
	signals := signalsFor(5, []int{1}, []int{3})

	result, err := New(DefaultConfig(1000), nil).Run(candles, signals)
	s.Require().NoError(err)

	s.Require().Len(result.Equity, len(candles))

	for i, p := range result.Equity {
		s.Equal(candles[i].Time, p.Timestamp)
		s.InDelta(p.Balance+p.HoldingsValue, p.TotalValue, 1e-9)
	}
}

func (s *SimulatorTestSuite) TestFixedSizing() {
	candles := candlesAt(100, 110, 120, 130)
	signals := signalsFor(4, []int{0, 2}, []int{1, 3})

	cfg := DefaultConfig(1000)
	cfg.Sizing = SizingFixed
	cfg.SizeFraction = 0.5

	result, err := New(cfg, nil).Run(candles, signals)
	s.Require().NoError(err)

	s.Require().Len(result.Trades, 2)
	// Fixed sizing commits the same fraction of the initial balance each time.
	s.InDelta(500.0, result.Trades[0].Size, 1e-9)
	s.InDelta(500.0, result.Trades[1].Size, 1e-9)
}

func (s *SimulatorTestSuite) TestCompoundingSizing() {
	candles := candlesAt(100, 110, 120, 130)
	signals := signalsFor(4, []int{0, 2}, []int{1, 3})

	result, err := New(DefaultConfig(1000), nil).Run(candles, signals)
	s.Require().NoError(err)

	s.Require().Len(result.Trades, 2)
	s.InDelta(1000.0, result.Trades[0].Size, 1e-9)
	// The second entry commits the grown balance.
	s.InDelta(1100.0, result.Trades[1].Size, 1e-9)
}

func TestEntrySizeClamp(t *testing.T) {
	// Fixed sizing must not exceed the available balance.
	size := EntrySize(SizingFixed, 1.0, 1000, 400)

	if size != 400 {
		t.Fatalf("expected clamp to 400, got %f", size)
	}
}
