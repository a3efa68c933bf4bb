package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/stratsim/internal/types"
	"github.com/tradeforge/stratsim/pkg/errors"
)

func ruleSpec(tree *types.RuleTree) types.StrategySpec {
	return types.StrategySpec{Slug: "custom", Rules: tree}
}

func TestRuleTreeRSIThreshold(t *testing.T) {
	candles := risingCandles(40, 100)
	tree := &types.RuleTree{
		Buy: []types.RuleGroup{{
			Logic: types.LogicAnd,
			Rules: []types.Rule{{
				Indicator: "rsi",
				Period:    14,
				Operator:  types.OpGreaterThan,
				ValueType: types.ValueTypeConstant,
				Value:     60,
			}},
		}},
		BuyLogic: types.LogicAnd,
	}

	signals, err := ruleTreeGenerator{}.Generate(candles, ruleSpec(tree))
	require.NoError(t, err)

	// RSI of a perfect uptrend is 100 once warmed up.
	assert.True(t, signals.Buy[len(candles)-1])

	for i := 0; i < 14; i++ {
		assert.False(t, signals.Buy[i], "warmup bar %d", i)
	}
}

func TestRuleTreeEmptySideGeneratesNothing(t *testing.T) {
	candles := risingCandles(30, 100)
	tree := &types.RuleTree{}

	signals, err := ruleTreeGenerator{}.Generate(candles, ruleSpec(tree))
	require.NoError(t, err)

	for i := range candles {
		assert.False(t, signals.Buy[i])
		assert.False(t, signals.Sell[i])
	}
}

func TestRuleTreeCrossUp(t *testing.T) {
	// Close rises through the constant 104.5 exactly once.
	candles := risingCandles(10, 100)
	tree := &types.RuleTree{
		Buy: []types.RuleGroup{{
			Logic: types.LogicAnd,
			Rules: []types.Rule{{
				Indicator: "close",
				Period:    1,
				Operator:  types.OpCrossUp,
				ValueType: types.ValueTypeConstant,
				Value:     104.5,
			}},
		}},
		BuyLogic: types.LogicAnd,
	}

	signals, err := ruleTreeGenerator{}.Generate(candles, ruleSpec(tree))
	require.NoError(t, err)

	fired := 0

	for i, on := range signals.Buy {
		if on {
			fired++

			// close[4] = 104 <= 104.5, close[5] = 105 > 104.5.
			assert.Equal(t, 5, i)
		}
	}

	assert.Equal(t, 1, fired)
}

func TestRuleTreeCrossDown(t *testing.T) {
	candles := fallingCandles(10, 110)
	tree := &types.RuleTree{
		Sell: []types.RuleGroup{{
			Logic: types.LogicAnd,
			Rules: []types.Rule{{
				Indicator: "close",
				Period:    1,
				Operator:  types.OpCrossDown,
				ValueType: types.ValueTypeConstant,
				Value:     105.5,
			}},
		}},
		SellLogic: types.LogicAnd,
	}

	signals, err := ruleTreeGenerator{}.Generate(candles, ruleSpec(tree))
	require.NoError(t, err)

	fired := 0

	for _, on := range signals.Sell {
		if on {
			fired++
		}
	}

	assert.Equal(t, 1, fired)
}

func TestRuleTreeIndicatorVsIndicator(t *testing.T) {
	candles := risingCandles(40, 100)
	tree := &types.RuleTree{
		Buy: []types.RuleGroup{{
			Logic: types.LogicAnd,
			Rules: []types.Rule{{
				Indicator:      "sma",
				Period:         3,
				Operator:       types.OpGreaterThan,
				ValueType:      types.ValueTypeIndicator,
				ValueIndicator: "sma",
				ValuePeriod:    10,
			}},
		}},
		BuyLogic: types.LogicAnd,
	}

	signals, err := ruleTreeGenerator{}.Generate(candles, ruleSpec(tree))
	require.NoError(t, err)

	// Short SMA leads the long SMA in a monotone uptrend.
	assert.True(t, signals.Buy[len(candles)-1])
	// Before the longer period warms up, NaN suppresses the rule.
	assert.False(t, signals.Buy[5])
}

func TestRuleTreeGroupLogicOr(t *testing.T) {
	candles := risingCandles(40, 100)
	impossible := types.Rule{
		Indicator: "close",
		Period:    1,
		Operator:  types.OpLessThan,
		ValueType: types.ValueTypeConstant,
		Value:     -1,
	}
	alwaysAfterWarmup := types.Rule{
		Indicator: "close",
		Period:    1,
		Operator:  types.OpGreaterThan,
		ValueType: types.ValueTypeConstant,
		Value:     0,
	}

	tree := &types.RuleTree{
		Buy: []types.RuleGroup{{
			Logic: types.LogicOr,
			Rules: []types.Rule{impossible, alwaysAfterWarmup},
		}},
		BuyLogic: types.LogicAnd,
	}

	signals, err := ruleTreeGenerator{}.Generate(candles, ruleSpec(tree))
	require.NoError(t, err)
	assert.True(t, signals.Buy[len(candles)-1])

	// The same rules under AND can never fire.
	tree.Buy[0].Logic = types.LogicAnd

	signals, err = ruleTreeGenerator{}.Generate(candles, ruleSpec(tree))
	require.NoError(t, err)

	for i := range candles {
		assert.False(t, signals.Buy[i])
	}
}

func TestRuleTreeUnknownIndicator(t *testing.T) {
	candles := risingCandles(10, 100)
	tree := &types.RuleTree{
		Buy: []types.RuleGroup{{
			Logic: types.LogicAnd,
			Rules: []types.Rule{{
				Indicator: "astrology",
				Period:    14,
				Operator:  types.OpGreaterThan,
				ValueType: types.ValueTypeConstant,
				Value:     1,
			}},
		}},
		BuyLogic: types.LogicAnd,
	}

	_, err := ruleTreeGenerator{}.Generate(candles, ruleSpec(tree))

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRuleTree))
}

func TestRuleTreeMinBars(t *testing.T) {
	tree := &types.RuleTree{
		Buy: []types.RuleGroup{{
			Logic: types.LogicAnd,
			Rules: []types.Rule{{
				Indicator: "rsi",
				Period:    14,
				Operator:  types.OpGreaterThan,
				ValueType: types.ValueTypeConstant,
				Value:     60,
			}},
		}},
		Sell: []types.RuleGroup{{
			Logic: types.LogicAnd,
			Rules: []types.Rule{{
				Indicator:      "sma",
				Period:         5,
				Operator:       types.OpCrossDown,
				ValueType:      types.ValueTypeIndicator,
				ValueIndicator: "sma",
				ValuePeriod:    50,
			}},
		}},
	}

	assert.Equal(t, 51, ruleTreeGenerator{}.MinBars(ruleSpec(tree)))
	assert.Equal(t, 1, ruleTreeGenerator{}.MinBars(types.StrategySpec{Slug: "custom"}))
}
