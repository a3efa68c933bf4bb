package strategy

import (
	"github.com/tradeforge/stratsim/internal/indicator"
	"github.com/tradeforge/stratsim/internal/types"
	"github.com/tradeforge/stratsim/pkg/errors"
)

// ruleTreeGenerator interprets a user-authored rule tree. Rules within a
// group combine element-wise with the group's logic; groups combine with the
// tree's top-level logic. Missing history (NaN) always evaluates to false.
type ruleTreeGenerator struct{}

// RuleTreeParams documents the custom strategy schema: the parameters are the
// embedded rule tree itself.
type RuleTreeParams struct {
	Rules types.RuleTree `json:"rules" jsonschema:"title=Rule tree"`
}

func (ruleTreeGenerator) Generate(candles []types.Candle, spec types.StrategySpec) (SignalSeries, error) {
	if err := requireCandles(candles); err != nil {
		return SignalSeries{}, err
	}

	if err := spec.Rules.Validate(); err != nil {
		return SignalSeries{}, err
	}

	buy, err := evaluateSide(candles, spec.Rules.Buy, spec.Rules.BuyLogic)
	if err != nil {
		return SignalSeries{}, err
	}

	sell, err := evaluateSide(candles, spec.Rules.Sell, spec.Rules.SellLogic)
	if err != nil {
		return SignalSeries{}, err
	}

	return SignalSeries{Buy: buy, Sell: sell}, nil
}

func (ruleTreeGenerator) MinBars(spec types.StrategySpec) int {
	if spec.Rules == nil {
		return 1
	}

	maxPeriod := 0

	for _, side := range [][]types.RuleGroup{spec.Rules.Buy, spec.Rules.Sell} {
		for _, group := range side {
			for _, rule := range group.Rules {
				if rule.Period > maxPeriod {
					maxPeriod = rule.Period
				}

				if rule.ValueType == types.ValueTypeIndicator && rule.ValuePeriod > maxPeriod {
					maxPeriod = rule.ValuePeriod
				}
			}
		}
	}

	return maxPeriod + 1
}

// evaluateSide combines rule groups for one side of the tree. A side with no
// groups evaluates to all-false, never "always true".
func evaluateSide(candles []types.Candle, groups []types.RuleGroup, logic types.Logic) ([]bool, error) {
	out := make([]bool, len(candles))
	if len(groups) == 0 {
		return out, nil
	}

	if logic == "" {
		logic = types.LogicAnd
	}

	first := true

	for _, group := range groups {
		groupSeries, err := evaluateGroup(candles, group)
		if err != nil {
			return nil, err
		}

		if first {
			copy(out, groupSeries)

			first = false

			continue
		}

		for i := range out {
			if logic == types.LogicAnd {
				out[i] = out[i] && groupSeries[i]
			} else {
				out[i] = out[i] || groupSeries[i]
			}
		}
	}

	return out, nil
}

func evaluateGroup(candles []types.Candle, group types.RuleGroup) ([]bool, error) {
	out := make([]bool, len(candles))
	if len(group.Rules) == 0 {
		return out, nil
	}

	first := true

	for _, rule := range group.Rules {
		ruleSeries, err := evaluateRule(candles, rule)
		if err != nil {
			return nil, err
		}

		if first {
			copy(out, ruleSeries)

			first = false

			continue
		}

		for i := range out {
			if group.Logic == types.LogicAnd {
				out[i] = out[i] && ruleSeries[i]
			} else {
				out[i] = out[i] || ruleSeries[i]
			}
		}
	}

	return out, nil
}

// evaluateRule computes the boolean series for a single rule. The left side
// is always an indicator series; the right side is either a constant
// (broadcast over the series) or a second indicator series.
func evaluateRule(candles []types.Candle, rule types.Rule) ([]bool, error) {
	lhs, err := indicator.Compute(indicator.Kind(rule.Indicator), candles, rule.Period)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidRuleTree, err, "rule indicator %q", rule.Indicator)
	}

	var rhs []float64

	if rule.ValueType == types.ValueTypeIndicator {
		rhs, err = indicator.Compute(indicator.Kind(rule.ValueIndicator), candles, rule.ValuePeriod)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidRuleTree, err, "rule value indicator %q", rule.ValueIndicator)
		}
	} else {
		rhs = make([]float64, len(candles))
		for i := range rhs {
			rhs[i] = rule.Value
		}
	}

	out := make([]bool, len(candles))

	for i := range candles {
		if !indicator.Valid(lhs[i]) || !indicator.Valid(rhs[i]) {
			continue
		}

		switch rule.Operator {
		case types.OpLessThan:
			out[i] = lhs[i] < rhs[i]
		case types.OpGreaterThan:
			out[i] = lhs[i] > rhs[i]
		case types.OpLessOrEqual:
			out[i] = lhs[i] <= rhs[i]
		case types.OpGreaterOrEqual:
			out[i] = lhs[i] >= rhs[i]
		case types.OpEqual:
			out[i] = lhs[i] == rhs[i]
		case types.OpCrossUp:
			out[i] = crossesAt(lhs, rhs, i, true)
		case types.OpCrossDown:
			out[i] = crossesAt(lhs, rhs, i, false)
		}
	}

	return out, nil
}

// crossesAt reports a sign change of lhs-rhs between bar i-1 and bar i. Both
// bars must carry real values; warmup NaN never produces a cross.
func crossesAt(lhs, rhs []float64, i int, up bool) bool {
	if i == 0 {
		return false
	}

	if !indicator.Valid(lhs[i-1]) || !indicator.Valid(rhs[i-1]) || !indicator.Valid(lhs[i]) || !indicator.Valid(rhs[i]) {
		return false
	}

	if up {
		return lhs[i-1] <= rhs[i-1] && lhs[i] > rhs[i]
	}

	return lhs[i-1] >= rhs[i-1] && lhs[i] < rhs[i]
}
