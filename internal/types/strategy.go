package types

import (
	"strings"

	"github.com/tradeforge/stratsim/pkg/errors"
)

// StrategySpec identifies a strategy and the parameters for one invocation.
// Custom strategies carry an embedded RuleTree instead of relying on a
// built-in slug.
type StrategySpec struct {
	Slug   string             `json:"slug" yaml:"slug" validate:"required"`
	Params map[string]float64 `json:"params,omitempty" yaml:"params,omitempty"`
	Rules  *RuleTree          `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// IsCustom reports whether the spec selects the rule-tree interpreter rather
// than a built-in generator.
func (s StrategySpec) IsCustom() bool {
	return s.Slug == "custom" || strings.HasPrefix(s.Slug, "custom_")
}

// Param returns the named parameter or the given default when absent.
func (s StrategySpec) Param(name string, def float64) float64 {
	if v, ok := s.Params[name]; ok {
		return v
	}

	return def
}

// IntParam returns the named parameter truncated to int, or the default.
func (s StrategySpec) IntParam(name string, def int) int {
	if v, ok := s.Params[name]; ok {
		return int(v)
	}

	return def
}

// Logic combines rules within a group or groups within a tree.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// Operator is a rule comparison operator. cross_up and cross_down compare the
// current-vs-previous relative position of the two sides (sign change test)
// rather than a plain threshold.
type Operator string

const (
	OpLessThan       Operator = "<"
	OpGreaterThan    Operator = ">"
	OpLessOrEqual    Operator = "<="
	OpGreaterOrEqual Operator = ">="
	OpEqual          Operator = "=="
	OpCrossUp        Operator = "cross_up"
	OpCrossDown      Operator = "cross_down"
)

// ValueType selects what the rule's left-hand indicator is compared against.
type ValueType string

const (
	ValueTypeConstant  ValueType = "constant"
	ValueTypeIndicator ValueType = "indicator"
)

// Rule is one comparison of an indicator series against a constant or a
// second indicator series.
type Rule struct {
	Indicator      string    `json:"indicator" yaml:"indicator"`
	Period         int       `json:"period" yaml:"period"`
	Operator       Operator  `json:"operator" yaml:"operator"`
	ValueType      ValueType `json:"value_type" yaml:"value_type"`
	Value          float64   `json:"value,omitempty" yaml:"value,omitempty"`
	ValueIndicator string    `json:"value_indicator,omitempty" yaml:"value_indicator,omitempty"`
	ValuePeriod    int       `json:"value_period,omitempty" yaml:"value_period,omitempty"`
}

// RuleGroup combines rules with a single logic connective.
type RuleGroup struct {
	Logic Logic  `json:"logic" yaml:"logic"`
	Rules []Rule `json:"rules" yaml:"rules"`
}

// RuleTree is a user-authored strategy: buy and sell rule groups combined by
// the top-level logic. A tree with no groups generates no signal, never
// "always true".
type RuleTree struct {
	Buy       []RuleGroup `json:"buy" yaml:"buy"`
	Sell      []RuleGroup `json:"sell" yaml:"sell"`
	BuyLogic  Logic       `json:"buy_logic" yaml:"buy_logic"`
	SellLogic Logic       `json:"sell_logic" yaml:"sell_logic"`
}

// Validate checks the structural invariants of a rule tree.
func (t *RuleTree) Validate() error {
	if t == nil {
		return errors.New(errors.ErrCodeMissingRuleTree, "custom strategy requires a rule tree")
	}

	for _, side := range [][]RuleGroup{t.Buy, t.Sell} {
		for _, group := range side {
			if group.Logic != LogicAnd && group.Logic != LogicOr {
				return errors.Newf(errors.ErrCodeInvalidRuleTree, "invalid group logic %q", group.Logic)
			}

			for _, rule := range group.Rules {
				if err := rule.validate(); err != nil {
					return err
				}
			}
		}
	}

	for _, logic := range []Logic{t.BuyLogic, t.SellLogic} {
		if logic != LogicAnd && logic != LogicOr && logic != "" {
			return errors.Newf(errors.ErrCodeInvalidRuleTree, "invalid tree logic %q", logic)
		}
	}

	return nil
}

func (r Rule) validate() error {
	switch r.Operator {
	case OpLessThan, OpGreaterThan, OpLessOrEqual, OpGreaterOrEqual, OpEqual, OpCrossUp, OpCrossDown:
	default:
		return errors.Newf(errors.ErrCodeInvalidRuleTree, "unknown operator %q", r.Operator)
	}

	switch r.ValueType {
	case ValueTypeConstant, ValueTypeIndicator:
	default:
		return errors.Newf(errors.ErrCodeInvalidRuleTree, "unknown value type %q", r.ValueType)
	}

	if r.Period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "rule period must be positive, got %d", r.Period)
	}

	if r.ValueType == ValueTypeIndicator && r.ValuePeriod <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "rule value period must be positive, got %d", r.ValuePeriod)
	}

	return nil
}
