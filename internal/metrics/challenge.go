package metrics

// ChallengeRules are fixed target thresholds in the style of funded-account
// challenges: minimum profit, capped drawdown and daily loss, and a minimum
// number of distinct trading days.
type ChallengeRules struct {
	MinProfitPct    float64 `yaml:"min_profit_pct" validate:"gte=0"`
	MaxDrawdownPct  float64 `yaml:"max_drawdown_pct" validate:"gt=0"`
	MaxDailyLossPct float64 `yaml:"max_daily_loss_pct" validate:"gt=0"`
	MinTradingDays  int     `yaml:"min_trading_days" validate:"gte=0"`
}

// RuleResult is the verdict for a single challenge rule.
type RuleResult struct {
	Name   string  `json:"name"`
	Target float64 `json:"target"`
	Actual float64 `json:"actual"`
	Passed bool    `json:"passed"`
}

// ChallengeResult aggregates per-rule verdicts with an overall boolean.
type ChallengeResult struct {
	Rules  []RuleResult `json:"rules"`
	Passed bool         `json:"passed"`
}

// Validate checks a report against the challenge rules.
func Validate(report Report, rules ChallengeRules) ChallengeResult {
	results := []RuleResult{
		{
			Name:   "profit",
			Target: rules.MinProfitPct,
			Actual: report.ProfitPct,
			Passed: report.ProfitPct >= rules.MinProfitPct,
		},
		{
			Name:   "drawdown",
			Target: rules.MaxDrawdownPct,
			Actual: report.MaxDrawdownPct,
			Passed: report.MaxDrawdownPct < rules.MaxDrawdownPct,
		},
		{
			Name:   "daily_loss",
			Target: rules.MaxDailyLossPct,
			Actual: report.MaxDailyLossPct,
			Passed: report.MaxDailyLossPct < rules.MaxDailyLossPct,
		},
		{
			Name:   "trading_days",
			Target: float64(rules.MinTradingDays),
			Actual: float64(report.TradingDays),
			Passed: report.TradingDays >= rules.MinTradingDays,
		},
	}

	passed := true
	for _, r := range results {
		if !r.Passed {
			passed = false
			break
		}
	}

	return ChallengeResult{
		Rules:  results,
		Passed: passed,
	}
}
