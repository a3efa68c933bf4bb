package strategy

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/tradeforge/stratsim/internal/types"
	"github.com/tradeforge/stratsim/pkg/errors"
)

// Descriptor is the metadata published for one strategy: its slug and the
// JSON schema of its parameters. Consumed by API/UI layers outside the core.
type Descriptor struct {
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ParamSchema string `json:"param_schema"`
}

type registration struct {
	generator   Generator
	description string
	params      any
}

// Registry resolves strategy slugs to signal generators. It owns the static
// table of built-ins plus the rule-tree interpreter for custom specs.
type Registry struct {
	mu       sync.RWMutex
	builtins map[string]registration
}

// NewRegistry creates a registry pre-loaded with all built-in strategies.
func NewRegistry() *Registry {
	r := &Registry{
		mu:       sync.RWMutex{},
		builtins: make(map[string]registration),
	}

	r.register("rsi_reversal", "Buy oversold, sell overbought by Wilder RSI", rsiReversal{}, RSIReversalParams{})
	r.register("golden_cross", "Fast EMA above/below slow EMA", goldenCross{}, GoldenCrossParams{})
	r.register("macd_crossover", "MACD line against its signal line", macdCrossover{}, MACDCrossoverParams{})
	r.register("bollinger_bounce", "Fade touches of the Bollinger bands", bollingerBounce{}, BollingerBounceParams{})
	r.register("trend_following", "Close above EMA with a volume surge", trendFollowing{}, TrendFollowingParams{})
	r.register("stochastic_rsi", "Stochastic %K oversold/overbought levels", stochasticRSI{}, StochasticRSIParams{})
	r.register("donchian_breakout", "Breakout of the prior-bar Donchian channel", donchianBreakout{}, DonchianBreakoutParams{})
	r.register("ema_rsi_combo", "EMA cross gated by an RSI strength filter", emaRSICombo{}, EMARSIComboParams{})
	r.register("macd_rsi_combo", "MACD cross gated by an RSI confirmation", macdRSICombo{}, MACDRSIComboParams{})
	r.register("volume_breakout", "Volume surge with a price jump", volumeBreakout{}, VolumeBreakoutParams{})

	return r
}

func (r *Registry) register(slug, description string, gen Generator, params any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.builtins[slug] = registration{
		generator:   gen,
		description: description,
		params:      params,
	}
}

// Resolve maps a strategy spec to its signal generator. Custom specs resolve
// to the rule-tree interpreter; the rule tree itself must be present. An
// unknown slug is an explicit error so callers can distinguish "doesn't
// exist" from "generates nothing".
func (r *Registry) Resolve(spec types.StrategySpec) (Generator, error) {
	if spec.IsCustom() {
		if spec.Rules == nil {
			return nil, errors.New(errors.ErrCodeMissingRuleTree, "custom strategy requires a rule tree")
		}

		return ruleTreeGenerator{}, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.builtins[spec.Slug]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeStrategyNotFound, "unknown strategy %q", spec.Slug)
	}

	return reg.generator, nil
}

// Get returns the descriptor for a single slug.
func (r *Registry) Get(slug string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.builtins[slug]
	if !ok {
		return Descriptor{}, errors.Newf(errors.ErrCodeStrategyNotFound, "unknown strategy %q", slug)
	}

	return describe(slug, reg)
}

// List returns descriptors for every built-in strategy plus the custom
// rule-tree entry, sorted by slug.
func (r *Registry) List() ([]Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.builtins)+1)

	for slug, reg := range r.builtins {
		desc, err := describe(slug, reg)
		if err != nil {
			return nil, err
		}

		out = append(out, desc)
	}

	custom, err := describe("custom", registration{
		generator:   ruleTreeGenerator{},
		description: "User-authored rule tree",
		params:      RuleTreeParams{},
	})
	if err != nil {
		return nil, err
	}

	out = append(out, custom)

	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })

	return out, nil
}

func describe(slug string, reg registration) (Descriptor, error) {
	reflector := new(jsonschema.Reflector)
	reflector.DoNotReference = true

	schemaBytes, err := json.Marshal(reflector.Reflect(reg.params))
	if err != nil {
		return Descriptor{}, errors.Wrapf(errors.ErrCodeUnknown, err, "failed to build schema for %q", slug)
	}

	return Descriptor{
		Slug:        slug,
		Description: reg.description,
		ParamSchema: string(schemaBytes),
	}, nil
}
