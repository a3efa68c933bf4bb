package engine

import (
	"context"
	"math"
	"runtime"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/tradeforge/stratsim/internal/simulator"
	"github.com/tradeforge/stratsim/internal/types"
	"github.com/tradeforge/stratsim/pkg/errors"
)

// Objective selects how grid-search results are ranked.
type Objective string

const (
	ObjectiveFinalBalance Objective = "final_balance"
	ObjectiveProfitFactor Objective = "profit_factor"
	ObjectiveWinRate      Objective = "win_rate"
	// ObjectiveCalmar ranks by profit over max drawdown, penalizing
	// combinations that earn their profit through deep swings.
	ObjectiveCalmar Objective = "calmar"
)

// ParamRange is one axis of the search grid.
type ParamRange struct {
	Name   string    `yaml:"name" validate:"required"`
	Values []float64 `yaml:"values" validate:"min=1"`
}

// Grid describes a full parameter sweep for one strategy.
type Grid struct {
	Slug      string       `yaml:"slug" validate:"required"`
	Ranges    []ParamRange `yaml:"ranges" validate:"min=1,dive"`
	Objective Objective    `yaml:"objective"`
}

// Combination is the outcome of one grid cell.
type Combination struct {
	Params map[string]float64
	Result *Result
	Score  float64
	Err    error
}

// Optimizer runs independent backtests across a parameter grid. Every
// combination gets its own simulator instance; nothing is shared between
// cells, so the grid may be evaluated in parallel.
type Optimizer struct {
	engine  *Engine
	workers int
	// OnProgress, when set, is called once per finished combination. The
	// CLI uses it to drive a progress bar.
	OnProgress func()
}

// NewOptimizer creates an optimizer backed by the given engine. If workers
// <= 0, the number of CPUs is used.
func NewOptimizer(eng *Engine, workers int) *Optimizer {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Optimizer{
		engine:     eng,
		workers:    workers,
		OnProgress: nil,
	}
}

// Run evaluates every combination of the grid and returns them sorted best
// first by the grid's objective. Combinations that fail keep their error and
// sort last.
func (o *Optimizer) Run(ctx context.Context, candles []types.Candle, grid Grid, cfg simulator.Config) ([]Combination, error) {
	if err := o.engine.validate.Struct(grid); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, "invalid optimizer grid", err)
	}

	if err := types.ValidateCandles(candles); err != nil {
		return nil, err
	}

	combos := expand(grid.Ranges)
	o.engine.log.Info("starting grid search",
		zap.String("strategy", grid.Slug),
		zap.Int("combinations", len(combos)),
		zap.Int("workers", o.workers),
	)

	workCh := make(chan map[string]float64, len(combos))
	resultCh := make(chan Combination, len(combos))

	var wg sync.WaitGroup

	for w := 0; w < o.workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for params := range workCh {
				select {
				case <-ctx.Done():
					return
				default:
				}

				resultCh <- o.runOne(candles, grid, params, cfg)

				if o.OnProgress != nil {
					o.OnProgress()
				}
			}
		}()
	}

	for _, params := range combos {
		workCh <- params
	}

	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]Combination, 0, len(combos))
	for combo := range resultCh {
		results = append(results, combo)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if (results[i].Err == nil) != (results[j].Err == nil) {
			return results[i].Err == nil
		}

		return results[i].Score > results[j].Score
	})

	return results, nil
}

// runOne executes one grid cell with its own simulator instance.
func (o *Optimizer) runOne(candles []types.Candle, grid Grid, params map[string]float64, cfg simulator.Config) Combination {
	spec := types.StrategySpec{
		Slug:   grid.Slug,
		Params: params,
		Rules:  nil,
	}

	result, err := o.engine.RunBacktest(candles, spec, cfg)
	if err != nil {
		return Combination{Params: params, Result: nil, Score: math.Inf(-1), Err: err}
	}

	return Combination{
		Params: params,
		Result: result,
		Score:  score(result, grid.Objective),
		Err:    nil,
	}
}

func score(result *Result, objective Objective) float64 {
	m := result.Metrics

	switch objective {
	case ObjectiveProfitFactor:
		return m.ProfitFactor
	case ObjectiveWinRate:
		return m.WinRate
	case ObjectiveCalmar:
		if m.MaxDrawdownPct == 0 {
			return m.ProfitPct
		}

		return m.ProfitPct / m.MaxDrawdownPct
	default:
		return m.FinalBalance
	}
}

// expand builds the cartesian product of all parameter ranges.
func expand(ranges []ParamRange) []map[string]float64 {
	combos := []map[string]float64{{}}

	for _, r := range ranges {
		next := make([]map[string]float64, 0, len(combos)*len(r.Values))

		for _, base := range combos {
			for _, v := range r.Values {
				params := make(map[string]float64, len(base)+1)
				for k, bv := range base {
					params[k] = bv
				}

				params[r.Name] = v
				next = append(next, params)
			}
		}

		combos = next
	}

	return combos
}
