package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/tradeforge/stratsim/internal/datasource"
	"github.com/tradeforge/stratsim/internal/engine"
	"github.com/tradeforge/stratsim/internal/logger"
	"github.com/tradeforge/stratsim/internal/simulator"
)

// optimizeConfig is the YAML file layout for one grid search.
type optimizeConfig struct {
	Grid       engine.Grid      `yaml:"grid"`
	Simulation simulator.Config `yaml:"simulation"`
}

func optimizeAction(ctx context.Context, cmd *cli.Command) error {
	raw, err := os.ReadFile(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	var cfg optimizeConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Simulation.InitialBalance == 0 {
		cfg.Simulation = simulator.DefaultConfig(10000)
	}

	zlog, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer zlog.Sync()

	source, err := datasource.NewDuckDBSource(cmd.String("data"), zlog)
	if err != nil {
		return err
	}
	defer source.Close()

	candles, err := source.Load(optional.None[time.Time](), optional.None[time.Time]())
	if err != nil {
		return err
	}

	eng := engine.New(zlog)
	opt := engine.NewOptimizer(eng, cmd.Int("workers"))

	total := gridSize(cfg.Grid)
	bar := progressbar.Default(int64(total))
	bar.Describe(fmt.Sprintf("Optimizing %s", cfg.Grid.Slug))

	opt.OnProgress = func() {
		_ = bar.Add(1)
	}

	started := time.Now()

	results, err := opt.Run(ctx, candles, cfg.Grid, cfg.Simulation)
	if err != nil {
		return err
	}

	_ = bar.Finish()

	fmt.Printf("\nEvaluated %d combinations in %s\n\n", len(results), time.Since(started).Round(time.Millisecond))
	printTop(results, cfg.Grid, cmd.Int("top"))

	return nil
}

func gridSize(grid engine.Grid) int {
	total := 1
	for _, r := range grid.Ranges {
		total *= len(r.Values)
	}

	return total
}

func printTop(results []engine.Combination, grid engine.Grid, top int) {
	if top <= 0 || top > len(results) {
		top = len(results)
	}

	paramNames := make([]string, 0, len(grid.Ranges))
	for _, r := range grid.Ranges {
		paramNames = append(paramNames, r.Name)
	}

	sort.Strings(paramNames)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("#", "Params", "Score", "Trades", "Win rate", "Final balance", "Error")

	for i, combo := range results[:top] {
		params := formatParams(paramNames, combo.Params)

		if combo.Err != nil {
			table.Append(fmt.Sprintf("%d", i+1), params, "-", "-", "-", "-", combo.Err.Error())

			continue
		}

		m := combo.Result.Metrics
		table.Append(
			fmt.Sprintf("%d", i+1),
			params,
			fmt.Sprintf("%.3f", combo.Score),
			fmt.Sprintf("%d", m.TotalTrades),
			fmt.Sprintf("%.2f%%", m.WinRate),
			fmt.Sprintf("%.2f", m.FinalBalance),
			"",
		)
	}

	table.Render()
}

func formatParams(names []string, params map[string]float64) string {
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%g", name, params[name]))
	}

	return strings.Join(parts, " ")
}

func main() {
	cmd := &cli.Command{
		Name:  "optimize",
		Usage: "Grid-search strategy parameters over a candle file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the candle file (.csv or .parquet)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the grid YAML config",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Parallel workers (0 = number of CPUs)",
				Value: 0,
			},
			&cli.IntFlag{
				Name:  "top",
				Usage: "How many combinations to print",
				Value: 10,
			},
		},
		Action: optimizeAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
