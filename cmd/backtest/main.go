package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/moznion/go-optional"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/tradeforge/stratsim/internal/datasource"
	"github.com/tradeforge/stratsim/internal/engine"
	"github.com/tradeforge/stratsim/internal/logger"
	"github.com/tradeforge/stratsim/internal/metrics"
	"github.com/tradeforge/stratsim/internal/simulator"
	"github.com/tradeforge/stratsim/internal/types"
)

// backtestConfig is the YAML file layout for one backtest run.
type backtestConfig struct {
	Strategy   types.StrategySpec      `yaml:"strategy"`
	Simulation simulator.Config        `yaml:"simulation"`
	Challenge  *metrics.ChallengeRules `yaml:"challenge,omitempty"`
}

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	raw, err := os.ReadFile(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	var cfg backtestConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.Simulation = withDefaults(cfg.Simulation, cmd.Float64("balance"))

	if cmd.IsSet("fee") {
		cfg.Simulation.FeeRate = cmd.Float64("fee")
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

	candles, err := source.Load(timeRange(cmd))
	if err != nil {
		return err
	}

	eng := engine.New(zlog)

	result, err := eng.RunBacktest(candles, cfg.Strategy, cfg.Simulation)
	if err != nil {
		return err
	}

	printReport(cfg.Strategy.Slug, result)

	if cmd.Bool("trades") {
		printTrades(result.Trades)
	}

	if cfg.Challenge != nil {
		printChallenge(metrics.Validate(result.Metrics, *cfg.Challenge))
	}

	return nil
}

// withDefaults fills only the zero-valued simulation fields so a partial
// config section keeps what it sets. An entirely empty section gets the full
// default config, force close included.
func withDefaults(cfg simulator.Config, balance float64) simulator.Config {
	if cfg == (simulator.Config{}) {
		return simulator.DefaultConfig(balance)
	}

	if cfg.InitialBalance == 0 {
		cfg.InitialBalance = balance
	}

	if cfg.Sizing == "" {
		cfg.Sizing = simulator.SizingCompounding
	}

	if cfg.SizeFraction == 0 {
		cfg.SizeFraction = 1.0
	}

	return cfg
}

func timeRange(cmd *cli.Command) (optional.Option[time.Time], optional.Option[time.Time]) {
	start := optional.None[time.Time]()
	if cmd.IsSet("start") {
		start = optional.Some(cmd.Timestamp("start"))
	}

	end := optional.None[time.Time]()
	if cmd.IsSet("end") {
		end = optional.Some(cmd.Timestamp("end"))
	}

	return start, end
}

func printReport(slug string, result *engine.Result) {
	m := result.Metrics

	fmt.Printf("\nBacktest report for %s\n\n", slug)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Metric", "Value")
	table.Append("Total trades", fmt.Sprintf("%d", m.TotalTrades))
	table.Append("Winning / losing", fmt.Sprintf("%d / %d", m.WinningTrades, m.LosingTrades))
	table.Append("Win rate", fmt.Sprintf("%.2f%%", m.WinRate))
	table.Append("Profit factor", fmt.Sprintf("%.3f", m.ProfitFactor))
	table.Append("Total PnL", fmt.Sprintf("%.2f", m.TotalPnL))
	table.Append("Total fees", fmt.Sprintf("%.2f", m.TotalFees))
	table.Append("Final balance", fmt.Sprintf("%.2f", m.FinalBalance))
	table.Append("Profit", fmt.Sprintf("%.2f%%", m.ProfitPct))
	table.Append("Max drawdown", fmt.Sprintf("%.2f%%", m.MaxDrawdownPct))
	table.Append("Max daily loss", fmt.Sprintf("%.2f%%", m.MaxDailyLossPct))
	table.Append("Trading days", fmt.Sprintf("%d", m.TradingDays))
	table.Append("End state", string(result.EndState))
	table.Render()
}

func printTrades(trades []types.Trade) {
	fmt.Println("\nTrade ledger")

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("#", "Entry", "Exit", "Size", "PnL", "PnL %", "Fees", "Status")

	for _, t := range trades {
		table.Append(
			fmt.Sprintf("%d", t.ID),
			fmt.Sprintf("%.4f @ %s", t.EntryPrice, formatTime(t.EntryTime)),
			fmt.Sprintf("%.4f @ %s", t.ExitPrice, formatTime(t.ExitTime)),
			fmt.Sprintf("%.2f", t.Size),
			fmt.Sprintf("%.2f", t.PnL),
			fmt.Sprintf("%.2f%%", t.PnLPct),
			fmt.Sprintf("%.4f", t.FeePaid),
			string(t.Status),
		)
	}

	table.Render()
}

func printChallenge(result metrics.ChallengeResult) {
	fmt.Println("\nChallenge evaluation")

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Rule", "Target", "Actual", "Verdict")

	for _, r := range result.Rules {
		verdict := "PASS"
		if !r.Passed {
			verdict = "FAIL"
		}

		table.Append(r.Name, fmt.Sprintf("%.2f", r.Target), fmt.Sprintf("%.2f", r.Actual), verdict)
	}

	table.Render()

	if result.Passed {
		fmt.Println("\nOverall: PASSED")
	} else {
		fmt.Println("\nOverall: FAILED")
	}
}

func formatTime(unix int64) string {
	if unix == 0 {
		return "-"
	}

	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04")
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Run one strategy backtest over a candle file and print the report",
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
				Usage:    "Path to the backtest YAML config (strategy + simulation)",
				Required: true,
			},
			&cli.Float64Flag{
				Name:  "balance",
				Usage: "Initial balance when the config omits a simulation section",
				Value: 10000,
			},
			&cli.Float64Flag{
				Name:  "fee",
				Usage: "Per-side fee rate override (e.g. 0.001)",
			},
			&cli.BoolFlag{
				Name:  "trades",
				Usage: "Print the full trade ledger",
			},
			&cli.TimestampFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "Start date in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
