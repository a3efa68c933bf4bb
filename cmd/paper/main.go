package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/moznion/go-optional"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/tradeforge/stratsim/internal/datasource"
	"github.com/tradeforge/stratsim/internal/engine"
	"github.com/tradeforge/stratsim/internal/logger"
	"github.com/tradeforge/stratsim/internal/paper"
)

const defaultDBPath = "paper.db"

func paperAction(ctx context.Context, cmd *cli.Command) error {
	// .env is optional; flags and real env take precedence.
	_ = godotenv.Load()

	dbPath := cmd.String("db")
	if dbPath == "" {
		dbPath = os.Getenv("PAPER_DB_PATH")
	}

	if dbPath == "" {
		dbPath = defaultDBPath
	}

	raw, err := os.ReadFile(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	var cfg paper.SessionConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	zlog, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer zlog.Sync()

	store, err := paper.NewSQLiteStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	source, err := datasource.NewDuckDBSource(cmd.String("data"), zlog)
	if err != nil {
		return err
	}
	defer source.Close()

	candles, err := source.Load(optional.None[time.Time](), optional.None[time.Time]())
	if err != nil {
		return err
	}

	manager := paper.NewSessionManager(store, engine.New(zlog), zlog)
	defer manager.StopAll()

	driver, err := manager.StartSession(ctx, cfg)
	if err != nil {
		return err
	}

	sessionID := driver.State().ID
	fmt.Printf("Paper session %s started: %s on %s, balance %.2f\n",
		sessionID, cfg.Strategy.Slug, cfg.Pair, cfg.InitialBalance)

	delay := cmd.Duration("delay")

	for _, candle := range candles {
		select {
		case <-ctx.Done():
			fmt.Println("\nInterrupted, stopping session...")

			return manager.StopSession(sessionID)
		default:
		}

		status, err := driver.OnCandle(ctx, candle)
		if err != nil {
			// One bad candle is reported and skipped; the session state is
			// untouched and the replay continues.
			zlog.Warn("candle processing failed",
				zap.Int64("time", candle.Time),
				zap.Error(err),
			)

			continue
		}

		if status == paper.StatusBought || status == paper.StatusSold {
			state := driver.State()
			fmt.Printf("[%s] %s close=%.4f balance=%.2f\n",
				time.Unix(candle.Time, 0).UTC().Format("2006-01-02 15:04"),
				status, candle.Close, state.Balance)
		}

		if delay > 0 {
			time.Sleep(delay)
		}
	}

	printSummary(ctx, store, sessionID)

	return manager.StopSession(sessionID)
}

func printSummary(ctx context.Context, store paper.Store, sessionID string) {
	state, err := store.GetSession(ctx, sessionID)
	if err != nil {
		return
	}

	trades, err := store.ListTrades(ctx, sessionID)
	if err != nil {
		return
	}

	fmt.Printf("\nSession %s finished: %d trades, balance %.2f", sessionID, len(trades), state.Balance)

	if state.Position.IsOpen() {
		fmt.Printf(", open position %.2f @ %.4f", state.Position.Size, state.Position.EntryPrice)
	}

	fmt.Println()
}

func main() {
	cmd := &cli.Command{
		Name:  "paper",
		Usage: "Replay a candle file through a persisted paper-trading session",
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
				Usage:    "Path to the session YAML config",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Path to the sqlite session store (default $PAPER_DB_PATH or paper.db)",
			},
			&cli.DurationFlag{
				Name:  "delay",
				Usage: "Pause between replayed candles (e.g. 100ms) to simulate a live feed",
			},
		},
		Action: paperAction,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
