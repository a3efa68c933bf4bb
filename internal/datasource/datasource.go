// Package datasource loads candle history for backtests. DuckDB reads CSV
// and Parquet files directly, so one loader covers both formats without a
// hand-written parser.
package datasource

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/tradeforge/stratsim/internal/logger"
	"github.com/tradeforge/stratsim/internal/types"
	"github.com/tradeforge/stratsim/pkg/errors"
)

// CandleSource loads ordered candle history from a market data file.
type CandleSource interface {
	// Load reads candles in the optional [start, end] time range, ordered by
	// time ascending. The result is validated: non-empty, strictly
	// increasing timestamps, finite prices.
	Load(start, end optional.Option[time.Time]) ([]types.Candle, error)
	// Count reports how many rows the range holds without materializing them.
	Count(start, end optional.Option[time.Time]) (int, error)
	Close() error
}

// DuckDBSource reads candles from a CSV or Parquet file through an in-memory
// DuckDB view.
type DuckDBSource struct {
	db  *sql.DB
	log *logger.Logger
	sq  squirrel.StatementBuilderType
}

// NewDuckDBSource opens an in-memory DuckDB instance and creates a candles
// view over the given file. The format is inferred from the extension
// (.csv or .parquet).
func NewDuckDBSource(path string, log *logger.Logger) (*DuckDBSource, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to open duckdb", err)
	}

	var reader string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		reader = fmt.Sprintf(`read_csv_auto('%s')`, path)
	case ".parquet":
		reader = fmt.Sprintf(`read_parquet('%s')`, path)
	default:
		db.Close()

		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"unsupported data file extension %q, want .csv or .parquet", filepath.Ext(path))
	}

	// CREATE VIEW is not expressible through squirrel; raw SQL here.
	if _, err := db.Exec(fmt.Sprintf(`CREATE VIEW candles AS SELECT * FROM %s;`, reader)); err != nil {
		db.Close()

		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to read %s", path)
	}

	log.Debug("duckdb candle view created", zap.String("path", path))

	return &DuckDBSource{
		db:  db,
		log: log,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Load implements CandleSource.
func (d *DuckDBSource) Load(start, end optional.Option[time.Time]) ([]types.Candle, error) {
	builder := d.sq.
		Select("time", "open", "high", "low", "close", "volume").
		From("candles").
		OrderBy("time ASC")

	builder = applyRange(builder, start, end)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query candles", err)
	}
	defer rows.Close()

	var candles []types.Candle

	for rows.Next() {
		candle, err := scanCandle(rows)
		if err != nil {
			return nil, err
		}

		candles = append(candles, candle)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating candles", err)
	}

	if err := types.ValidateCandles(candles); err != nil {
		return nil, err
	}

	d.reportGaps(candles)

	return candles, nil
}

// Count implements CandleSource.
func (d *DuckDBSource) Count(start, end optional.Option[time.Time]) (int, error) {
	builder := d.sq.Select("COUNT(*)").From("candles")
	builder = applyRange(builder, start, end)

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count candles", err)
	}

	return count, nil
}

// Close implements CandleSource.
func (d *DuckDBSource) Close() error {
	return d.db.Close()
}

func applyRange(builder squirrel.SelectBuilder, start, end optional.Option[time.Time]) squirrel.SelectBuilder {
	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"time": start.Unwrap().Unix()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"time": end.Unwrap().Unix()})
	}

	return builder
}

// reportGaps logs when the candle spacing jumps, which usually means missing
// bars in the source file. Gaps are reported, never repaired: interpolating
// prices would fabricate data the market never produced.
func (d *DuckDBSource) reportGaps(candles []types.Candle) {
	if len(candles) < 3 {
		return
	}

	step := candles[1].Time - candles[0].Time
	if step <= 0 {
		return
	}

	gaps := 0

	for i := 2; i < len(candles); i++ {
		if candles[i].Time-candles[i-1].Time > step {
			gaps++
		}
	}

	if gaps > 0 {
		d.log.Warn("candle series has gaps",
			zap.Int("gaps", gaps),
			zap.Int64("expected_step_seconds", step),
		)
	}
}

func scanCandle(rows *sql.Rows) (types.Candle, error) {
	var candle types.Candle

	// DuckDB surfaces a TIMESTAMP column as time.Time and an integer epoch
	// column as int64; accept either.
	var rawTime any

	err := rows.Scan(&rawTime, &candle.Open, &candle.High, &candle.Low, &candle.Close, &candle.Volume)
	if err != nil {
		return types.Candle{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan candle", err)
	}

	switch t := rawTime.(type) {
	case time.Time:
		candle.Time = t.Unix()
	case int64:
		candle.Time = t
	case float64:
		candle.Time = int64(t)
	default:
		return types.Candle{}, errors.Newf(errors.ErrCodeQueryFailed,
			"unsupported time column type %T", rawTime)
	}

	return candle, nil
}
