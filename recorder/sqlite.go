package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/pipeline"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/timeseries"
)

// Forecast kinds stored in the forecasts table.
const (
	KindInSample = "in_sample"
	KindFuture   = "future"
)

// SQLiteRecorder persists runs to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id           TEXT PRIMARY KEY,
			started_at   INTEGER NOT NULL,
			duration_ms  INTEGER,
			row_count    INTEGER,
			dropped_rows INTEGER,
			series_count INTEGER,
			viable_count INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS series_results (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id            TEXT NOT NULL REFERENCES runs(id),
			series            TEXT NOT NULL,
			model_order       TEXT,
			score             REAL,
			differencing      INTEGER,
			candidates        INTEGER,
			gaps_filled       INTEGER,
			gaps_unresolved   INTEGER,
			failed_windows    INTEGER,
			accuracy          REAL,
			final_return      REAL,
			sharpe            REAL,
			max_drawdown      REAL,
			annualized_return REAL,
			error             TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_series_run ON series_results(run_id)`,

		`CREATE TABLE IF NOT EXISTS forecasts (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id  TEXT NOT NULL REFERENCES runs(id),
			series  TEXT NOT NULL,
			kind    TEXT NOT NULL,
			date    INTEGER NOT NULL,
			value   REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_forecasts_run ON forecasts(run_id, series)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores the run header, one row per series and every forecast
// in a single transaction.
func (r *SQLiteRecorder) RecordRun(ctx context.Context, report *pipeline.Report) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(id, started_at, duration_ms, row_count, dropped_rows, series_count, viable_count)
		VALUES (?,?,?,?,?,?,?)`,
		id, report.StartedAt.Unix(), report.Duration.Milliseconds(),
		report.Rows, report.DroppedRows, len(report.Series), len(report.Viable()),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, s := range report.Series {
		if err := insertSeries(ctx, tx, id, s); err != nil {
			return "", fmt.Errorf("insert %s: %w", s.Name, err)
		}
		if err := insertForecasts(ctx, tx, id, s.Name, KindInSample, s.InSample); err != nil {
			return "", err
		}
		if err := insertForecasts(ctx, tx, id, s.Name, KindFuture, s.Future); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	r.log.Debug().Str("run", id).Int("series", len(report.Series)).Msg("run recorded")
	return id, nil
}

func insertSeries(ctx context.Context, tx *sql.Tx, runID string, s *pipeline.SeriesResult) error {
	var order, errText sql.NullString
	if s.Order != nil {
		order = sql.NullString{String: s.Order.String(), Valid: true}
	}
	if s.Err != nil {
		errText = sql.NullString{String: s.Err.Error(), Valid: true}
	}

	accuracy, final := sql.NullFloat64{}, sql.NullFloat64{}
	if s.Backtest != nil {
		accuracy = nullReal(s.Backtest.DirectionalAccuracy)
		final = nullReal(s.Backtest.FinalReturn())
	}

	_, err := tx.ExecContext(ctx, `INSERT INTO series_results
		(run_id, series, model_order, score, differencing, candidates,
		 gaps_filled, gaps_unresolved, failed_windows,
		 accuracy, final_return, sharpe, max_drawdown, annualized_return, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		runID, s.Name, order, nullReal(s.Score), s.Differencing, s.Candidates,
		s.Gaps.Filled, len(s.Gaps.Unresolved), s.FailedWindows,
		accuracy, final, nullReal(s.Metrics.Sharpe), nullReal(s.Metrics.MaxDrawdown),
		nullReal(s.Metrics.AnnualizedReturn), errText,
	)
	return err
}

func insertForecasts(ctx context.Context, tx *sql.Tx, runID, series, kind string, f *timeseries.Series) error {
	if f == nil || !f.Indexed() {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO forecasts
		(run_id, series, kind, date, value) VALUES (?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare forecasts: %w", err)
	}
	defer stmt.Close()

	for i, v := range f.Values {
		if _, err := stmt.ExecContext(ctx, runID, series, kind, f.Timestamps[i].Unix(), nullReal(v)); err != nil {
			return fmt.Errorf("insert %s forecast: %w", kind, err)
		}
	}
	return nil
}

// nullReal maps NaN and infinities to NULL.
func nullReal(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// Runs returns the most recent runs, newest first.
func (r *SQLiteRecorder) Runs(ctx context.Context, limit int) ([]Run, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, started_at, duration_ms, row_count, dropped_rows, series_count, viable_count
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			run        Run
			started    int64
			durationMS int64
		)
		if err := rows.Scan(&run.ID, &started, &durationMS, &run.Rows, &run.DroppedRows, &run.Series, &run.Viable); err != nil {
			return nil, err
		}
		run.StartedAt = time.Unix(started, 0).UTC()
		run.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, run)
	}
	return out, rows.Err()
}

// Forecasts returns the stored forecasts of one kind for a series in a run.
// NULL values load as NaN.
func (r *SQLiteRecorder) Forecasts(ctx context.Context, runID, series, kind string) (*timeseries.Series, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT date, value FROM forecasts
		WHERE run_id = ? AND series = ? AND kind = ? ORDER BY date`, runID, series, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		dates  []time.Time
		values []float64
	)
	for rows.Next() {
		var (
			date  int64
			value sql.NullFloat64
		)
		if err := rows.Scan(&date, &value); err != nil {
			return nil, err
		}
		dates = append(dates, time.Unix(date, 0).UTC())
		if value.Valid {
			values = append(values, value.Float64)
		} else {
			values = append(values, math.NaN())
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out, err := timeseries.NewWithTimestamps(dates, values)
	if err != nil {
		return nil, err
	}
	out.Name = series
	return out, nil
}

// Close closes the database.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
