package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/arima"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/autoarima"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/backtest"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/calendar"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/impute"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/risk"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/rolling"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/timeseries"
)

// Per-series outcomes recorded in SeriesResult.Err.
var (
	ErrNoOrder     = errors.New("pipeline: no order could be fitted")
	ErrNoForecasts = errors.New("pipeline: no forecasts produced")
)

// Stage names reported to Metrics.
const (
	StagePrepare  = "prepare"
	StageSearch   = "search"
	StageForecast = "forecast"
	StageBacktest = "backtest"
)

// Config controls a run.
type Config struct {
	Columns         []string          // Columns to process; empty means all
	Search          *autoarima.Config // Order search settings
	MinObservations int               // History needed to impute a gap
	Window          int               // Initial walk-forward window
	Mode            rolling.Mode      // Expanding or sliding window
	Horizon         int               // Out-of-sample forecast steps
	RecentDays      int               // Trailing prices reported per series
	Workers         int               // Concurrent fits per stage
	Backtest        backtest.Config
}

// DefaultConfig returns the settings used for daily equity data.
func DefaultConfig() Config {
	return Config{
		Search:          autoarima.DefaultConfig(),
		MinObservations: impute.DefaultMinObservations,
		Window:          100,
		Mode:            rolling.Expanding,
		Horizon:         5,
		RecentDays:      5,
		Backtest:        backtest.DefaultConfig(),
	}
}

// Metrics receives run telemetry.
type Metrics interface {
	ObserveStage(stage string, d time.Duration)
	GapsImputed(series string, filled, unresolved int)
	SeriesCompleted(series string, err error)
	SetRisk(series string, m risk.Metrics)
}

type nopMetrics struct{}

func (nopMetrics) ObserveStage(string, time.Duration) {}
func (nopMetrics) GapsImputed(string, int, int)       {}
func (nopMetrics) SeriesCompleted(string, error)      {}
func (nopMetrics) SetRisk(string, risk.Metrics)       {}

// Runner executes runs against one calendar.
type Runner struct {
	cfg     Config
	cal     *calendar.Calendar
	log     zerolog.Logger
	metrics Metrics
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithMetrics sets the telemetry sink.
func WithMetrics(m Metrics) Option {
	return func(r *Runner) {
		if m != nil {
			r.metrics = m
		}
	}
}

// New creates a Runner.
func New(cfg Config, cal *calendar.Calendar, opts ...Option) *Runner {
	if cfg.Search == nil {
		cfg.Search = autoarima.DefaultConfig()
	}
	r := &Runner{cfg: cfg, cal: cal, log: zerolog.Nop(), metrics: nopMetrics{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GapSummary records imputation for one column.
type GapSummary struct {
	Name       string
	Filled     int
	Unresolved []time.Time
}

// Prepared is a calendar-aligned, imputed frame.
type Prepared struct {
	Frame       *timeseries.Frame
	Gaps        []GapSummary
	DroppedRows int // input rows on non-trading days
}

// Prepare validates the frame, aligns it to the calendar and imputes gaps
// in every selected column concurrently. A malformed index is returned as
// timeseries.ErrDataShape.
func (r *Runner) Prepare(ctx context.Context, frame *timeseries.Frame) (*Prepared, error) {
	started := time.Now()
	defer func() { r.metrics.ObserveStage(StagePrepare, time.Since(started)) }()

	if err := frame.Validate(); err != nil {
		return nil, err
	}
	selected, err := r.selectColumns(frame)
	if err != nil {
		return nil, err
	}

	aligned, dropped, err := selected.Reindex(r.cal)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		r.log.Warn().Int("rows", dropped).Msg("dropped rows dated on non-trading days")
	}

	// Columns impute in parallel, so each one searches with its share of
	// the worker budget.
	workers := r.workers()
	search := r.searchConfig()
	search.Workers = max(1, workers/max(1, len(aligned.Columns)))
	imputer := &impute.Imputer{
		Search:          search,
		MinObservations: r.cfg.MinObservations,
		Logger:          &r.log,
	}

	columns := make([]*timeseries.Series, len(aligned.Columns))
	gaps := make([]GapSummary, len(aligned.Columns))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, col := range aligned.Columns {
		i, col := i, col
		g.Go(func() error {
			filled, report, err := imputer.FillGaps(gctx, col)
			if err != nil {
				return err
			}
			columns[i] = filled
			gaps[i] = GapSummary{
				Name:       col.Name,
				Filled:     len(report.Filled),
				Unresolved: report.UnresolvedDates(col),
			}
			r.metrics.GapsImputed(col.Name, len(report.Filled), len(report.Unresolved))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Prepared{
		Frame:       &timeseries.Frame{Index: aligned.Index, Columns: columns},
		Gaps:        gaps,
		DroppedRows: dropped,
	}, nil
}

func (r *Runner) selectColumns(frame *timeseries.Frame) (*timeseries.Frame, error) {
	if len(r.cfg.Columns) == 0 {
		return frame, nil
	}
	out := &timeseries.Frame{Index: frame.Index}
	for _, name := range r.cfg.Columns {
		col := frame.Column(name)
		if col == nil {
			return nil, fmt.Errorf("%w: no column %q", timeseries.ErrDataShape, name)
		}
		out.Columns = append(out.Columns, col)
	}
	return out, nil
}

func (r *Runner) searchConfig() *autoarima.Config {
	cfg := *r.cfg.Search
	if cfg.Workers == 0 {
		cfg.Workers = r.cfg.Workers
	}
	cfg.Logger = &r.log
	return &cfg
}

func (r *Runner) workers() int {
	if r.cfg.Workers > 0 {
		return r.cfg.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// SeriesResult is the outcome for one column. When Err is set the later
// fields may be empty.
type SeriesResult struct {
	Name          string
	Order         *arima.Order
	Score         float64
	Differencing  int
	Candidates    int // candidate orders fitted successfully
	Diagnostics   *arima.Summary
	Gaps          GapSummary
	InSample      *timeseries.Series
	FailedWindows int
	Future        *timeseries.Series
	FutureReturns *timeseries.Series
	Backtest      *backtest.Result
	Metrics       risk.Metrics
	RecentPrices  *timeseries.Series
	RecentReturns *timeseries.Series
	Err           error
}

// Viable reports whether the series produced a backtest.
func (s *SeriesResult) Viable() bool {
	return s.Err == nil && s.Backtest != nil
}

// Report is the outcome of a run, one entry per column in input order.
type Report struct {
	StartedAt   time.Time
	Duration    time.Duration
	Rows        int
	DroppedRows int
	Series      []*SeriesResult
}

// Viable returns the series that produced a backtest.
func (r *Report) Viable() []*SeriesResult {
	var out []*SeriesResult
	for _, s := range r.Series {
		if s.Viable() {
			out = append(out, s)
		}
	}
	return out
}

// Empty reports whether no series produced a backtest.
func (r *Report) Empty() bool {
	return len(r.Viable()) == 0
}

// Run prepares frame and runs every column through search, forecasting and
// backtesting. Per-series failures land in SeriesResult.Err; the returned
// error is reserved for malformed input and cancellation.
func (r *Runner) Run(ctx context.Context, frame *timeseries.Frame) (*Report, error) {
	report := &Report{StartedAt: time.Now()}

	prepared, err := r.Prepare(ctx, frame)
	if err != nil {
		return nil, err
	}
	report.Rows = prepared.Frame.Len()
	report.DroppedRows = prepared.DroppedRows

	series := make([]*timeseries.Series, len(prepared.Frame.Columns))
	for i, col := range prepared.Frame.Columns {
		series[i] = col.TrimLeadingMissing()
	}

	started := time.Now()
	fitting := make([]*timeseries.Series, len(series))
	for i, s := range series {
		fitting[i] = s.DropMissing()
	}
	searches, err := autoarima.SelectOrders(ctx, fitting, r.searchConfig())
	if err != nil {
		return nil, err
	}
	r.metrics.ObserveStage(StageSearch, time.Since(started))

	for i, s := range series {
		res, err := r.runSeries(ctx, s, searches[i])
		if err != nil {
			return nil, err
		}
		res.Gaps = prepared.Gaps[i]
		report.Series = append(report.Series, res)
		r.metrics.SeriesCompleted(res.Name, res.Err)
	}

	report.Duration = time.Since(report.StartedAt)
	r.log.Info().Int("series", len(report.Series)).Int("viable", len(report.Viable())).
		Dur("took", report.Duration).Msg("run complete")
	return report, nil
}

func (r *Runner) runSeries(ctx context.Context, s *timeseries.Series, search *autoarima.Result) (*SeriesResult, error) {
	res := &SeriesResult{
		Name:         s.Name,
		Score:        math.NaN(),
		Differencing: search.Differencing,
		Candidates:   search.Evaluated(),
		Metrics:      risk.Compute(nil, 0),
	}
	log := r.log.With().Str("series", s.Name).Logger()

	if !search.Selected() {
		res.Err = ErrNoOrder
		log.Warn().Int("candidates", len(search.Attempts)).Msg("no order could be fitted; series skipped")
		return res, nil
	}
	res.Order = search.Order
	res.Score = search.Score
	if m, ok := search.Model.(*arima.Model); ok {
		res.Diagnostics = m.Summary()
	}
	log.Info().Stringer("order", search.Order).Float64("score", search.Score).Msg("order selected")

	started := time.Now()
	forecaster := &rolling.Forecaster{
		Order:   *search.Order,
		Window:  r.cfg.Window,
		Mode:    r.cfg.Mode,
		Workers: r.cfg.Workers,
		Fitter:  r.cfg.Search.Fitter,
		Logger:  &log,
	}
	inSample, rollReport, err := forecaster.Forecast(ctx, s)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		res.Err = fmt.Errorf("%w: %v", ErrNoForecasts, err)
		return res, nil
	}
	res.InSample = inSample
	res.FailedWindows = len(rollReport.Failed)
	if inSample.Len() == 0 || len(rollReport.Failed) == inSample.Len() {
		res.Err = ErrNoForecasts
		log.Warn().Int("length", s.Len()).Int("window", r.cfg.Window).Msg("no in-sample forecasts; series skipped")
		return res, nil
	}

	if r.cfg.Horizon > 0 {
		future, err := forecaster.Future(ctx, s.DropMissing(), r.cfg.Horizon, r.cal)
		switch {
		case err == nil:
			res.Future = future
			res.FutureReturns = backtest.FutureReturns(future)
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			log.Warn().Err(err).Msg("future forecast failed")
		}
	}
	r.metrics.ObserveStage(StageForecast, time.Since(started))

	started = time.Now()
	bt, err := backtest.Run(s, inSample, r.cfg.Backtest)
	if err != nil {
		res.Err = err
		return res, nil
	}
	res.Backtest = bt
	res.Metrics = risk.Compute(bt.Cumulative.Values, r.cfg.Backtest.PeriodsPerYear)
	r.metrics.SetRisk(s.Name, res.Metrics)
	r.metrics.ObserveStage(StageBacktest, time.Since(started))

	if r.cfg.RecentDays > 0 {
		res.RecentPrices, res.RecentReturns = backtest.Recent(s, r.cfg.RecentDays)
	}
	if !res.Metrics.SharpeDefined() {
		log.Info().Msg("sharpe ratio undefined: returns are flat")
	}
	return res, nil
}
