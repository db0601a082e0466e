package rolling

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/arima"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/timeseries"
)

// ErrMisaligned is returned when forecasts cannot be matched one-to-one
// with the dates they predict.
var ErrMisaligned = errors.New("rolling: forecast and index lengths differ")

// Mode selects the training window.
type Mode int

const (
	// Expanding trains on every observation before the forecast date.
	Expanding Mode = iota
	// Sliding trains on the Window observations before the forecast date.
	Sliding
)

func (m Mode) String() string {
	if m == Sliding {
		return "sliding"
	}
	return "expanding"
}

// ParseMode accepts "expanding" or "sliding"; empty means expanding.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "expanding":
		return Expanding, nil
	case "sliding":
		return Sliding, nil
	}
	return Expanding, fmt.Errorf("rolling: unknown mode %q", s)
}

// Calendar supplies the trading days after a date.
type Calendar interface {
	Next(t time.Time, n int) []time.Time
}

// Forecaster refits Order for every forecast. Each fit is independent, so
// the cost grows with the square of the series length; Fitter is the seam
// for an incremental strategy.
type Forecaster struct {
	Order   arima.Order
	Window  int
	Mode    Mode
	Workers int
	Fitter  arima.Fitter
	Logger  *zerolog.Logger
}

// Report lists output positions whose fit or forecast failed.
type Report struct {
	Failed []int
}

// Forecast returns one-step forecasts for positions Window..n-1 of s, indexed
// by the dates they predict. Failed positions hold NaN. A series no longer
// than Window yields an empty result.
func (f *Forecaster) Forecast(ctx context.Context, s *timeseries.Series) (*timeseries.Series, *Report, error) {
	if f.Window < 1 {
		return nil, nil, fmt.Errorf("rolling: window must be positive, got %d", f.Window)
	}

	n := s.Len()
	out := &timeseries.Series{Name: s.Name, Values: []float64{}}
	if s.Indexed() {
		out.Timestamps = []time.Time{}
	}
	if n <= f.Window {
		return out, &Report{}, nil
	}

	size := n - f.Window
	out.Values = make([]float64, size)
	if s.Indexed() {
		out.Timestamps = make([]time.Time, size)
		copy(out.Timestamps, s.Timestamps[f.Window:])
		if len(out.Timestamps) != len(out.Values) {
			return nil, nil, ErrMisaligned
		}
	}

	failed := make([]error, size)
	fitter := f.fitter()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers())
	for i := f.Window; i < n; i++ {
		i := i
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slot := i - f.Window
			v, err := f.oneStep(fitter, f.train(s, i))
			if err != nil {
				failed[slot] = err
				v = math.NaN()
			}
			out.Values[slot] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	report := &Report{}
	log := f.logger()
	for slot, err := range failed {
		if err == nil {
			continue
		}
		report.Failed = append(report.Failed, slot)
		log.Debug().Str("series", s.Name).Int("slot", slot).Err(err).Msg("window failed")
	}
	if len(report.Failed) > 0 {
		log.Warn().Str("series", s.Name).Stringer("order", f.Order).
			Int("failed", len(report.Failed)).Int("windows", size).Msg("rolling forecast incomplete")
	}
	return out, report, nil
}

// train returns the observations before position i that the fit at i sees.
// Missing values are dropped, so a gap left by imputation shortens the
// windows that contain it instead of failing them.
func (f *Forecaster) train(s *timeseries.Series, i int) *timeseries.Series {
	if f.Mode == Sliding {
		return s.Slice(i-f.Window, i).DropMissing()
	}
	return s.Slice(0, i).DropMissing()
}

func (f *Forecaster) oneStep(fitter arima.Fitter, train *timeseries.Series) (float64, error) {
	model, err := fitter.Fit(f.Order, train)
	if err != nil {
		return 0, err
	}
	pred, err := model.Predict(1)
	if err != nil {
		return 0, err
	}
	if len(pred) != 1 || math.IsNaN(pred[0]) || math.IsInf(pred[0], 0) {
		return 0, fmt.Errorf("%w: non-finite forecast", arima.ErrNotConverged)
	}
	return pred[0], nil
}

// Future fits Order once on all of s and forecasts h steps, indexed by the
// next h trading days of cal after the last observation.
func (f *Forecaster) Future(ctx context.Context, s *timeseries.Series, h int, cal Calendar) (*timeseries.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.Indexed() || s.Len() == 0 {
		return nil, fmt.Errorf("%w: series %s has no date index", ErrMisaligned, s.Name)
	}

	model, err := f.fitter().Fit(f.Order, s)
	if err != nil {
		return nil, fmt.Errorf("fit %s %s: %w", s.Name, f.Order, err)
	}
	values, err := model.Predict(h)
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", s.Name, err)
	}

	dates := cal.Next(s.Last(), h)
	if len(dates) != len(values) {
		return nil, fmt.Errorf("%w: %d forecasts for %d trading days", ErrMisaligned, len(values), len(dates))
	}
	out, err := timeseries.NewWithTimestamps(dates, values)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMisaligned, err)
	}
	out.Name = s.Name
	return out, nil
}

func (f *Forecaster) fitter() arima.Fitter {
	if f.Fitter != nil {
		return f.Fitter
	}
	return arima.DefaultFitter
}

func (f *Forecaster) workers() int {
	if f.Workers > 0 {
		return f.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (f *Forecaster) logger() *zerolog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	nop := zerolog.Nop()
	return &nop
}
