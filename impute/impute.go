package impute

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/autoarima"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/timeseries"
)

// DefaultMinObservations is the shortest history used to impute a gap.
const DefaultMinObservations = 10

// Imputer fills gaps in a series. The zero value searches with
// autoarima.DefaultConfig and needs DefaultMinObservations points.
type Imputer struct {
	Search          *autoarima.Config
	MinObservations int
	Logger          *zerolog.Logger
}

// Report lists what happened to each missing position, by index.
type Report struct {
	Filled     []int
	Unresolved []int
}

// Complete reports whether every gap was filled.
func (r *Report) Complete() bool {
	return len(r.Unresolved) == 0
}

// UnresolvedDates returns the timestamps of unresolved gaps in s.
func (r *Report) UnresolvedDates(s *timeseries.Series) []time.Time {
	if !s.Indexed() {
		return nil
	}
	out := make([]time.Time, 0, len(r.Unresolved))
	for _, i := range r.Unresolved {
		out = append(out, s.Timestamps[i])
	}
	return out
}

// FillGaps returns a copy of s with missing values replaced by forecasts.
//
// Gaps are visited in ascending order. Each is forecast from the contiguous
// run of present values that ends right before it, so a value imputed for
// one gap can train the next. A gap whose run is shorter than
// MinObservations, or for which no order fits, stays NaN. Present values are
// never changed. The only error is context cancellation.
func (im *Imputer) FillGaps(ctx context.Context, s *timeseries.Series) (*timeseries.Series, *Report, error) {
	out := s.Copy()
	report := &Report{}
	minObs := im.MinObservations
	if minObs <= 0 {
		minObs = DefaultMinObservations
	}
	log := im.logger()

	for i, v := range out.Values {
		if !math.IsNaN(v) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		start := i
		for start > 0 && !math.IsNaN(out.Values[start-1]) {
			start--
		}
		if i-start < minObs {
			report.Unresolved = append(report.Unresolved, i)
			log.Debug().Str("series", s.Name).Int("index", i).Int("history", i-start).
				Msg("gap left unresolved: history too short")
			continue
		}

		value, ok, err := im.forecast(ctx, out.Slice(start, i))
		if err != nil {
			return nil, nil, fmt.Errorf("impute %s at %d: %w", s.Name, i, err)
		}
		if !ok {
			report.Unresolved = append(report.Unresolved, i)
			log.Debug().Str("series", s.Name).Int("index", i).Msg("gap left unresolved: no model")
			continue
		}

		out.Values[i] = value
		report.Filled = append(report.Filled, i)
	}

	if len(report.Unresolved) > 0 {
		log.Warn().Str("series", s.Name).Int("unresolved", len(report.Unresolved)).
			Int("filled", len(report.Filled)).Msg("gaps remain after imputation")
	}
	return out, report, nil
}

func (im *Imputer) forecast(ctx context.Context, history *timeseries.Series) (float64, bool, error) {
	result, err := autoarima.Search(ctx, history, im.Search)
	if err != nil {
		return 0, false, err
	}
	if !result.Selected() {
		return 0, false, nil
	}

	f, err := result.Predict(1)
	if err != nil || len(f) == 0 || math.IsNaN(f[0]) || math.IsInf(f[0], 0) {
		return 0, false, nil
	}
	return f[0], true, nil
}

func (im *Imputer) logger() *zerolog.Logger {
	if im.Logger != nil {
		return im.Logger
	}
	nop := zerolog.Nop()
	return &nop
}
