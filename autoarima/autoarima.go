package autoarima

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/arima"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/timeseries"
)

// ErrNoModel is returned by Result.Predict when no candidate could be fitted.
var ErrNoModel = errors.New("autoarima: no model selected")

// Config holds configuration for the order search.
type Config struct {
	MaxP        int              // Maximum AR order (default: 3)
	MaxD        int              // Maximum differencing order (default: 2)
	MaxQ        int              // Maximum MA order (default: 3)
	JointD      bool             // Search d jointly with p and q instead of testing for it
	Criterion   arima.Criterion  // Information criterion to minimise (default: AIC)
	StationTest StationarityTest // Test used to pick d (default: "adf")
	Alpha       float64          // Significance level of the test (default: 0.05)
	Workers     int              // Concurrent fits (default: GOMAXPROCS)
	Fitter      arima.Fitter     // Model estimator (default: arima.DefaultFitter)
	Logger      *zerolog.Logger  // Optional; failed candidates are logged at debug
}

// DefaultConfig returns the fixed-d search over p, q in [0, 3].
func DefaultConfig() *Config {
	return &Config{
		MaxP:        3,
		MaxD:        2,
		MaxQ:        3,
		Criterion:   arima.AIC,
		StationTest: TestADF,
		Alpha:       0.05,
	}
}

// ExhaustiveConfig returns the joint search over p, d, q in [0, 2].
func ExhaustiveConfig() *Config {
	cfg := DefaultConfig()
	cfg.MaxP = 2
	cfg.MaxQ = 2
	cfg.JointD = true
	return cfg
}

func (c *Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (c *Config) fitter() arima.Fitter {
	if c.Fitter != nil {
		return c.Fitter
	}
	return arima.DefaultFitter
}

func (c *Config) alpha() float64 {
	if c.Alpha > 0 {
		return c.Alpha
	}
	return 0.05
}

func (c *Config) logger() *zerolog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	nop := zerolog.Nop()
	return &nop
}

// Candidates enumerates the orders to try in lexicographic (p, d, q) order.
// In fixed-d mode every candidate uses d; in joint mode d is ignored.
func Candidates(cfg *Config, d int) []arima.Order {
	dLo, dHi := d, d
	if cfg.JointD {
		dLo, dHi = 0, cfg.MaxD
	}

	var out []arima.Order
	for p := 0; p <= cfg.MaxP; p++ {
		for dd := dLo; dd <= dHi; dd++ {
			for q := 0; q <= cfg.MaxQ; q++ {
				out = append(out, arima.Order{P: p, D: dd, Q: q})
			}
		}
	}
	return out
}

// Attempt is the outcome of fitting one candidate order.
type Attempt struct {
	Order arima.Order
	Score float64
	Model arima.Fitted
	Err   error
}

// OK reports whether the attempt produced a usable model.
func (a Attempt) OK() bool {
	return a.Err == nil && a.Model != nil
}

// Result represents the outcome of an order search.
type Result struct {
	Name         string       // Series name
	Order        *arima.Order // nil when no candidate could be fitted
	Model        arima.Fitted
	Score        float64
	Differencing int // d from the stationarity test; zero in joint mode
	Attempts     []Attempt
}

// Selected reports whether the search chose an order.
func (r *Result) Selected() bool {
	return r != nil && r.Order != nil
}

// Evaluated returns the number of candidates that fitted successfully.
func (r *Result) Evaluated() int {
	n := 0
	for _, a := range r.Attempts {
		if a.OK() {
			n++
		}
	}
	return n
}

// Predict generates forecasts using the selected model.
func (r *Result) Predict(steps int) ([]float64, error) {
	if !r.Selected() {
		return nil, ErrNoModel
	}
	return r.Model.Predict(steps)
}

// Search fits every candidate order on series and selects the one with the
// lowest information criterion. Ties go to the lexicographically smallest
// order. Candidate failures are recorded in Result.Attempts and never
// returned; the only error is context cancellation.
func Search(ctx context.Context, series *timeseries.Series, cfg *Config) (*Result, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	result := &Result{Name: series.Name, Score: math.Inf(1)}
	if !cfg.JointD {
		result.Differencing = DetermineD(series, cfg.MaxD, cfg.StationTest, cfg.alpha())
	}

	candidates := Candidates(cfg, result.Differencing)
	attempts := make([]Attempt, len(candidates))
	fitter := cfg.fitter()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers())
	for i, order := range candidates {
		i, order := i, order
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			attempts[i] = attempt(fitter, order, series, cfg.Criterion)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result.Attempts = attempts
	log := cfg.logger()
	for i := range attempts {
		a := &attempts[i]
		if !a.OK() {
			log.Debug().Str("series", series.Name).Stringer("order", a.Order).Err(a.Err).Msg("candidate skipped")
			continue
		}
		if result.Order == nil || a.Score < result.Score ||
			(a.Score == result.Score && a.Order.Less(*result.Order)) {
			order := a.Order
			result.Order = &order
			result.Model = a.Model
			result.Score = a.Score
		}
	}

	return result, nil
}

func attempt(fitter arima.Fitter, order arima.Order, series *timeseries.Series, c arima.Criterion) Attempt {
	a := Attempt{Order: order, Score: math.Inf(1)}

	model, err := fitter.Fit(order, series)
	if err != nil {
		a.Err = err
		return a
	}
	if model == nil {
		a.Err = fmt.Errorf("%w: %s returned no model", arima.ErrNotConverged, order)
		return a
	}

	score := model.Score(c)
	if math.IsNaN(score) || math.IsInf(score, 0) {
		a.Err = fmt.Errorf("%w: %s scored %v", arima.ErrNotConverged, order, score)
		return a
	}

	a.Model = model
	a.Score = score
	return a
}

// SelectOrders runs Search on each series concurrently and returns results
// in input order. Series whose search selects nothing still get a Result.
func SelectOrders(ctx context.Context, series []*timeseries.Series, cfg *Config) ([]*Result, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	workers := cfg.workers()
	inner := *cfg
	inner.Workers = max(1, workers/max(1, len(series)))

	results := make([]*Result, len(series))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, s := range series {
		i, s := i, s
		g.Go(func() error {
			res, err := Search(gctx, s, &inner)
			if err != nil {
				return fmt.Errorf("search %s: %w", s.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
