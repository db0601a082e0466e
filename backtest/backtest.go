package backtest

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/timeseries"
)

// ErrMisaligned is returned when a forecast date has no actual observation.
var ErrMisaligned = errors.New("backtest: forecast not aligned with actual series")

// Signal is a trade direction.
type Signal int

const (
	Sell Signal = -1
	Flat Signal = 0
	Buy  Signal = 1
)

func (s Signal) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "flat"
	}
}

// signalOf returns the sign of diff.
func signalOf(diff float64) Signal {
	switch {
	case diff > 0:
		return Buy
	case diff < 0:
		return Sell
	default:
		return Flat
	}
}

// Config holds backtest parameters.
type Config struct {
	VolWindow      int // Trailing returns per volatility estimate (default: 20)
	PeriodsPerYear int // Annualisation factor (default: 252)
}

// DefaultConfig returns the daily-bar configuration.
func DefaultConfig() Config {
	return Config{VolWindow: 20, PeriodsPerYear: 252}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.VolWindow <= 0 {
		c.VolWindow = d.VolWindow
	}
	if c.PeriodsPerYear <= 0 {
		c.PeriodsPerYear = d.PeriodsPerYear
	}
	return c
}

// Result holds the outcome of a backtest. Every series is indexed by the
// signal date.
type Result struct {
	Signals    *timeseries.Series // -1, 0 or +1 per forecast with a previous actual
	Returns    *timeseries.Series // signal applied to the next day's change
	Cumulative *timeseries.Series // running product of 1 + return
	Volatility *timeseries.Series // annualised rolling std of Returns
	Buys       *timeseries.Series // actual prices on buy signals
	Sells      *timeseries.Series // actual prices on sell signals

	// DirectionalAccuracy is the share of non-flat signals whose direction
	// matched the actual move from the previous day. NaN without signals.
	DirectionalAccuracy float64
}

// Signal returns the signal at position i of Signals.
func (r *Result) Signal(i int) Signal {
	return Signal(r.Signals.Values[i])
}

// FinalReturn is the last cumulative value minus one, or NaN when there are
// no returns.
func (r *Result) FinalReturn() float64 {
	if r.Cumulative.Len() == 0 {
		return math.NaN()
	}
	return r.Cumulative.Values[r.Cumulative.Len()-1] - 1
}

// Run backtests forecast against actual. Each forecast timestamp must exist
// in actual. signal[t] = sign(forecast[t] - actual[t-1]); the signal earns
// actual[t+1]/actual[t] - 1. Positions without a previous or next actual, or
// with a missing forecast, produce no signal or return.
func Run(actual, forecast *timeseries.Series, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()

	if !actual.Indexed() || !forecast.Indexed() {
		return nil, fmt.Errorf("%w: both series need a date index", ErrMisaligned)
	}

	res := &Result{
		Signals:    named(actual.Name + "_signal"),
		Returns:    named(actual.Name + "_return"),
		Cumulative: named(actual.Name + "_cumulative"),
		Volatility: named(actual.Name + "_volatility"),
		Buys:       named(actual.Name + "_buy"),
		Sells:      named(actual.Name + "_sell"),
	}

	a := actual.Values
	cum := 1.0
	hits, calls := 0, 0
	for k, ts := range forecast.Timestamps {
		t := actual.IndexOf(ts)
		if t < 0 {
			return nil, fmt.Errorf("%w: no actual value on %s", ErrMisaligned, ts.Format(time.DateOnly))
		}
		f := forecast.Values[k]
		if t == 0 || math.IsNaN(f) || math.IsNaN(a[t-1]) {
			continue
		}

		sig := signalOf(f - a[t-1])
		push(res.Signals, ts, float64(sig))
		switch sig {
		case Buy:
			push(res.Buys, ts, a[t])
		case Sell:
			push(res.Sells, ts, a[t])
		}

		if sig != Flat && !math.IsNaN(a[t]) {
			calls++
			if signalOf(a[t]-a[t-1]) == sig {
				hits++
			}
		}

		if t+1 >= len(a) || math.IsNaN(a[t]) || math.IsNaN(a[t+1]) || a[t] == 0 {
			continue
		}
		r := float64(sig) * (a[t+1]/a[t] - 1)
		cum *= 1 + r
		push(res.Returns, ts, r)
		push(res.Cumulative, ts, cum)
	}

	res.DirectionalAccuracy = math.NaN()
	if calls > 0 {
		res.DirectionalAccuracy = float64(hits) / float64(calls)
	}

	res.Volatility = RollingVolatility(res.Returns, cfg.VolWindow, cfg.PeriodsPerYear)
	res.Volatility.Name = actual.Name + "_volatility"
	return res, nil
}

// RollingVolatility returns the sample standard deviation of each trailing
// window of returns, scaled by sqrt(periodsPerYear). Values start at the
// first full window.
func RollingVolatility(returns *timeseries.Series, window, periodsPerYear int) *timeseries.Series {
	out := named(returns.Name)
	if window < 2 || returns.Len() < window {
		return out
	}

	scale := math.Sqrt(float64(periodsPerYear))
	for end := window; end <= returns.Len(); end++ {
		w := returns.Values[end-window : end]
		mean := 0.0
		for _, v := range w {
			mean += v
		}
		mean /= float64(window)
		ss := 0.0
		for _, v := range w {
			ss += (v - mean) * (v - mean)
		}
		push(out, returns.Timestamps[end-1], math.Sqrt(ss/float64(window-1))*scale)
	}
	return out
}

func named(name string) *timeseries.Series {
	return &timeseries.Series{Name: name, Timestamps: []time.Time{}, Values: []float64{}}
}

func push(s *timeseries.Series, ts time.Time, v float64) {
	s.Timestamps = append(s.Timestamps, ts)
	s.Values = append(s.Values, v)
}
