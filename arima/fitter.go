package arima

import "github.com/starkasticguy/ARIMA-Strategy-Backtesting/timeseries"

// Fitted is an estimated model usable for forecasting and comparison.
type Fitted interface {
	Predict(steps int) ([]float64, error)
	Score(c Criterion) float64
}

// Fitter estimates a model of the given order on a series. Implementations
// must be safe for concurrent use.
type Fitter interface {
	Fit(order Order, series *timeseries.Series) (Fitted, error)
}

// FitterFunc adapts a function to the Fitter interface.
type FitterFunc func(order Order, series *timeseries.Series) (Fitted, error)

// Fit calls f(order, series).
func (f FitterFunc) Fit(order Order, series *timeseries.Series) (Fitted, error) {
	return f(order, series)
}

// Refitter fits every request from scratch. It keeps no state between calls.
type Refitter struct{}

// Fit builds a fresh Model and fits it.
func (Refitter) Fit(order Order, series *timeseries.Series) (Fitted, error) {
	m := NewFromOrder(order)
	if err := m.Fit(series); err != nil {
		return nil, err
	}
	return m, nil
}

// DefaultFitter is the fitter used when none is configured.
var DefaultFitter Fitter = Refitter{}
