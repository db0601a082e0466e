package stats

import (
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/timeseries"
)

// ACF returns the sample autocorrelations of series at lags 0..maxLag,
// capped at Len()-1. It returns nil for a constant or empty series.
func ACF(series *timeseries.Series, maxLag int) []float64 {
	return autocorrelations(series.Values, maxLag)
}

func autocorrelations(values []float64, maxLag int) []float64 {
	n := len(values)
	maxLag = min(maxLag, n-1)
	if maxLag < 0 {
		return nil
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	centered := make([]float64, n)
	denom := 0.0
	for i, v := range values {
		centered[i] = v - mean
		denom += centered[i] * centered[i]
	}
	if denom == 0 {
		return nil
	}

	out := make([]float64, maxLag+1)
	for lag := range out {
		cov := 0.0
		for i := lag; i < n; i++ {
			cov += centered[i] * centered[i-lag]
		}
		out[lag] = cov / denom
	}
	return out
}
