package backtest

import (
	"math"

	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/timeseries"
)

// FutureReturns returns the day-over-day percent change along a forecast
// path. The first forecast has no predecessor and is dropped.
func FutureReturns(future *timeseries.Series) *timeseries.Series {
	return dropNaN(future.PctChange())
}

// Recent returns the last n prices of actual and the last n day-over-day
// returns. Returns are computed before truncation, so the first of the n
// prices still gets a return when it has a predecessor.
func Recent(actual *timeseries.Series, n int) (prices, returns *timeseries.Series) {
	if n <= 0 {
		return actual.Slice(0, 0), actual.Slice(0, 0)
	}
	return actual.Tail(n), dropNaN(actual.PctChange()).Tail(n)
}

func dropNaN(s *timeseries.Series) *timeseries.Series {
	out := s.DropMissing()
	for i := out.Len() - 1; i >= 0; i-- {
		if math.IsInf(out.Values[i], 0) {
			out.Values = append(out.Values[:i], out.Values[i+1:]...)
			if out.Timestamps != nil {
				out.Timestamps = append(out.Timestamps[:i], out.Timestamps[i+1:]...)
			}
		}
	}
	return out
}
