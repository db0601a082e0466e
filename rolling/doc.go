// Package rolling produces walk-forward one-step forecasts by refitting a
// fixed ARIMA order at every position.
//
// In Expanding mode the fit at position i sees every observation before i;
// in Sliding mode it sees the last Window of them. Missing values are dropped
// from each training slice.
//
//	f := &rolling.Forecaster{Order: order, Window: 100, Mode: rolling.Expanding}
//	forecasts, report, err := f.Forecast(ctx, series)
//	future, err := f.Future(ctx, series, 5, cal)
package rolling
