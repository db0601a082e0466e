// Package impute fills missing observations with one-step ARIMA forecasts.
//
// Gaps are filled left to right. Each gap is forecast from the contiguous run
// of present values right before it, so a value imputed earlier counts as
// history for later gaps. A gap with fewer than MinObservations points behind
// it, or one where no order could be fitted, is left as NaN and reported:
//
//	im := &impute.Imputer{Search: autoarima.DefaultConfig()}
//	filled, report, err := im.FillGaps(ctx, series)
//	if err == nil && !report.Complete() {
//	    dates := report.UnresolvedDates(series)
//	}
package impute
