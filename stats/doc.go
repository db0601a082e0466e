// Package stats provides the statistical tests behind order selection and
// model diagnostics.
//
// # Stationarity Tests
//
//	// Augmented Dickey-Fuller, H0: unit root
//	adf, err := stats.ADF(series, 0)
//	if err == nil && adf.Stationary(0.05) {
//	    // no differencing needed
//	}
//
//	// KPSS, H0: level stationarity
//	kpss, err := stats.KPSS(series, "c", 0)
//
// Both tests refuse series shorter than ten points (ErrTooShort) and series
// with missing values (ErrNonFinite).
//
// # Autocorrelation
//
//	acf := stats.ACF(series, 20)
//
// # Residual Diagnostics
//
//	lb := stats.LjungBox(model.Residuals(), 10, p+q)
//	if lb != nil && !lb.Uncorrelated(0.05) {
//	    // residuals still carry structure
//	}
package stats
