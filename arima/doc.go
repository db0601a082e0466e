// Package arima implements non-seasonal ARIMA(p,d,q) models fitted by
// conditional sum of squares.
//
// # Basic Usage
//
//	model := arima.New(1, 1, 0)
//	if err := model.Fit(series); err != nil {
//	    // errors.Is(err, arima.ErrInsufficientData) etc.
//	}
//	forecasts, _ := model.Predict(5)
//
// Forecasts are returned on the original scale; differencing is undone from
// the last observed value at every level.
//
// # Fitting Through an Interface
//
// Model selection and walk-forward forecasting fit models through the Fitter
// interface. Refitter, the default, estimates every request from scratch:
//
//	fitted, err := arima.DefaultFitter.Fit(arima.Order{P: 1, D: 1, Q: 1}, series)
//	score := fitted.Score(arima.AIC)
//
// # Diagnostics
//
//	summary := model.Summary()
//	if summary.LjungBox != nil && summary.LjungBox.PValue < 0.05 {
//	    // residuals still autocorrelated
//	}
package arima
