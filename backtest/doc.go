// Package backtest turns one-step forecasts into directional signals and
// measures the returns they would have earned.
package backtest
