// Package arimabt forecasts daily price series with ARIMA models and
// backtests a directional trading strategy on the forecasts.
//
// A run takes a table of prices indexed by date and, for every column:
//
//   - aligns the rows to a trading calendar and fills missing days with
//     one-step ARIMA forecasts fitted on the preceding history
//   - picks the (p, d, q) order with the lowest information criterion
//   - produces walk-forward one-step forecasts (expanding or sliding window)
//     and a short forecast past the last date
//   - trades the sign of each forecast's change from the previous close and
//     reports cumulative return, rolling volatility, Sharpe ratio, maximum
//     drawdown and annualised return
//
// # Quick Start
//
// Run the pipeline on a CSV file:
//
//	frame, _ := timeseries.LoadFrameCSV("prices.csv", nil)
//	runner := pipeline.New(pipeline.DefaultConfig(), calendar.New())
//	report, _ := runner.Run(ctx, frame)
//
// Fit a single model:
//
//	model := arima.New(1, 1, 0)
//	model.Fit(series)
//	forecasts, _ := model.Predict(5)
//
// # Packages
//
//   - timeseries: series, frames and CSV loading
//   - calendar: trading-day calendars
//   - stats: ACF, Ljung-Box and the ADF/KPSS unit-root tests
//   - arima: non-seasonal ARIMA estimation and forecasting
//   - autoarima: order search over a candidate grid
//   - impute: gap filling with one-step forecasts
//   - rolling: walk-forward and future forecasts
//   - backtest: directional signals, strategy returns and volatility
//   - risk: Sharpe ratio, drawdown and annualised return
//   - pipeline: the end-to-end run
//   - config, logging, metrics, recorder, scheduler: the arimabt command's
//     configuration, logging, Prometheus metrics, SQLite run history and
//     cron scheduling
//
// The arimabt command in cmd/arimabt wires these together.
package arimabt
