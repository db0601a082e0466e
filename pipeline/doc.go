// Package pipeline runs the full forecast-and-backtest flow over every
// column of a price table.
//
// The flow per column is: calendar alignment, gap imputation, order search,
// walk-forward forecasting, an out-of-sample forecast, the signal backtest
// and risk metrics. A column that fails a stage is reported with its error
// and skipped by the later stages; the run continues with the others.
//
// # Basic Usage
//
//	runner := pipeline.New(pipeline.DefaultConfig(), calendar.New(),
//	    pipeline.WithLogger(log))
//	report, err := runner.Run(ctx, frame)
//	if err == nil && report.Empty() {
//	    // no column produced a backtest
//	}
//
// Workers bounds the concurrent model fits of each stage. Stages that process
// several columns at once split it between them.
package pipeline
