// Package timeseries provides the series and table types used across the
// forecasting engine.
//
// A Series is a date-indexed slice of float64 values where NaN marks a
// missing observation. A Frame holds several named price fields (for example
// Open, High, Low, Close) over one shared index, in a fixed column order.
//
// # Loading Data
//
//	frame, err := timeseries.LoadFrameCSV("prices.csv", &timeseries.CSVOptions{
//	    DateColumn: "Date",
//	    Columns:    []string{"Open", "Close"},
//	})
//
// # Calendar Alignment
//
// Reindex places every column onto the trading days between the first and
// last row. Days without a quote come back as NaN, ready for gap imputation:
//
//	aligned, dropped, err := frame.Reindex(cal)
//
// # Transformations
//
//	diff := series.Diff()        // first difference, leading value dropped
//	ret := series.PctChange()    // simple returns, leading value dropped
//	tail := series.Tail(5)       // last five observations
package timeseries
