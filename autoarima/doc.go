// Package autoarima selects ARIMA orders automatically.
//
// The differencing order is chosen by repeated unit-root testing
// (DetermineD), then every (p, q) candidate is fitted on a bounded worker
// pool and the lowest information criterion wins. Ties resolve to the
// lexicographically smallest (p, d, q), so the outcome does not depend on
// scheduling.
//
// # Basic Usage
//
//	result, err := autoarima.Search(ctx, series, autoarima.DefaultConfig())
//	if err != nil {
//	    return err // context cancelled
//	}
//	if !result.Selected() {
//	    // no candidate could be fitted
//	}
//	fmt.Println(result.Order, result.Score)
//	forecasts, _ := result.Predict(5)
//
// # Joint Search
//
// ExhaustiveConfig searches p, d, q in [0, 2] jointly instead of testing for d:
//
//	result, _ := autoarima.Search(ctx, series, autoarima.ExhaustiveConfig())
//
// # Several Series
//
//	results, err := autoarima.SelectOrders(ctx, frame.Columns, cfg)
//
// Results come back in input order.
package autoarima
