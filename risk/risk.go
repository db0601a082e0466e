package risk

import "math"

// DefaultPeriodsPerYear is the number of trading days used to annualise.
const DefaultPeriodsPerYear = 252

// Metrics are the headline statistics of a strategy. NaN marks a value that
// is undefined for the input.
type Metrics struct {
	Sharpe           float64 `json:"sharpe"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	AnnualizedReturn float64 `json:"annualized_return"`
}

// SharpeDefined reports whether the returns had variance or drift. An
// unbounded (infinite) ratio counts as defined.
func (m Metrics) SharpeDefined() bool {
	return !math.IsNaN(m.Sharpe)
}

// zeroVarianceTol is the std, relative to |mean|, treated as no variance.
// Compounding a constant rate leaves rounding noise near 1e-16 in the
// recovered returns.
const zeroVarianceTol = 1e-9

// Compute derives Metrics from cumulative values seeded at 1.
//
// Periodic returns are the percent changes of cum; the undefined first entry
// and any non-finite change are dropped. Sharpe uses the population standard
// deviation; a path that compounds at a constant rate has an infinite Sharpe
// with the sign of that rate. Max drawdown is the lowest cum/runningMax - 1,
// so it is never positive. The annualised return is cum[last]^(periodsPerYear/len(cum)) - 1.
func Compute(cum []float64, periodsPerYear int) Metrics {
	if periodsPerYear <= 0 {
		periodsPerYear = DefaultPeriodsPerYear
	}
	if len(cum) == 0 {
		return Metrics{Sharpe: math.NaN(), MaxDrawdown: math.NaN(), AnnualizedReturn: math.NaN()}
	}

	return Metrics{
		Sharpe:           Sharpe(returns(cum), periodsPerYear),
		MaxDrawdown:      MaxDrawdown(cum),
		AnnualizedReturn: math.Pow(cum[len(cum)-1], float64(periodsPerYear)/float64(len(cum))) - 1,
	}
}

// Sharpe is mean/std of returns scaled by sqrt(periodsPerYear), with a zero
// risk-free rate. Without variance it is +Inf or -Inf following the sign of
// the mean, and NaN when the mean is zero too or there are no returns.
func Sharpe(returns []float64, periodsPerYear int) float64 {
	if len(returns) == 0 {
		return math.NaN()
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	std := math.Sqrt(variance / float64(len(returns)))
	if std <= math.Abs(mean)*zeroVarianceTol {
		switch {
		case mean > 0:
			return math.Inf(1)
		case mean < 0:
			return math.Inf(-1)
		}
		return math.NaN()
	}
	return mean / std * math.Sqrt(float64(periodsPerYear))
}

// MaxDrawdown is the deepest fall from a running peak, as a non-positive
// fraction.
func MaxDrawdown(cum []float64) float64 {
	if len(cum) == 0 {
		return math.NaN()
	}

	peak := cum[0]
	worst := 0.0
	for _, v := range cum {
		if math.IsNaN(v) {
			continue
		}
		if v > peak || math.IsNaN(peak) {
			peak = v
		}
		if peak > 0 {
			worst = math.Min(worst, v/peak-1)
		}
	}
	return worst
}

func returns(cum []float64) []float64 {
	out := make([]float64, 0, len(cum))
	for i := 1; i < len(cum); i++ {
		if cum[i-1] == 0 {
			continue
		}
		r := cum[i]/cum[i-1] - 1
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		out = append(out, r)
	}
	return out
}
