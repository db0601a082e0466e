package stats

import "math"

const (
	// minLjungBoxObs is the shortest residual series LjungBox accepts.
	minLjungBoxObs = 10

	gammaMaxIter = 300
	gammaEps     = 1e-12
	gammaTiny    = 1e-300
)

// LjungBoxResult represents the result of a Ljung-Box test.
type LjungBoxResult struct {
	Statistic float64
	PValue    float64
	Lags      int
	DOF       int // Degrees of freedom
	NObs      int // Finite residuals used
}

// Uncorrelated reports whether the no-autocorrelation null survives at alpha.
func (r *LjungBoxResult) Uncorrelated(alpha float64) bool {
	return r.PValue > alpha
}

// LjungBox tests model residuals for autocorrelation up to lags.
// fitdf is the number of estimated ARMA parameters (p + q). Non-finite
// residuals are dropped first. It returns nil when fewer than ten residuals
// remain or they have no variance.
func LjungBox(residuals []float64, lags, fitdf int) *LjungBoxResult {
	finite := make([]float64, 0, len(residuals))
	for _, r := range residuals {
		if !math.IsNaN(r) && !math.IsInf(r, 0) {
			finite = append(finite, r)
		}
	}

	n := len(finite)
	if n < minLjungBoxObs || lags < 1 {
		return nil
	}
	lags = min(lags, n-1)

	acf := autocorrelations(finite, lags)
	if acf == nil {
		return nil
	}

	// Q = n(n+2) * sum(r_k^2 / (n-k))
	q := 0.0
	for k := 1; k <= lags; k++ {
		q += acf[k] * acf[k] / float64(n-k)
	}
	q *= float64(n) * float64(n+2)

	dof := max(lags-fitdf, 1)
	return &LjungBoxResult{
		Statistic: q,
		PValue:    1 - chiSquaredCDF(q, dof),
		Lags:      lags,
		DOF:       dof,
		NObs:      n,
	}
}

// chiSquaredCDF is P(k/2, x/2), the chi-squared CDF with k degrees of freedom.
func chiSquaredCDF(x float64, k int) float64 {
	if x <= 0 || k < 1 {
		return 0
	}
	return regularizedGammaP(float64(k)/2, x/2)
}

// regularizedGammaP returns the regularized lower incomplete gamma function,
// by its power series below a+1 and by a Lentz continued fraction for the
// upper tail above it.
func regularizedGammaP(a, x float64) float64 {
	switch {
	case x <= 0 || a <= 0:
		return 0
	case math.IsInf(x, 1):
		return 1
	}

	lg, _ := math.Lgamma(a)
	scale := math.Exp(a*math.Log(x) - x - lg)

	if x < a+1 {
		term := 1 / a
		sum := term
		for n := 1; n < gammaMaxIter; n++ {
			term *= x / (a + float64(n))
			sum += term
			if math.Abs(term) < math.Abs(sum)*gammaEps {
				break
			}
		}
		return math.Min(1, scale*sum)
	}

	b := x + 1 - a
	c := 1 / gammaTiny
	d := 1 / b
	frac := d
	for i := 1; i < gammaMaxIter; i++ {
		an := -float64(i) * (float64(i) - a)
		b += 2
		d = an*d + b
		if math.Abs(d) < gammaTiny {
			d = gammaTiny
		}
		c = b + an/c
		if math.Abs(c) < gammaTiny {
			c = gammaTiny
		}
		d = 1 / d
		step := d * c
		frac *= step
		if math.Abs(step-1) < gammaEps {
			break
		}
	}
	return math.Max(0, 1-scale*frac)
}
