package stats

import (
	"errors"
	"math"

	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/timeseries"
)

// Errors returned by the unit-root tests.
var (
	ErrTooShort  = errors.New("stats: series too short for test")
	ErrNonFinite = errors.New("stats: series contains missing or infinite values")
	ErrSingular  = errors.New("stats: singular regression matrix")
)

// minTestObs is the smallest sample the stationarity tests accept.
const minTestObs = 10

// ADFResult represents the result of an Augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	NObs         int
	CriticalVals map[string]float64 // Critical values at 1%, 5%, 10%
}

// Stationary reports whether the unit-root null is rejected at alpha.
func (r *ADFResult) Stationary(alpha float64) bool {
	return r.PValue <= alpha
}

// ADF performs the Augmented Dickey-Fuller test with a constant term.
// The null hypothesis is a unit root; a small p-value means stationary.
// maxLag <= 0 selects floor((n-1)^(1/3)) lagged differences.
func ADF(series *timeseries.Series, maxLag int) (*ADFResult, error) {
	n := series.Len()
	if n < minTestObs {
		return nil, ErrTooShort
	}
	if !allFinite(series.Values) {
		return nil, ErrNonFinite
	}

	if maxLag <= 0 {
		maxLag = int(math.Floor(math.Pow(float64(n-1), 1.0/3.0)))
	}
	if maxLag >= n-1 {
		maxLag = n - 2
	}

	nObs := n - maxLag - 1
	if nObs < minTestObs {
		return nil, ErrTooShort
	}

	// delta_y_t = alpha + beta*y_{t-1} + sum(gamma_i * delta_y_{t-i}) + e_t
	diff := series.Diff()
	y := make([]float64, nObs)
	x := make([][]float64, nObs)
	for i := 0; i < nObs; i++ {
		t := i + maxLag
		y[i] = diff.Values[t]

		row := make([]float64, 2+maxLag)
		row[0] = 1
		row[1] = series.Values[t]
		for j := 1; j <= maxLag; j++ {
			row[1+j] = diff.Values[t-j]
		}
		x[i] = row
	}

	coeffs, se, err := olsRegression(x, y)
	if err != nil {
		return nil, err
	}

	tStat := coeffs[1] / se[1]
	if se[1] == 0 || math.IsNaN(tStat) {
		// A perfect fit leaves no residual variance; the level term carries
		// no evidence either way.
		tStat = 0
	}

	return &ADFResult{
		Statistic: tStat,
		PValue:    mackinnonPValue(tStat),
		Lags:      maxLag,
		NObs:      nObs,
		CriticalVals: map[string]float64{
			"1%":  -3.43,
			"5%":  -2.86,
			"10%": -2.57,
		},
	}, nil
}

// KPSSResult represents the result of a KPSS test.
type KPSSResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	CriticalVals map[string]float64
}

// Stationary reports whether the stationarity null survives at alpha.
func (r *KPSSResult) Stationary(alpha float64) bool {
	return r.PValue > alpha
}

// KPSS performs the Kwiatkowski-Phillips-Schmidt-Shin test. The null
// hypothesis is stationarity around a level ("c") or a trend ("ct").
func KPSS(series *timeseries.Series, regression string, nlags int) (*KPSSResult, error) {
	n := series.Len()
	if n < minTestObs {
		return nil, ErrTooShort
	}
	if !allFinite(series.Values) {
		return nil, ErrNonFinite
	}

	if nlags <= 0 {
		nlags = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	if nlags >= n {
		nlags = n - 1
	}

	residuals := detrend(series.Values, regression == "ct")

	// Newey-West long-run variance with Bartlett weights.
	s2 := 0.0
	for _, r := range residuals {
		s2 += r * r
	}
	s2 /= float64(n)
	for l := 1; l <= nlags; l++ {
		cov := 0.0
		for i := l; i < n; i++ {
			cov += residuals[i] * residuals[i-l]
		}
		cov /= float64(n)
		s2 += 2 * (1 - float64(l)/float64(nlags+1)) * cov
	}
	if s2 <= 0 {
		s2 = 1e-10
	}

	partial := 0.0
	etaSq := 0.0
	for _, r := range residuals {
		partial += r
		etaSq += partial * partial
	}
	stat := etaSq / (float64(n) * float64(n) * s2)

	critical := map[string]float64{"10%": 0.347, "5%": 0.463, "1%": 0.739}
	if regression == "ct" {
		critical = map[string]float64{"10%": 0.119, "5%": 0.146, "1%": 0.216}
	}

	return &KPSSResult{
		Statistic:    stat,
		PValue:       kpssPValue(stat, regression),
		Lags:         nlags,
		CriticalVals: critical,
	}, nil
}

// detrend removes the mean, or an OLS line when trend is set.
func detrend(values []float64, trend bool) []float64 {
	n := len(values)
	out := make([]float64, n)
	if !trend {
		mean := 0.0
		for _, v := range values {
			mean += v
		}
		mean /= float64(n)
		for i, v := range values {
			out[i] = v - mean
		}
		return out
	}

	var sumT, sumY, sumTY, sumT2 float64
	for i, v := range values {
		t := float64(i)
		sumT += t
		sumY += v
		sumTY += t * v
		sumT2 += t * t
	}
	nf := float64(n)
	b := (nf*sumTY - sumT*sumY) / (nf*sumT2 - sumT*sumT)
	a := (sumY - b*sumT) / nf
	for i, v := range values {
		out[i] = v - a - b*float64(i)
	}
	return out
}

// olsRegression performs ordinary least squares regression and returns the
// coefficients and their standard errors.
func olsRegression(x [][]float64, y []float64) (coeffs, stdErrors []float64, err error) {
	n := len(y)
	if n == 0 || len(x) != n {
		return nil, nil, ErrTooShort
	}

	k := len(x[0])
	if n <= k {
		return nil, nil, ErrTooShort
	}

	xtx := make([][]float64, k)
	for i := range xtx {
		xtx[i] = make([]float64, k)
	}
	xty := make([]float64, k)

	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			xty[j] += x[i][j] * y[i]
			for l := 0; l < k; l++ {
				xtx[j][l] += x[i][j] * x[i][l]
			}
		}
	}

	xtxInv := invertMatrix(xtx)
	if xtxInv == nil {
		return nil, nil, ErrSingular
	}

	coeffs = make([]float64, k)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			coeffs[i] += xtxInv[i][j] * xty[j]
		}
	}

	sse := 0.0
	for i := 0; i < n; i++ {
		pred := 0.0
		for j := 0; j < k; j++ {
			pred += coeffs[j] * x[i][j]
		}
		r := y[i] - pred
		sse += r * r
	}

	s2 := sse / float64(n-k)
	stdErrors = make([]float64, k)
	for i := 0; i < k; i++ {
		stdErrors[i] = math.Sqrt(s2 * xtxInv[i][i])
	}

	return coeffs, stdErrors, nil
}

// invertMatrix inverts a square matrix using Gauss-Jordan elimination with
// partial pivoting. It returns nil for a (numerically) singular matrix.
func invertMatrix(m [][]float64) [][]float64 {
	n := len(m)
	if n == 0 {
		return nil
	}

	aug := make([][]float64, n)
	for i := 0; i < n; i++ {
		aug[i] = make([]float64, 2*n)
		copy(aug[i][:n], m[i])
		aug[i][n+i] = 1
	}

	for i := 0; i < n; i++ {
		maxRow := i
		for k := i + 1; k < n; k++ {
			if math.Abs(aug[k][i]) > math.Abs(aug[maxRow][i]) {
				maxRow = k
			}
		}
		aug[i], aug[maxRow] = aug[maxRow], aug[i]

		if math.Abs(aug[i][i]) < 1e-10 {
			return nil
		}

		pivot := aug[i][i]
		for j := 0; j < 2*n; j++ {
			aug[i][j] /= pivot
		}

		for k := 0; k < n; k++ {
			if k == i {
				continue
			}
			factor := aug[k][i]
			for j := 0; j < 2*n; j++ {
				aug[k][j] -= factor * aug[i][j]
			}
		}
	}

	result := make([][]float64, n)
	for i := 0; i < n; i++ {
		result[i] = make([]float64, n)
		copy(result[i], aug[i][n:])
	}
	return result
}

// adfKnots are (statistic, p-value) points of the asymptotic MacKinnon
// distribution for the constant-only regression.
var adfKnots = [][2]float64{
	{-3.96, 0.001},
	{-3.43, 0.01},
	{-2.86, 0.05},
	{-2.57, 0.10},
	{-1.94, 0.25},
	{-1.62, 0.50},
}

// mackinnonPValue interpolates the p-value for an ADF statistic linearly
// between the asymptotic critical values.
func mackinnonPValue(stat float64) float64 {
	if stat <= adfKnots[0][0] {
		return adfKnots[0][1]
	}
	for i := 1; i < len(adfKnots); i++ {
		lo, hi := adfKnots[i-1], adfKnots[i]
		if stat <= hi[0] {
			w := (stat - lo[0]) / (hi[0] - lo[0])
			return lo[1] + w*(hi[1]-lo[1])
		}
	}
	return math.Min(0.5+(stat+1.62)*0.25, 0.99)
}

// kpssPValue approximates the p-value for a KPSS statistic.
func kpssPValue(stat float64, regression string) float64 {
	if regression == "ct" {
		switch {
		case stat > 0.216:
			return 0.01
		case stat > 0.146:
			return 0.05
		case stat > 0.119:
			return 0.10
		default:
			return math.Min(0.10+(0.119-stat)*2, 0.99)
		}
	}

	switch {
	case stat > 0.739:
		return 0.01
	case stat > 0.463:
		return 0.05
	case stat > 0.347:
		return 0.10
	default:
		return math.Min(0.10+(0.347-stat)*0.5, 0.99)
	}
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
