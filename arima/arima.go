package arima

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/stats"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/timeseries"
)

// Fit failures. All of them are soft: callers skip the candidate, window or
// gap that produced them.
var (
	ErrInsufficientData = errors.New("arima: insufficient data for order")
	ErrNotConverged     = errors.New("arima: fit did not converge")
	ErrMissingValues    = errors.New("arima: series contains missing values")
	ErrNotFitted        = errors.New("arima: model is not fitted")
)

// minVariance keeps the likelihood finite for perfectly fitted series.
const minVariance = 1e-12

// Order represents an ARIMA model order (p, d, q).
type Order struct {
	P int // AR order (number of autoregressive terms)
	D int // Differencing order
	Q int // MA order (number of moving average terms)
}

// String renders the order as ARIMA(p,d,q).
func (o Order) String() string {
	return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q)
}

// Less orders (p,d,q) lexicographically.
func (o Order) Less(other Order) bool {
	if o.P != other.P {
		return o.P < other.P
	}
	if o.D != other.D {
		return o.D < other.D
	}
	return o.Q < other.Q
}

// MinObservations is the shortest series Fit accepts for the order.
func (o Order) MinObservations() int {
	return o.P + o.Q + o.D + 10
}

// Criterion selects the information criterion used to score a fit.
type Criterion int

const (
	AIC Criterion = iota
	AICc
	BIC
)

func (c Criterion) String() string {
	switch c {
	case AICc:
		return "aicc"
	case BIC:
		return "bic"
	default:
		return "aic"
	}
}

// ParseCriterion accepts "aic", "aicc" or "bic" in any case.
func ParseCriterion(s string) (Criterion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "aic":
		return AIC, nil
	case "aicc":
		return AICc, nil
	case "bic":
		return BIC, nil
	}
	return AIC, fmt.Errorf("arima: unknown criterion %q", s)
}

// Model represents an ARIMA model.
type Model struct {
	Order      Order
	ARCoeffs   []float64 // AR coefficients (phi)
	MACoeffs   []float64 // MA coefficients (theta)
	Intercept  float64
	Variance   float64 // Residual variance
	AIC        float64
	AICc       float64 // Corrected AIC for small sample sizes
	BIC        float64
	LogLik     float64
	fitted     bool
	nobs       int
	levels     []float64 // last value at each differencing level 0..D-1
	diffData   []float64
	residuals  []float64
	fittedVals []float64
}

// New creates a new ARIMA model with the specified order.
func New(p, d, q int) *Model {
	return &Model{
		Order:    Order{P: p, D: d, Q: q},
		ARCoeffs: make([]float64, p),
		MACoeffs: make([]float64, q),
	}
}

// NewFromOrder creates an unfitted model for order.
func NewFromOrder(order Order) *Model {
	return New(order.P, order.D, order.Q)
}

// Fit estimates the model on series by conditional sum of squares.
// The series must be free of missing values and hold at least
// Order.MinObservations points.
func (m *Model) Fit(series *timeseries.Series) error {
	m.fitted = false

	n := series.Len()
	if n < m.Order.MinObservations() {
		return fmt.Errorf("%w: %s needs %d points, got %d",
			ErrInsufficientData, m.Order, m.Order.MinObservations(), n)
	}
	if series.MissingCount() > 0 {
		return ErrMissingValues
	}
	for _, v := range series.Values {
		if math.IsInf(v, 0) {
			return ErrMissingValues
		}
	}

	m.nobs = n
	m.levels = make([]float64, m.Order.D)
	y := series.Values
	for k := 0; k < m.Order.D; k++ {
		m.levels[k] = y[len(y)-1]
		next := make([]float64, len(y)-1)
		for i := 1; i < len(y); i++ {
			next[i-1] = y[i] - y[i-1]
		}
		y = next
	}
	m.diffData = y

	if m.Order.P == 0 && m.Order.Q == 0 {
		m.fitMean()
	} else {
		m.fitCSS()
	}
	m.calculateIC()

	if !m.finite() {
		return fmt.Errorf("%w: %s", ErrNotConverged, m.Order)
	}

	m.fitted = true
	return nil
}

// fitMean fits the white noise model around the sample mean.
func (m *Model) fitMean() {
	y := m.diffData
	n := len(y)

	mean := 0.0
	for _, v := range y {
		mean += v
	}
	m.Intercept = mean / float64(n)

	m.residuals = make([]float64, n)
	m.fittedVals = make([]float64, n)
	sse := 0.0
	for i, v := range y {
		m.fittedVals[i] = m.Intercept
		m.residuals[i] = v - m.Intercept
		sse += m.residuals[i] * m.residuals[i]
	}
	m.Variance = math.Max(sse/float64(n-1), minVariance)
}

// fitCSS refines Yule-Walker starting values by gradient steps on the
// conditional sum of squares. Coefficients stay inside (-1, 1).
func (m *Model) fitCSS() {
	y := m.diffData
	n := len(y)
	p, q := m.Order.P, m.Order.Q

	mean := 0.0
	for _, v := range y {
		mean += v
	}
	m.Intercept = mean / float64(n)

	if p > 0 {
		if acf := stats.ACF(timeseries.New(y), p); acf != nil {
			if phi := yuleWalker(acf, p); phi != nil {
				for i := range phi {
					m.ARCoeffs[i] = clampCoeff(phi[i])
				}
			}
		}
	}
	for i := range m.MACoeffs {
		m.MACoeffs[i] = 0.1
	}

	const (
		maxIter      = 100
		tolerance    = 1e-6
		learningRate = 0.01
	)

	start := max(p, q)
	residuals := make([]float64, n)
	for iter := 0; iter < maxIter; iter++ {
		prevSSE := m.conditionalResiduals(y, residuals)

		arGrad := make([]float64, p)
		maGrad := make([]float64, q)
		for t := start; t < n; t++ {
			for i := 0; i < p; i++ {
				arGrad[i] -= 2 * residuals[t] * (y[t-i-1] - m.Intercept)
			}
			for i := 0; i < q; i++ {
				maGrad[i] -= 2 * residuals[t] * residuals[t-i-1]
			}
		}

		for i := 0; i < p; i++ {
			m.ARCoeffs[i] = clampCoeff(m.ARCoeffs[i] - learningRate*arGrad[i]/float64(n))
		}
		for i := 0; i < q; i++ {
			m.MACoeffs[i] = clampCoeff(m.MACoeffs[i] - learningRate*maGrad[i]/float64(n))
		}

		newSSE := m.conditionalResiduals(y, residuals)
		if math.Abs(prevSSE-newSSE) < tolerance {
			break
		}
	}

	m.residuals = make([]float64, n)
	m.fittedVals = make([]float64, n)
	sse := 0.0
	count := 0
	for t := 0; t < n; t++ {
		if t < start {
			m.fittedVals[t] = m.Intercept
		} else {
			m.fittedVals[t] = m.predictAt(y, m.residuals, t)
		}
		m.residuals[t] = y[t] - m.fittedVals[t]
		if t >= start {
			sse += m.residuals[t] * m.residuals[t]
			count++
		}
	}

	if count > p+q+1 {
		m.Variance = sse / float64(count-p-q-1)
	} else {
		m.Variance = sse / float64(count)
	}
	m.Variance = math.Max(m.Variance, minVariance)
}

// conditionalResiduals fills residuals from max(p,q) onward and returns their
// sum of squares. Earlier residuals are taken as zero.
func (m *Model) conditionalResiduals(y, residuals []float64) float64 {
	sse := 0.0
	for t := max(m.Order.P, m.Order.Q); t < len(y); t++ {
		residuals[t] = y[t] - m.predictAt(y, residuals, t)
		sse += residuals[t] * residuals[t]
	}
	return sse
}

// predictAt is the one-step prediction of y[t] from earlier values.
func (m *Model) predictAt(y, residuals []float64, t int) float64 {
	pred := m.Intercept
	for i := 0; i < m.Order.P && t-i-1 >= 0; i++ {
		pred += m.ARCoeffs[i] * (y[t-i-1] - m.Intercept)
	}
	for i := 0; i < m.Order.Q && t-i-1 >= 0; i++ {
		pred += m.MACoeffs[i] * residuals[t-i-1]
	}
	return pred
}

func clampCoeff(v float64) float64 {
	return math.Max(-0.99, math.Min(0.99, v))
}

// calculateIC calculates AIC, AICc, and BIC from the Gaussian likelihood.
func (m *Model) calculateIC() {
	n := float64(len(m.residuals))
	k := float64(m.Order.P + m.Order.Q + 1) // AR + MA + intercept

	sse := 0.0
	for _, r := range m.residuals {
		sse += r * r
	}
	m.LogLik = -n/2*math.Log(2*math.Pi) - n/2*math.Log(m.Variance) - sse/(2*m.Variance)

	m.AIC = -2*m.LogLik + 2*k
	if n-k-1 > 0 {
		m.AICc = m.AIC + 2*k*(k+1)/(n-k-1)
	} else {
		m.AICc = math.Inf(1)
	}
	m.BIC = -2*m.LogLik + k*math.Log(n)
}

func (m *Model) finite() bool {
	check := []float64{m.Intercept, m.Variance, m.LogLik, m.AIC, m.BIC}
	check = append(check, m.ARCoeffs...)
	check = append(check, m.MACoeffs...)
	for _, v := range check {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Score returns the fitted model's information criterion value. Lower is
// better. An unfitted model scores +Inf.
func (m *Model) Score(c Criterion) float64 {
	if !m.fitted {
		return math.Inf(1)
	}
	switch c {
	case AICc:
		return m.AICc
	case BIC:
		return m.BIC
	default:
		return m.AIC
	}
}

// Predict generates forecasts on the original scale for the given number of
// steps past the end of the training data.
func (m *Model) Predict(steps int) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if steps < 1 {
		return nil, errors.New("arima: steps must be at least 1")
	}

	y := m.diffData
	n := len(y)

	extY := make([]float64, n+steps)
	copy(extY, y)
	// Future shocks have zero expectation.
	extResiduals := make([]float64, n+steps)
	copy(extResiduals, m.residuals)

	for t := n; t < n+steps; t++ {
		extY[t] = m.predictAt(extY, extResiduals, t)
	}

	return m.integrate(extY[n:]), nil
}

// integrate undoes differencing level by level, starting from the deepest.
func (m *Model) integrate(forecasts []float64) []float64 {
	result := make([]float64, len(forecasts))
	copy(result, forecasts)

	for k := m.Order.D - 1; k >= 0; k-- {
		prev := m.levels[k]
		for j := range result {
			result[j] += prev
			prev = result[j]
		}
	}
	return result
}

// Residuals returns the model residuals on the differenced scale.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	result := make([]float64, len(m.residuals))
	copy(result, m.residuals)
	return result
}

// FittedValues returns the in-sample one-step predictions on the differenced
// scale.
func (m *Model) FittedValues() []float64 {
	if !m.fitted {
		return nil
	}
	result := make([]float64, len(m.fittedVals))
	copy(result, m.fittedVals)
	return result
}

// Summary describes a fitted model.
type Summary struct {
	Order     Order
	ARCoeffs  []float64
	MACoeffs  []float64
	Intercept float64
	Variance  float64
	AIC       float64
	AICc      float64
	BIC       float64
	LogLik    float64
	NObs      int
	LjungBox  *stats.LjungBoxResult // nil when the residuals are too short
}

// Summary returns a summary of the fitted model with a Ljung-Box test on
// its residuals.
func (m *Model) Summary() *Summary {
	if !m.fitted {
		return nil
	}

	lb := stats.LjungBox(m.residuals, 10, m.Order.P+m.Order.Q)

	return &Summary{
		Order:     m.Order,
		ARCoeffs:  append([]float64(nil), m.ARCoeffs...),
		MACoeffs:  append([]float64(nil), m.MACoeffs...),
		Intercept: m.Intercept,
		Variance:  m.Variance,
		AIC:       m.AIC,
		AICc:      m.AICc,
		BIC:       m.BIC,
		LogLik:    m.LogLik,
		NObs:      m.nobs,
		LjungBox:  lb,
	}
}

// yuleWalker estimates AR coefficients with the Levinson-Durbin recursion.
func yuleWalker(acf []float64, order int) []float64 {
	if order <= 0 || len(acf) <= order {
		return nil
	}

	phi := make([]float64, order)
	phi[0] = acf[1]
	if order == 1 {
		return phi
	}

	v := 1 - phi[0]*phi[0]
	for i := 1; i < order; i++ {
		if v <= 0 {
			break
		}
		lambda := acf[i+1]
		for j := 0; j < i; j++ {
			lambda -= phi[j] * acf[i-j]
		}
		lambda /= v

		next := make([]float64, i+1)
		for j := 0; j < i; j++ {
			next[j] = phi[j] - lambda*phi[i-1-j]
		}
		next[i] = lambda
		copy(phi, next)

		v *= 1 - lambda*lambda
	}
	return phi
}
