package arima

import (
	"errors"
	"math"
	"testing"

	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/timeseries"
)

func ar1Series(n int, phi float64) *timeseries.Series {
	values := make([]float64, n)
	values[0] = 100
	for i := 1; i < n; i++ {
		innovation := float64(i%7-3) / 3
		values[i] = phi*(values[i-1]-100) + 100 + innovation
	}
	return timeseries.New(values)
}

func TestNewARIMA(t *testing.T) {
	model := New(2, 1, 1)

	if model.Order != (Order{P: 2, D: 1, Q: 1}) {
		t.Errorf("Expected order (2,1,1), got %v", model.Order)
	}
	if len(model.ARCoeffs) != 2 || len(model.MACoeffs) != 1 {
		t.Errorf("Unexpected coefficient lengths: AR=%d MA=%d", len(model.ARCoeffs), len(model.MACoeffs))
	}
}

func TestOrderString(t *testing.T) {
	if got := (Order{P: 1, D: 2, Q: 3}).String(); got != "ARIMA(1,2,3)" {
		t.Errorf("Expected ARIMA(1,2,3), got %s", got)
	}
}

func TestOrderLess(t *testing.T) {
	tests := []struct {
		a, b Order
		want bool
	}{
		{Order{0, 1, 0}, Order{1, 0, 0}, true},
		{Order{1, 0, 2}, Order{1, 1, 0}, true},
		{Order{1, 1, 0}, Order{1, 1, 1}, true},
		{Order{1, 1, 1}, Order{1, 1, 1}, false},
		{Order{2, 0, 0}, Order{1, 2, 2}, false},
	}
	for _, tt := range tests {
		if got := tt.a.Less(tt.b); got != tt.want {
			t.Errorf("%s.Less(%s) = %v, expected %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestParseCriterion(t *testing.T) {
	tests := []struct {
		in   string
		want Criterion
	}{
		{"", AIC},
		{"AIC", AIC},
		{"aicc", AICc},
		{" BIC ", BIC},
	}
	for _, tt := range tests {
		got, err := ParseCriterion(tt.in)
		if err != nil {
			t.Fatalf("ParseCriterion(%q) failed: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseCriterion(%q) = %v, expected %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseCriterion("hqic"); err == nil {
		t.Error("Expected error for unknown criterion")
	}
}

func TestARIMAFitAR1(t *testing.T) {
	phi := 0.7
	model := New(1, 0, 0)

	if err := model.Fit(ar1Series(200, phi)); err != nil {
		t.Fatalf("Failed to fit AR(1) model: %v", err)
	}

	t.Logf("True AR coeff: %f, Estimated: %f", phi, model.ARCoeffs[0])

	if model.ARCoeffs[0] <= 0 || model.ARCoeffs[0] > 0.99 {
		t.Errorf("AR coefficient out of range: %f", model.ARCoeffs[0])
	}
	if len(model.Residuals()) != 200 {
		t.Errorf("Expected 200 residuals, got %d", len(model.Residuals()))
	}
}

func TestARIMAFitMA1(t *testing.T) {
	n := 200
	innovations := make([]float64, n)
	for i := range innovations {
		innovations[i] = float64(i%7-3) / 3
	}

	theta := 0.5
	values := make([]float64, n)
	values[0] = 100 + innovations[0]
	for i := 1; i < n; i++ {
		values[i] = 100 + innovations[i] + theta*innovations[i-1]
	}

	model := New(0, 0, 1)
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Failed to fit MA(1) model: %v", err)
	}

	t.Logf("True MA coeff: %f, Estimated: %f", theta, model.MACoeffs[0])

	if math.Abs(model.MACoeffs[0]) > 0.99 {
		t.Errorf("MA coefficient escaped the invertible region: %f", model.MACoeffs[0])
	}
}

func TestARIMAPredictLinearRamp(t *testing.T) {
	n := 50
	values := make([]float64, n)
	for i := range values {
		values[i] = 10 + 0.5*float64(i)
	}

	model := New(0, 1, 0)
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	forecasts, err := model.Predict(3)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}
	for h, f := range forecasts {
		expected := values[n-1] + 0.5*float64(h+1)
		if math.Abs(f-expected) > 1e-9 {
			t.Errorf("Forecast %d = %f, expected %f", h, f, expected)
		}
	}
}

func TestARIMAPredictSecondDifference(t *testing.T) {
	n := 40
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i * i)
	}

	model := New(0, 2, 0)
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Failed to fit ARIMA(0,2,0): %v", err)
	}

	forecasts, err := model.Predict(3)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}

	for h, f := range forecasts {
		k := float64(n + h)
		if math.Abs(f-k*k) > 1e-6 {
			t.Errorf("Forecast %d = %f, expected %f", h, f, k*k)
		}
	}
}

func TestARIMAPerfectFitHasFiniteScore(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = 5
	}

	model := New(0, 0, 0)
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Failed to fit constant series: %v", err)
	}
	if math.IsInf(model.Score(AIC), 0) || math.IsNaN(model.Score(AIC)) {
		t.Errorf("Expected finite AIC, got %f", model.Score(AIC))
	}
}

func TestARIMASummary(t *testing.T) {
	n := 100
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = 100 + float64(i%7-3)/2
	}

	model := New(1, 0, 1)
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	summary := model.Summary()
	if summary == nil {
		t.Fatal("Summary should not be nil")
	}
	if summary.NObs != n {
		t.Errorf("Expected NObs=%d, got %d", n, summary.NObs)
	}
	if summary.LjungBox == nil {
		t.Fatal("Expected a Ljung-Box result for 100 residuals")
	}

	t.Logf("Summary - AIC: %f, BIC: %f, Ljung-Box p: %f", summary.AIC, summary.BIC, summary.LjungBox.PValue)
}

func TestARIMAFitErrors(t *testing.T) {
	model := New(5, 2, 5)
	err := model.Fit(timeseries.New([]float64{1, 2, 3}))
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}

	values := make([]float64, 50)
	for i := range values {
		values[i] = float64(i)
	}
	values[20] = math.NaN()
	err = New(1, 0, 0).Fit(timeseries.New(values))
	if !errors.Is(err, ErrMissingValues) {
		t.Errorf("Expected ErrMissingValues, got %v", err)
	}
}

func TestARIMAUnfitted(t *testing.T) {
	model := New(1, 0, 0)

	if _, err := model.Predict(1); !errors.Is(err, ErrNotFitted) {
		t.Errorf("Expected ErrNotFitted, got %v", err)
	}
	if !math.IsInf(model.Score(AIC), 1) {
		t.Error("Unfitted model should score +Inf")
	}
	if model.Summary() != nil {
		t.Error("Unfitted model should have no summary")
	}
}

func TestARIMAPredictSteps(t *testing.T) {
	model := New(1, 0, 0)
	if err := model.Fit(ar1Series(100, 0.5)); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}
	if _, err := model.Predict(0); err == nil {
		t.Error("Expected error for zero steps")
	}
}

func TestScoreMatchesCriteria(t *testing.T) {
	model := New(1, 0, 0)
	if err := model.Fit(ar1Series(120, 0.6)); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	if model.Score(AIC) != model.AIC || model.Score(AICc) != model.AICc || model.Score(BIC) != model.BIC {
		t.Error("Score should return the matching information criterion")
	}
	if model.AICc <= model.AIC {
		t.Errorf("AICc should exceed AIC for finite samples: %f vs %f", model.AICc, model.AIC)
	}
}

func TestRefitter(t *testing.T) {
	series := ar1Series(120, 0.6)

	fitted, err := DefaultFitter.Fit(Order{P: 1}, series)
	if err != nil {
		t.Fatalf("Refitter failed: %v", err)
	}
	forecasts, err := fitted.Predict(2)
	if err != nil || len(forecasts) != 2 {
		t.Fatalf("Expected 2 forecasts, got %v (err %v)", forecasts, err)
	}

	fitted, err = Refitter{}.Fit(Order{P: 3, D: 2, Q: 3}, series.Slice(0, 5))
	if fitted != nil || !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected nil model and ErrInsufficientData, got %v, %v", fitted, err)
	}
}

func TestFitterFunc(t *testing.T) {
	calls := 0
	var f Fitter = FitterFunc(func(order Order, series *timeseries.Series) (Fitted, error) {
		calls++
		return Refitter{}.Fit(order, series)
	})
	if _, err := f.Fit(Order{}, ar1Series(50, 0.3)); err != nil {
		t.Fatalf("FitterFunc failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestYuleWalker(t *testing.T) {
	// AR(1) with phi = 0.6 has acf(k) = 0.6^k.
	acf := []float64{1.0, 0.6, 0.36, 0.216, 0.13}

	coeffs := yuleWalker(acf, 2)
	if len(coeffs) != 2 {
		t.Fatalf("Expected 2 coefficients, got %d", len(coeffs))
	}
	if math.Abs(coeffs[0]-0.6) > 1e-9 || math.Abs(coeffs[1]) > 1e-9 {
		t.Errorf("Expected [0.6 0], got %v", coeffs)
	}
}

func TestARIMAMultipleOrders(t *testing.T) {
	tests := []struct {
		name    string
		p, d, q int
	}{
		{"AR1", 1, 0, 0},
		{"AR2", 2, 0, 0},
		{"MA1", 0, 0, 1},
		{"MA2", 0, 0, 2},
		{"ARMA11", 1, 0, 1},
		{"ARIMA110", 1, 1, 0},
		{"ARIMA011", 0, 1, 1},
		{"ARIMA111", 1, 1, 1},
		{"ARIMA212", 2, 1, 2},
		{"ARIMA323", 3, 2, 3},
	}

	series := ar1Series(150, 0.6)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := New(tt.p, tt.d, tt.q)
			if err := model.Fit(series); err != nil {
				t.Logf("%s failed to fit: %v", tt.name, err)
				return
			}

			forecasts, err := model.Predict(3)
			if err != nil {
				t.Fatalf("Prediction failed: %v", err)
			}
			if len(forecasts) != 3 {
				t.Errorf("Expected 3 forecasts, got %d", len(forecasts))
			}
			for i, f := range forecasts {
				if math.IsNaN(f) || math.IsInf(f, 0) {
					t.Errorf("Forecast %d is not finite", i)
				}
			}

			t.Logf("%s - AIC: %.2f, BIC: %.2f, Forecasts: %v", tt.name, model.AIC, model.BIC, forecasts)
		})
	}
}
