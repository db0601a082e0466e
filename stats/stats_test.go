package stats

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/timeseries"
)

func whiteNoise(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	for i := range values {
		values[i] = 100 + rng.NormFloat64()
	}
	return values
}

func exponentialGrowth(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	for i := range values {
		values[i] = 100*math.Exp(0.02*float64(i)) + 0.1*rng.NormFloat64()
	}
	return values
}

func TestACF(t *testing.T) {
	n := 100
	phi := 0.8
	values := make([]float64, n)
	for i := 1; i < n; i++ {
		values[i] = phi*values[i-1] + (float64(i%10)-5)/10
	}

	acf := ACF(timeseries.New(values), 10)
	if acf == nil {
		t.Fatal("ACF returned nil")
	}
	if math.Abs(acf[0]-1.0) > 1e-10 {
		t.Errorf("ACF at lag 0 should be 1, got %f", acf[0])
	}
	if acf[1] < 0.3 {
		t.Errorf("ACF at lag 1 should be strongly positive for AR(1), got %f", acf[1])
	}
}

func TestACFConstant(t *testing.T) {
	if ACF(timeseries.New([]float64{3, 3, 3, 3}), 2) != nil {
		t.Error("ACF of a constant series should be nil")
	}
}

func TestADFStationary(t *testing.T) {
	result, err := ADF(timeseries.New(whiteNoise(200, 7)), 0)
	if err != nil {
		t.Fatalf("ADF failed: %v", err)
	}

	t.Logf("ADF Statistic: %f, P-Value: %f", result.Statistic, result.PValue)

	if !result.Stationary(0.05) {
		t.Errorf("White noise should be stationary, p=%f", result.PValue)
	}
	if result.Lags != 5 {
		t.Errorf("Expected default lag 5 for n=200, got %d", result.Lags)
	}
}

func TestADFTrending(t *testing.T) {
	result, err := ADF(timeseries.New(exponentialGrowth(200, 7)), 0)
	if err != nil {
		t.Fatalf("ADF failed: %v", err)
	}

	t.Logf("ADF Trending - Statistic: %f, P-Value: %f", result.Statistic, result.PValue)

	if result.Stationary(0.05) {
		t.Errorf("Exponential growth should not be stationary, p=%f", result.PValue)
	}
}

func TestADFErrors(t *testing.T) {
	if _, err := ADF(timeseries.New([]float64{1, 2, 3}), 0); !errors.Is(err, ErrTooShort) {
		t.Errorf("Expected ErrTooShort, got %v", err)
	}

	values := whiteNoise(50, 1)
	values[10] = math.NaN()
	if _, err := ADF(timeseries.New(values), 0); !errors.Is(err, ErrNonFinite) {
		t.Errorf("Expected ErrNonFinite, got %v", err)
	}
}

func TestKPSS(t *testing.T) {
	stationary, err := KPSS(timeseries.New(whiteNoise(200, 3)), "c", 0)
	if err != nil {
		t.Fatalf("KPSS failed: %v", err)
	}
	t.Logf("KPSS Stationary - Statistic: %f, P-Value: %f", stationary.Statistic, stationary.PValue)

	trend := make([]float64, 200)
	for i := range trend {
		trend[i] = float64(i) * 0.5
	}
	nonStationary, err := KPSS(timeseries.New(trend), "c", 0)
	if err != nil {
		t.Fatalf("KPSS failed: %v", err)
	}
	if nonStationary.Stationary(0.05) {
		t.Errorf("Linear trend should reject level stationarity, p=%f", nonStationary.PValue)
	}
}

func TestMackinnonPValue(t *testing.T) {
	tests := []struct {
		stat     float64
		expected float64
	}{
		{-5, 0.001},
		{-3.43, 0.01},
		{-2.86, 0.05},
		{-1.62, 0.5},
		{10, 0.99},
	}
	for _, tt := range tests {
		if got := mackinnonPValue(tt.stat); math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("mackinnonPValue(%f) = %f, expected %f", tt.stat, got, tt.expected)
		}
	}

	prev := 0.0
	for stat := -5.0; stat < 2; stat += 0.05 {
		p := mackinnonPValue(stat)
		if p < prev {
			t.Fatalf("p-value must be monotone in the statistic, dropped at %f", stat)
		}
		prev = p
	}
}

func TestOLSSingular(t *testing.T) {
	x := [][]float64{{1, 2}, {1, 2}, {1, 2}, {1, 2}}
	y := []float64{1, 2, 3, 4}
	if _, _, err := olsRegression(x, y); !errors.Is(err, ErrSingular) {
		t.Errorf("Expected ErrSingular, got %v", err)
	}
}

func TestLjungBox(t *testing.T) {
	noise := whiteNoise(200, 11)
	for i := range noise {
		noise[i] -= 100
	}
	result := LjungBox(noise, 10, 0)
	if result == nil {
		t.Fatal("LjungBox returned nil")
	}
	t.Logf("Ljung-Box - Q: %f, P-Value: %f, DOF: %d", result.Statistic, result.PValue, result.DOF)

	autocorrelated := make([]float64, 200)
	for i := 1; i < len(autocorrelated); i++ {
		autocorrelated[i] = 0.9*autocorrelated[i-1] + noise[i]
	}
	result2 := LjungBox(autocorrelated, 10, 0)
	if result2 == nil {
		t.Fatal("LjungBox returned nil for autocorrelated data")
	}
	if result2.Uncorrelated(0.05) {
		t.Errorf("Expected autocorrelation to be detected, p=%f", result2.PValue)
	}
}

func TestLjungBoxSkipsMissing(t *testing.T) {
	noise := whiteNoise(60, 5)
	full := LjungBox(noise, 10, 0)

	withGaps := append([]float64{math.NaN(), math.Inf(1)}, noise...)
	gapped := LjungBox(withGaps, 10, 0)
	if full == nil || gapped == nil {
		t.Fatal("LjungBox returned nil")
	}
	if gapped.NObs != 60 || math.Abs(gapped.Statistic-full.Statistic) > 1e-12 {
		t.Errorf("non-finite residuals should be ignored: %+v vs %+v", gapped, full)
	}

	if LjungBox(noise[:9], 5, 0) != nil {
		t.Error("expected nil for fewer than ten residuals")
	}
}

func TestChiSquaredCDF(t *testing.T) {
	tests := []struct {
		x       float64
		k       int
		minProb float64
		maxProb float64
	}{
		{0, 1, 0, 0.1},
		{3.84, 1, 0.93, 0.98},
		{5.99, 2, 0.93, 0.98},
		{7.81, 3, 0.93, 0.98},
		{2, 2, 0.63, 0.64},   // 1 - e^-1
		{40, 10, 0.9999, 1},  // far upper tail
	}

	for _, tt := range tests {
		result := chiSquaredCDF(tt.x, tt.k)
		if result < tt.minProb || result > tt.maxProb {
			t.Errorf("chiSquaredCDF(%f, %d) = %f, expected between %f and %f",
				tt.x, tt.k, result, tt.minProb, tt.maxProb)
		}
	}
}
