package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSmoothGrowth(t *testing.T) {
	cum := make([]float64, 252)
	v := 1.0
	for i := range cum {
		// Alternate 0.09% and 0.11% so the variance is small but non-zero.
		if i%2 == 0 {
			v *= 1.0009
		} else {
			v *= 1.0011
		}
		cum[i] = v
	}

	m := Compute(cum, 252)
	assert.True(t, m.SharpeDefined())
	assert.Greater(t, m.Sharpe, 100.0)
	assert.Equal(t, 0.0, m.MaxDrawdown)
	assert.InDelta(t, cum[251]-1, m.AnnualizedReturn, 1e-12)
}

func TestComputeFlat(t *testing.T) {
	cum := []float64{1, 1, 1, 1, 1}

	m := Compute(cum, 252)
	assert.False(t, m.SharpeDefined())
	assert.True(t, math.IsNaN(m.Sharpe))
	assert.Equal(t, 0.0, m.MaxDrawdown)
	assert.Equal(t, 0.0, m.AnnualizedReturn)
}

func TestComputeConstantGrowth(t *testing.T) {
	cum := make([]float64, 252)
	v := 1.0
	for i := range cum {
		v *= 1.001
		cum[i] = v
	}

	m := Compute(cum, 252)
	assert.True(t, m.SharpeDefined())
	assert.True(t, math.IsInf(m.Sharpe, 1), "sharpe=%v", m.Sharpe)
	assert.Equal(t, 0.0, m.MaxDrawdown)
	assert.InDelta(t, cum[251]-1, m.AnnualizedReturn, 1e-12)
}

func TestSharpeWithoutVariance(t *testing.T) {
	tests := []struct {
		name    string
		returns []float64
		check   func(float64) bool
	}{
		{"doubling", []float64{1, 1, 1}, func(s float64) bool { return math.IsInf(s, 1) }},
		{"steady loss", []float64{-0.002, -0.002, -0.002}, func(s float64) bool { return math.IsInf(s, -1) }},
		{"flat", []float64{0, 0, 0}, math.IsNaN},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(Sharpe(tt.returns, 252)))
		})
	}
}

func TestComputeEmpty(t *testing.T) {
	m := Compute(nil, 252)
	assert.True(t, math.IsNaN(m.Sharpe))
	assert.True(t, math.IsNaN(m.MaxDrawdown))
	assert.True(t, math.IsNaN(m.AnnualizedReturn))
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name string
		cum  []float64
		want float64
	}{
		{"rising", []float64{1, 1.1, 1.2}, 0},
		{"single dip", []float64{1, 1.2, 0.9, 1.3}, 0.9/1.2 - 1},
		{"two dips", []float64{1, 0.8, 1.5, 1.2, 1.6}, 1.2/1.5 - 1},
		{"first value below one", []float64{0.9, 0.45}, -0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MaxDrawdown(tt.cum), 1e-12)
		})
	}
}

func TestSharpe(t *testing.T) {
	returns := []float64{0.01, -0.01, 0.02, 0}
	// mean 0.005, population std sqrt(0.000125)
	want := 0.005 / math.Sqrt(0.000125) * math.Sqrt(252)
	assert.InDelta(t, want, Sharpe(returns, 252), 1e-9)
	assert.True(t, math.IsNaN(Sharpe(nil, 252)))
}

func TestComputeDefaultsPeriods(t *testing.T) {
	cum := []float64{1, 1.01, 0.99, 1.02}
	assert.Equal(t, Compute(cum, 252), Compute(cum, 0))
}
