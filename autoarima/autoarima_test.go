package autoarima

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/arima"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/timeseries"
)

// fakeModel is a Fitted with a preset score.
type fakeModel struct {
	score float64
}

func (f fakeModel) Predict(steps int) ([]float64, error) {
	return make([]float64, steps), nil
}

func (f fakeModel) Score(arima.Criterion) float64 {
	return f.score
}

// scoreFitter returns fakeModels scored by table; orders not in the table fail.
func scoreFitter(scores map[arima.Order]float64) arima.Fitter {
	return arima.FitterFunc(func(order arima.Order, _ *timeseries.Series) (arima.Fitted, error) {
		s, ok := scores[order]
		if !ok {
			return nil, arima.ErrInsufficientData
		}
		return fakeModel{score: s}, nil
	})
}

func ar1Series(n int) *timeseries.Series {
	values := make([]float64, n)
	values[0] = 100
	for i := 1; i < n; i++ {
		innovation := float64(i%7-3) / 3
		values[i] = 0.6*(values[i-1]-100) + 100 + innovation
	}
	return timeseries.New(values)
}

func whiteNoise(n int, seed int64) *timeseries.Series {
	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	for i := range values {
		values[i] = 50 + rng.NormFloat64()
	}
	return timeseries.New(values)
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.MaxP != 3 || config.MaxD != 2 || config.MaxQ != 3 {
		t.Errorf("Expected bounds 3/2/3, got %d/%d/%d", config.MaxP, config.MaxD, config.MaxQ)
	}
	if config.Criterion != arima.AIC {
		t.Errorf("Expected AIC, got %v", config.Criterion)
	}
	if config.JointD {
		t.Error("Expected fixed-d mode")
	}
	if config.Alpha != 0.05 {
		t.Errorf("Expected alpha 0.05, got %f", config.Alpha)
	}
}

func TestCandidates(t *testing.T) {
	fixed := Candidates(DefaultConfig(), 1)
	if len(fixed) != 16 {
		t.Fatalf("Expected 16 fixed-d candidates, got %d", len(fixed))
	}
	for _, o := range fixed {
		if o.D != 1 {
			t.Errorf("Candidate %s should have d=1", o)
		}
	}

	joint := Candidates(ExhaustiveConfig(), 99)
	if len(joint) != 27 {
		t.Fatalf("Expected 27 joint candidates, got %d", len(joint))
	}
	for i := 1; i < len(joint); i++ {
		if !joint[i-1].Less(joint[i]) {
			t.Errorf("Candidates out of order at %d: %s then %s", i, joint[i-1], joint[i])
		}
	}
}

func TestDetermineD(t *testing.T) {
	if d := DetermineD(whiteNoise(200, 42), 2, TestADF, 0.05); d != 0 {
		t.Errorf("Expected d=0 for white noise, got %d", d)
	}

	values := make([]float64, 200)
	rng := rand.New(rand.NewSource(5))
	for i := range values {
		values[i] = 100*math.Exp(0.02*float64(i)) + 0.1*rng.NormFloat64()
	}
	if d := DetermineD(timeseries.New(values), 2, TestADF, 0.05); d < 1 {
		t.Errorf("Expected d>=1 for exponential growth, got %d", d)
	}

	if d := DetermineD(timeseries.New([]float64{1, 2, 3}), 2, TestADF, 0.05); d != 0 {
		t.Errorf("Expected d=0 when the test cannot run, got %d", d)
	}
}

func TestDetermineDDoesNotMutate(t *testing.T) {
	s := ar1Series(100)
	before := append([]float64(nil), s.Values...)
	DetermineD(s, 2, TestKPSS, 0.05)
	for i := range before {
		if s.Values[i] != before[i] {
			t.Fatalf("Series mutated at %d", i)
		}
	}
}

func TestSearchSelectsMinimum(t *testing.T) {
	cfg := ExhaustiveConfig()
	scores := map[arima.Order]float64{}
	for i, o := range Candidates(cfg, 0) {
		scores[o] = float64((i*7)%11) + 1
	}
	cfg.Fitter = scoreFitter(scores)

	result, err := Search(context.Background(), ar1Series(50), cfg)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if !result.Selected() {
		t.Fatal("Expected an order to be selected")
	}

	// Recompute the minimum sequentially.
	var best *arima.Order
	bestScore := math.Inf(1)
	for _, o := range Candidates(cfg, 0) {
		o := o
		s := scores[o]
		if best == nil || s < bestScore || (s == bestScore && o.Less(*best)) {
			best, bestScore = &o, s
		}
	}
	if *result.Order != *best || result.Score != bestScore {
		t.Errorf("Expected %s (%f), got %s (%f)", best, bestScore, result.Order, result.Score)
	}
	if result.Evaluated() != 27 {
		t.Errorf("Expected 27 evaluated candidates, got %d", result.Evaluated())
	}
}

func TestSearchTieBreak(t *testing.T) {
	cfg := ExhaustiveConfig()
	cfg.Workers = 8
	cfg.Fitter = scoreFitter(map[arima.Order]float64{
		{P: 2, D: 0, Q: 1}: 10,
		{P: 1, D: 1, Q: 0}: 10,
		{P: 1, D: 0, Q: 2}: 10,
		{P: 0, D: 2, Q: 2}: 12,
	})

	for i := 0; i < 20; i++ {
		result, err := Search(context.Background(), ar1Series(50), cfg)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if *result.Order != (arima.Order{P: 1, D: 0, Q: 2}) {
			t.Fatalf("Expected ARIMA(1,0,2), got %s", result.Order)
		}
	}
}

func TestSearchSkipsFailures(t *testing.T) {
	cfg := ExhaustiveConfig()
	cfg.Fitter = scoreFitter(map[arima.Order]float64{
		{P: 0, D: 0, Q: 0}: math.NaN(),
		{P: 1, D: 0, Q: 0}: math.Inf(-1),
		{P: 2, D: 1, Q: 2}: 3,
	})

	result, err := Search(context.Background(), ar1Series(50), cfg)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if *result.Order != (arima.Order{P: 2, D: 1, Q: 2}) {
		t.Errorf("Expected ARIMA(2,1,2), got %s", result.Order)
	}

	failed := 0
	for _, a := range result.Attempts {
		if a.Err != nil {
			failed++
		}
	}
	if failed != 26 {
		t.Errorf("Expected 26 failed attempts, got %d", failed)
	}
	if !errors.Is(result.Attempts[0].Err, arima.ErrNotConverged) {
		t.Errorf("NaN score should be recorded as not converged, got %v", result.Attempts[0].Err)
	}
}

func TestSearchNoModel(t *testing.T) {
	result, err := Search(context.Background(), timeseries.New([]float64{1, 2, 3, 4}), DefaultConfig())
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if result.Selected() {
		t.Errorf("Expected no order for a 4-point series, got %s", result.Order)
	}
	if _, err := result.Predict(1); !errors.Is(err, ErrNoModel) {
		t.Errorf("Expected ErrNoModel, got %v", err)
	}
}

func TestSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Search(ctx, ar1Series(100), DefaultConfig()); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestSearchRealModels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxP = 2
	cfg.MaxQ = 2

	result, err := Search(context.Background(), ar1Series(200), cfg)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if !result.Selected() {
		t.Fatal("Expected an order for a 200-point AR(1) series")
	}

	t.Logf("Selected model: %s, score %f, d=%d", result.Order, result.Score, result.Differencing)

	forecasts, err := result.Predict(5)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	for i, f := range forecasts {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			t.Errorf("Forecast %d is NaN or Inf", i)
		}
	}
}

func TestSearchMatchesSequential(t *testing.T) {
	series := ar1Series(150)

	parallel := ExhaustiveConfig()
	parallel.Workers = 6
	sequential := ExhaustiveConfig()
	sequential.Workers = 1

	a, err := Search(context.Background(), series, parallel)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	b, err := Search(context.Background(), series, sequential)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if a.Selected() != b.Selected() || (a.Selected() && *a.Order != *b.Order) {
		t.Errorf("Parallel and sequential searches disagree: %v vs %v", a.Order, b.Order)
	}
}

func TestSelectOrders(t *testing.T) {
	var calls atomic.Int32
	cfg := DefaultConfig()
	cfg.JointD = true
	cfg.MaxP, cfg.MaxD, cfg.MaxQ = 1, 0, 1
	cfg.Fitter = arima.FitterFunc(func(order arima.Order, s *timeseries.Series) (arima.Fitted, error) {
		calls.Add(1)
		if s.Name == "Volume" {
			return nil, arima.ErrNotConverged
		}
		return fakeModel{score: float64(order.P + order.Q)}, nil
	})

	names := []string{"Open", "Volume", "Close"}
	series := make([]*timeseries.Series, len(names))
	for i, name := range names {
		series[i] = ar1Series(60)
		series[i].Name = name
	}

	results, err := SelectOrders(context.Background(), series, cfg)
	if err != nil {
		t.Fatalf("SelectOrders failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	for i, name := range names {
		if results[i].Name != name {
			t.Errorf("Result %d is %s, expected %s", i, results[i].Name, name)
		}
	}
	if results[1].Selected() {
		t.Error("Volume should have no order")
	}
	if *results[2].Order != (arima.Order{}) {
		t.Errorf("Expected ARIMA(0,0,0) for Close, got %s", results[2].Order)
	}
	if calls.Load() != 12 {
		t.Errorf("Expected 12 fits, got %d", calls.Load())
	}
}
