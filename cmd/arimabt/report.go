package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/pipeline"
	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/timeseries"
)

// number marshals NaN and infinities as null.
type number float64

func (n number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

type point struct {
	Date  string `json:"date"`
	Value number `json:"value"`
}

type metricsOutput struct {
	Sharpe           number `json:"sharpe"`
	SharpeUnbounded  bool   `json:"sharpe_unbounded,omitempty"`
	MaxDrawdown      number `json:"max_drawdown"`
	AnnualizedReturn number `json:"annualized_return"`
}

type seriesOutput struct {
	Name                string        `json:"name"`
	Order               string        `json:"order,omitempty"`
	Score               number        `json:"score"`
	Differencing        int           `json:"differencing"`
	ModelsEvaluated     int           `json:"models_evaluated"`
	GapsFilled          int           `json:"gaps_filled"`
	GapsUnresolved      []string      `json:"gaps_unresolved,omitempty"`
	FailedWindows       int           `json:"failed_windows"`
	LjungBoxPValue      *number       `json:"ljung_box_p_value,omitempty"`
	DirectionalAccuracy number        `json:"directional_accuracy"`
	FinalReturn         number        `json:"final_return"`
	Metrics             metricsOutput `json:"metrics"`
	InSample            []point       `json:"in_sample,omitempty"`
	Cumulative          []point       `json:"cumulative,omitempty"`
	Volatility          []point       `json:"volatility,omitempty"`
	Future              []point       `json:"future,omitempty"`
	FutureReturns       []point       `json:"future_returns,omitempty"`
	RecentPrices        []point       `json:"recent_prices,omitempty"`
	RecentReturns       []point       `json:"recent_returns,omitempty"`
	Error               string        `json:"error,omitempty"`
}

type reportOutput struct {
	RunID       string         `json:"run_id"`
	StartedAt   time.Time      `json:"started_at"`
	DurationMS  int64          `json:"duration_ms"`
	Rows        int            `json:"rows"`
	DroppedRows int            `json:"dropped_rows"`
	Series      []seriesOutput `json:"series"`
}

func points(s *timeseries.Series) []point {
	if s == nil || !s.Indexed() {
		return nil
	}
	out := make([]point, s.Len())
	for i, v := range s.Values {
		out[i] = point{Date: s.Timestamps[i].Format(time.DateOnly), Value: number(v)}
	}
	return out
}

func buildOutput(runID string, r *pipeline.Report) reportOutput {
	out := reportOutput{
		RunID:       runID,
		StartedAt:   r.StartedAt,
		DurationMS:  r.Duration.Milliseconds(),
		Rows:        r.Rows,
		DroppedRows: r.DroppedRows,
		Series:      make([]seriesOutput, 0, len(r.Series)),
	}

	for _, s := range r.Series {
		so := seriesOutput{
			Name:            s.Name,
			Score:           number(s.Score),
			Differencing:    s.Differencing,
			ModelsEvaluated: s.Candidates,
			GapsFilled:      s.Gaps.Filled,
			FailedWindows:   s.FailedWindows,
			Metrics: metricsOutput{
				Sharpe:           number(s.Metrics.Sharpe),
				SharpeUnbounded:  math.IsInf(s.Metrics.Sharpe, 0),
				MaxDrawdown:      number(s.Metrics.MaxDrawdown),
				AnnualizedReturn: number(s.Metrics.AnnualizedReturn),
			},
			DirectionalAccuracy: number(math.NaN()),
			FinalReturn:         number(math.NaN()),
			InSample:            points(s.InSample),
			Future:              points(s.Future),
			FutureReturns:       points(s.FutureReturns),
			RecentPrices:        points(s.RecentPrices),
			RecentReturns:       points(s.RecentReturns),
		}
		if s.Order != nil {
			so.Order = s.Order.String()
		}
		for _, d := range s.Gaps.Unresolved {
			so.GapsUnresolved = append(so.GapsUnresolved, d.Format(time.DateOnly))
		}
		if s.Diagnostics != nil && s.Diagnostics.LjungBox != nil {
			p := number(s.Diagnostics.LjungBox.PValue)
			so.LjungBoxPValue = &p
		}
		if s.Backtest != nil {
			so.DirectionalAccuracy = number(s.Backtest.DirectionalAccuracy)
			so.FinalReturn = number(s.Backtest.FinalReturn())
			so.Cumulative = points(s.Backtest.Cumulative)
			so.Volatility = points(s.Backtest.Volatility)
		}
		if s.Err != nil {
			so.Error = s.Err.Error()
		}
		out.Series = append(out.Series, so)
	}
	return out
}

func writeJSON(path string, out reportOutput) error {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, r *pipeline.Report) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "ARIMA backtest: %d rows, %d series, %s\n", r.Rows, len(r.Series), r.Duration.Round(time.Millisecond))
	fmt.Fprintln(w, rule)

	for _, s := range r.Series {
		if !s.Viable() {
			fmt.Fprintf(w, "%-12s skipped: %v\n", s.Name, s.Err)
			continue
		}
		fmt.Fprintf(w, "%-12s %-14s return %8.2f%%  sharpe %6.2f  max dd %7.2f%%  ann %7.2f%%  hit %5.1f%%\n",
			s.Name, s.Order, 100*s.Backtest.FinalReturn(), s.Metrics.Sharpe,
			100*s.Metrics.MaxDrawdown, 100*s.Metrics.AnnualizedReturn, 100*s.Backtest.DirectionalAccuracy)
		if s.Future != nil && s.Future.Len() > 0 {
			fmt.Fprintf(w, "%-12s next %d: %s\n", "", s.Future.Len(), formatValues(s.Future.Values))
		}
	}
	fmt.Fprintln(w, rule)
}

func formatValues(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%.2f", v)
	}
	return strings.Join(parts, " ")
}
