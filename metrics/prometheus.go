package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starkasticguy/ARIMA-Strategy-Backtesting/risk"
)

const namespace = "arimabt"

// Recorder implements pipeline.Metrics using Prometheus.
type Recorder struct {
	registry *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	gapsFilled    *prometheus.CounterVec
	gapsOpen      *prometheus.GaugeVec
	seriesTotal   *prometheus.CounterVec
	sharpe        *prometheus.GaugeVec
	drawdown      *prometheus.GaugeVec
	annualReturn  *prometheus.GaugeVec
	runs          *prometheus.CounterVec
	lastRun       prometheus.Gauge
}

// New creates a recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		stageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of pipeline stages in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"stage"},
		),
		gapsFilled: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gaps_imputed_total",
				Help:      "Missing observations filled by imputation",
			},
			[]string{"series"},
		),
		gapsOpen: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "gaps_unresolved",
				Help:      "Missing observations left after the last imputation",
			},
			[]string{"series"},
		),
		seriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "series_processed_total",
				Help:      "Series processed by outcome",
			},
			[]string{"series", "outcome"},
		),
		sharpe: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sharpe_ratio",
				Help:      "Annualised Sharpe ratio of the last backtest",
			},
			[]string{"series"},
		),
		drawdown: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "max_drawdown",
				Help:      "Maximum drawdown of the last backtest",
			},
			[]string{"series"},
		),
		annualReturn: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "annualized_return",
				Help:      "Annualised return of the last backtest",
			},
			[]string{"series"},
		),
		runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		lastRun: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last run finished",
			},
		),
	}
}

// ObserveStage records how long a pipeline stage took.
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// GapsImputed records the imputation outcome for a series.
func (r *Recorder) GapsImputed(series string, filled, unresolved int) {
	r.gapsFilled.WithLabelValues(series).Add(float64(filled))
	r.gapsOpen.WithLabelValues(series).Set(float64(unresolved))
}

// SeriesCompleted counts a finished series.
func (r *Recorder) SeriesCompleted(series string, err error) {
	r.seriesTotal.WithLabelValues(series, outcome(err)).Inc()
}

// SetRisk publishes the latest risk metrics for a series.
func (r *Recorder) SetRisk(series string, m risk.Metrics) {
	r.sharpe.WithLabelValues(series).Set(m.Sharpe)
	r.drawdown.WithLabelValues(series).Set(m.MaxDrawdown)
	r.annualReturn.WithLabelValues(series).Set(m.AnnualizedReturn)
}

// RunCompleted counts a whole pipeline run.
func (r *Recorder) RunCompleted(finished time.Time, err error) {
	r.runs.WithLabelValues(outcome(err)).Inc()
	r.lastRun.Set(float64(finished.Unix()))
}

// Registry returns the registry the recorder's collectors live in.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the recorder's metrics in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
