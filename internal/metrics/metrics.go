// Package metrics records backtest runs as Prometheus metrics. A batch run
// has no scrape endpoint, so the registry is written out in the
// node_exporter textfile format at the end of the run.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/inf-covid19/prederr/internal/backtest"
)

// Recorder owns a private registry and the run collectors.
type Recorder struct {
	reg *prometheus.Registry

	days         *prometheus.CounterVec
	candidates   *prometheus.CounterVec
	undefined    *prometheus.CounterVec
	meanAbsError *prometheus.GaugeVec
	duration     *prometheus.HistogramVec
	lastSuccess  prometheus.Gauge
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		days: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prederr_days_evaluated_total",
				Help: "Days backtested.",
			},
			[]string{"metric", "threshold"},
		),
		candidates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prederr_candidates_total",
				Help: "Candidate regressors attempted, by outcome.",
			},
			[]string{"metric", "threshold", "outcome"},
		),
		undefined: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prederr_undefined_errors_total",
				Help: "Days whose prediction was zero, leaving the percentage error undefined.",
			},
			[]string{"metric", "threshold"},
		),
		meanAbsError: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "prederr_mean_abs_error",
				Help: "Mean absolute difference between prediction and observed value over the reported days.",
			},
			[]string{"metric", "threshold"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prederr_backtest_duration_seconds",
				Help:    "Wall time of one backtest.",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"metric", "threshold"},
		),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "prederr_last_success_timestamp_seconds",
			Help: "Unix time of the last run that completed every backtest.",
		}),
	}

	r.reg.MustRegister(r.days, r.candidates, r.undefined, r.meanAbsError, r.duration, r.lastSuccess)
	return r
}

// Observe records one finished backtest.
func (r *Recorder) Observe(metric string, threshold int, stats backtest.Stats, elapsed time.Duration) {
	th := strconv.Itoa(threshold)

	r.days.WithLabelValues(metric, th).Add(float64(stats.Days))
	r.candidates.WithLabelValues(metric, th, "viable").Add(float64(stats.Viable))
	r.candidates.WithLabelValues(metric, th, "empty").Add(float64(stats.DiscardedEmpty))
	r.candidates.WithLabelValues(metric, th, "singular").Add(float64(stats.DiscardedSingular))
	r.candidates.WithLabelValues(metric, th, "non_finite").Add(float64(stats.DiscardedNonFinite))
	r.undefined.WithLabelValues(metric, th).Add(float64(stats.UndefinedErrors))
	r.meanAbsError.WithLabelValues(metric, th).Set(stats.MeanAbsError)
	r.duration.WithLabelValues(metric, th).Observe(elapsed.Seconds())
}

// MarkSuccess stamps the completion time of the run.
func (r *Recorder) MarkSuccess(now time.Time) {
	r.lastSuccess.Set(float64(now.Unix()))
}

// Gatherer exposes the registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer { return r.reg }

// WriteTextfile writes the registry to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
