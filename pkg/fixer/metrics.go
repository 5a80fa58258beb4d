package fixer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records fix request outcomes. A nil *Metrics records nothing.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	upstreamFailures *prometheus.CounterVec
	sourceChars      *prometheus.HistogramVec
}

// NewMetrics registers the fixer metrics with reg. A nil reg leaves them
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "codefixer_fix_requests_total",
			Help: "Total number of fix requests by outcome",
		}, []string{"outcome"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "codefixer_fix_request_duration_seconds",
			Help:    "Duration of fix requests in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"outcome"}),
		upstreamFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "codefixer_upstream_failures_total",
			Help: "Total number of failed completions by kind",
		}, []string{"kind"}),
		sourceChars: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "codefixer_source_chars",
			Help:    "Length of the source text in characters before and after optimization",
			Buckets: []float64{100, 500, 1000, 2000, 4000, 10000, 50000, 200000},
		}, []string{"stage"}), // stage: original, optimized
	}
}

func (m *Metrics) observeOutcome(o Outcome, d time.Duration) {
	if m == nil {
		return
	}
	label := o.Label()
	m.requestsTotal.WithLabelValues(label).Inc()
	m.requestDuration.WithLabelValues(label).Observe(d.Seconds())
	if !o.OK() && o.Failure.Reason == UpstreamFailed {
		m.upstreamFailures.WithLabelValues(o.Failure.Upstream.String()).Inc()
	}
}

func (m *Metrics) observeSource(original, optimized int) {
	if m == nil {
		return
	}
	m.sourceChars.WithLabelValues("original").Observe(float64(original))
	m.sourceChars.WithLabelValues("optimized").Observe(float64(optimized))
}
