// Package metrics exports Prometheus metrics for provider calls and
// analyses.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nao1215/pheonix/internal/model"
)

// Metrics provides observability for the aggregator. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Provider calls by provider and status
	ProviderCalls *prometheus.CounterVec

	// Provider call latency by provider
	ProviderLatency *prometheus.HistogramVec

	// Analyses by kind
	Analyses *prometheus.CounterVec

	// Full analysis latency by kind
	AnalysisLatency *prometheus.HistogramVec
}

// New creates a Metrics instance registered with reg. A nil reg uses the
// default Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		ProviderCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pheonix_provider_calls_total",
			Help: "Total provider calls by provider and result status",
		}, []string{"provider", "status"}),

		ProviderLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pheonix_provider_duration_seconds",
			Help:    "Duration of provider calls",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"provider"}),

		Analyses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pheonix_analyses_total",
			Help: "Total analyses by identifier kind",
		}, []string{"kind"}),

		AnalysisLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pheonix_analysis_duration_seconds",
			Help:    "Duration of a full analysis including every provider",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"kind"}),
	}
}

// ObserveProvider records one provider call.
func (m *Metrics) ObserveProvider(provider string, status model.Status, elapsed time.Duration) {
	if m != nil {
		m.ProviderCalls.WithLabelValues(provider, status.String()).Inc()
		m.ProviderLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
	}
}

// ObserveAnalysis records one finished analysis.
func (m *Metrics) ObserveAnalysis(kind model.Kind, elapsed time.Duration) {
	if m != nil {
		m.Analyses.WithLabelValues(kind.String()).Inc()
		m.AnalysisLatency.WithLabelValues(kind.String()).Observe(elapsed.Seconds())
	}
}
