package infra

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors exported on /metrics. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry          *prometheus.Registry
	moodboardRequests *prometheus.CounterVec
	generationSeconds prometheus.Histogram
	normalizerRecords *prometheus.CounterVec
}

// NewMetrics registers the service collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		moodboardRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moodboard_requests_total",
			Help: "Moodboard requests by terminal outcome.",
		}, []string{"outcome"}),
		generationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "moodboard_generation_seconds",
			Help:    "Latency of image provider calls.",
			Buckets: []float64{1, 5, 10, 20, 40, 60, 90, 120, 180},
		}),
		normalizerRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_normalizer_records_total",
			Help: "Catalog records processed by the normalizer, by outcome and reason.",
		}, []string{"outcome", "reason"}),
	}
	reg.MustRegister(
		m.moodboardRequests,
		m.generationSeconds,
		m.normalizerRecords,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveMoodboard(outcome string) {
	if m == nil {
		return
	}
	m.moodboardRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveGeneration(seconds float64) {
	if m == nil {
		return
	}
	m.generationSeconds.Observe(seconds)
}

func (m *Metrics) ObserveNormalizerRecord(outcome, reason string) {
	if m == nil {
		return
	}
	m.normalizerRecords.WithLabelValues(outcome, reason).Inc()
}
