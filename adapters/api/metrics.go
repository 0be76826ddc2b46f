package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prediction API collectors. Each instance owns its registry
// so servers built in tests do not collide on registration.
type Metrics struct {
	Registry *prometheus.Registry

	predictions       *prometheus.CounterVec
	predictionLatency prometheus.Histogram
	batchSize         prometheus.Histogram
	modelInfo         *prometheus.GaugeVec
}

// NewMetrics registers the collectors on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gochurn_predictions_total",
			Help: "Total number of scored customer records by outcome.",
		}, []string{"outcome"}),
		predictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gochurn_prediction_duration_seconds",
			Help:    "Duration of a single customer prediction.",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		batchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gochurn_batch_size",
			Help:    "Number of customers per batch request.",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000},
		}),
		modelInfo: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gochurn_model_info",
			Help: "Served model; always 1.",
		}, []string{"model_id", "schema_fingerprint"}),
	}
}

// ObservePrediction records one scored record
func (m *Metrics) ObservePrediction(outcome string, seconds float64) {
	m.predictions.WithLabelValues(outcome).Inc()
	m.predictionLatency.Observe(seconds)
}

// ObserveBatch records the size of one batch request
func (m *Metrics) ObserveBatch(n int) {
	m.batchSize.Observe(float64(n))
}

// SetModel publishes the served model's identity
func (m *Metrics) SetModel(modelID, schemaFingerprint string) {
	m.modelInfo.Reset()
	m.modelInfo.WithLabelValues(modelID, schemaFingerprint).Set(1)
}
