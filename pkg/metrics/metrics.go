package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the service's prometheus instruments.
type Collector struct {
	// API
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec

	// Scoring
	PredictionsTotal        *prometheus.CounterVec
	PredictionFailuresTotal *prometheus.CounterVec
	FallbackPredictions     *prometheus.CounterVec
	ScoringDuration         *prometheus.HistogramVec
	ValidationRejections    *prometheus.CounterVec
	BatchRowsTotal          *prometheus.CounterVec

	// Storage
	StorageFallbacksTotal *prometheus.CounterVec
	StorageFailuresTotal  *prometheus.CounterVec
	PurgedRecordsTotal    *prometheus.CounterVec

	ActiveWebsockets prometheus.Gauge
}

// NewCollector registers every instrument on reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests by route, method, and status",
			},
			[]string{"route", "method", "status"},
		),
		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"route"},
		),
		PredictionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predictions_total",
				Help:      "Predictions produced, by variant and risk tier",
			},
			[]string{"variant", "tier"},
		),
		PredictionFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prediction_failures_total",
				Help:      "Pipeline failures after validation, by variant and reason",
			},
			[]string{"variant", "reason"},
		),
		FallbackPredictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallback_predictions_total",
				Help:      "Predictions served by the synthetic fallback model",
			},
			[]string{"variant"},
		),
		ScoringDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "scoring_duration_seconds",
				Help:      "Time spent in the scoring pipeline",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
			[]string{"variant"},
		),
		ValidationRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_rejections_total",
				Help:      "Inputs rejected by validation, by variant",
			},
			[]string{"variant"},
		),
		BatchRowsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batch_rows_total",
				Help:      "Batch rows processed, by outcome",
			},
			[]string{"outcome"},
		),
		StorageFallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_fallbacks_total",
				Help:      "Operations that fell back from the database to flat files",
			},
			[]string{"collection", "op"},
		),
		StorageFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_failures_total",
				Help:      "Operations where every storage backend failed",
			},
			[]string{"collection", "op"},
		),
		PurgedRecordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "purged_records_total",
				Help:      "Records removed by the age-based purge",
			},
			[]string{"collection"},
		),
		ActiveWebsockets: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_websockets",
				Help:      "Currently connected live-feed clients",
			},
		),
	}
}

func (c *Collector) RecordAPIRequest(route, method, status string, d time.Duration) {
	c.APIRequestsTotal.WithLabelValues(route, method, status).Inc()
	c.APIRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (c *Collector) RecordPrediction(variant, tier string, fallback bool, d time.Duration) {
	c.PredictionsTotal.WithLabelValues(variant, tier).Inc()
	c.ScoringDuration.WithLabelValues(variant).Observe(d.Seconds())
	if fallback {
		c.FallbackPredictions.WithLabelValues(variant).Inc()
	}
}

func (c *Collector) RecordPredictionFailure(variant, reason string) {
	c.PredictionFailuresTotal.WithLabelValues(variant, reason).Inc()
}

func (c *Collector) RecordValidationRejection(variant string) {
	c.ValidationRejections.WithLabelValues(variant).Inc()
}

func (c *Collector) RecordBatchRow(outcome string) {
	c.BatchRowsTotal.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordStorageFallback(collection, op string) {
	c.StorageFallbacksTotal.WithLabelValues(collection, op).Inc()
}

func (c *Collector) RecordStorageFailure(collection, op string) {
	c.StorageFailuresTotal.WithLabelValues(collection, op).Inc()
}

func (c *Collector) RecordPurge(collection string, removed int) {
	c.PurgedRecordsTotal.WithLabelValues(collection).Add(float64(removed))
}

// Timer measures elapsed time from its creation.
type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
