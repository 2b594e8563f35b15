// Package metrics exposes Prometheus collectors for the analytics service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all metrics for the analytics service. A nil *Collector
// is a valid no-op collector, which keeps handler tests free of global
// registry collisions.
type Collector struct {
	trainingRuns     *prometheus.CounterVec
	trainingDuration prometheus.Histogram
	predictions      *prometheus.CounterVec
}

// NewCollector registers and returns the service collectors. Call once per
// process; collectors register into the default Prometheus registry.
func NewCollector() *Collector {
	return &Collector{
		trainingRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groupbuy",
			Subsystem: "analytics",
			Name:      "training_runs_total",
			Help:      "Total number of training runs by model type and outcome",
		}, []string{"model_type", "status"}),
		trainingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "groupbuy",
			Subsystem: "analytics",
			Name:      "training_duration_seconds",
			Help:      "Wall-clock duration of training runs",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		predictions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groupbuy",
			Subsystem: "analytics",
			Name:      "predictions_total",
			Help:      "Total number of predictions created by prediction type",
		}, []string{"prediction_type"}),
	}
}

// TrainingRun records one finished training run.
func (c *Collector) TrainingRun(modelType, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.trainingRuns.WithLabelValues(modelType, status).Inc()
	c.trainingDuration.Observe(duration.Seconds())
}

// PredictionCreated records one created prediction.
func (c *Collector) PredictionCreated(predictionType string) {
	if c == nil {
		return
	}
	c.predictions.WithLabelValues(predictionType).Inc()
}
