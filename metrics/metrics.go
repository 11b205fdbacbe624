// Package metrics records forecaster activity with Prometheus
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "forecaster"

// Recorder implements the forecaster metrics hook and records HTTP requests
type Recorder struct {
	trainTotal      *prometheus.CounterVec
	trainDuration   *prometheus.HistogramVec
	predictTotal    *prometheus.CounterVec
	predictDuration *prometheus.HistogramVec
	confidence      prometheus.Histogram
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates a recorder registering its collectors with reg
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		trainTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "train_total",
				Help:      "Total number of model trainings",
			},
			[]string{"status"},
		),
		trainDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "train_duration_seconds",
				Help:      "Duration of model training and persistence in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"status"},
		),
		predictTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predict_total",
				Help:      "Total number of forecasts",
			},
			[]string{"status"},
		),
		predictDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "predict_duration_seconds",
				Help:      "Duration of forecasts including any retraining in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"status"},
		),
		confidence: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "confidence",
				Help:      "Confidence score of forecasts",
				Buckets:   prometheus.LinearBuckets(0.65, 0.03, 10),
			},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint", "status"},
		),
	}
}

func (r *Recorder) ObserveTrain(status string, dur time.Duration) {
	r.trainTotal.WithLabelValues(status).Inc()
	r.trainDuration.WithLabelValues(status).Observe(dur.Seconds())
}

func (r *Recorder) ObservePredict(status string, dur time.Duration) {
	r.predictTotal.WithLabelValues(status).Inc()
	r.predictDuration.WithLabelValues(status).Observe(dur.Seconds())
}

func (r *Recorder) ObserveConfidence(v float64) {
	r.confidence.Observe(v)
}

// ObserveHTTP records a served request. Unmatched routes are grouped as not_found.
func (r *Recorder) ObserveHTTP(method, endpoint string, status int, dur time.Duration) {
	if endpoint == "" {
		endpoint = "not_found"
	}
	code := strconv.Itoa(status)
	r.httpRequests.WithLabelValues(method, endpoint, code).Inc()
	r.httpDuration.WithLabelValues(method, endpoint, code).Observe(dur.Seconds())
}
