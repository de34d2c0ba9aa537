package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Model API call latency in seconds.
	ModelCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadctl_model_call_duration_seconds",
			Help:    "Model API call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"model", "status"},
	)

	// Items processed by the pipelines.
	ItemsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadctl_items_processed_total",
			Help: "Total number of leads scored and emails summarized",
		},
		[]string{"kind", "status"},
	)

	// Dashboard HTTP request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadctl_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)
)

// RecordModelCall records one model API round trip.
func RecordModelCall(model, status string, d time.Duration) {
	ModelCallDuration.WithLabelValues(model, status).Observe(d.Seconds())
}

// RecordItem records one processed pipeline item.
func RecordItem(kind, status string) {
	ItemsProcessed.WithLabelValues(kind, status).Inc()
}

// RecordHTTPRequest records one dashboard request.
func RecordHTTPRequest(method, path, status string, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}
