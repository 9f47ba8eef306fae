package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sternrassler/userposts/pkg/metrics"
)

// Prometheus metrics for fetch operations.
var (
	factory = promauto.With(metrics.Registry)

	requestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "userposts_requests_total",
		Help: "Total API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "userposts_request_duration_seconds",
		Help:    "Fetch duration in seconds by endpoint, retries included",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "userposts_errors_total",
		Help: "Total fetch errors by class",
	}, []string{"class"})

	retriesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "userposts_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryExhaustedTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "userposts_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)
