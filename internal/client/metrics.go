package client

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devmate_backend_requests_total",
			Help: "Total number of requests sent to the DevMate backend",
		},
		[]string{"method", "endpoint", "status"},
	)

	backendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "devmate_backend_request_duration_seconds",
			Help:    "Backend request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)
)

// observeRequest records one backend call. endpoint is a fixed name, not the
// URL, to keep label cardinality bounded.
func observeRequest(method, endpoint, status string, start time.Time) {
	backendRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	backendRequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
}
