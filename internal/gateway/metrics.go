package gateway

import (
	"regexp"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "Backend requests issued by the gateway, by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Subsystem: "gateway",
		Name:      "request_duration_seconds",
		Help:      "Round-trip latency of backend requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})
)

var pathIDs = regexp.MustCompile(`/\d+`)

// metricPath collapses numeric path segments so per-item URLs share a label.
func metricPath(path string) string {
	return pathIDs.ReplaceAllString(path, "/{id}")
}

func observe(path, outcome string, started time.Time) {
	ep := metricPath(path)
	requestsTotal.WithLabelValues(ep, outcome).Inc()
	requestDuration.WithLabelValues(ep).Observe(time.Since(started).Seconds())
}
