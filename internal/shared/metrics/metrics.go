// Package metrics holds the Prometheus collectors shared by the store adapters and the HTTP layer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeOK        = "ok"
	OutcomeMiss      = "miss"
	OutcomeDuplicate = "duplicate"
	OutcomeError     = "error"
)

var (
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_store_operations_total",
			Help: "Total number of document store operations",
		},
		[]string{"collection", "operation", "outcome"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_store_operation_duration_seconds",
			Help:    "Duration of document store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collection", "operation"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ChangeEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_change_events_total",
			Help: "Catalog change events appended to the change trail",
		},
		[]string{"entity", "action", "outcome"},
	)

	LiveSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_live_subscribers",
			Help: "Clients currently following the live change stream",
		},
	)

	LiveEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_live_events_dropped_total",
			Help: "Change events dropped because a live subscriber fell behind",
		},
	)
)

// ObserveStore records one store call
func ObserveStore(collection, operation, outcome string, started time.Time) {
	StoreOperations.WithLabelValues(collection, operation, outcome).Inc()
	StoreOperationDuration.WithLabelValues(collection, operation).Observe(time.Since(started).Seconds())
}
