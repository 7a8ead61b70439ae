// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidstore_storage_operations_total",
			Help: "Total number of gateway storage operations",
		},
		[]string{"operation", "status"},
	)

	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidstore_storage_operation_duration_seconds",
			Help:    "Duration of gateway storage operations in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
		},
		[]string{"operation"},
	)

	UploadedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vidstore_uploaded_bytes_total",
			Help: "Total bytes written to the object store",
		},
	)

	StagingCleanupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vidstore_staging_cleanup_failures_total",
			Help: "Staging files that could not be removed after an upload",
		},
	)
)
