// Package metrics provides Prometheus metrics for the explorer
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Dataset metrics
	DatasetLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_dataset_loads_total",
			Help: "Total number of dataset reads from the source",
		},
		[]string{"status"},
	)

	DatasetLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "explorer_dataset_load_duration_seconds",
			Help:    "Time taken to read and normalize the dataset",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"status"},
	)

	DatasetRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "explorer_dataset_rows",
			Help: "Rows in the most recently loaded dataset",
		},
	)

	// Geocoding metrics
	GeocodeBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_geocode_batches_total",
			Help: "ZIP batch lookups by cache outcome",
		},
		[]string{"result"},
	)

	// View metrics
	ViewsRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_views_total",
			Help: "Filter recompute passes by entry point",
		},
		[]string{"surface"},
	)

	FilteredRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "explorer_filtered_rows",
			Help:    "Rows remaining after filters and search",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	Exports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_exports_total",
			Help: "Table downloads by format",
		},
		[]string{"format"},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "explorer_sessions_active",
			Help: "Filter sessions held in memory",
		},
	)
)

func RecordDatasetLoad(status string, d time.Duration) {
	DatasetLoads.WithLabelValues(status).Inc()
	DatasetLoadDuration.WithLabelValues(status).Observe(d.Seconds())
}

func RecordGeocode(result string) {
	GeocodeBatches.WithLabelValues(result).Inc()
}

func RecordView(surface string, rows int) {
	ViewsRendered.WithLabelValues(surface).Inc()
	FilteredRows.Observe(float64(rows))
}

func RecordExport(format string) {
	Exports.WithLabelValues(format).Inc()
}
