package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Chart render duration (seconds), flatten + layout + SVG
	RenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gantt_render_duration_seconds",
			Help:    "Chart render duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 0.1ms to ~200ms
		},
		[]string{"view_mode"},
	)

	// Rows in the most recent layout
	LayoutRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gantt_layout_rows",
			Help: "Number of rows in the most recently computed layout",
		},
	)

	// Store intents applied, by intent kind and outcome
	IntentCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gantt_store_intents_total",
			Help: "Total number of store intents dispatched",
		},
		[]string{"intent", "result"}, // result: ok, invalid, not_found, error
	)

	// Persistence failures swallowed by the store
	PersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gantt_store_persist_failures_total",
			Help: "Total number of snapshot persistence failures",
		},
	)

	// HTTP request duration (seconds)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gantt_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "route", "status"},
	)
)

// RecordRender records one chart render.
func RecordRender(viewMode string, rows int, duration time.Duration) {
	RenderDuration.WithLabelValues(viewMode).Observe(duration.Seconds())
	LayoutRows.Set(float64(rows))
}

// RecordIntent counts one dispatched intent.
func RecordIntent(intent, result string) {
	IntentCount.WithLabelValues(intent, result).Inc()
}

// RecordHTTPRequest records one HTTP request.
func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}
