package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  *prometheus.GaugeVec
	HTTPResponseSize      *prometheus.HistogramVec

	// Database metrics
	DatabaseConnections   *prometheus.GaugeVec
	DatabaseQueries       *prometheus.CounterVec
	DatabaseQueryDuration *prometheus.HistogramVec

	// Pick-request domain metrics
	RequestsCreatedTotal  *prometheus.CounterVec
	RequestsSubmittedTotal *prometheus.CounterVec
	ClaimsActiveGauge     prometheus.Gauge
	ReaperReleasesTotal   prometheus.Counter
	ReaperPurgedTotal     prometheus.Counter
	ScanEventsTotal       *prometheus.CounterVec

	// System metrics
	ApplicationInfo       *prometheus.GaugeVec
	ApplicationUptime     *prometheus.CounterVec
}

var (
	// Global metrics instance
	AppMetrics *Metrics
)

// Init initializes Prometheus metrics
func Init(serviceName, version string) *Metrics {
	metrics := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint", "status_code"},
		),
		HTTPRequestsInFlight: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),
		HTTPResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "Size of HTTP responses in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "endpoint", "status_code"},
		),

		// Database metrics
		DatabaseConnections: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "database_connections",
				Help: "Number of database connections",
			},
			[]string{"database", "state"},
		),
		DatabaseQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_queries_total",
				Help: "Total number of database queries",
			},
			[]string{"database", "operation", "table"},
		),
		DatabaseQueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "database_query_duration_seconds",
				Help:    "Duration of database queries in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"database", "operation", "table"},
		),

		// Pick-request domain metrics
		RequestsCreatedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pick_requests_created_total",
				Help: "Total number of pick requests created",
			},
			[]string{"priority"},
		),
		RequestsSubmittedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pick_requests_submitted_total",
				Help: "Total number of pick requests submitted, by final status",
			},
			[]string{"status"},
		),
		ClaimsActiveGauge: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "pick_claims_active",
				Help: "Number of requests currently claimed by a picker",
			},
		),
		ReaperReleasesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "pick_reaper_releases_total",
				Help: "Total number of idle claims released by the reaper",
			},
		),
		ReaperPurgedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "pick_reaper_purged_total",
				Help: "Total number of aged completions purged by the reaper",
			},
		),
		ScanEventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pick_scan_events_total",
				Help: "Total number of barcode scan events processed, by outcome",
			},
			[]string{"outcome"},
		),

		// System metrics
		ApplicationInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "application_info",
				Help: "Application information",
			},
			[]string{"service_name", "version", "go_version"},
		),
		ApplicationUptime: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "application_uptime_seconds_total",
				Help: "Total application uptime in seconds",
			},
			[]string{"service_name"},
		),
	}

	// Set application info
	metrics.ApplicationInfo.WithLabelValues(serviceName, version, "go1.24.5").Set(1)

	// Store global reference
	AppMetrics = metrics

	return metrics
}

// PrometheusMiddleware returns a Gin middleware for Prometheus metrics collection
func (m *Metrics) PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		
		// Increment in-flight requests
		m.HTTPRequestsInFlight.WithLabelValues(c.Request.Method, c.FullPath()).Inc()
		
		// Process request
		c.Next()
		
		// Decrement in-flight requests
		m.HTTPRequestsInFlight.WithLabelValues(c.Request.Method, c.FullPath()).Dec()
		
		// Record metrics
		duration := time.Since(start).Seconds()
		statusCode := strconv.Itoa(c.Writer.Status())
		
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, c.FullPath(), statusCode).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, c.FullPath(), statusCode).Observe(duration)
		m.HTTPResponseSize.WithLabelValues(c.Request.Method, c.FullPath(), statusCode).Observe(float64(c.Writer.Size()))
	}
}

// RecordDatabaseConnection records database connection metrics
func (m *Metrics) RecordDatabaseConnection(database, state string, count float64) {
	m.DatabaseConnections.WithLabelValues(database, state).Set(count)
}

// RecordDatabaseQuery records database query metrics
func (m *Metrics) RecordDatabaseQuery(database, operation, table string, duration time.Duration) {
	m.DatabaseQueries.WithLabelValues(database, operation, table).Inc()
	m.DatabaseQueryDuration.WithLabelValues(database, operation, table).Observe(duration.Seconds())
}

// RecordRequestCreated records a pick request creation, by priority.
func (m *Metrics) RecordRequestCreated(priority string) {
	m.RequestsCreatedTotal.WithLabelValues(priority).Inc()
}

// RecordRequestSubmitted records a submit outcome, by final status
// (completed or partially_completed).
func (m *Metrics) RecordRequestSubmitted(status string) {
	m.RequestsSubmittedTotal.WithLabelValues(status).Inc()
}

// SetActiveClaims sets the current count of claimed requests.
func (m *Metrics) SetActiveClaims(count float64) {
	m.ClaimsActiveGauge.Set(count)
}

// RecordReaperPass records one reaper pass's released and purged counts.
func (m *Metrics) RecordReaperPass(released, purged int) {
	if released > 0 {
		m.ReaperReleasesTotal.Add(float64(released))
	}
	if purged > 0 {
		m.ReaperPurgedTotal.Add(float64(purged))
	}
}

// RecordScanEvent records a barcode scan outcome (applied, debounced,
// manual_required, no_op).
func (m *Metrics) RecordScanEvent(outcome string) {
	m.ScanEventsTotal.WithLabelValues(outcome).Inc()
}

// RecordUptime records application uptime
func (m *Metrics) RecordUptime(serviceName string, uptime time.Duration) {
	m.ApplicationUptime.WithLabelValues(serviceName).Add(uptime.Seconds())
}