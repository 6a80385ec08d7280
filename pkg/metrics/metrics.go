package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// External API metrics
	ExternalAPICalls    *prometheus.CounterVec
	ExternalAPIDuration *prometheus.HistogramVec
	ExternalAPIFailures *prometheus.CounterVec

	// Diagnosis metrics
	DiagnosesTotal *prometheus.CounterVec
	HealthScores   prometheus.Histogram

	// Landing page metrics
	ExtractionsTotal *prometheus.CounterVec
	SummaryBytes     prometheus.Histogram
}

// New registers the collectors with the default prometheus registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors with reg; tests pass a fresh registry.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		ExternalAPICalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "external_api_calls_total",
				Help: "Total number of external API calls",
			},
			[]string{"api", "status"},
		),

		ExternalAPIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "external_api_duration_seconds",
				Help:    "External API call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"api"},
		),

		ExternalAPIFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "external_api_failures_total",
				Help: "Total number of external API failures",
			},
			[]string{"api", "error_type"},
		),

		DiagnosesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campaign_diagnoses_total",
				Help: "Total number of campaign diagnoses",
			},
			[]string{"outcome"},
		),

		HealthScores: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "campaign_health_score",
				Help:    "Distribution of computed campaign health scores",
				Buckets: []float64{20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
		),

		ExtractionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "landing_page_extractions_total",
				Help: "Total number of landing page extractions",
			},
			[]string{"status"},
		),

		SummaryBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "landing_page_summary_bytes",
				Help:    "Size of generated landing page summaries",
				Buckets: []float64{256, 512, 1024, 2048, 4096, 8192},
			},
		),
	}
}

// HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// External API call metrics
func (m *Metrics) RecordExternalAPICall(api, status string, duration time.Duration) {
	m.ExternalAPICalls.WithLabelValues(api, status).Inc()
	m.ExternalAPIDuration.WithLabelValues(api).Observe(duration.Seconds())
}

// External API failure metrics
func (m *Metrics) RecordExternalAPIFailure(api, errorType string) {
	m.ExternalAPIFailures.WithLabelValues(api, errorType).Inc()
}

// RecordDiagnosis counts one diagnosis and observes its score.
func (m *Metrics) RecordDiagnosis(outcome string, score int) {
	m.DiagnosesTotal.WithLabelValues(outcome).Inc()
	m.HealthScores.Observe(float64(score))
}

// RecordExtraction counts one landing page extraction and observes the summary size.
func (m *Metrics) RecordExtraction(status string, summaryBytes int) {
	m.ExtractionsTotal.WithLabelValues(status).Inc()
	m.SummaryBytes.Observe(float64(summaryBytes))
}

// HTTP requests in flight counter
func (m *Metrics) IncHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// HTTP requests in flight counter
func (m *Metrics) DecHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}
