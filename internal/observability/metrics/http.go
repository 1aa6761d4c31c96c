// Package metrics exposes per-process Prometheus registries for the api
// and worker binaries.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	submissionsAcceptedTotal *prometheus.CounterVec
	uploadFilesTotal         *prometheus.CounterVec
	autocropTotal            *prometheus.CounterVec
	reportsSavedTotal        *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clipline",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clipline",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "clipline",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	submissionsAcceptedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clipline",
			Subsystem: "intake",
			Name:      "submissions_accepted_total",
			Help:      "Total accepted clipping submissions.",
		},
		[]string{"service"},
	)
	uploadFilesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clipline",
			Subsystem: "intake",
			Name:      "upload_files_total",
			Help:      "Total uploaded files by detected kind.",
		},
		[]string{"service", "kind"},
	)
	autocropTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clipline",
			Subsystem: "intake",
			Name:      "autocrop_total",
			Help:      "Total image normalizations by outcome.",
		},
		[]string{"service", "outcome"},
	)
	reportsSavedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clipline",
			Subsystem: "reports",
			Name:      "saved_total",
			Help:      "Total confirmed reports saved.",
		},
		[]string{"service", "thematic_area"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		submissionsAcceptedTotal,
		uploadFilesTotal,
		autocropTotal,
		reportsSavedTotal,
	)

	return &HTTPServerMetrics{
		registry:                 registry,
		requestTotal:             requestTotal,
		requestDuration:          requestDuration,
		requestInFlight:          requestInFlight,
		submissionsAcceptedTotal: submissionsAcceptedTotal,
		uploadFilesTotal:         uploadFilesTotal,
		autocropTotal:            autocropTotal,
		reportsSavedTotal:        reportsSavedTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses resource ids so path label cardinality stays flat.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/submissions/"):
		return "/v1/submissions/{submission_id}"
	case path == "/v1/reports/recent":
		return path
	case strings.HasPrefix(path, "/v1/reports/"):
		return "/v1/reports/{report_id}"
	case strings.HasPrefix(path, "/v1/sources/"):
		return "/v1/sources/{source_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordSubmissionAccepted(service string) {
	m.submissionsAcceptedTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordUploadFile(service, kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.uploadFilesTotal.WithLabelValues(service, kind).Inc()
}

func (m *HTTPServerMetrics) RecordAutocrop(service string, cropped bool) {
	outcome := "passthrough"
	if cropped {
		outcome = "cropped"
	}
	m.autocropTotal.WithLabelValues(service, outcome).Inc()
}

func (m *HTTPServerMetrics) RecordReportSaved(service, thematicArea string) {
	if thematicArea == "" {
		thematicArea = "Unassigned"
	}
	m.reportsSavedTotal.WithLabelValues(service, thematicArea).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}
