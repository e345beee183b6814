package metrics

import (
	"bufio"
	"fmt"
	"net"
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

	detectionRunsTotal *prometheus.CounterVec
	detectionDuration  *prometheus.HistogramVec
	candidatesPerRun   *prometheus.HistogramVec
	sourcesPerRun      *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vs",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vs",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vs",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	detectionRunsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vs",
			Subsystem: "detection",
			Name:      "runs_total",
			Help:      "Total completed detection runs by resulting plagiarism level.",
		},
		[]string{"service", "level"},
	)
	detectionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vs",
			Subsystem: "detection",
			Name:      "duration_seconds",
			Help:      "Detection run duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	candidatesPerRun := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vs",
			Subsystem: "detection",
			Name:      "candidates_per_run",
			Help:      "Distribution of selected candidates per detection run.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
		[]string{"service"},
	)
	sourcesPerRun := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vs",
			Subsystem: "detection",
			Name:      "sources_per_run",
			Help:      "Distribution of reported sources per detection run.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		detectionRunsTotal,
		detectionDuration,
		candidatesPerRun,
		sourcesPerRun,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		detectionRunsTotal: detectionRunsTotal,
		detectionDuration:  detectionDuration,
		candidatesPerRun:   candidatesPerRun,
		sourcesPerRun:      sourcesPerRun,
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

// normalizePath collapses identifier segments so label cardinality stays
// bounded.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/reports/") && strings.HasSuffix(path, "/verify"):
		return "/v1/reports/{report_id}/verify"
	case strings.HasPrefix(path, "/v1/reports/"):
		return "/v1/reports/{report_id}"
	case strings.HasPrefix(path, "/v1/submissions/"):
		return "/v1/submissions/{submission_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordDetectionRun(service, level string, candidates, sources int, duration time.Duration) {
	if level == "" {
		level = "unknown"
	}
	m.detectionRunsTotal.WithLabelValues(service, level).Inc()
	m.detectionDuration.WithLabelValues(service).Observe(duration.Seconds())
	m.candidatesPerRun.WithLabelValues(service).Observe(float64(candidates))
	m.sourcesPerRun.WithLabelValues(service).Observe(float64(sources))
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
