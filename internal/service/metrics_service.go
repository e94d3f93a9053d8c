package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	admissions      *prometheus.CounterVec
	projected       prometheus.Counter
	projectionSkips prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	admissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reservation_admissions_total",
		Help: "Capacity guard outcomes for bookings and registrations",
	}, []string{"kind", "outcome"})

	projected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sessions_projected_total",
		Help: "Sessions created by recurrence projection",
	})

	projectionSkips := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sessions_projection_skips_total",
		Help: "Occurrences skipped during recurrence projection",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, admissions, projected, projectionSkips, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		admissions:      admissions,
		projected:       projected,
		projectionSkips: projectionSkips,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordAdmission counts a capacity guard decision. kind is "booking" or
// "registration"; outcome is "admitted" or "rejected".
func (m *MetricsService) RecordAdmission(kind string, admitted bool) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if admitted {
		outcome = "admitted"
	}
	m.admissions.WithLabelValues(kind, outcome).Inc()
}

// RecordProjection counts a recurrence projection run's results.
func (m *MetricsService) RecordProjection(created, skipped int) {
	if m == nil {
		return
	}
	m.projected.Add(float64(created))
	m.projectionSkips.Add(float64(skipped))
}
