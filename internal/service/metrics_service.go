package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the intake
// server: HTTP traffic plus the submission pipeline.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	submissionTotal prometheus.Counter
	stepFailures    *prometheus.CounterVec
	emailsSent      prometheus.Counter
}

// NewMetricsService registers the core collectors.
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

	submissionTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "intake_submissions_total",
		Help: "Total number of accepted form submissions",
	})

	stepFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "intake_pipeline_failures_total",
		Help: "Pipeline step failures by step name",
	}, []string{"step"})

	emailsSent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "intake_emails_sent_total",
		Help: "Total number of notification e-mails delivered",
	})

	registry.MustRegister(requestDuration, requestTotal, submissionTotal, stepFailures, emailsSent)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		submissionTotal: submissionTotal,
		stepFailures:    stepFailures,
		emailsSent:      emailsSent,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one handled HTTP request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	s.requestDuration.With(labels).Observe(duration.Seconds())
	s.requestTotal.With(labels).Inc()
}

// ObserveSubmission counts one assembled submission entering the pipeline.
func (s *MetricsService) ObserveSubmission() {
	s.submissionTotal.Inc()
}

// ObserveStepFailure counts a pipeline abort at the named step.
func (s *MetricsService) ObserveStepFailure(step string) {
	s.stepFailures.WithLabelValues(step).Inc()
}

// ObserveEmailSent counts one delivered notification.
func (s *MetricsService) ObserveEmailSent() {
	s.emailsSent.Inc()
}
