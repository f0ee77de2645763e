package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soitmed/medops-api/internal/models"
)

// MetricsService exposes Prometheus counters for HTTP traffic and the
// workflow transitions that matter operationally.
type MetricsService struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	offerTransition *prometheus.CounterVec
	dealTransition  *prometheus.CounterVec
	assignments     *prometheus.CounterVec
}

// NewMetricsService builds the registry and registers all collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &MetricsService{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, path and status code.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		offerTransition: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "offer_transitions_total",
			Help: "Offer lifecycle transitions.",
		}, []string{"from", "to"}),
		dealTransition: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deal_transitions_total",
			Help: "Deal approval chain transitions.",
		}, []string{"from", "to"}),
		assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repair_assignments_total",
			Help: "Repair dispatch outcomes.",
		}, []string{"outcome"}),
	}
	registry.MustRegister(m.httpRequests, m.httpDuration, m.offerTransition, m.dealTransition, m.assignments)
	return m
}

// RecordHTTPRequest counts one served request.
func (m *MetricsService) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordOfferTransition counts one offer lifecycle move.
func (m *MetricsService) RecordOfferTransition(from, to models.OfferStatus) {
	m.offerTransition.WithLabelValues(string(from), string(to)).Inc()
}

// RecordDealTransition counts one deal approval chain move.
func (m *MetricsService) RecordDealTransition(from, to models.DealStatus) {
	m.dealTransition.WithLabelValues(string(from), string(to)).Inc()
}

// RecordAssignment counts one dispatch outcome (assigned, manual,
// unassignable).
func (m *MetricsService) RecordAssignment(outcome string) {
	m.assignments.WithLabelValues(outcome).Inc()
}

// Handler serves the scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
