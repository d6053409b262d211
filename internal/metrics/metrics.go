// Package metrics holds the Prometheus collectors shared by the server and
// the notification worker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "billreminder"

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	BillOperations     *prometheus.CounterVec
	Notifications      *prometheus.CounterVec
	NotifyQueueDepth   prometheus.Gauge
	CacheLookups       *prometheus.CounterVec
	CircuitBreakerOpen prometheus.Gauge
	ReportsExported    prometheus.Counter
}

// New registers all collectors on a fresh registry, plus the Go and process
// collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		BillOperations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bill_operations_total",
			Help:      "Bill operations by kind and outcome.",
		}, []string{"operation", "outcome"}),
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Bill-created notifications by outcome (sent, failed, dropped).",
		}, []string{"outcome"}),
		NotifyQueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "notification_queue_depth",
			Help:      "Notifications waiting for delivery.",
		}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Bill snapshot cache lookups by result.",
		}, []string{"result"}),
		CircuitBreakerOpen: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "amqp_circuit_open",
			Help:      "1 while the AMQP publisher circuit breaker is open.",
		}),
		ReportsExported: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_exported_total",
			Help:      "PDF reports rendered.",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveHTTP(route, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Metrics) BillOperation(op, outcome string) {
	if m == nil {
		return
	}
	m.BillOperations.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) Notification(outcome string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) QueueDepth(n int) {
	if m == nil {
		return
	}
	m.NotifyQueueDepth.Set(float64(n))
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) CircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitBreakerOpen.Set(1)
	} else {
		m.CircuitBreakerOpen.Set(0)
	}
}

func (m *Metrics) ReportExported() {
	if m == nil {
		return
	}
	m.ReportsExported.Inc()
}
