// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "zklogin"

// Result labels.
const (
	ResultOK            = "ok"
	ResultInvalidInput  = "invalid_input"
	ResultConfiguration = "configuration_error"
	ResultInternal      = "internal_error"
)

type Metrics struct {
	registry        *prometheus.Registry
	saltRequests    *prometheus.CounterVec
	nonceRequests   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New builds collectors on a private registry, so tests can create as many
// instances as they need.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		saltRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "salt_requests_total",
			Help:      "Salt derivation requests by result.",
		}, []string{"result"}),
		nonceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nonce_requests_total",
			Help:      "Nonce issuance requests by result.",
		}, []string{"result"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP handler latency by route.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"route"}),
	}
	m.registry.MustRegister(
		m.saltRequests,
		m.nonceRequests,
		m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) RecordSalt(result string) {
	if m == nil {
		return
	}
	m.saltRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordNonce(result string) {
	if m == nil {
		return
	}
	m.nonceRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRequest(route string, started time.Time) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(route).Observe(time.Since(started).Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
