// Package metrics exposes Prometheus counters for the relay.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for ChatRequests.
const (
	OutcomeOK          = "ok"
	OutcomeFailed      = "failed"
	OutcomeInvalid     = "invalid"
	OutcomeRateLimited = "rate_limited"
)

type Metrics struct {
	registry *prometheus.Registry

	ChatRequests    *prometheus.CounterVec   // label: transport, outcome
	ProviderLatency *prometheus.HistogramVec // label: outcome
	FAQMatches      *prometheus.CounterVec   // label: pass
	WSConnections   prometheus.Gauge
}

// New registers the relay collectors on a private registry so tests can
// create as many instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ChatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitechat",
			Name:      "chat_requests_total",
			Help:      "Chat requests handled by the relay.",
		}, []string{"transport", "outcome"}),
		ProviderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sitechat",
			Name:      "provider_request_duration_seconds",
			Help:      "Time spent waiting for the model provider.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"outcome"}),
		FAQMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitechat",
			Name:      "faq_matches_total",
			Help:      "FAQ lookups by the pass that answered them.",
		}, []string{"pass"}),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sitechat",
			Name:      "websocket_connections",
			Help:      "Open chat websocket connections.",
		}),
	}
	reg.MustRegister(
		m.ChatRequests,
		m.ProviderLatency,
		m.FAQMatches,
		m.WSConnections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
