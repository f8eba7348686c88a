// Package metrics exposes Prometheus instruments for chat dispatch.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests and multiple servers never collide.
type Metrics struct {
	registry *prometheus.Registry

	requests  *prometheus.CounterVec
	duration  prometheus.Histogram
	handoffs  *prometheus.CounterVec
	toolCalls *prometheus.CounterVec
	inFlight  prometheus.Gauge
}

// New registers the cabinet instruments plus Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cabinet_chat_requests_total",
			Help: "Chat dispatches by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cabinet_chat_duration_seconds",
			Help:    "Wall time of a chat dispatch.",
			Buckets: prometheus.DefBuckets,
		}),
		handoffs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cabinet_handoffs_total",
			Help: "Handoffs by target specialist.",
		}, []string{"agent"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cabinet_tool_calls_total",
			Help: "Tool invocations by tool and outcome.",
		}, []string{"tool", "outcome"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cabinet_chat_in_flight",
			Help: "Chat dispatches currently running.",
		}),
	}
	m.registry.MustRegister(
		m.requests, m.duration, m.handoffs, m.toolCalls, m.inFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDispatch records one finished dispatch.
func (m *Metrics) ObserveDispatch(outcome string, elapsed time.Duration) {
	m.requests.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// Started and Finished bracket a running dispatch.
func (m *Metrics) Started()  { m.inFlight.Inc() }
func (m *Metrics) Finished() { m.inFlight.Dec() }

// Handoff satisfies the runner's observer contract.
func (m *Metrics) Handoff(_, to string) {
	m.handoffs.WithLabelValues(to).Inc()
}

// ToolCall satisfies the runner's observer contract.
func (m *Metrics) ToolCall(_ string, tool string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
}
