// Package metrics exposes Prometheus counters for session and relation state changes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer; every recorder is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	sessionEvents   *prometheus.CounterVec
	toggles         *prometheus.CounterVec
	cleanupFailures *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		sessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vidtube",
			Subsystem: "session",
			Name:      "events_total",
			Help:      "Session lifecycle events by operation and outcome.",
		}, []string{"op", "outcome"}),
		toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vidtube",
			Subsystem: "relation",
			Name:      "toggles_total",
			Help:      "Relation toggles by kind and resulting state.",
		}, []string{"kind", "state"}),
		cleanupFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vidtube",
			Subsystem: "media",
			Name:      "cleanup_failures_total",
			Help:      "Stale media objects that could not be deleted.",
		}, []string{"slot"}),
	}
	reg.MustRegister(
		m.sessionEvents,
		m.toggles,
		m.cleanupFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) SessionEvent(op, outcome string) {
	if m == nil {
		return
	}
	m.sessionEvents.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) Toggle(kind string, active bool) {
	if m == nil {
		return
	}
	state := "inactive"
	if active {
		state = "active"
	}
	m.toggles.WithLabelValues(kind, state).Inc()
}

func (m *Metrics) CleanupFailure(slot string) {
	if m == nil {
		return
	}
	m.cleanupFailures.WithLabelValues(slot).Inc()
}
