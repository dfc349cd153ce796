// Package metrics exposes Prometheus instrumentation for relay commands and
// backend round trips.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Backend call outcomes.
const (
	OutcomeOK             = "ok"
	OutcomeTransportError = "transport_error"
	OutcomeReadError      = "read_error"
	OutcomeRejected       = "rejected"
)

// Metrics groups the collectors registered on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	commands      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	backend       *prometheus.CounterVec
	oversized     prometheus.Counter
	sessionActive prometheus.Gauge
}

// New builds the collectors and registers them together with the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexiatray_commands_total",
				Help: "Relay commands handled, by command and status",
			},
			[]string{"command", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nexiatray_command_duration_seconds",
				Help:    "Relay command latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		backend: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexiatray_backend_requests_total",
				Help: "Backend relay attempts, by outcome",
			},
			[]string{"outcome"},
		),
		oversized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nexiatray_oversized_audio_total",
			Help: "Voice payloads above the configured size bound",
		}),
		sessionActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nexiatray_voice_session_active",
			Help: "1 while a voice session is marked active",
		}),
	}
	m.registry.MustRegister(
		m.commands,
		m.duration,
		m.backend,
		m.oversized,
		m.sessionActive,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveCommand records one dispatched command.
func (m *Metrics) ObserveCommand(name string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.commands.WithLabelValues(name, status).Inc()
	m.duration.WithLabelValues(name).Observe(elapsed.Seconds())
}

// ObserveBackend records the outcome of one backend relay attempt.
func (m *Metrics) ObserveBackend(outcome string) {
	if m == nil {
		return
	}
	m.backend.WithLabelValues(outcome).Inc()
}

// ObserveOversizedAudio counts a voice payload above the size bound.
func (m *Metrics) ObserveOversizedAudio() {
	if m == nil {
		return
	}
	m.oversized.Inc()
}

// SetSessionActive mirrors the placeholder voice session state.
func (m *Metrics) SetSessionActive(active bool) {
	if m == nil {
		return
	}
	if active {
		m.sessionActive.Set(1)
		return
	}
	m.sessionActive.Set(0)
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
