// Package metrics groups the Prometheus instruments parley exposes.
//
// A nil *Metrics is valid and records nothing, so components can take one
// unconditionally.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every parley metric.
const Namespace = "parley"

// Outcome label values.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
	OutcomeOK       = "ok"
	OutcomeSkipped  = "skipped"
	OutcomeDropped  = "dropped"
)

// Metrics groups all Prometheus instruments used by parley.
type Metrics struct {
	registry *prometheus.Registry

	Turns        *prometheus.CounterVec
	TurnDuration prometheus.Histogram
	Lookups      *prometheus.CounterVec
	MemoryWrites *prometheus.CounterVec
	Speech       *prometheus.CounterVec
	Sessions     prometheus.GaugeFunc
}

// New registers parley instruments on a private registry. sessions reports
// the live session count and may be nil.
func New(sessions func() int) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		Turns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "turns_total",
			Help:      "Conversation turns by status.",
		}, []string{"status"}),
		TurnDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "turn_duration_seconds",
			Help:      "End-to-end turn latency including lookup and inference.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80, 120},
		}),
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "lookups_total",
			Help:      "Encyclopedia lookups by outcome.",
		}, []string{"outcome"}),
		MemoryWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "memory_writes_total",
			Help:      "Memory log appends by outcome.",
		}, []string{"outcome"}),
		Speech: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "speech_total",
			Help:      "Speech synthesis tasks by outcome.",
		}, []string{"outcome"}),
	}

	if sessions != nil {
		m.Sessions = factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "active_sessions",
			Help:      "Sessions held by the API server.",
		}, func() float64 { return float64(sessions()) })
	}

	return m
}

// ObserveTurn counts a finished turn.
func (m *Metrics) ObserveTurn(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.Turns.WithLabelValues(status).Inc()
	m.TurnDuration.Observe(d.Seconds())
}

// ObserveLookup counts a lookup attempt.
func (m *Metrics) ObserveLookup(outcome string) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(outcome).Inc()
}

// ObserveMemoryWrite counts a memory append.
func (m *Metrics) ObserveMemoryWrite(outcome string) {
	if m == nil {
		return
	}
	m.MemoryWrites.WithLabelValues(outcome).Inc()
}

// ObserveSpeech counts a speech task.
func (m *Metrics) ObserveSpeech(outcome string) {
	if m == nil {
		return
	}
	m.Speech.WithLabelValues(outcome).Inc()
}

// Registry exposes the underlying registry for tests and custom handlers.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
