// Package metrics exposes capture and dispatch counters for Prometheus.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dispatch outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeEmpty       = "empty"
	OutcomeRateLimited = "rate_limited"
	OutcomeError       = "error"
	OutcomeStale       = "stale"
)

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	triggers  *prometheus.CounterVec
	noise     *prometheus.CounterVec
	dropped   prometheus.Counter
	dispatch  *prometheus.CounterVec
	latency   prometheus.Histogram
	frames    prometheus.Histogram
	state     *prometheus.GaugeVec
	cooldowns prometheus.Counter
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		triggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mudra_triggers_total",
			Help: "Gesture captures that ended in a dispatch attempt, by trigger reason.",
		}, []string{"reason"}),
		noise: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mudra_noise_discarded_total",
			Help: "Recordings discarded as noise, by stage.",
		}, []string{"stage"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mudra_triggers_dropped_total",
			Help: "Triggers dropped because a dispatch was already in flight.",
		}),
		dispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mudra_dispatch_total",
			Help: "Interpretation calls by outcome.",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mudra_dispatch_duration_seconds",
			Help:    "Interpretation call latency.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
		frames: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mudra_dispatch_frames",
			Help:    "Frames sent per interpretation call.",
			Buckets: []float64{1, 2, 3, 4},
		}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mudra_engine_state",
			Help: "1 for the engine's current presentation state.",
		}, []string{"state"}),
		cooldowns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mudra_rate_limit_cooldowns_total",
			Help: "Rate-limit cooldowns entered.",
		}),
	}

	m.registry.MustRegister(
		m.triggers, m.noise, m.dropped, m.dispatch,
		m.latency, m.frames, m.state, m.cooldowns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Trigger(reason string) {
	if m == nil {
		return
	}
	m.triggers.WithLabelValues(reason).Inc()
}

func (m *Metrics) Noise(stage string) {
	if m == nil {
		return
	}
	m.noise.WithLabelValues(stage).Inc()
}

func (m *Metrics) Dropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

// Dispatch records a finished interpretation call.
func (m *Metrics) Dispatch(outcome string, took time.Duration, frames int) {
	if m == nil {
		return
	}
	m.dispatch.WithLabelValues(outcome).Inc()
	m.latency.Observe(took.Seconds())
	m.frames.Observe(float64(frames))
	if outcome == OutcomeRateLimited {
		m.cooldowns.Inc()
	}
}

// State marks current as the only active state among all.
func (m *Metrics) State(current string, all []string) {
	if m == nil {
		return
	}
	for _, s := range all {
		v := 0.0
		if s == current {
			v = 1
		}
		m.state.WithLabelValues(s).Set(v)
	}
}
