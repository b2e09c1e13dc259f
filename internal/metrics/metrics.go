// Package metrics exposes monitoring counters for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	cycles        *prometheus.CounterVec
	outcomes      *prometheus.CounterVec
	notifications *prometheus.CounterVec
	power         *prometheus.GaugeVec
	cycleDuration prometheus.Histogram
}

// New registers the collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dormwatch_cycles_total",
			Help: "Monitoring cycles run, by whether they were cancelled.",
		}, []string{"cancelled"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dormwatch_room_outcomes_total",
			Help: "Room evaluations by outcome.",
		}, []string{"outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dormwatch_notifications_total",
			Help: "Notification attempts by channel and result.",
		}, []string{"channel", "result"}),
		power: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dormwatch_room_power",
			Help: "Last measured remaining power per room.",
		}, []string{"room_id"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dormwatch_cycle_duration_seconds",
			Help:    "Histogram of monitoring cycle durations.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}

	m.registry.MustRegister(
		m.cycles,
		m.outcomes,
		m.notifications,
		m.power,
		m.cycleDuration,
	)

	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Outcome counts one room evaluation ending with outcome
func (m *Metrics) Outcome(outcome string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(outcome).Inc()
}

// Notification counts one delivery attempt on channel
func (m *Metrics) Notification(channel string, success bool) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.notifications.WithLabelValues(channel, result).Inc()
}

// Power sets the last measured value for a room
func (m *Metrics) Power(roomID string, value float64) {
	if m == nil {
		return
	}
	m.power.WithLabelValues(roomID).Set(value)
}

// Cycle counts a finished cycle and observes how long it took
func (m *Metrics) Cycle(duration time.Duration, cancelled bool) {
	if m == nil {
		return
	}
	label := "false"
	if cancelled {
		label = "true"
	}
	m.cycles.WithLabelValues(label).Inc()
	m.cycleDuration.Observe(duration.Seconds())
}
