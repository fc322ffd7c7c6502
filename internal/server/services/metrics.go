package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts toggle and revert outcomes. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	toggles *prometheus.CounterVec
	reverts *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ou_toggle",
			Name:      "toggle_requests_total",
			Help:      "Toggle requests by outcome.",
		}, []string{"outcome"}),
		reverts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ou_toggle",
			Name:      "revert_callbacks_total",
			Help:      "Revert callbacks by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.toggles, m.reverts)
	return m
}

func (m *Metrics) observeToggle(outcome string) {
	if m == nil {
		return
	}
	m.toggles.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeRevert(outcome string) {
	if m == nil {
		return
	}
	m.reverts.WithLabelValues(outcome).Inc()
}
