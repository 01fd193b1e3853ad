package container

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeCached   = "cached"
	outcomeResolved = "resolved"
	outcomeAbsent   = "absent"
	outcomeFailed   = "failed"
)

// Metrics counts container activity. A nil *Metrics records nothing.
type Metrics struct {
	resolutions    *prometheus.CounterVec
	providerPhases *prometheus.CounterVec
}

// NewMetrics creates the container counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "falcon",
				Subsystem: "container",
				Name:      "resolutions_total",
				Help:      "Total number of Make calls by outcome",
			},
			[]string{"outcome"},
		),
		providerPhases: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "falcon",
				Subsystem: "container",
				Name:      "provider_phases_total",
				Help:      "Total number of provider Register and Boot calls",
			},
			[]string{"phase"},
		),
	}
	reg.MustRegister(m.resolutions, m.providerPhases)
	return m
}

// Resolutions exposes the resolution counter, labelled by outcome.
func (m *Metrics) Resolutions() *prometheus.CounterVec { return m.resolutions }

// ProviderPhases exposes the provider counter, labelled by phase.
func (m *Metrics) ProviderPhases() *prometheus.CounterVec { return m.providerPhases }

func (m *Metrics) resolution(outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) providerPhase(phase string) {
	if m == nil {
		return
	}
	m.providerPhases.WithLabelValues(phase).Inc()
}
