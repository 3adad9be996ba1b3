package collectors

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ScenarioMetricCollectors track what the controller did to the proxy.
type ScenarioMetricCollectors struct {
	collectors []prometheus.Collector

	TransitionsTotal *prometheus.CounterVec
	RequestsTotal    *prometheus.CounterVec
	Active           *prometheus.GaugeVec
}

func (c *ScenarioMetricCollectors) Collectors() []prometheus.Collector {
	return c.collectors
}

func NewScenarioMetricCollectors() *ScenarioMetricCollectors {
	var m ScenarioMetricCollectors
	m.TransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scenario",
			Name:      "transitions_total",
			Help:      "Oscillation state changes entered, by scenario and state.",
		},
		[]string{"scenario", "state"})
	m.collectors = append(m.collectors, m.TransitionsTotal)

	m.RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "control_plane",
			Name:      "requests_total",
			Help:      "Control plane requests issued, by operation and result.",
		},
		[]string{"operation", "result"})
	m.collectors = append(m.collectors, m.RequestsTotal)

	m.Active = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scenario",
			Name:      "active",
			Help:      "1 while the scenario is applied by this process.",
		},
		[]string{"scenario"})
	m.collectors = append(m.collectors, m.Active)

	return &m
}
