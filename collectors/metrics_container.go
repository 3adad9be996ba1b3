package collectors

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "toxics"

// NewMetricsContainer initializes a container for storing all prometheus metrics.
// A nil registry gets a fresh private one.
func NewMetricsContainer(registry *prometheus.Registry) *MetricsContainer {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return &MetricsContainer{
		registry: registry,
	}
}

type MetricsContainer struct {
	RuntimeMetrics  *RuntimeMetricCollectors
	ScenarioMetrics *ScenarioMetricCollectors

	registry *prometheus.Registry
}

func (m *MetricsContainer) runtimeMetricsEnabled() bool {
	return m.RuntimeMetrics != nil
}

func (m *MetricsContainer) ScenarioMetricsEnabled() bool {
	return m.ScenarioMetrics != nil
}

// AnyMetricsEnabled determines whether we have any prometheus metrics registered for exporting.
func (m *MetricsContainer) AnyMetricsEnabled() bool {
	return m.runtimeMetricsEnabled() || m.ScenarioMetricsEnabled()
}

// Registry exposes the underlying registry, mostly for tests.
func (m *MetricsContainer) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler with the enabled collectors registered on
// the container's registry. Call it once.
func (m *MetricsContainer) Handler() http.Handler {
	if m.runtimeMetricsEnabled() {
		m.registry.MustRegister(m.RuntimeMetrics.Collectors()...)
	}
	if m.ScenarioMetricsEnabled() {
		m.registry.MustRegister(m.ScenarioMetrics.Collectors()...)
	}
	return promhttp.HandlerFor(
		m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
