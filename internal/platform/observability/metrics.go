package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the site's Prometheus collectors on an isolated registry so
// tests can build independent instances.
type Metrics struct {
	Registry *prometheus.Registry

	RoutingDecisionsTotal     *prometheus.CounterVec
	AnalyticsEventsTotal      *prometheus.CounterVec
	ComponentResolutionsTotal *prometheus.CounterVec
	ComponentReloadsTotal     prometheus.Counter
	ComponentEntries          prometheus.Gauge
	HTTPRequestsTotal         *prometheus.CounterVec
	BuildInfo                 *prometheus.GaugeVec
}

// NewMetrics creates a Metrics instance with all collectors registered.
func NewMetrics(version string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,
		RoutingDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "near_web_routing_decisions_total",
				Help: "Routing policy outcomes by kind (redirect, rewrite, pass).",
			},
			[]string{"kind"},
		),
		AnalyticsEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "near_web_analytics_events_total",
				Help: "Analytics events by outcome (queued, dropped, sent, failed, discarded).",
			},
			[]string{"result"},
		),
		ComponentResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "near_web_component_resolutions_total",
				Help: "Component key lookups by outcome (resolved, unknown).",
			},
			[]string{"result"},
		),
		ComponentReloadsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "near_web_component_registry_reloads_total",
				Help: "Component registry tables swapped in from the registry file.",
			},
		),
		ComponentEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "near_web_component_registry_entries",
				Help: "Component keys in the active registry table.",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "near_web_http_requests_total",
				Help: "HTTP responses by status code.",
			},
			[]string{"code"},
		),
		BuildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "near_web_info",
				Help: "Build information.",
			},
			[]string{"version"},
		),
	}

	reg.MustRegister(
		m.RoutingDecisionsTotal,
		m.AnalyticsEventsTotal,
		m.ComponentResolutionsTotal,
		m.ComponentReloadsTotal,
		m.ComponentEntries,
		m.HTTPRequestsTotal,
		m.BuildInfo,
	)
	m.BuildInfo.WithLabelValues(version).Set(1)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
