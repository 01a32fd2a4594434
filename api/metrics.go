package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"plan-picker/core/picker"
)

// Metrics holds the picker's Prometheus collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	SessionsActive  prometheus.Gauge
	SessionsExpired prometheus.Counter
	Outcomes        *prometheus.CounterVec
	PlansChosen     *prometheus.CounterVec
	CycleToggles    prometheus.Counter
	CatalogReloads  *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "plan_picker",
			Name:      "sessions_active",
			Help:      "Number of open picker sessions",
		}),
		SessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plan_picker",
			Name:      "sessions_expired_total",
			Help:      "Sessions evicted after sitting idle",
		}),
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plan_picker",
			Name:      "outcomes_total",
			Help:      "Terminal decisions reported by picker sessions",
		}, []string{"outcome"}),
		PlansChosen: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plan_picker",
			Name:      "plans_chosen_total",
			Help:      "Plans chosen, by plan code",
		}, []string{"plan_code"}),
		CycleToggles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plan_picker",
			Name:      "cycle_toggles_total",
			Help:      "Billing cycle toggles across all sessions",
		}),
		CatalogReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plan_picker",
			Name:      "catalog_reloads_total",
			Help:      "Catalog file reloads, by result",
		}, []string{"result"}),
	}

	reg.MustRegister(m.SessionsActive, m.SessionsExpired, m.Outcomes, m.PlansChosen, m.CycleToggles, m.CatalogReloads)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordOutcome counts a terminal decision
func (m *Metrics) RecordOutcome(o picker.Outcome) {
	m.Outcomes.WithLabelValues(o.Kind.String()).Inc()
	if o.Kind == picker.PlanChosen {
		m.PlansChosen.WithLabelValues(string(o.PlanCode)).Inc()
	}
}

// RecordCatalogReload counts a catalog reload attempt
func (m *Metrics) RecordCatalogReload(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.CatalogReloads.WithLabelValues(result).Inc()
}
