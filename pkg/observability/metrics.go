package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/concord/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records reconciliation activity in its own Prometheus registry.
type Metrics struct {
	registry *prometheus.Registry

	groupsReconciled    *prometheus.CounterVec
	groupDuration       *prometheus.HistogramVec
	templatesReconciled *prometheus.CounterVec
	templateDuration    prometheus.Histogram
	preferencesRejected *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		groupsReconciled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concord_groups_reconciled_total",
				Help: "Clause groups reconciled, by outcome kind and red light reason.",
			},
			[]string{"kind", "reason"},
		),
		groupDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "concord_group_reconcile_duration_seconds",
				Help:    "Time spent validating and reconciling one clause group.",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
			},
			[]string{"kind"},
		),
		templatesReconciled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concord_templates_reconciled_total",
				Help: "Template batches reconciled, by aggregate status.",
			},
			[]string{"status"},
		),
		templateDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "concord_template_reconcile_duration_seconds",
				Help:    "Time spent reconciling a whole template.",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
		preferencesRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concord_preferences_rejected_total",
				Help: "Violations found in rejected submissions, by violation code.",
			},
			[]string{"code"},
		),
	}

	m.registry.MustRegister(
		m.groupsReconciled,
		m.groupDuration,
		m.templatesReconciled,
		m.templateDuration,
		m.preferencesRejected,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnGroupReconciled: func(_ context.Context, e *domain.GroupEvent) {
			kind := string(e.Outcome.Kind)
			m.groupsReconciled.WithLabelValues(kind, string(e.Outcome.Reason)).Inc()
			m.groupDuration.WithLabelValues(kind).Observe(e.Duration.Seconds())
		},
		OnTemplateReconciled: func(_ context.Context, e *domain.TemplateEvent) {
			m.templatesReconciled.WithLabelValues(string(e.Status)).Inc()
			m.templateDuration.Observe(e.Duration.Seconds())
		},
		OnPreferenceRejected: func(_ context.Context, e *domain.RejectionEvent) {
			for _, code := range e.Violations {
				m.preferencesRejected.WithLabelValues(code).Inc()
			}
		},
	}
}
