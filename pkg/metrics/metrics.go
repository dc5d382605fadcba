// Package metrics exposes store activity as Prometheus collectors: one
// counter for committed mutations per store, one counter and one latency
// histogram for dispatched actions.
package metrics

import (
	"github.com/goliatone/go-store"
	"github.com/prometheus/client_golang/prometheus"
)

// Plugin registers store collectors and feeds them from registry events.
type Plugin struct {
	registerer prometheus.Registerer
	namespace  string

	mutations      *prometheus.CounterVec
	actions        *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
}

// Option configures the metrics plugin.
type Option func(*Plugin)

// WithRegisterer sets the Prometheus registerer. Defaults to the global
// default registerer.
func WithRegisterer(registerer prometheus.Registerer) Option {
	return func(p *Plugin) {
		if registerer != nil {
			p.registerer = registerer
		}
	}
}

// WithNamespace sets the metric namespace. Defaults to "store".
func WithNamespace(namespace string) Option {
	return func(p *Plugin) {
		if namespace != "" {
			p.namespace = namespace
		}
	}
}

// New constructs the plugin and its collectors.
func New(opts ...Option) *Plugin {
	p := &Plugin{
		registerer: prometheus.DefaultRegisterer,
		namespace:  "store",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	p.mutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "mutations_total",
			Help:      "Total number of committed state mutations per store",
		},
		[]string{"store"},
	)
	p.actions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "actions_total",
			Help:      "Total number of dispatched actions by outcome",
		},
		[]string{"store", "action", "status"},
	)
	p.actionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: p.namespace,
			Name:      "action_duration_seconds",
			Help:      "Duration of dispatched actions in seconds",
		},
		[]string{"store", "action"},
	)
	return p
}

// Name identifies the plugin within a registry.
func (p *Plugin) Name() string {
	return "metrics"
}

// Install registers the collectors and hooks the action-event bus.
func (p *Plugin) Install(registry *store.Registry) error {
	for _, collector := range []prometheus.Collector{p.mutations, p.actions, p.actionDuration} {
		if err := p.registerer.Register(collector); err != nil {
			return err
		}
	}
	registry.OnAction(func(event store.ActionEvent) {
		status := "ok"
		if event.Err != nil {
			status = "error"
		}
		p.actions.WithLabelValues(event.StoreID, event.Name, status).Inc()
		p.actionDuration.WithLabelValues(event.StoreID, event.Name).Observe(event.Duration.Seconds())
	})
	return nil
}

// StoreCreated counts committed mutations on s.
func (p *Plugin) StoreCreated(s *store.Store) {
	id := s.ID()
	s.Subscribe(func(newState, oldState store.State) {
		p.mutations.WithLabelValues(id).Inc()
	})
}
