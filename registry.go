package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/goliatone/go-store/internal/merge"
	"github.com/goliatone/go-store/pkg/activity"
)

type listenerEntry struct {
	id int
	fn ActionListener
}

// Registry owns named stores, installed plugins, and the global
// action-event bus. Definitions and lookups are safe for concurrent use;
// the stores themselves follow the single-goroutine mutation model.
type Registry struct {
	mu           sync.RWMutex
	stores       map[string]*Store
	storeOrder   []string
	plugins      map[string]Plugin
	pluginOrder  []string
	listeners    []listenerEntry
	nextListener int

	logger *slog.Logger
	hooks  activity.Hooks
}

// New constructs an empty registry.
func New(opts ...RegistryOption) *Registry {
	cfg := applyRegistryOptions(opts)
	logger := cfg.logger
	if logger == nil {
		logger = DefaultLogger(slog.LevelInfo)
	}
	return &Registry{
		stores:  map[string]*Store{},
		plugins: map[string]Plugin{},
		logger:  logger,
		hooks:   cfg.hooks,
	}
}

// Logger returns the registry logger.
func (r *Registry) Logger() *slog.Logger {
	return r.logger
}

// DefineStore creates the store registered under id, seeding it from the
// state factory. Defining the same id again returns the existing instance
// unchanged, preserving its subscribers and caches; the supplied factory
// and options are ignored in that case.
func (r *Registry) DefineStore(id string, factory func() State, opts ...StoreOption) (*Store, error) {
	if id == "" {
		return nil, ErrStoreIDRequired
	}
	if factory == nil {
		return nil, ErrStateFactoryRequired
	}

	r.mu.Lock()
	if existing, ok := r.stores[id]; ok {
		r.mu.Unlock()
		r.logger.Debug("store: id already defined, returning existing instance", "store", id)
		return existing, nil
	}
	initial := factory()
	if initial == nil {
		initial = State{}
	}
	snapshot, err := merge.CloneState(initial)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	s := newStore(r, id, initial, snapshot, applyStoreOptions(opts))
	r.stores[id] = s
	r.storeOrder = append(r.storeOrder, id)
	plugins := r.pluginList()
	r.mu.Unlock()

	if r.hooks.Enabled() {
		s.Subscribe(func(newState, oldState State) {
			r.notifyActivity(activity.BuildStateChangedEvent(activity.EventInput{
				StoreID:  s.id,
				Metadata: map[string]any{"version": s.version},
			}))
		})
	}
	for _, plugin := range plugins {
		r.fireStoreCreated(plugin, s)
	}
	r.notifyActivity(activity.BuildStoreCreatedEvent(activity.EventInput{StoreID: id}))
	return s, nil
}

// Store looks up a store by id.
func (r *Registry) Store(id string) (*Store, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stores[id]
	return s, ok
}

// RequireStore looks up a store by id, returning ErrStoreNotFound when no
// store was defined under it.
func (r *Registry) RequireStore(id string) (*Store, error) {
	if s, ok := r.Store(id); ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrStoreNotFound, id)
}

// StoreIDs returns the defined store ids in definition order.
func (r *Registry) StoreIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.storeOrder))
	copy(out, r.storeOrder)
	return out
}

// OnAction registers a listener on the global action-event bus, returning
// an idempotent removal function. Listeners run synchronously in
// registration order; a listener failure is logged and never reaches the
// action's caller.
func (r *Registry) OnAction(fn ActionListener) func() {
	if fn == nil {
		return func() {}
	}
	r.mu.Lock()
	r.nextListener++
	id := r.nextListener
	r.listeners = append(r.listeners, listenerEntry{id: id, fn: fn})
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, entry := range r.listeners {
			if entry.id == id {
				r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
				return
			}
		}
	}
}

// EmitAction fans event out to every registered listener, isolating
// listener panics, then forwards it to any configured activity hooks.
func (r *Registry) EmitAction(event ActionEvent) {
	r.mu.RLock()
	listeners := make([]listenerEntry, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.RUnlock()

	for _, entry := range listeners {
		r.safeListen(entry.fn, event)
	}

	if r.hooks.Enabled() {
		input := activity.EventInput{
			StoreID:  event.StoreID,
			ActionID: event.ID,
			Name:     event.Name,
			Err:      event.Err,
			Metadata: map[string]any{"duration_ms": event.Duration.Milliseconds()},
		}
		r.notifyActivity(activity.BuildActionCompletedEvent(input))
	}
}

func (r *Registry) safeListen(fn ActionListener, event ActionEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("store: action listener panicked", "store", event.StoreID, "action", event.Name, "panic", rec)
		}
	}()
	fn(event)
}

func (r *Registry) notifyActivity(event activity.Event) {
	if !r.hooks.Enabled() {
		return
	}
	if err := r.hooks.Notify(context.Background(), event); err != nil {
		r.logger.Warn("store: activity hook failed", "verb", event.Verb, "err", err)
	}
}
