package store

import (
	"log/slog"
	"reflect"
	"sort"

	"github.com/goliatone/go-store/internal/merge"
	"github.com/goliatone/go-store/internal/paths"
)

// Subscriber observes full-state changes.
type Subscriber func(newState, oldState State)

// WatchFunc observes committed partials: only the top-level keys a mutation
// actually touched, with their new values.
type WatchFunc func(partial State)

// ObserveFunc receives the changed paths of a fine-grained subscription,
// mapped to their new values.
type ObserveFunc func(changed map[string]any)

type subscriberEntry struct {
	id int
	fn Subscriber
}

type watcherEntry struct {
	id int
	fn WatchFunc
}

type observerEntry struct {
	id    int
	paths []string
	fn    ObserveFunc
}

type batchFrame struct {
	old     State
	touched map[string]struct{}
}

// Store owns one named state tree. All mutation goes through SetState,
// Patch, Mutate, or Reset; every committed mutation bumps the version,
// invalidates affected getter caches, and notifies subscribers in
// registration order. A Store is not safe for concurrent mutation; the
// model is single-goroutine cooperative.
type Store struct {
	id       string
	registry *Registry
	logger   *slog.Logger

	state    State
	initial  State
	version  uint64
	updating bool

	nextToken   int
	subscribers []subscriberEntry
	watchers    []watcherEntry
	observers   []observerEntry

	getters map[string]*getterEntry
	actions map[string]actionDef

	evaluator    Evaluator
	programCache ProgramCache
	functions    *FunctionRegistry
	evalLogger   EvaluatorLogger

	batch *batchFrame
}

func newStore(registry *Registry, id string, initial, snapshot State, cfg storeConfig) *Store {
	s := &Store{
		id:           id,
		registry:     registry,
		logger:       registry.logger,
		state:        initial,
		initial:      snapshot,
		getters:      map[string]*getterEntry{},
		actions:      map[string]actionDef{},
		evaluator:    cfg.evaluator,
		programCache: cfg.programCache,
		functions:    cfg.functions,
		evalLogger:   cfg.evalLogger,
	}
	for name, fn := range cfg.getters {
		s.getters[name] = &getterEntry{name: name, fn: fn}
	}
	for name, expr := range cfg.exprGetters {
		s.getters[name] = &getterEntry{name: name, expr: expr}
	}
	for name, def := range cfg.actions {
		s.actions[name] = def
	}
	return s
}

// ID returns the store identifier.
func (s *Store) ID() string {
	return s.id
}

// Version returns the number of committed mutations since creation.
func (s *Store) Version() uint64 {
	return s.version
}

// GetState returns a defensive shallow copy of the current state. Mutating
// the returned map does not affect the store; mutating nested values is a
// contract violation.
func (s *Store) GetState() State {
	out := make(State, len(s.state))
	for key, value := range s.state {
		out[key] = value
	}
	return out
}

// Get reads the value at a dotted path, or nil when the path does not
// resolve.
func (s *Store) Get(path string) any {
	value, _ := paths.Get(s.state, path)
	return value
}

// Has reports whether path resolves in the current state.
func (s *Store) Has(path string) bool {
	_, ok := paths.Get(s.state, path)
	return ok
}

// Set writes a single path, routed through the patch machinery so the
// notification payload carries only the touched top-level key.
func (s *Store) Set(path string, value any) error {
	return s.Mutate(func(draft *Draft) error {
		return draft.Set(path, value)
	})
}

// SetState merges a partial into the state at the top level. Keys whose
// values deep-equal the current ones are ignored; if nothing differs the
// call is a no-op with no version bump and no notification. Re-entrant
// calls made from inside a notification are dropped.
func (s *Store) SetState(partial State) {
	s.commit(partial, nil)
}

// SetStateFunc computes the partial from the previous state, then applies
// it with SetState semantics.
func (s *Store) SetStateFunc(fn func(prev State) State) {
	if fn == nil {
		return
	}
	s.commit(fn(s.GetState()), nil)
}

// Patch deep-merges a partial into the state: nested maps are merged key by
// key, slices and scalars replace the existing value. Notification payloads
// carry only the touched top-level keys.
func (s *Store) Patch(partial State) {
	if len(partial) == 0 {
		return
	}
	merged := make(State, len(partial))
	for key, value := range partial {
		merged[key] = merge.Merge(s.state[key], value)
	}
	s.commit(merged, nil)
}

// Reset replaces the state with a fresh copy of the snapshot captured at
// creation time, firing a single notification pass.
func (s *Store) Reset() error {
	fresh, err := merge.CloneState(s.initial)
	if err != nil {
		return err
	}
	var removed []string
	for key := range s.state {
		if _, ok := fresh[key]; !ok {
			removed = append(removed, key)
		}
	}
	s.commit(fresh, removed)
	return nil
}

// Subscribe registers a full-state observer called after every committed
// mutation, in registration order. The returned function removes the
// subscription and is safe to call more than once.
func (s *Store) Subscribe(fn Subscriber) func() {
	if fn == nil {
		return func() {}
	}
	s.nextToken++
	id := s.nextToken
	s.subscribers = append(s.subscribers, subscriberEntry{id: id, fn: fn})
	return func() {
		for i, entry := range s.subscribers {
			if entry.id == id {
				s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

// Watch registers a partial-patch observer: it receives only the top-level
// keys a mutation touched, with their new values.
func (s *Store) Watch(fn WatchFunc) func() {
	if fn == nil {
		return func() {}
	}
	s.nextToken++
	id := s.nextToken
	s.watchers = append(s.watchers, watcherEntry{id: id, fn: fn})
	return func() {
		for i, entry := range s.watchers {
			if entry.id == id {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				return
			}
		}
	}
}

// Observe registers a fine-grained subscription: fn fires only when a value
// at one of the given paths changed in a committed mutation, receiving the
// changed paths mapped to their new values.
func (s *Store) Observe(pathSet []string, fn ObserveFunc) func() {
	if fn == nil || len(pathSet) == 0 {
		return func() {}
	}
	normalized := make([]string, 0, len(pathSet))
	for _, path := range pathSet {
		if p := paths.Normalize(path); p != "" {
			normalized = append(normalized, p)
		}
	}
	s.nextToken++
	id := s.nextToken
	s.observers = append(s.observers, observerEntry{id: id, paths: normalized, fn: fn})
	return func() {
		for i, entry := range s.observers {
			if entry.id == id {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// OnAction registers a listener for action events emitted by this store.
func (s *Store) OnAction(fn ActionListener) func() {
	if fn == nil {
		return func() {}
	}
	return s.registry.OnAction(func(event ActionEvent) {
		if event.StoreID == s.id {
			fn(event)
		}
	})
}

// Batch runs fn, coalescing every mutation committed inside it into a
// single notification pass with one entry per distinct top-level key.
// Versions still advance per committed mutation, and getter invalidation
// stays immediate. Nested batches join the outermost frame.
func (s *Store) Batch(fn func()) {
	if fn == nil {
		return
	}
	if s.batch != nil {
		fn()
		return
	}
	frame := &batchFrame{old: s.state, touched: map[string]struct{}{}}
	s.batch = frame
	defer func() {
		s.batch = nil
		if len(frame.touched) == 0 {
			return
		}
		partial := make(State, len(frame.touched))
		for key := range frame.touched {
			if value, ok := s.state[key]; ok {
				partial[key] = value
			} else {
				partial[key] = nil
			}
		}
		s.notify(partial, frame.old)
	}()
	fn()
}

// Hydrate shallow-merges a partial into the live state without a version
// bump or any notification. It exists for persistence adapters that restore
// state before any consumer subscribes; application code should use
// SetState or Patch.
func (s *Store) Hydrate(partial State) {
	if len(partial) == 0 {
		return
	}
	next := s.GetState()
	for key, value := range partial {
		next[key] = value
	}
	s.state = next
	s.invalidateGetters(topLevelKeys(partial))
}

// commit applies partial at the top level, removing the listed keys (Reset
// path), and runs the notification pass unless a batch frame is open.
func (s *Store) commit(partial State, removed []string) {
	if s.updating {
		s.logger.Debug("store: dropping re-entrant mutation", "store", s.id)
		return
	}
	changed := make(State, len(partial))
	for key, value := range partial {
		current, exists := s.state[key]
		if exists && reflect.DeepEqual(current, value) {
			continue
		}
		changed[key] = value
	}
	live := make([]string, 0, len(removed))
	for _, key := range removed {
		if _, ok := s.state[key]; ok {
			live = append(live, key)
		}
	}
	if len(changed) == 0 && len(live) == 0 {
		return
	}

	oldState := s.state
	next := s.GetState()
	for key, value := range changed {
		next[key] = value
	}
	for _, key := range live {
		delete(next, key)
	}
	s.state = next
	s.version++

	keys := make([]string, 0, len(changed)+len(live))
	keys = append(keys, topLevelKeys(changed)...)
	keys = append(keys, live...)
	s.invalidateGetters(keys)

	if s.batch != nil {
		for _, key := range keys {
			s.batch.touched[key] = struct{}{}
		}
		return
	}
	partialOut := changed
	for _, key := range live {
		partialOut[key] = nil
	}
	s.notify(partialOut, oldState)
}

// notify runs one pass over watchers, observers, and subscribers, in that
// order, with the re-entrancy guard held. Each list is snapshotted first so
// a callback that unsubscribes cannot skip or repeat a later entry.
// Callback panics are isolated and logged so one listener cannot abort the
// mutation that triggered it.
func (s *Store) notify(partial State, oldState State) {
	s.updating = true
	defer func() { s.updating = false }()

	watchers := make([]watcherEntry, len(s.watchers))
	copy(watchers, s.watchers)
	observers := make([]observerEntry, len(s.observers))
	copy(observers, s.observers)
	subscribers := make([]subscriberEntry, len(s.subscribers))
	copy(subscribers, s.subscribers)

	newState := s.GetState()
	for _, entry := range watchers {
		fn := entry.fn
		s.safeCall("watcher", func() { fn(partial) })
	}
	for _, entry := range observers {
		changed := map[string]any{}
		for _, path := range entry.paths {
			before, _ := paths.Get(oldState, path)
			after, okAfter := paths.Get(s.state, path)
			if !reflect.DeepEqual(before, after) {
				if okAfter {
					changed[path] = after
				} else {
					changed[path] = nil
				}
			}
		}
		if len(changed) == 0 {
			continue
		}
		fn := entry.fn
		s.safeCall("observer", func() { fn(changed) })
	}
	for _, entry := range subscribers {
		fn := entry.fn
		s.safeCall("subscriber", func() { fn(newState, oldState) })
	}
}

func (s *Store) safeCall(kind string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("store: listener panicked", "store", s.id, "kind", kind, "panic", rec)
		}
	}()
	fn()
}

func topLevelKeys(partial State) []string {
	keys := make([]string, 0, len(partial))
	for key := range partial {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
