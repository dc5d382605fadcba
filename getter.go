package store

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/goliatone/go-store/internal/paths"
)

// GetterFunc computes a derived value. Every state read must go through the
// supplied context so the paths that influenced the result are recorded.
type GetterFunc func(ctx *GetterContext) (any, error)

// getterEntry caches one getter's last result. The entry is valid when its
// version matches the store's current version, or failing that when every
// tracked path's live value still deep-equals its snapshot. The tracked set
// is rebuilt from scratch on every recompute. Coarse entries (expression
// getters and getters that read one) additionally depend on the top-level
// key set itself, since an expression may reference keys that did not exist
// when it was computed.
type getterEntry struct {
	name string
	fn   GetterFunc
	expr string

	computed     bool
	value        any
	version      uint64
	coarse       bool
	trackedPaths map[string]struct{}
	pathSnapshot map[string]any
	keySnapshot  map[string]struct{}
}

// GetterContext is the tracer handed to getter bodies: a read view over
// store state that records every accessed path, including the paths of
// other getters read through it.
type GetterContext struct {
	store    *Store
	tracked  map[string]struct{}
	visiting []string
	coarse   bool
}

// Get reads a state path and records it, along with every prefix traversed
// to reach it, as a dependency of the getter being computed.
func (c *GetterContext) Get(path string) any {
	normalized := paths.Normalize(path)
	for _, prefix := range paths.Prefixes(normalized) {
		c.tracked[prefix] = struct{}{}
	}
	value, _ := paths.Get(c.store.state, normalized)
	return value
}

// GetOK behaves like Get and additionally reports whether the path
// resolved.
func (c *GetterContext) GetOK(path string) (any, bool) {
	normalized := paths.Normalize(path)
	for _, prefix := range paths.Prefixes(normalized) {
		c.tracked[prefix] = struct{}{}
	}
	return paths.Get(c.store.state, normalized)
}

// Getter reads another getter's value. The inner getter's tracked paths
// become dependencies of the getter being computed, so a change that
// invalidates the inner getter also invalidates this one.
func (c *GetterContext) Getter(name string) (any, error) {
	value, entry, err := c.store.getterValue(name, c.visiting)
	if err != nil {
		return nil, err
	}
	for path := range entry.trackedPaths {
		c.tracked[path] = struct{}{}
	}
	if entry.coarse {
		c.coarse = true
	}
	return value, nil
}

// Getter returns the named derived value, recomputing only when a tracked
// dependency changed since the cached computation.
func (s *Store) Getter(name string) (any, error) {
	value, _, err := s.getterValue(name, nil)
	return value, err
}

// GetterNames returns the registered getter names in sorted order.
func (s *Store) GetterNames() []string {
	names := make([]string, 0, len(s.getters))
	for name := range s.getters {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (s *Store) getterValue(name string, visiting []string) (any, *getterEntry, error) {
	entry, ok := s.getters[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrGetterNotFound, name)
	}
	if slices.Contains(visiting, name) {
		return nil, nil, fmt.Errorf("%w: %q", ErrGetterCycle, name)
	}

	if entry.computed {
		if entry.version == s.version {
			return entry.value, entry, nil
		}
		if s.trackedPathsUnchanged(entry) {
			// The commit that bumped the version never touched this
			// getter's paths; revalidate instead of recomputing.
			entry.version = s.version
			return entry.value, entry, nil
		}
	}

	ctx := &GetterContext{
		store:    s,
		tracked:  map[string]struct{}{},
		visiting: append(slices.Clone(visiting), name),
	}
	var value any
	var err error
	if entry.fn != nil {
		value, err = entry.fn(ctx)
	} else {
		value, err = s.evaluateExprGetter(entry, ctx)
	}
	if err != nil {
		return nil, nil, err
	}

	entry.value = value
	entry.version = s.version
	entry.coarse = ctx.coarse
	entry.trackedPaths = ctx.tracked
	entry.pathSnapshot = make(map[string]any, len(ctx.tracked))
	for path := range ctx.tracked {
		live, _ := paths.Get(s.state, path)
		entry.pathSnapshot[path] = live
	}
	entry.keySnapshot = nil
	if entry.coarse {
		entry.keySnapshot = make(map[string]struct{}, len(s.state))
		for key := range s.state {
			entry.keySnapshot[key] = struct{}{}
		}
	}
	entry.computed = true
	return value, entry, nil
}

func (s *Store) trackedPathsUnchanged(entry *getterEntry) bool {
	if entry.coarse && !s.keySetUnchanged(entry) {
		return false
	}
	for path := range entry.trackedPaths {
		live, _ := paths.Get(s.state, path)
		if !reflect.DeepEqual(live, entry.pathSnapshot[path]) {
			return false
		}
	}
	return true
}

func (s *Store) keySetUnchanged(entry *getterEntry) bool {
	if len(s.state) != len(entry.keySnapshot) {
		return false
	}
	for key := range s.state {
		if _, ok := entry.keySnapshot[key]; !ok {
			return false
		}
	}
	return true
}

// invalidateGetters drops every cache entry whose tracked path set
// intersects the changed top-level keys. Coarse entries drop on any change:
// a changed key may be one the expression referenced while it was absent.
func (s *Store) invalidateGetters(changedKeys []string) {
	if len(changedKeys) == 0 {
		return
	}
	for _, entry := range s.getters {
		if !entry.computed {
			continue
		}
		if entry.coarse {
			entry.computed = false
			entry.value = nil
			continue
		}
		for path := range entry.trackedPaths {
			if slices.Contains(changedKeys, paths.Head(path)) {
				entry.computed = false
				entry.value = nil
				break
			}
		}
	}
}
