package store

import (
	"fmt"

	"github.com/goliatone/go-store/internal/merge"
	"github.com/goliatone/go-store/internal/paths"
)

// Draft is a write-capturing view over live state used by Mutate. The first
// write under a top-level key deep-clones that subtree into a working copy;
// subsequent reads and writes under the key hit the copy. Only touched
// top-level keys end up in the committed partial.
type Draft struct {
	store   *Store
	working State
}

// Get reads a path, preferring the working copy for touched keys.
func (d *Draft) Get(path string) any {
	head := paths.Head(path)
	if _, ok := d.working[head]; ok {
		scoped := State{head: d.working[head]}
		value, _ := paths.Get(scoped, path)
		return value
	}
	return d.store.Get(path)
}

// Set writes a path into the draft. Intermediate maps are created for
// missing segments; writing through a scalar or past the end of a slice is
// an error.
func (d *Draft) Set(path string, value any) error {
	segments := paths.Parse(path)
	if len(segments) == 0 {
		return fmt.Errorf("store: draft path must not be empty")
	}
	head := segments[0]
	if len(segments) == 1 {
		d.working[head] = value
		return nil
	}
	if _, ok := d.working[head]; !ok {
		clone, err := merge.CloneValue(d.store.state[head])
		if err != nil {
			return err
		}
		if clone == nil {
			clone = map[string]any{}
		}
		d.working[head] = clone
	}
	if !paths.Set(d.working, paths.Join(segments...), value) {
		return fmt.Errorf("store: cannot write path %q", path)
	}
	return nil
}

// Delete removes a top-level key from the draft's view of state. Nested
// deletes are not supported; assign nil instead.
func (d *Draft) Delete(key string) error {
	segments := paths.Parse(key)
	if len(segments) != 1 {
		return fmt.Errorf("store: draft delete supports top-level keys only, got %q", key)
	}
	d.working[segments[0]] = nil
	return nil
}

// Mutate runs fn against a draft and commits the touched top-level keys as
// one mutation. If fn returns an error nothing is committed. If fn touches
// nothing, no notification is sent.
func (s *Store) Mutate(fn func(draft *Draft) error) error {
	if fn == nil {
		return fmt.Errorf("store: mutator is required")
	}
	draft := &Draft{store: s, working: State{}}
	if err := fn(draft); err != nil {
		return err
	}
	if len(draft.working) == 0 {
		return nil
	}
	s.commit(draft.working, nil)
	return nil
}
