package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActionFunc is a user-registered mutation routine. State reads and writes
// go through the supplied context; writes are routed through the store's
// patch machinery.
type ActionFunc func(ctx *ActionContext, args ...any) (any, error)

// ActionEvent is the ephemeral telemetry record describing one dispatch.
// Result is set only on success, Err only on failure.
type ActionEvent struct {
	ID       string
	StoreID  string
	Name     string
	Args     []any
	Result   any
	Err      error
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

// ActionListener receives completed action events.
type ActionListener func(ActionEvent)

// ActionContext is the receiver handed to action bodies.
type ActionContext struct {
	ctx   context.Context
	store *Store
}

// Context returns the dispatch context.
func (c *ActionContext) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Store returns the owning store.
func (c *ActionContext) Store() *Store {
	return c.store
}

// State returns a defensive shallow copy of the current state.
func (c *ActionContext) State() State {
	return c.store.GetState()
}

// Get reads a state path.
func (c *ActionContext) Get(path string) any {
	return c.store.Get(path)
}

// Set writes a state path, routed through the patch machinery.
func (c *ActionContext) Set(path string, value any) error {
	return c.store.Set(path, value)
}

// SetState merges a partial at the top level.
func (c *ActionContext) SetState(partial State) {
	c.store.SetState(partial)
}

// Patch deep-merges a partial.
func (c *ActionContext) Patch(partial State) {
	c.store.Patch(partial)
}

// Getter reads a sibling getter.
func (c *ActionContext) Getter(name string) (any, error) {
	return c.store.Getter(name)
}

// Dispatch invokes a sibling action under the same context.
func (c *ActionContext) Dispatch(name string, args ...any) (any, error) {
	return c.store.Dispatch(c.ctx, name, args...)
}

// ActionNames returns the registered action names.
func (s *Store) ActionNames() []string {
	names := make([]string, 0, len(s.actions))
	for name := range s.actions {
		names = append(names, name)
	}
	return names
}

// Dispatch runs the named action. The action's error is returned to the
// caller after telemetry is recorded; exactly one ActionEvent reaches the
// registry's event bus whether the action succeeds, fails, or panics. A
// panic is re-raised once bookkeeping completes.
func (s *Store) Dispatch(ctx context.Context, name string, args ...any) (any, error) {
	def, ok := s.actions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrActionNotFound, name)
	}

	event := ActionEvent{
		ID:      uuid.NewString(),
		StoreID: s.id,
		Name:    name,
		Args:    args,
		Start:   time.Now(),
	}

	flag := name + "Loading"
	flagSet := false
	if def.loadingFlag {
		if current := s.Get(flag); current != true {
			s.SetState(State{flag: true})
			flagSet = true
		}
	}

	actionCtx := &ActionContext{ctx: ctx, store: s}
	var result any
	var err error
	var panicked any
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				panicked = rec
				err = fmt.Errorf("store: action %q panicked: %v", name, rec)
			}
		}()
		result, err = def.fn(actionCtx, args...)
	}()

	event.End = time.Now()
	event.Duration = event.End.Sub(event.Start)
	if err != nil {
		event.Err = err
	} else {
		event.Result = result
	}

	if flagSet {
		s.SetState(State{flag: false})
	}
	s.registry.EmitAction(event)

	if panicked != nil {
		panic(panicked)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
