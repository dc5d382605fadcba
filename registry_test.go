package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/goliatone/go-store/pkg/activity"
)

func TestDefineStoreReturnsSameInstanceForRepeatedID(t *testing.T) {
	registry := newTestRegistry()
	first := defineTestStore(t, registry, "counter", func() State {
		return State{"count": 0}
	})

	notified := 0
	first.Subscribe(func(newState, oldState State) { notified++ })
	first.SetState(State{"count": 5})

	second, err := registry.DefineStore("counter", func() State {
		return State{"count": 100}
	})
	if err != nil {
		t.Fatalf("redefine: %v", err)
	}
	if first != second {
		t.Fatalf("expected the same instance for a repeated id")
	}
	if got := second.Get("count"); got != 5 {
		t.Fatalf("expected state preserved across redefinition, got %v", got)
	}

	second.SetState(State{"count": 6})
	if notified != 2 {
		t.Fatalf("expected subscribers preserved across redefinition, got %d", notified)
	}
}

func TestDefineStoreConfigurationErrors(t *testing.T) {
	registry := newTestRegistry()

	if _, err := registry.DefineStore("", func() State { return State{} }); !errors.Is(err, ErrStoreIDRequired) {
		t.Fatalf("expected id error, got %v", err)
	}
	if _, err := registry.DefineStore("counter", nil); !errors.Is(err, ErrStateFactoryRequired) {
		t.Fatalf("expected factory error, got %v", err)
	}
}

func TestStoreLookup(t *testing.T) {
	registry := newTestRegistry()
	defineTestStore(t, registry, "counter", func() State { return State{} })

	if _, ok := registry.Store("counter"); !ok {
		t.Fatalf("expected store found")
	}
	if _, ok := registry.Store("missing"); ok {
		t.Fatalf("expected missing store to report not found")
	}
	if _, err := registry.RequireStore("missing"); !errors.Is(err, ErrStoreNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestStoreIDsInDefinitionOrder(t *testing.T) {
	registry := newTestRegistry()
	defineTestStore(t, registry, "b", func() State { return State{} })
	defineTestStore(t, registry, "a", func() State { return State{} })

	if got := registry.StoreIDs(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Fatalf("expected definition order, got %v", got)
	}
}

type testPlugin struct {
	name       string
	installs   int
	created    []string
	installErr error
}

func (p *testPlugin) Name() string { return p.name }

func (p *testPlugin) Install(_ *Registry) error {
	p.installs++
	return p.installErr
}

func (p *testPlugin) StoreCreated(s *Store) {
	p.created = append(p.created, s.ID())
}

func TestUsePluginFiresStoreCreated(t *testing.T) {
	registry := newTestRegistry()
	plugin := &testPlugin{name: "test"}
	if err := registry.Use(plugin); err != nil {
		t.Fatalf("use: %v", err)
	}

	defineTestStore(t, registry, "counter", func() State { return State{} })
	if !reflect.DeepEqual(plugin.created, []string{"counter"}) {
		t.Fatalf("expected StoreCreated for new store, got %v", plugin.created)
	}
}

func TestUsePluginReplaysExistingStores(t *testing.T) {
	registry := newTestRegistry()
	defineTestStore(t, registry, "a", func() State { return State{} })
	defineTestStore(t, registry, "b", func() State { return State{} })

	plugin := &testPlugin{name: "late"}
	if err := registry.Use(plugin); err != nil {
		t.Fatalf("use: %v", err)
	}
	if !reflect.DeepEqual(plugin.created, []string{"a", "b"}) {
		t.Fatalf("expected replay in definition order, got %v", plugin.created)
	}
}

func TestUseDuplicatePluginIsNoOp(t *testing.T) {
	registry := newTestRegistry()
	original := &testPlugin{name: "dup"}
	replacement := &testPlugin{name: "dup"}

	if err := registry.Use(original); err != nil {
		t.Fatalf("use: %v", err)
	}
	if err := registry.Use(replacement); err != nil {
		t.Fatalf("expected duplicate install to be a warning, got %v", err)
	}

	defineTestStore(t, registry, "counter", func() State { return State{} })
	if len(original.created) != 1 {
		t.Fatalf("expected original plugin kept, got %v", original.created)
	}
	if len(replacement.created) != 0 {
		t.Fatalf("expected replacement ignored, got %v", replacement.created)
	}
	if replacement.installs != 0 {
		t.Fatalf("expected replacement not installed, got %d", replacement.installs)
	}
}

func TestUsePluginInstallError(t *testing.T) {
	registry := newTestRegistry()
	installErr := errors.New("install failed")
	plugin := &testPlugin{name: "broken", installErr: installErr}

	if err := registry.Use(plugin); !errors.Is(err, installErr) {
		t.Fatalf("expected install error, got %v", err)
	}
}

func TestUseRequiresName(t *testing.T) {
	registry := newTestRegistry()
	if err := registry.Use(&testPlugin{}); !errors.Is(err, ErrPluginNameRequired) {
		t.Fatalf("expected name error, got %v", err)
	}
}

func TestOnActionUnsubscribe(t *testing.T) {
	registry := newTestRegistry()
	s := defineTestStore(t, registry, "counter",
		func() State { return State{"count": 0} },
		WithAction("noop", func(ctx *ActionContext, args ...any) (any, error) {
			return nil, nil
		}),
	)

	seen := 0
	unsubscribe := registry.OnAction(func(event ActionEvent) { seen++ })

	if _, err := s.Dispatch(context.Background(), "noop"); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	unsubscribe()
	unsubscribe() // idempotent
	if _, err := s.Dispatch(context.Background(), "noop"); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if seen != 1 {
		t.Fatalf("expected one event before unsubscribe, got %d", seen)
	}
}

func TestActivityHooksReceiveLifecycleEvents(t *testing.T) {
	capture := &activity.CaptureHook{}
	registry := New(
		WithLogger(NopLogger()),
		WithActivityHooks(activity.Hooks{capture}),
	)

	s, err := registry.DefineStore("counter",
		func() State { return State{"count": 0} },
		WithAction("increment", func(ctx *ActionContext, args ...any) (any, error) {
			ctx.SetState(State{"count": ctx.Get("count").(int) + 1})
			return nil, nil
		}),
	)
	if err != nil {
		t.Fatalf("define: %v", err)
	}
	if _, err := s.Dispatch(context.Background(), "increment"); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	want := []string{"store.created", "store.state.changed", "store.action.completed"}
	if got := capture.Verbs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected verbs %v, got %v", want, got)
	}
	if capture.Events[1].Metadata["version"] != uint64(1) {
		t.Fatalf("expected version metadata, got %+v", capture.Events[1].Metadata)
	}
	if capture.Events[2].Metadata["action"] != "increment" {
		t.Fatalf("expected action metadata, got %+v", capture.Events[2].Metadata)
	}
}
