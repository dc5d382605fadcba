package store

import (
	"context"
	"errors"
	"testing"
)

func TestDispatchIncrementThreeTimes(t *testing.T) {
	registry := newTestRegistry()
	s := defineTestStore(t, registry, "counter",
		func() State { return State{"count": 0} },
		WithAction("increment", func(ctx *ActionContext, args ...any) (any, error) {
			next := ctx.Get("count").(int) + 1
			ctx.SetState(State{"count": next})
			return next, nil
		}),
	)

	var events []ActionEvent
	s.OnAction(func(event ActionEvent) { events = append(events, event) })

	for i := 0; i < 3; i++ {
		if _, err := s.Dispatch(context.Background(), "increment"); err != nil {
			t.Fatalf("dispatch: %v", err)
		}
	}

	if got := s.Get("count"); got != 3 {
		t.Fatalf("expected count 3, got %v", got)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for _, event := range events {
		if event.Name != "increment" {
			t.Fatalf("unexpected event name %q", event.Name)
		}
		if event.StoreID != "counter" {
			t.Fatalf("unexpected store id %q", event.StoreID)
		}
		if event.ID == "" {
			t.Fatalf("expected event id")
		}
		if event.End.Before(event.Start) {
			t.Fatalf("expected end >= start, got %v < %v", event.End, event.Start)
		}
	}
}

func TestDispatchSuccessEventHasResultNoError(t *testing.T) {
	registry := newTestRegistry()
	s := defineTestStore(t, registry, "counter",
		func() State { return State{"count": 0} },
		WithAction("answer", func(ctx *ActionContext, args ...any) (any, error) {
			return 42, nil
		}),
	)

	var events []ActionEvent
	s.OnAction(func(event ActionEvent) { events = append(events, event) })

	result, err := s.Dispatch(context.Background(), "answer")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if result != 42 {
		t.Fatalf("expected 42, got %v", result)
	}
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	if events[0].Result != 42 || events[0].Err != nil {
		t.Fatalf("expected result without error, got %+v", events[0])
	}
}

func TestDispatchErrorPropagatesAfterTelemetry(t *testing.T) {
	registry := newTestRegistry()
	actionErr := errors.New("boom")
	s := defineTestStore(t, registry, "counter",
		func() State { return State{"count": 0} },
		WithAction("fail", func(ctx *ActionContext, args ...any) (any, error) {
			return "partial", actionErr
		}),
	)

	var events []ActionEvent
	s.OnAction(func(event ActionEvent) { events = append(events, event) })

	_, err := s.Dispatch(context.Background(), "fail")
	if !errors.Is(err, actionErr) {
		t.Fatalf("expected action error, got %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(events))
	}
	if events[0].Err == nil || events[0].Result != nil {
		t.Fatalf("expected error without result, got %+v", events[0])
	}
}

func TestDispatchPanicEmitsEventAndRepanics(t *testing.T) {
	registry := newTestRegistry()
	s := defineTestStore(t, registry, "counter",
		func() State { return State{"count": 0} },
		WithAction("explode", func(ctx *ActionContext, args ...any) (any, error) {
			panic("kaboom")
		}),
	)

	var events []ActionEvent
	s.OnAction(func(event ActionEvent) { events = append(events, event) })

	func() {
		defer func() {
			if rec := recover(); rec != "kaboom" {
				t.Fatalf("expected panic to propagate, got %v", rec)
			}
		}()
		s.Dispatch(context.Background(), "explode")
	}()

	if len(events) != 1 {
		t.Fatalf("expected exactly one event despite panic, got %d", len(events))
	}
	if events[0].Err == nil {
		t.Fatalf("expected error recorded for panic, got %+v", events[0])
	}
}

func TestDispatchLoadingFlag(t *testing.T) {
	registry := newTestRegistry()
	var duringDispatch any
	s := defineTestStore(t, registry, "counter",
		func() State { return State{"count": 0} },
		WithAction("fetch", func(ctx *ActionContext, args ...any) (any, error) {
			duringDispatch = ctx.Get("fetchLoading")
			return nil, nil
		}, ActionWithLoadingFlag()),
	)

	if _, err := s.Dispatch(context.Background(), "fetch"); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if duringDispatch != true {
		t.Fatalf("expected loading flag true during dispatch, got %v", duringDispatch)
	}
	if got := s.Get("fetchLoading"); got != false {
		t.Fatalf("expected loading flag reset, got %v", got)
	}
}

func TestDispatchUnknownAction(t *testing.T) {
	s := defineTestStore(t, newTestRegistry(), "counter", func() State {
		return State{"count": 0}
	})

	_, err := s.Dispatch(context.Background(), "missing")
	if !errors.Is(err, ErrActionNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestActionListenerPanicIsolated(t *testing.T) {
	registry := newTestRegistry()
	s := defineTestStore(t, registry, "counter",
		func() State { return State{"count": 0} },
		WithAction("noop", func(ctx *ActionContext, args ...any) (any, error) {
			return nil, nil
		}),
	)

	secondSaw := 0
	registry.OnAction(func(event ActionEvent) { panic("listener bug") })
	registry.OnAction(func(event ActionEvent) { secondSaw++ })

	if _, err := s.Dispatch(context.Background(), "noop"); err != nil {
		t.Fatalf("expected listener panic isolated, got %v", err)
	}
	if secondSaw != 1 {
		t.Fatalf("expected later listener still notified, got %d", secondSaw)
	}
}

func TestActionContextDispatchesSiblings(t *testing.T) {
	registry := newTestRegistry()
	s := defineTestStore(t, registry, "counter",
		func() State { return State{"count": 1} },
		WithGetter("doubleCount", func(ctx *GetterContext) (any, error) {
			return ctx.Get("count").(int) * 2, nil
		}),
		WithAction("double", func(ctx *ActionContext, args ...any) (any, error) {
			doubled, err := ctx.Getter("doubleCount")
			if err != nil {
				return nil, err
			}
			ctx.SetState(State{"count": doubled})
			return doubled, nil
		}),
		WithAction("doubleTwice", func(ctx *ActionContext, args ...any) (any, error) {
			if _, err := ctx.Dispatch("double"); err != nil {
				return nil, err
			}
			return ctx.Dispatch("double")
		}),
	)

	var events []ActionEvent
	s.OnAction(func(event ActionEvent) { events = append(events, event) })

	result, err := s.Dispatch(context.Background(), "doubleTwice")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if result != 4 {
		t.Fatalf("expected 4, got %v", result)
	}
	if got := s.Get("count"); got != 4 {
		t.Fatalf("expected count 4, got %v", got)
	}
	if len(events) != 3 {
		t.Fatalf("expected events for nested dispatches too, got %d", len(events))
	}
}
