package hydrate

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

type settings struct {
	Theme    string `json:"theme"`
	PageSize int    `json:"page_size"`
}

func TestDecodeDefaultJSONPath(t *testing.T) {
	decoder := NewDecoder[settings]()
	got, err := decoder.Decode(Context{StoreID: "prefs"}, map[string]any{
		"theme":     "dark",
		"page_size": 25,
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Theme != "dark" || got.PageSize != 25 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestDecodeNilPayloadFails(t *testing.T) {
	decoder := NewDecoder[settings]()
	if _, err := decoder.Decode(Context{StoreID: "prefs"}, nil); err == nil {
		t.Fatalf("expected error for nil payload")
	}
}

func TestPreHookRewritesPayload(t *testing.T) {
	decoder := NewDecoder(
		WithPreHook[settings](func(ctx Context, payload map[string]any) (map[string]any, error) {
			if legacy, ok := payload["pageSize"]; ok {
				payload["page_size"] = legacy
				delete(payload, "pageSize")
			}
			return payload, nil
		}),
	)
	got, err := decoder.Decode(Context{StoreID: "prefs"}, map[string]any{
		"theme":    "light",
		"pageSize": 10,
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.PageSize != 10 {
		t.Fatalf("expected legacy key migration, got %+v", got)
	}
}

func TestPreHookDoesNotMutateCallerPayload(t *testing.T) {
	payload := map[string]any{"theme": "dark"}
	decoder := NewDecoder(
		WithPreHook[settings](func(ctx Context, current map[string]any) (map[string]any, error) {
			current["theme"] = "mutated"
			return current, nil
		}),
	)
	if _, err := decoder.Decode(Context{StoreID: "prefs"}, payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["theme"] != "dark" {
		t.Fatalf("caller payload was mutated: %v", payload)
	}
}

func TestPostHookValidates(t *testing.T) {
	wantErr := errors.New("page size out of range")
	decoder := NewDecoder(
		WithPostHook[settings](func(ctx Context, result *settings) error {
			if result.PageSize < 0 {
				return wantErr
			}
			return nil
		}),
	)
	_, err := decoder.Decode(Context{StoreID: "prefs"}, map[string]any{"page_size": -1})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCustomDecoderReplacesJSONPath(t *testing.T) {
	decoder := NewDecoder(
		WithCustomDecoder[settings](func(ctx Context, payload map[string]any) (settings, error) {
			return settings{Theme: strings.ToUpper(payload["theme"].(string))}, nil
		}),
	)
	got, err := decoder.Decode(Context{StoreID: "prefs"}, map[string]any{"theme": "dark"})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Theme != "DARK" {
		t.Fatalf("expected custom decoder result, got %+v", got)
	}
}

func TestUseNumberPreservesPrecision(t *testing.T) {
	decoder := NewDecoder(WithUseNumber[map[string]any]())
	got, err := decoder.Decode(Context{StoreID: "prefs"}, map[string]any{"big": 9007199254740993.0})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := got["big"].(json.Number); !ok {
		t.Fatalf("expected json.Number, got %T", got["big"])
	}
}
