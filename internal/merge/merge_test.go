package merge

import (
	"reflect"
	"testing"
)

func TestMergeCombinesNestedMaps(t *testing.T) {
	existing := map[string]any{
		"profile": map[string]any{"name": "ada", "theme": "dark"},
		"count":   1,
	}
	incoming := map[string]any{
		"profile": map[string]any{"theme": "light"},
	}
	got := Merge(existing, incoming).(map[string]any)

	profile := got["profile"].(map[string]any)
	if profile["name"] != "ada" || profile["theme"] != "light" {
		t.Fatalf("unexpected merged profile: %v", profile)
	}
	if got["count"] != 1 {
		t.Fatalf("expected untouched sibling to survive, got %v", got["count"])
	}
	if existing["profile"].(map[string]any)["theme"] != "dark" {
		t.Fatalf("existing input must not be mutated")
	}
}

func TestMergeReplacesSlicesWholesale(t *testing.T) {
	existing := map[string]any{"items": []any{1, 2, 3}}
	incoming := map[string]any{"items": []any{9}}
	got := Merge(existing, incoming).(map[string]any)
	if !reflect.DeepEqual(got["items"], []any{9}) {
		t.Fatalf("expected slice replacement, got %v", got["items"])
	}
}

func TestMergeScalarReplacesMap(t *testing.T) {
	got := Merge(map[string]any{"a": 1}, "flat")
	if got != "flat" {
		t.Fatalf("expected scalar to replace map, got %v", got)
	}
}

func TestCloneStateDetachesNestedValues(t *testing.T) {
	src := map[string]any{
		"nested": map[string]any{"n": 1},
		"list":   []any{"a", "b"},
	}
	clone, err := CloneState(src)
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	clone["nested"].(map[string]any)["n"] = 2
	clone["list"].([]any)[0] = "z"
	if src["nested"].(map[string]any)["n"] != 1 {
		t.Fatalf("clone mutated source map")
	}
	if src["list"].([]any)[0] != "a" {
		t.Fatalf("clone mutated source slice")
	}

	nilClone, err := CloneState(nil)
	if err != nil || nilClone != nil {
		t.Fatalf("expected nil state to clone to nil, got %v err=%v", nilClone, err)
	}
}
