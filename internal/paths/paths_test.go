package paths

import (
	"reflect"
	"testing"
)

func TestParseNormalizesBracketIndices(t *testing.T) {
	cases := []struct {
		path string
		want []string
	}{
		{"", nil},
		{"count", []string{"count"}},
		{"a.b.c", []string{"a", "b", "c"}},
		{"items[0]", []string{"items", "0"}},
		{"a.b[2].c", []string{"a", "b", "2", "c"}},
		{"a.b.2.c", []string{"a", "b", "2", "c"}},
		{"grid[1][2]", []string{"grid", "1", "2"}},
	}
	for _, tc := range cases {
		if got := Parse(tc.path); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("Parse(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("items[0].sku"); got != "items.0.sku" {
		t.Fatalf("unexpected normalized path: %q", got)
	}
}

func TestPrefixesEnumeratesEveryTraversalStep(t *testing.T) {
	got := Prefixes("a.b[1].c")
	want := []string{"a", "a.b", "a.b.1", "a.b.1.c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Prefixes = %v, want %v", got, want)
	}
	if Prefixes("") != nil {
		t.Fatalf("expected nil prefixes for empty path")
	}
}

func TestGetTraversesMapsAndSlices(t *testing.T) {
	root := map[string]any{
		"user": map[string]any{
			"name": "ada",
			"tags": []any{"admin", "ops"},
		},
	}
	value, ok := Get(root, "user.name")
	if !ok || value != "ada" {
		t.Fatalf("expected ada, got %v (ok=%v)", value, ok)
	}
	value, ok = Get(root, "user.tags[1]")
	if !ok || value != "ops" {
		t.Fatalf("expected ops, got %v (ok=%v)", value, ok)
	}
	if _, ok := Get(root, "user.tags[5]"); ok {
		t.Fatalf("expected out of range index to miss")
	}
	if _, ok := Get(root, "user.missing.deep"); ok {
		t.Fatalf("expected missing path to miss")
	}
}

func TestSetWritesAndCreatesIntermediateMaps(t *testing.T) {
	root := map[string]any{"user": map[string]any{"name": "ada"}}
	if !Set(root, "user.name", "grace") {
		t.Fatalf("expected set on existing path to succeed")
	}
	if !Set(root, "user.contact.email", "g@example.com") {
		t.Fatalf("expected set to create intermediate map")
	}
	value, ok := Get(root, "user.contact.email")
	if !ok || value != "g@example.com" {
		t.Fatalf("expected created leaf, got %v (ok=%v)", value, ok)
	}
	if Set(root, "user.name.deep", "x") {
		t.Fatalf("expected set through a scalar to fail")
	}
}

func TestSetSliceElement(t *testing.T) {
	root := map[string]any{"items": []any{1, 2, 3}}
	if !Set(root, "items[1]", 20) {
		t.Fatalf("expected slice element replacement to succeed")
	}
	value, _ := Get(root, "items.1")
	if value != 20 {
		t.Fatalf("expected 20, got %v", value)
	}
	if Set(root, "items[9]", 1) {
		t.Fatalf("expected out of range slice set to fail")
	}
}
