package store

import (
	"fmt"
	"sort"
	"strings"
)

// FieldDescriptor describes a state path and its inferred type.
type FieldDescriptor struct {
	Path string
	Type string
}

// Descriptor is a flattened snapshot of a store's shape, intended for
// debugging and inspection tooling.
type Descriptor struct {
	ID      string
	Version uint64
	Fields  []FieldDescriptor
	Getters []string
	Actions []string
}

// Describe derives a descriptor from the store's current state and
// registered getters and actions.
func (s *Store) Describe() Descriptor {
	fields := deriveFieldDescriptors(s.state, "")
	if fields == nil {
		fields = []FieldDescriptor{}
	}
	actions := s.ActionNames()
	sort.Strings(actions)
	return Descriptor{
		ID:      s.id,
		Version: s.version,
		Fields:  fields,
		Getters: s.GetterNames(),
		Actions: actions,
	}
}

func deriveFieldDescriptors(value any, prefix string) []FieldDescriptor {
	if value == nil {
		return nil
	}

	switch typed := value.(type) {
	case map[string]any:
		if len(typed) == 0 {
			return []FieldDescriptor{{
				Path: prefix,
				Type: "map[string]any",
			}}
		}
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var fields []FieldDescriptor
		for _, key := range keys {
			nextPrefix := joinDescriptorPath(prefix, key)
			fields = append(fields, deriveFieldDescriptors(typed[key], nextPrefix)...)
		}
		return fields
	case []any:
		elementType := "any"
		if len(typed) > 0 {
			elementType = typeName(typed[0])
		}
		return []FieldDescriptor{{
			Path: prefix,
			Type: "[]" + elementType,
		}}
	default:
		if prefix == "" {
			return nil
		}
		return []FieldDescriptor{{
			Path: prefix,
			Type: typeName(typed),
		}}
	}
}

func typeName(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", value)
}

func joinDescriptorPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return strings.Join([]string{prefix, segment}, ".")
}
