// Package merge implements the structural operations the store engine
// performs on state trees: deep cloning and the patch merge, where nested
// maps are combined key by key while slices and scalars from the incoming
// partial replace the existing value wholesale.
package merge

import (
	"fmt"

	deepcopy "github.com/tiendc/go-deepcopy"
)

// CloneState deep copies a state tree. A nil state clones to nil.
func CloneState(state map[string]any) (map[string]any, error) {
	if state == nil {
		return nil, nil
	}
	out := make(map[string]any, len(state))
	if err := deepcopy.Copy(&out, &state); err != nil {
		return nil, fmt.Errorf("merge: clone state: %w", err)
	}
	return out, nil
}

// CloneValue deep copies an arbitrary state subtree.
func CloneValue(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	var out any
	if err := deepcopy.Copy(&out, value); err != nil {
		return nil, fmt.Errorf("merge: clone value: %w", err)
	}
	return out, nil
}

// Merge combines incoming into existing. Maps merge recursively; any other
// incoming value (slices included) replaces the existing one. Neither input
// is mutated; shared subtrees from incoming are carried by reference.
func Merge(existing, incoming any) any {
	incomingMap, ok := incoming.(map[string]any)
	if !ok {
		return incoming
	}
	existingMap, ok := existing.(map[string]any)
	if !ok {
		return incoming
	}
	out := make(map[string]any, len(existingMap)+len(incomingMap))
	for key, value := range existingMap {
		out[key] = value
	}
	for key, value := range incomingMap {
		if current, ok := out[key]; ok {
			out[key] = Merge(current, value)
			continue
		}
		out[key] = value
	}
	return out
}
