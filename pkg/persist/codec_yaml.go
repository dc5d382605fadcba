package persist

import (
	"fmt"

	"github.com/goliatone/go-store"
	"github.com/goliatone/go-store/internal/hydrate"
	"gopkg.in/yaml.v3"
)

// YAMLCodec persists state as YAML, for media where a human edits the
// payload by hand.
type YAMLCodec struct{}

// Encode serializes state as YAML.
func (YAMLCodec) Encode(state store.State) (string, error) {
	data, err := yaml.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("persist: marshal state: %w", err)
	}
	return string(data), nil
}

// Decode parses a YAML payload into a state tree.
func (YAMLCodec) Decode(ctx hydrate.Context, payload string) (store.State, error) {
	var state store.State
	if err := yaml.Unmarshal([]byte(payload), &state); err != nil {
		return nil, fmt.Errorf("persist: unmarshal payload for store %q: %w", ctx.StoreID, err)
	}
	return state, nil
}
