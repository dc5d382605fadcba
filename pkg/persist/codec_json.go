package persist

import (
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-store"
	"github.com/goliatone/go-store/internal/hydrate"
)

// JSONCodec is the default codec. Decoding runs through the hydrate
// pipeline, so callers can attach pre/post hooks to normalise legacy
// payloads or validate restored state.
type JSONCodec struct {
	decoder *hydrate.Decoder[store.State]
}

// NewJSONCodec constructs a JSON codec, forwarding opts to the hydrate
// decoder.
func NewJSONCodec(opts ...hydrate.DecoderOption[store.State]) *JSONCodec {
	return &JSONCodec{decoder: hydrate.NewDecoder(opts...)}
}

// Encode serializes state as JSON.
func (c *JSONCodec) Encode(state store.State) (string, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("persist: marshal state: %w", err)
	}
	return string(data), nil
}

// Decode parses payload and runs it through the hydrate pipeline.
func (c *JSONCodec) Decode(ctx hydrate.Context, payload string) (store.State, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("persist: unmarshal payload for store %q: %w", ctx.StoreID, err)
	}
	return c.decoder.Decode(ctx, raw)
}
