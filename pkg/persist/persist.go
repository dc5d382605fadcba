// Package persist rehydrates stores from a key/value medium and writes
// committed state back to it. The plugin restores state through Hydrate,
// before any consumer subscribes, so restoration never fires notifications;
// after restoring it subscribes and re-serializes the configured subset on
// every committed mutation. Medium failures are logged as warnings and never
// abort a mutation.
package persist

import (
	"context"

	"github.com/goliatone/go-store"
	"github.com/goliatone/go-store/internal/hydrate"
)

// Medium is a key/value persistence backend. Get reports found=false for a
// missing key without an error.
type Medium interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Codec converts state to and from the persisted payload.
type Codec interface {
	Encode(state store.State) (string, error)
	Decode(ctx hydrate.Context, payload string) (store.State, error)
}
