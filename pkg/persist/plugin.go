package persist

import (
	"context"
	"io"
	"log/slog"

	"github.com/goliatone/go-store"
	"github.com/goliatone/go-store/internal/hydrate"
	"github.com/goliatone/go-store/internal/paths"
)

// Plugin persists store state through a Medium. Install it with
// Registry.Use; every store defined afterwards (and, through replay, every
// store defined before) is restored from the medium and kept in sync.
type Plugin struct {
	medium Medium
	codec  Codec
	logger *slog.Logger

	prefix         string
	keys           map[string]string
	allowed        map[string][]string
	hydrateInitial bool
}

// Option configures the persistence plugin.
type Option func(*Plugin)

// WithCodec replaces the default JSON codec.
func WithCodec(codec Codec) Option {
	return func(p *Plugin) {
		if codec != nil {
			p.codec = codec
		}
	}
}

// WithKeyPrefix prepends prefix to every medium key.
func WithKeyPrefix(prefix string) Option {
	return func(p *Plugin) {
		p.prefix = prefix
	}
}

// WithStoreKey overrides the medium key for one store. The prefix still
// applies.
func WithStoreKey(storeID, key string) Option {
	return func(p *Plugin) {
		if storeID == "" || key == "" {
			return
		}
		if p.keys == nil {
			p.keys = map[string]string{}
		}
		p.keys[storeID] = key
	}
}

// WithPaths restricts persistence for one store to the given paths. Only
// those paths are serialized, and only those paths are applied when
// restoring.
func WithPaths(storeID string, pathSet ...string) Option {
	return func(p *Plugin) {
		if storeID == "" || len(pathSet) == 0 {
			return
		}
		if p.allowed == nil {
			p.allowed = map[string][]string{}
		}
		normalized := make([]string, 0, len(pathSet))
		for _, path := range pathSet {
			if n := paths.Normalize(path); n != "" {
				normalized = append(normalized, n)
			}
		}
		p.allowed[storeID] = normalized
	}
}

// WithHydrateInitial writes the store's initial state to the medium when no
// persisted payload exists yet.
func WithHydrateInitial() Option {
	return func(p *Plugin) {
		p.hydrateInitial = true
	}
}

// New constructs the plugin around medium. The default codec is JSON.
func New(medium Medium, opts ...Option) *Plugin {
	p := &Plugin{
		medium: medium,
		codec:  NewJSONCodec(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Name identifies the plugin within a registry.
func (p *Plugin) Name() string {
	return "persist"
}

// Install captures the registry logger for diagnostics.
func (p *Plugin) Install(registry *store.Registry) error {
	if p.medium == nil {
		return ErrMediumRequired
	}
	p.logger = registry.Logger()
	return nil
}

// StoreCreated restores s from the medium, then subscribes to keep the
// persisted payload current.
func (p *Plugin) StoreCreated(s *store.Store) {
	ctx := context.Background()
	key := p.keyFor(s.ID())

	payload, found, err := p.medium.Get(ctx, key)
	switch {
	case err != nil:
		p.log().Warn("persist: load failed", "store", s.ID(), "key", key, "err", err)
	case found:
		state, decodeErr := p.codec.Decode(hydrate.Context{StoreID: s.ID(), Key: key}, payload)
		if decodeErr != nil {
			p.log().Warn("persist: decode failed", "store", s.ID(), "key", key, "err", decodeErr)
			break
		}
		s.Hydrate(p.restrict(s.ID(), state))
	case p.hydrateInitial:
		p.save(ctx, s, key)
	}

	s.Subscribe(func(newState, oldState store.State) {
		p.save(context.Background(), s, key)
	})
}

func (p *Plugin) save(ctx context.Context, s *store.Store, key string) {
	subset := p.restrict(s.ID(), s.GetState())
	payload, err := p.codec.Encode(subset)
	if err != nil {
		p.log().Warn("persist: encode failed", "store", s.ID(), "key", key, "err", err)
		return
	}
	if err := p.medium.Set(ctx, key, payload); err != nil {
		p.log().Warn("persist: save failed", "store", s.ID(), "key", key, "err", err)
	}
}

// restrict projects state onto the store's path allow-list, or returns it
// unchanged when no allow-list is configured.
func (p *Plugin) restrict(storeID string, state store.State) store.State {
	allowed, ok := p.allowed[storeID]
	if !ok {
		return state
	}
	out := store.State{}
	for _, path := range allowed {
		if value, found := paths.Get(state, path); found {
			paths.Set(out, path, value)
		}
	}
	return out
}

func (p *Plugin) keyFor(storeID string) string {
	key := storeID
	if override, ok := p.keys[storeID]; ok {
		key = override
	}
	return p.prefix + key
}

func (p *Plugin) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
