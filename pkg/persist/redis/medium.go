// Package redis provides a persist.Medium backed by Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// Medium stores payloads as plain Redis strings.
type Medium struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures a Medium.
type Option func(*Medium)

// WithTTL sets an expiration on every persisted payload. Zero means no
// expiration.
func WithTTL(ttl time.Duration) Option {
	return func(m *Medium) {
		m.ttl = ttl
	}
}

// WithPrefix sets the Redis key prefix.
func WithPrefix(prefix string) Option {
	return func(m *Medium) {
		m.prefix = prefix
	}
}

// New creates a medium with its own client.
func New(address, password string, db int, opts ...Option) *Medium {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a medium from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Medium {
	m := &Medium{
		client: client,
		prefix: "store:state:",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Medium) key(key string) string {
	return m.prefix + key
}

// Get retrieves the payload stored under key.
func (m *Medium) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := m.client.Get(ctx, m.key(key)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis: get %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores the payload under key, applying the configured TTL.
func (m *Medium) Set(ctx context.Context, key, value string) error {
	if err := m.client.Set(ctx, m.key(key), value, m.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying client.
func (m *Medium) Close() error {
	return m.client.Close()
}
