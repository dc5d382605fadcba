package persist

import (
	"context"
	"sync"
)

// MemoryMedium is an in-process Medium, useful for tests and as a reference
// implementation of the contract.
type MemoryMedium struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory constructs an empty in-memory medium.
func NewMemory() *MemoryMedium {
	return &MemoryMedium{values: map[string]string{}}
}

// Get returns the stored value for key.
func (m *MemoryMedium) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, found := m.values[key]
	return value, found, nil
}

// Set stores value under key.
func (m *MemoryMedium) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Keys returns the stored keys. Intended for tests.
func (m *MemoryMedium) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.values))
	for key := range m.values {
		keys = append(keys, key)
	}
	return keys
}
