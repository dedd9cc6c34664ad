package settings

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore is a LocalStore that lives only as long as the process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	closed bool
}

var _ LocalStore = (*MemoryStore)(nil)

// NewMemoryStore returns a store seeded with initial.
func NewMemoryStore(initial map[string]string) *MemoryStore {
	values := make(map[string]string, len(initial))
	maps.Copy(values, initial)

	return &MemoryStore{values: values}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", false, errStoreClosed
	}

	v, ok := m.values[key]

	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errStoreClosed
	}

	m.values[key] = value

	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errStoreClosed
	}

	delete(m.values, key)

	return nil
}

func (m *MemoryStore) All(context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, errStoreClosed
	}

	return maps.Clone(m.values), nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	return nil
}
