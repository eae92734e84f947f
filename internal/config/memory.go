package config

import (
	"context"
	"sync"
)

// MemoryStore implements Store in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry

	// Err is returned by every call when non-nil.
	Err error
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	e, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value any, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if err := ValidateKey(key); err != nil {
		return err
	}
	m.entries[key] = Entry{Key: key, Value: value, Description: description}
	return nil
}

func (m *MemoryStore) GetAll(_ context.Context) (map[string]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make(map[string]Entry, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.entries, key)
	return nil
}
