package alias

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore implements Store in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	byAlias map[string]Alias
	byPath  map[string]Alias

	// CreateErr is returned by Create when non-nil.
	CreateErr error
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byAlias: make(map[string]Alias),
		byPath:  make(map[string]Alias),
	}
}

func (m *MemoryStore) PathByAlias(_ context.Context, alias string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.byAlias[alias]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, alias)
	}
	return a.Path, nil
}

func (m *MemoryStore) AliasByPath(_ context.Context, path string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.byPath[path]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return a.Alias, nil
}

// Create stores an alias. A path holds one alias; a newer one replaces it.
func (m *MemoryStore) Create(_ context.Context, a Alias) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if old, ok := m.byPath[a.Path]; ok {
		delete(m.byAlias, old.Alias)
	}
	m.byAlias[a.Alias] = a
	m.byPath[a.Path] = a
	return nil
}

func (m *MemoryStore) Exists(_ context.Context, alias string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byAlias[alias]
	return ok, nil
}

func (m *MemoryStore) DeleteByPath(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.byPath[path]; ok {
		delete(m.byAlias, a.Alias)
		delete(m.byPath, path)
	}
	return nil
}

// Len returns the number of stored aliases.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byAlias)
}
