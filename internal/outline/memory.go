package outline

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore implements Store in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	links map[string]Link

	// ErrOnPut fails Put for the given item.
	ErrOnPut map[string]error
	// ErrOnDelete fails Delete for the given item.
	ErrOnDelete map[string]error
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{links: make(map[string]Link)}
}

func (m *MemoryStore) Get(_ context.Context, itemID string) (Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.links[itemID]
	if !ok {
		return Link{}, fmt.Errorf("%w: %s", ErrNotFound, itemID)
	}
	return l, nil
}

func (m *MemoryStore) Put(_ context.Context, link Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.ErrOnPut[link.ItemID]; ok {
		return err
	}
	m.links[link.ItemID] = link
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.ErrOnDelete[itemID]; ok {
		return err
	}
	delete(m.links, itemID)
	return nil
}

func (m *MemoryStore) List(_ context.Context, containerID string) ([]Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Link
	for _, l := range m.links {
		if l.ContainerID == containerID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

// Len returns the number of stored links.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.links)
}
