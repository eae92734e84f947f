package nav

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore implements Store in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	links []Link

	// ErrOnTarget fails Create for the given target item.
	ErrOnTarget map[string]error
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) FindByTarget(_ context.Context, menu, target string) (Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.links {
		if l.Menu == menu && l.Target == target {
			return l, nil
		}
	}
	return Link{}, fmt.Errorf("%w: %s in %s", ErrNotFound, target, menu)
}

func (m *MemoryStore) Create(_ context.Context, link Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.ErrOnTarget[link.Target]; ok {
		return err
	}
	m.links = append(m.links, link)
	return nil
}

func (m *MemoryStore) List(_ context.Context, menu string) ([]Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Link
	for _, l := range m.links {
		if l.Menu == menu {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight < out[j].Weight })
	return out, nil
}
