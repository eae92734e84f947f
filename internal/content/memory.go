package content

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// MemoryStore implements Store in memory for tests and dry runs.
// Query returns items in creation order, which makes first-match lookups deterministic.
// Error injection fields let tests exercise failure paths.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Item
	order []string
	next  int

	// ErrOnID fails every operation touching the given item.
	ErrOnID map[string]error

	// ErrOnCreateType fails creation of items of the given type.
	ErrOnCreateType map[string]error

	// QueryErr is returned by Query when non-nil.
	QueryErr error
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Item)}
}

func (m *MemoryStore) injected(id string) error {
	if m.ErrOnID != nil {
		if err, ok := m.ErrOnID[id]; ok {
			return err
		}
	}
	return nil
}

func (m *MemoryStore) Create(_ context.Context, item Item) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ErrOnCreateType != nil {
		if err, ok := m.ErrOnCreateType[item.Type]; ok {
			return "", err
		}
	}
	if item.ID == "" {
		m.next++
		item.ID = fmt.Sprintf("item-%d", m.next)
	}
	if _, exists := m.items[item.ID]; exists {
		return "", fmt.Errorf("item %s already exists", item.ID)
	}
	m.items[item.ID] = item
	m.order = append(m.order, item.ID)
	return item.ID, nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.injected(id); err != nil {
		return Item{}, err
	}
	item, ok := m.items[id]
	if !ok {
		return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return item, nil
}

func (m *MemoryStore) LoadMany(_ context.Context, ids []string) (map[string]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Item, len(ids))
	for _, id := range ids {
		if item, ok := m.items[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

func (m *MemoryStore) Update(_ context.Context, item Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.injected(item.ID); err != nil {
		return err
	}
	if _, ok := m.items[item.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, item.ID)
	}
	m.items[item.ID] = item
	return nil
}

func (m *MemoryStore) DeleteMany(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Like the DefraDB store, every item is attempted before errors are reported.
	var errs []error
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		if err := m.injected(id); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, ok := m.items[id]; ok {
			drop[id] = true
			delete(m.items, id)
		}
	}
	if len(drop) > 0 {
		kept := m.order[:0]
		for _, id := range m.order {
			if !drop[id] {
				kept = append(kept, id)
			}
		}
		m.order = kept
	}
	return errors.Join(errs...)
}

func (m *MemoryStore) Query(_ context.Context, f Filter) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	var ids []string
	for _, id := range m.order {
		item := m.items[id]
		if f.Type != "" && item.Type != f.Type {
			continue
		}
		if f.Number != 0 && item.Number != f.Number {
			continue
		}
		if f.DivisionRef != "" && item.DivisionRef != f.DivisionRef {
			continue
		}
		ids = append(ids, id)
		if f.Limit > 0 && len(ids) >= f.Limit {
			break
		}
	}
	return ids, nil
}

// Len returns the number of stored items.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
