package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackzampolin/outline/internal/batch"
)

// MemoryStore implements Store in memory.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
	next    int

	// TokenErr is returned by UpdateToken when non-nil.
	TokenErr error
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (m *MemoryStore) Create(_ context.Context, r *Record) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	r.ID = fmt.Sprintf("run-%d", m.next)
	cp := *r
	m.records[r.ID] = &cp
	return r.ID, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) List(_ context.Context, f ListFilter) ([]*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Record
	for _, r := range m.records {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.Op != "" && r.Op != f.Op {
			continue
		}
		if f.BookType != "" && r.BookType != f.BookType {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, id string, status Status, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	now := time.Now().UTC()
	r.Status = status
	switch {
	case status == StatusRunning:
		r.StartedAt = &now
	case status.Terminal():
		r.CompletedAt = &now
	}
	if errMsg != "" {
		r.Error = errMsg
	}
	return nil
}

func (m *MemoryStore) UpdateToken(_ context.Context, id string, tok batch.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TokenErr != nil {
		return m.TokenErr
	}
	r, ok := m.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	tok.Snapshot = r.Token.Snapshot
	r.Token = tok
	return nil
}

func (m *MemoryStore) SaveSnapshot(_ context.Context, id string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.Token.Snapshot = append([]string(nil), ids...)
	return nil
}
