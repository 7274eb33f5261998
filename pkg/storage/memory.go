package storage

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
)

// MemoryStore keeps snapshots in a map.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*Snapshot
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]*Snapshot)}
}

func (m *MemoryStore) SaveReport(_ context.Context, s *Snapshot) error {
	if err := validateSnapshot(s); err != nil {
		return err
	}
	c := *s
	c.Report = slices.Clone(s.Report)
	c.Views = slices.Clone(s.Views)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[s.ID] = &c
	return nil
}

func (m *MemoryStore) GetReport(_ context.Context, id string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.items[id]
	if !ok {
		return nil, notFound(id)
	}
	c := *s
	c.Report = slices.Clone(s.Report)
	return &c, nil
}

func (m *MemoryStore) ListReports(_ context.Context, limit int) ([]*Snapshot, error) {
	m.mu.RLock()
	all := slices.Collect(maps.Values(m.items))
	m.mu.RUnlock()

	slices.SortFunc(all, newestFirst)
	all = all[:min(len(all), listLimit(limit))]
	out := make([]*Snapshot, len(all))
	for i, s := range all {
		out[i] = s.Summary()
	}
	return out, nil
}

func (m *MemoryStore) DeleteReport(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func newestFirst(a, b *Snapshot) int {
	return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
}

var _ Store = (*MemoryStore)(nil)
