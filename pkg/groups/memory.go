package groups

import (
	"context"
	"sort"
	"sync"

	"github.com/platinummonkey/docflow/pkg/docerr"
)

// MemoryStore is an in-memory Store, used in tests and single-process
// deployments without a database.
type MemoryStore struct {
	mu     sync.RWMutex
	groups map[string]*UserGroup
}

// NewMemoryStore returns an empty in-memory group store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{groups: map[string]*UserGroup{}}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (*UserGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, docerr.NotFound("group %q not found", id)
	}
	return g.Clone(), nil
}

// List implements Store; results are ordered by id.
func (s *MemoryStore) List(ctx context.Context) ([]*UserGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*UserGroup, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Insert implements Store.
func (s *MemoryStore) Insert(ctx context.Context, g *UserGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.groups[g.ID]; exists {
		return docerr.AlreadyExists("group %q already exists", g.ID)
	}
	s.groups[g.ID] = g.Clone()
	return nil
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, g *UserGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.groups[g.ID]; !exists {
		return docerr.NotFound("group %q not found", g.ID)
	}
	s.groups[g.ID] = g.Clone()
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.groups[id]; !exists {
		return docerr.NotFound("group %q not found", id)
	}
	delete(s.groups, id)
	return nil
}
