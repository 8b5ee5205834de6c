package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/platinummonkey/docflow/pkg/docerr"
	"github.com/platinummonkey/docflow/pkg/document"
)

// MemoryStore is an in-memory Store for tests and single-process use.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]*document.Document
}

// NewMemoryStore returns an empty in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: map[string]map[string]*document.Document{}}
}

// FindOne implements Store.
func (s *MemoryStore) FindOne(ctx context.Context, collection string, filter Filter) (*document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.collections[collection] {
		if d.MatchesFilter(filter) {
			return d.Clone(), nil
		}
	}
	return nil, docerr.NotFound("no document matches in collection %q", collection)
}

// Find implements Store; results are ordered by id for stable pagination.
func (s *MemoryStore) Find(ctx context.Context, collection string, filter Filter, projection []string) ([]*document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*document.Document, 0)
	for _, d := range s.collections[collection] {
		if d.MatchesFilter(filter) {
			out = append(out, d.Clone().Project(projection))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// InsertOne implements Store.
func (s *MemoryStore) InsertOne(ctx context.Context, collection string, doc *document.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collections[collection] == nil {
		s.collections[collection] = map[string]*document.Document{}
	}
	d := doc.Clone()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if _, exists := s.collections[collection][d.ID]; exists {
		return "", docerr.AlreadyExists("document %q already exists in collection %q", d.ID, collection)
	}
	s.collections[collection][d.ID] = d
	return d.ID, nil
}

// UpdateOne implements Store.
func (s *MemoryStore) UpdateOne(ctx context.Context, collection string, filter Filter, patch map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, d := range s.collections[collection] {
		if d.MatchesFilter(filter) {
			updated := d.Clone()
			updated.ApplyPatch(patch)
			s.collections[collection][id] = updated
			return nil
		}
	}
	return docerr.NotFound("no document matches in collection %q", collection)
}

// DeleteOne implements Store.
func (s *MemoryStore) DeleteOne(ctx context.Context, collection string, filter Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, d := range s.collections[collection] {
		if d.MatchesFilter(filter) {
			delete(s.collections[collection], id)
			return nil
		}
	}
	return docerr.NotFound("no document matches in collection %q", collection)
}

// Drop implements Store.
func (s *MemoryStore) Drop(ctx context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, collection)
	return nil
}
