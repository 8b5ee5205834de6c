package groups

import (
	"context"
	"encoding/json"

	"github.com/platinummonkey/docflow/pkg/document"
	"github.com/platinummonkey/docflow/pkg/storage"
)

// DefaultCollection is the document-store collection backing group
// persistence when no dedicated store is configured.
const DefaultCollection = "usergroups"

// CollectionStore persists groups as documents in the engine's own document
// store, so SQL deployments keep groups and documents in one place.
type CollectionStore struct {
	store      storage.Store
	collection string
}

// NewCollectionStore backs group persistence with a document-store
// collection. An empty collection name uses DefaultCollection.
func NewCollectionStore(store storage.Store, collection string) *CollectionStore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &CollectionStore{store: store, collection: collection}
}

// Get implements Store.
func (s *CollectionStore) Get(ctx context.Context, id string) (*UserGroup, error) {
	d, err := s.store.FindOne(ctx, s.collection, storage.Filter{document.FieldID: id})
	if err != nil {
		return nil, err
	}
	return groupFromDoc(d)
}

// List implements Store.
func (s *CollectionStore) List(ctx context.Context) ([]*UserGroup, error) {
	docs, err := s.store.Find(ctx, s.collection, nil, nil)
	if err != nil {
		return nil, err
	}
	out := make([]*UserGroup, 0, len(docs))
	for _, d := range docs {
		g, err := groupFromDoc(d)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// Insert implements Store.
func (s *CollectionStore) Insert(ctx context.Context, g *UserGroup) error {
	_, err := s.store.InsertOne(ctx, s.collection, groupToDoc(g))
	return err
}

// Update implements Store.
func (s *CollectionStore) Update(ctx context.Context, g *UserGroup) error {
	return s.store.UpdateOne(ctx, s.collection,
		storage.Filter{document.FieldID: g.ID},
		groupToDoc(g).Fields,
	)
}

// Delete implements Store.
func (s *CollectionStore) Delete(ctx context.Context, id string) error {
	return s.store.DeleteOne(ctx, s.collection, storage.Filter{document.FieldID: id})
}

func groupToDoc(g *UserGroup) *document.Document {
	members := make([]interface{}, 0, len(g.Members))
	for _, m := range g.Members {
		member := map[string]interface{}{"email": m.Email}
		if m.Name != "" {
			member["name"] = m.Name
		}
		members = append(members, member)
	}
	d := document.New(g.ID)
	d.Fields["members"] = members
	d.Fields["deletable"] = g.Deletable
	return d
}

func groupFromDoc(d *document.Document) (*UserGroup, error) {
	// Round-trip through JSON so member objects decode into Person records
	// regardless of how the store represents them.
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var g UserGroup
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	return &g, nil
}
