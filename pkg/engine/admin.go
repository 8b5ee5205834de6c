package engine

import (
	"context"

	"github.com/platinummonkey/docflow/pkg/docerr"
	"github.com/platinummonkey/docflow/pkg/document"
	"github.com/platinummonkey/docflow/pkg/identity"
	"github.com/platinummonkey/docflow/pkg/storage"
)

// The export/import/reset operations move raw records, bypassing gates and
// hooks: they exist for backup and restore, and a restore must reproduce the
// stored shape exactly — including state and the two cache fields.

// ExportAll returns every stored document, keyed by type name.
func (s *Service) ExportAll(ctx context.Context, caller identity.Caller) (map[string][]*document.Document, error) {
	if err := s.adminContext(caller)(ctx); err != nil {
		return nil, err
	}
	out := map[string][]*document.Document{}
	for _, name := range s.types.Names() {
		t, _ := s.types.Type(name)
		docs, err := s.store.Find(ctx, t.CollectionName(), nil, nil)
		if err != nil {
			return nil, err
		}
		out[name] = docs
	}
	return out, nil
}

// ExportIDs returns the stored document ids, keyed by type name.
func (s *Service) ExportIDs(ctx context.Context, caller identity.Caller) (map[string][]string, error) {
	all, err := s.ExportAll(ctx, caller)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(all))
	for name, docs := range all {
		ids := make([]string, 0, len(docs))
		for _, d := range docs {
			ids = append(ids, d.ID)
		}
		out[name] = ids
	}
	return out, nil
}

// ExportOne returns one raw record without read-gate evaluation.
func (s *Service) ExportOne(ctx context.Context, caller identity.Caller, typeName, id string) (*document.Document, error) {
	if err := s.adminContext(caller)(ctx); err != nil {
		return nil, err
	}
	t, err := s.resolveType(typeName)
	if err != nil {
		return nil, err
	}
	return s.store.FindOne(ctx, t.CollectionName(), storage.Filter{document.FieldID: id})
}

// ImportOne inserts one exported record verbatim. Records must carry their
// id; an import cannot mint new identities without breaking round-trips.
func (s *Service) ImportOne(ctx context.Context, caller identity.Caller, typeName string, doc *document.Document) error {
	if err := s.adminContext(caller)(ctx); err != nil {
		return err
	}
	t, err := s.resolveType(typeName)
	if err != nil {
		return err
	}
	if doc.ID == "" {
		return docerr.AlreadyExists("imported record for type %q is missing its id", typeName)
	}
	_, err = s.store.InsertOne(ctx, t.CollectionName(), doc)
	return err
}

// ImportMany inserts a batch of exported records, stopping at the first
// failure.
func (s *Service) ImportMany(ctx context.Context, caller identity.Caller, payload map[string][]*document.Document) error {
	if err := s.adminContext(caller)(ctx); err != nil {
		return err
	}
	for typeName, docs := range payload {
		for _, d := range docs {
			if err := s.ImportOne(ctx, caller, typeName, d); err != nil {
				return err
			}
		}
	}
	return nil
}

// ResetAll drops every type's collection and re-installs the configured
// group seed. Groups themselves are kept unless the seed replaces them.
func (s *Service) ResetAll(ctx context.Context, caller identity.Caller) error {
	if err := s.adminContext(caller)(ctx); err != nil {
		return err
	}
	for _, name := range s.types.Names() {
		t, _ := s.types.Type(name)
		if err := s.store.Drop(ctx, t.CollectionName()); err != nil {
			return err
		}
	}
	if len(s.groupSeed) > 0 {
		if err := s.groups.Seed(ctx, s.groupSeed); err != nil {
			return err
		}
	}
	s.log.WithCaller(caller.Email).Warn("store reset")
	s.publish(ctx, "store.reset", caller, "", nil)
	return nil
}
