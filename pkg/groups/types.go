// Package groups manages persisted user groups and resolves group names to
// membership lists. Resolution understands three sources, tried in order:
// a document-scoped role definition, a field on the document itself, and the
// stored group registry. A name that matches none of them resolves to an
// empty membership — absence denies access, it never errors.
package groups

import (
	"context"

	"github.com/platinummonkey/docflow/pkg/identity"
)

// UserGroup is a named, persisted set of persons.
type UserGroup struct {
	ID        string            `json:"id" yaml:"id"`
	Members   []identity.Person `json:"members" yaml:"members"`
	Deletable bool              `json:"deletable" yaml:"deletable"`
}

// Clone returns a copy safe to hand to callers and cache readers.
func (g *UserGroup) Clone() *UserGroup {
	if g == nil {
		return nil
	}
	return &UserGroup{
		ID:        g.ID,
		Members:   append([]identity.Person(nil), g.Members...),
		Deletable: g.Deletable,
	}
}

// Contains reports whether any member's email matches exactly.
func (g *UserGroup) Contains(email string) bool {
	for _, m := range g.Members {
		if m.Email == email {
			return true
		}
	}
	return false
}

// Store is the persistence collaborator behind the registry. Get returns a
// docerr.NotFound error for unknown ids; Insert returns docerr.AlreadyExists
// for duplicates.
type Store interface {
	Get(ctx context.Context, id string) (*UserGroup, error)
	List(ctx context.Context) ([]*UserGroup, error)
	Insert(ctx context.Context, g *UserGroup) error
	Update(ctx context.Context, g *UserGroup) error
	Delete(ctx context.Context, id string) error
}

// Cache sits in front of a Store. Implementations are free to evict entries
// at any time; correctness only requires that Invalidate removes the entry
// before the mutating call returns.
type Cache interface {
	Get(ctx context.Context, id string) (*UserGroup, bool)
	Set(ctx context.Context, g *UserGroup)
	Invalidate(ctx context.Context, id string)
}
