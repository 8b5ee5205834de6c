package groups

import (
	"context"

	"github.com/platinummonkey/docflow/pkg/docerr"
	"github.com/platinummonkey/docflow/pkg/doctype"
	"github.com/platinummonkey/docflow/pkg/identity"
	"github.com/platinummonkey/docflow/pkg/observability"
)

// Resolver turns a group name into a membership list. Three sources are
// tried in order:
//
//  1. a document-scoped role definition on the context's type — a callback
//     computing the holders, or a one-hop indirection to another name;
//  2. a dot-path field on the document holding a person or list of persons;
//  3. the stored group registry.
//
// A name matching none of the sources resolves to an empty list. Resolution
// never returns an error: a missing group must deny access, not crash the
// operation.
type Resolver struct {
	registry *Registry
	log      *observability.Logger
}

// NewResolver builds a resolver over the group registry.
func NewResolver(registry *Registry, log *observability.Logger) *Resolver {
	if log == nil {
		log = observability.NopLogger()
	}
	return &Resolver{registry: registry, log: log}
}

// Members resolves groupName to the persons it currently contains.
func (r *Resolver) Members(ctx context.Context, ec *doctype.EvalContext, groupName string) []identity.Person {
	return r.resolve(ctx, ec, groupName, true)
}

// resolve carries the allowRole flag so a role's group indirection is
// bounded to a single hop and cannot loop through another role.
func (r *Resolver) resolve(ctx context.Context, ec *doctype.EvalContext, name string, allowRole bool) []identity.Person {
	if allowRole && ec != nil && ec.Type != nil {
		if role, ok := ec.Type.Roles[name]; ok {
			if role.Resolve != nil {
				if ec.Doc == nil {
					// Role callbacks need a document instance; without one
					// the role holds nobody.
					return nil
				}
				members, err := role.Resolve(ctx, ec)
				if err != nil {
					r.log.WithError(err).WithField("role", name).Warn("role resolver failed, denying membership")
					return nil
				}
				return members
			}
			name = role.Group
			allowRole = false
		}
	}

	if ec != nil && ec.Doc != nil {
		if v, ok := ec.Doc.Lookup(name); ok {
			return coercePersons(v)
		}
	}

	g, err := r.registry.Get(ctx, name)
	if err != nil {
		if docerr.KindOf(err) != docerr.KindNotFound {
			r.log.WithError(err).WithField("group", name).Warn("group lookup failed, denying membership")
		}
		return nil
	}
	return g.Members
}

// IsMember reports whether the context's caller belongs to groupName. A
// caller whose global roles contain the name verbatim is a member without
// any lookup; otherwise membership is an exact email match against the
// resolved list.
func (r *Resolver) IsMember(ctx context.Context, ec *doctype.EvalContext, groupName string) bool {
	if ec.Caller.HasRole(groupName) {
		return true
	}
	for _, p := range r.Members(ctx, ec, groupName) {
		if p.Email == ec.Caller.Email {
			return true
		}
	}
	return false
}

// coercePersons reads a document field value as a membership list: a single
// person object or an array of them.
func coercePersons(v interface{}) []identity.Person {
	switch t := v.(type) {
	case identity.Person:
		return []identity.Person{t}
	case *identity.Person:
		if t == nil {
			return nil
		}
		return []identity.Person{*t}
	case []identity.Person:
		return t
	case map[string]interface{}:
		if p, ok := personFromMap(t); ok {
			return []identity.Person{p}
		}
		return nil
	case []interface{}:
		var out []identity.Person
		for _, e := range t {
			out = append(out, coercePersons(e)...)
		}
		return out
	default:
		return nil
	}
}

func personFromMap(m map[string]interface{}) (identity.Person, bool) {
	email, ok := m["email"].(string)
	if !ok || email == "" {
		return identity.Person{}, false
	}
	name, _ := m["name"].(string)
	return identity.Person{Email: email, Name: name}, true
}
