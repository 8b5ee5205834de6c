package doctype

import (
	"fmt"
	"sort"
)

// Registry holds the document type definitions of one engine instance.
// Types are registered during startup wiring; the registry is read-only once
// the engine starts serving, so lookups take no lock.
type Registry struct {
	types map[string]*Type
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: map[string]*Type{}}
}

// Register validates and installs a type definition. Validation failures are
// configuration errors and should abort startup.
func (r *Registry) Register(t *Type) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("document type requires a name")
	}
	if _, exists := r.types[t.Name]; exists {
		return fmt.Errorf("document type %q registered twice", t.Name)
	}
	if len(t.States) == 0 {
		return fmt.Errorf("document type %q declares no states", t.Name)
	}
	for stateName, state := range t.States {
		for target := range state.NextStates {
			if _, ok := t.States[target]; !ok {
				return fmt.Errorf("type %q state %q declares transition to undeclared state %q",
					t.Name, stateName, target)
			}
		}
	}
	for roleName, role := range t.Roles {
		if role.Resolve == nil && role.Group == "" {
			return fmt.Errorf("type %q role %q has neither a group nor a resolver", t.Name, roleName)
		}
		if role.Resolve != nil && role.Group != "" {
			return fmt.Errorf("type %q role %q has both a group and a resolver", t.Name, roleName)
		}
		// A role naming itself would recurse forever at resolution time;
		// indirection is bounded to a single hop.
		if role.Group == roleName {
			return fmt.Errorf("type %q role %q resolves to itself", t.Name, roleName)
		}
	}
	r.types[t.Name] = t
	return nil
}

// MustRegister is Register for static wiring code.
func (r *Registry) MustRegister(t *Type) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Type looks up a registered definition.
func (r *Registry) Type(name string) (*Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Names returns the registered type names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
