// Package doctype models document type definitions: the named lifecycle
// states of a type, the gates and hooks attached to each state, the declared
// transitions between states, and document-scoped role definitions.
//
// Definitions are registered once at process startup and are immutable
// afterwards; the registry validates them at registration time so
// configuration mistakes fail on boot, not mid-request.
package doctype

import (
	"context"

	"github.com/platinummonkey/docflow/pkg/docerr"
	"github.com/platinummonkey/docflow/pkg/document"
	"github.com/platinummonkey/docflow/pkg/identity"
)

// Operation is the mode a gate or hook is evaluated under.
type Operation string

const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Access tests group membership for hooks and the evaluator. Implemented by
// the access evaluator; definitions only see the interface.
type Access interface {
	// IsMember reports whether the context's caller belongs to the named
	// group, including the admin bypass.
	IsMember(ctx context.Context, ec *EvalContext, group string) bool
}

// EvalContext is the bundle handed to every dynamic gate, role resolver and
// lifecycle hook. Doc is a snapshot; mutating it has no effect on the record
// being persisted.
type EvalContext struct {
	Caller identity.Caller
	Type   *Type
	Doc    *document.Document
	Update map[string]interface{}
	Op     Operation

	// Access is set by the engine before callbacks run.
	Access Access

	admin    bool
	adminSet bool
}

// AssertCallerInGroup is the authorization helper for action hooks, which
// are not gated by the engine itself.
func (ec *EvalContext) AssertCallerInGroup(ctx context.Context, group string) error {
	if ec.Access != nil && ec.Access.IsMember(ctx, ec, group) {
		return nil
	}
	return docerr.AccessDenied("caller %q is not in group %q", ec.Caller.Email, group)
}

// CachedAdmin returns the memoized admin decision for this request, if one
// has been made.
func (ec *EvalContext) CachedAdmin() (admin, ok bool) {
	return ec.admin, ec.adminSet
}

// MemoizeAdmin records the admin decision so repeated gate evaluations within
// one operation resolve it once.
func (ec *EvalContext) MemoizeAdmin(admin bool) {
	ec.admin = admin
	ec.adminSet = true
}

// GateFunc computes the group names a gate permits, from the evaluation
// context. It may perform side effects before returning.
type GateFunc func(ctx context.Context, ec *EvalContext) []string

// Gate is an authorization rule on a lifecycle phase: either a static group
// list or a callback computing one. The zero value is "undefined", which
// grants access to everyone; an explicit empty list grants access to no one.
type Gate struct {
	static  []string
	defined bool
	dynamic GateFunc
}

// Groups builds a static gate. Groups() with no names is the deny-all gate.
func Groups(names ...string) Gate {
	return Gate{static: names, defined: true}
}

// Dynamic builds a gate from a callback.
func Dynamic(fn GateFunc) Gate {
	return Gate{dynamic: fn, defined: fn != nil}
}

// Defined reports whether the gate restricts access at all.
func (g Gate) Defined() bool {
	return g.defined
}

// Resolve returns the concrete group list the gate permits.
func (g Gate) Resolve(ctx context.Context, ec *EvalContext) []string {
	if !g.defined {
		return nil
	}
	if g.dynamic != nil {
		return g.dynamic(ctx, ec)
	}
	return g.static
}

// Hook is an application callback fired at a lifecycle point. Errors abort
// the operation.
type Hook func(ctx context.Context, ec *EvalContext) error

// ActionFunc is the state action invoked by RunAction. The hook performs its
// own authorization via EvalContext.AssertCallerInGroup.
type ActionFunc func(ctx context.Context, ec *EvalContext) (interface{}, error)

// Transition declares one legal state change.
type Transition struct {
	// Groups allowed to request the transition. Static only; entry into the
	// target state is additionally gated by the target's Entry gate.
	Groups []string
	Label  string
	// Action fires after the transition is authorized and before the target
	// state's entry hook.
	Action Hook
}

// State is one stage in a type's lifecycle.
type State struct {
	Label       string
	Description string

	Entry  Gate
	Read   Gate
	Write  Gate
	Delete Gate // falls back to Write when undefined
	Exit   Gate

	OnEntry   Hook
	OnReentry Hook
	OnRead    Hook
	OnWrite   Hook
	OnDelete  Hook

	Action ActionFunc

	// NextStates maps target state names to transition declarations. An
	// empty map makes the state terminal.
	NextStates map[string]Transition
}

// RoleFunc computes the persons currently holding a document-scoped role.
type RoleFunc func(ctx context.Context, ec *EvalContext) ([]identity.Person, error)

// Role is a document-scoped role definition: either an indirection to a
// stored group (a single hop) or a callback computing the holders per
// document instance.
type Role struct {
	Group   string
	Resolve RoleFunc
}

// Type is a complete document type definition.
type Type struct {
	Name string

	// Collection overrides the storage collection name; empty means Name.
	Collection string

	States map[string]State
	Roles  map[string]Role

	// RequireID makes callers supply document ids at creation instead of
	// having the store generate them.
	RequireID bool
}

// CollectionName returns the storage collection backing this type.
func (t *Type) CollectionName() string {
	if t.Collection != "" {
		return t.Collection
	}
	return t.Name
}

// State looks up a declared state.
func (t *Type) State(name string) (State, bool) {
	s, ok := t.States[name]
	return s, ok
}

// SingleState returns the sole state of a single-state type. Documents of
// such types may omit the state field entirely.
func (t *Type) SingleState() (string, bool) {
	if len(t.States) != 1 {
		return "", false
	}
	for name := range t.States {
		return name, true
	}
	return "", false
}
