// Package access decides whether a caller may pass a gate. Gate semantics:
// an undefined gate admits everyone, an explicit empty group list admits no
// one, and otherwise the caller must belong to at least one resolved group.
// Administrators bypass every gate; that bypass lives here and nowhere else,
// so every call site shares one privilege-escalation path.
package access

import (
	"context"

	"github.com/platinummonkey/docflow/pkg/docerr"
	"github.com/platinummonkey/docflow/pkg/doctype"
	"github.com/platinummonkey/docflow/pkg/groups"
	"github.com/platinummonkey/docflow/pkg/observability"
)

// AdminConfig declares who counts as an administrator: an explicit email
// list, a global role name, and stored groups whose members are admins.
type AdminConfig struct {
	Emails []string
	Role   string
	Groups []string
}

// Evaluator evaluates gates against a caller.
type Evaluator struct {
	resolver *groups.Resolver
	admin    AdminConfig
	log      *observability.Logger
	metrics  *observability.Metrics
}

// NewEvaluator builds an evaluator; metrics may be nil.
func NewEvaluator(resolver *groups.Resolver, admin AdminConfig, log *observability.Logger, metrics *observability.Metrics) *Evaluator {
	if log == nil {
		log = observability.NopLogger()
	}
	return &Evaluator{resolver: resolver, admin: admin, log: log, metrics: metrics}
}

// Authorize checks the gate for the given lifecycle phase. It returns nil on
// success and a docerr.AccessDenied error otherwise.
func (e *Evaluator) Authorize(ctx context.Context, ec *doctype.EvalContext, gate doctype.Gate, phase string) error {
	if !gate.Defined() {
		e.observe(phase, "allow")
		return nil
	}
	names := gate.Resolve(ctx, ec)
	for _, name := range names {
		if e.resolver.IsMember(ctx, ec, name) {
			e.observe(phase, "allow")
			return nil
		}
	}
	if e.IsAdmin(ctx, ec) {
		e.observe(phase, "admin")
		return nil
	}
	e.observe(phase, "deny")
	return docerr.AccessDenied("%s access denied for %q", phase, ec.Caller.Email)
}

// InGroups resolves the gate to its concrete group-name list without testing
// membership. The engine uses it to refresh the curStateRead/curStateWrite
// display caches from the same gate expressions it authorizes with.
func (e *Evaluator) InGroups(ctx context.Context, ec *doctype.EvalContext, gate doctype.Gate) []string {
	if !gate.Defined() {
		return nil
	}
	names := gate.Resolve(ctx, ec)
	if names == nil {
		return []string{}
	}
	return names
}

// IsAdmin reports whether the context's caller is an administrator. The
// decision is memoized on the context, so one operation resolves it at most
// once however many gates it evaluates.
func (e *Evaluator) IsAdmin(ctx context.Context, ec *doctype.EvalContext) bool {
	if admin, ok := ec.CachedAdmin(); ok {
		return admin
	}
	admin := e.computeAdmin(ctx, ec)
	ec.MemoizeAdmin(admin)
	return admin
}

func (e *Evaluator) computeAdmin(ctx context.Context, ec *doctype.EvalContext) bool {
	if ec.Caller.AdminHint {
		return true
	}
	for _, email := range e.admin.Emails {
		if email == ec.Caller.Email {
			return true
		}
	}
	if e.admin.Role != "" && ec.Caller.HasRole(e.admin.Role) {
		return true
	}
	for _, g := range e.admin.Groups {
		if e.resolver.IsMember(ctx, ec, g) {
			return true
		}
	}
	return false
}

// IsMember implements doctype.Access for hooks: plain group membership with
// the admin bypass applied, mirroring gate evaluation.
func (e *Evaluator) IsMember(ctx context.Context, ec *doctype.EvalContext, group string) bool {
	if e.resolver.IsMember(ctx, ec, group) {
		return true
	}
	return e.IsAdmin(ctx, ec)
}

// RequireAdmin guards the administrative operations (group management,
// export/import/reset).
func (e *Evaluator) RequireAdmin(ctx context.Context, ec *doctype.EvalContext) error {
	if e.IsAdmin(ctx, ec) {
		return nil
	}
	return docerr.AccessDenied("administrative access denied for %q", ec.Caller.Email)
}

func (e *Evaluator) observe(phase, decision string) {
	if e.metrics != nil {
		e.metrics.GateDecisionsTotal.WithLabelValues(phase, decision).Inc()
	}
}
