// Package engine composes the document type registry, the access evaluator
// and the storage collaborator into the public document operations: create,
// get, query, update, delete and run-action, plus group management and the
// whole-store administrative operations.
package engine

import (
	"context"
	"time"

	"github.com/platinummonkey/docflow/pkg/access"
	"github.com/platinummonkey/docflow/pkg/audit"
	"github.com/platinummonkey/docflow/pkg/docerr"
	"github.com/platinummonkey/docflow/pkg/doctype"
	"github.com/platinummonkey/docflow/pkg/document"
	"github.com/platinummonkey/docflow/pkg/groups"
	"github.com/platinummonkey/docflow/pkg/identity"
	"github.com/platinummonkey/docflow/pkg/observability"
	"github.com/platinummonkey/docflow/pkg/storage"
)

// Service is one engine instance. It is constructed explicitly with its
// collaborators and passed by reference to whatever serves requests; there
// is no process-wide instance.
type Service struct {
	types     *doctype.Registry
	store     storage.Store
	groups    *groups.Registry
	evaluator *access.Evaluator

	groupSeed []*groups.UserGroup
	audit     audit.Logger
	events    EventPublisher
	log       *observability.Logger
	metrics   *observability.Metrics
}

// EventPublisher receives lifecycle events after operations succeed.
// Publication is fire-and-forget; implementations must not block.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithAuditLogger records admin overrides of state and transition checks.
func WithAuditLogger(l audit.Logger) Option {
	return func(s *Service) { s.audit = l }
}

// WithLogger sets the service logger.
func WithLogger(l *observability.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithMetrics enables operation metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithGroupSeed sets the groups ResetAll re-installs after dropping the
// store.
func WithGroupSeed(seed []*groups.UserGroup) Option {
	return func(s *Service) { s.groupSeed = seed }
}

// WithEventPublisher publishes lifecycle events, typically to the webhook
// manager.
func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// NewService builds an engine instance.
func NewService(types *doctype.Registry, store storage.Store, groupRegistry *groups.Registry, evaluator *access.Evaluator, opts ...Option) *Service {
	s := &Service{
		types:     types,
		store:     store,
		groups:    groupRegistry,
		evaluator: evaluator,
		audit:     audit.NopLogger{},
		log:       observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// resolveType looks up a registered document type.
func (s *Service) resolveType(name string) (*doctype.Type, error) {
	t, ok := s.types.Type(name)
	if !ok {
		return nil, docerr.InvalidType(name)
	}
	return t, nil
}

// newEvalContext assembles the callback context for one lifecycle phase.
func (s *Service) newEvalContext(caller identity.Caller, t *doctype.Type, doc *document.Document, update map[string]interface{}, op doctype.Operation) *doctype.EvalContext {
	return &doctype.EvalContext{
		Caller: caller,
		Type:   t,
		Doc:    doc,
		Update: update,
		Op:     op,
		Access: s.evaluator,
	}
}

// currentState resolves a document's state definition. Single-state types
// may omit the state field entirely. An undeclared state is tolerated for
// administrators so operators can repair corrupt records; everyone else gets
// InvalidState.
func (s *Service) currentState(ctx context.Context, ec *doctype.EvalContext, t *doctype.Type, doc *document.Document) (string, doctype.State, bool, error) {
	name := doc.State
	if name == "" {
		if sole, ok := t.SingleState(); ok {
			name = sole
		}
	}
	if st, ok := t.State(name); ok {
		return name, st, true, nil
	}
	if s.evaluator.IsAdmin(ctx, ec) {
		s.recordOverride(ctx, ec, t, doc.ID, docerr.KindInvalidState, doc.State, "")
		return name, doctype.State{}, false, nil
	}
	return "", doctype.State{}, false, docerr.InvalidState(t.Name, doc.State)
}

// recordOverride audits an administrator bypassing a validity check, so a
// repair is distinguishable from a normal transition after the fact.
func (s *Service) recordOverride(ctx context.Context, ec *doctype.EvalContext, t *doctype.Type, docID string, kind docerr.Kind, from, to string) {
	if s.metrics != nil {
		s.metrics.AdminOverridesTotal.WithLabelValues(t.Name, string(kind)).Inc()
	}
	event := audit.Event{
		Time:     time.Now().UTC(),
		Caller:   ec.Caller.Email,
		DocType:  t.Name,
		DocID:    docID,
		Kind:     string(kind),
		From:     from,
		To:       to,
		Override: true,
	}
	if err := s.audit.Log(ctx, event); err != nil {
		s.log.WithError(err).Warn("failed to record admin override audit event")
	}
}

// publish emits a lifecycle event when a publisher is configured.
func (s *Service) publish(ctx context.Context, eventType string, caller identity.Caller, typeName string, doc *document.Document) {
	if s.events == nil {
		return
	}
	data := map[string]interface{}{
		"caller": caller.Email,
	}
	if typeName != "" {
		data["type"] = typeName
	}
	if doc != nil {
		data["id"] = doc.ID
		if doc.State != "" {
			data["state"] = doc.State
		}
	}
	s.events.Publish(ctx, eventType, data)
}

// observeOp records operation metrics and classifies the outcome.
func (s *Service) observeOp(docType, op string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		s.metrics.OperationErrors.WithLabelValues(docType, op, string(docerr.KindOf(err))).Inc()
	}
	s.metrics.ObserveOperation(docType, op, outcome, start)
}

// Get loads one document and enforces its read gate. Not-found surfaces
// before authorization: document existence is not a protected secret here.
func (s *Service) Get(ctx context.Context, caller identity.Caller, typeName, id string) (*document.Document, error) {
	start := time.Now()
	doc, err := s.get(ctx, caller, typeName, id)
	s.observeOp(typeName, "get", start, err)
	return doc, err
}

func (s *Service) get(ctx context.Context, caller identity.Caller, typeName, id string) (*document.Document, error) {
	t, err := s.resolveType(typeName)
	if err != nil {
		return nil, err
	}
	doc, err := s.store.FindOne(ctx, t.CollectionName(), storage.Filter{document.FieldID: id})
	if err != nil {
		return nil, err
	}
	ec := s.newEvalContext(caller, t, doc, nil, doctype.OpRead)
	_, st, known, err := s.currentState(ctx, ec, t, doc)
	if err != nil {
		return nil, err
	}
	if !known {
		return doc, nil
	}
	if err := s.evaluator.Authorize(ctx, ec, st.Read, "read"); err != nil {
		return nil, err
	}
	if st.OnRead != nil {
		if err := st.OnRead(ctx, ec); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// Query returns the documents matching the filter that the caller may read.
// Unauthorized documents are dropped silently; filtering, not failure.
func (s *Service) Query(ctx context.Context, caller identity.Caller, typeName string, filter storage.Filter, projection []string) ([]*document.Document, error) {
	start := time.Now()
	docs, err := s.query(ctx, caller, typeName, filter, projection)
	s.observeOp(typeName, "query", start, err)
	return docs, err
}

func (s *Service) query(ctx context.Context, caller identity.Caller, typeName string, filter storage.Filter, projection []string) ([]*document.Document, error) {
	t, err := s.resolveType(typeName)
	if err != nil {
		return nil, err
	}

	// Resolve admin status once for the whole batch; each per-document
	// context inherits the memoized decision.
	adminEC := s.newEvalContext(caller, t, nil, nil, doctype.OpRead)
	isAdmin := s.evaluator.IsAdmin(ctx, adminEC)

	candidates, err := s.store.Find(ctx, t.CollectionName(), filter, projection)
	if err != nil {
		return nil, err
	}
	out := make([]*document.Document, 0, len(candidates))
	for _, doc := range candidates {
		ec := s.newEvalContext(caller, t, doc, nil, doctype.OpRead)
		ec.MemoizeAdmin(isAdmin)
		name := doc.State
		if name == "" {
			if sole, ok := t.SingleState(); ok {
				name = sole
			}
		}
		st, known := t.State(name)
		if !known {
			if isAdmin {
				out = append(out, doc)
			}
			continue
		}
		if s.evaluator.Authorize(ctx, ec, st.Read, "read") == nil {
			out = append(out, doc)
		}
	}
	return out, nil
}

// RunAction invokes the current state's action hook with args as the update
// payload. A state without an action hook makes this a no-op. The engine
// applies no read or write gate; the hook authorizes itself via
// EvalContext.AssertCallerInGroup.
func (s *Service) RunAction(ctx context.Context, caller identity.Caller, typeName, id string, args map[string]interface{}) (interface{}, error) {
	start := time.Now()
	result, err := s.runAction(ctx, caller, typeName, id, args)
	s.observeOp(typeName, "runAction", start, err)
	return result, err
}

func (s *Service) runAction(ctx context.Context, caller identity.Caller, typeName, id string, args map[string]interface{}) (interface{}, error) {
	t, err := s.resolveType(typeName)
	if err != nil {
		return nil, err
	}
	doc, err := s.store.FindOne(ctx, t.CollectionName(), storage.Filter{document.FieldID: id})
	if err != nil {
		return nil, err
	}
	ec := s.newEvalContext(caller, t, doc, args, doctype.OpUpdate)
	_, st, known, err := s.currentState(ctx, ec, t, doc)
	if err != nil {
		return nil, err
	}
	if !known || st.Action == nil {
		return nil, nil
	}
	return st.Action(ctx, ec)
}
