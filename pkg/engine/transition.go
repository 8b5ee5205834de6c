package engine

import (
	"context"
	"time"

	"github.com/platinummonkey/docflow/pkg/docerr"
	"github.com/platinummonkey/docflow/pkg/doctype"
	"github.com/platinummonkey/docflow/pkg/document"
	"github.com/platinummonkey/docflow/pkg/identity"
	"github.com/platinummonkey/docflow/pkg/storage"
)

// Create runs the entry path against the document's initial state and
// persists the record. The returned document is the persisted record
// reloaded through the read path's normalization, not the caller's input
// echoed back.
func (s *Service) Create(ctx context.Context, caller identity.Caller, typeName string, fields map[string]interface{}) (*document.Document, error) {
	start := time.Now()
	doc, err := s.create(ctx, caller, typeName, fields)
	s.observeOp(typeName, "create", start, err)
	if err == nil {
		s.publish(ctx, "document.created", caller, typeName, doc)
	}
	return doc, err
}

func (s *Service) create(ctx context.Context, caller identity.Caller, typeName string, fields map[string]interface{}) (*document.Document, error) {
	t, err := s.resolveType(typeName)
	if err != nil {
		return nil, err
	}

	suppliedID, _ := fields[document.FieldID].(string)
	if t.RequireID && suppliedID == "" {
		return nil, docerr.BadRequest("type %q requires a caller-supplied document id", t.Name)
	}
	if !t.RequireID && suppliedID != "" {
		return nil, docerr.BadRequest("type %q does not accept caller-supplied document ids", t.Name)
	}

	d := document.FromMap(fields)
	// The cache fields are engine-maintained; whatever the caller sent is
	// discarded and recomputed below.
	d.CurStateRead = nil
	d.CurStateWrite = nil

	ec := s.newEvalContext(caller, t, &d, fields, doctype.OpCreate)
	_, st, known, err := s.currentState(ctx, ec, t, &d)
	if err != nil {
		return nil, err
	}
	if known {
		if err := s.evaluator.Authorize(ctx, ec, st.Entry, "entry"); err != nil {
			return nil, err
		}
		if st.OnEntry != nil {
			if err := st.OnEntry(ctx, ec); err != nil {
				return nil, err
			}
		}
		d.CurStateRead = s.evaluator.InGroups(ctx, ec, st.Read)
		d.CurStateWrite = s.evaluator.InGroups(ctx, ec, st.Write)
	}

	id, err := s.store.InsertOne(ctx, t.CollectionName(), &d)
	if err != nil {
		return nil, err
	}
	return s.store.FindOne(ctx, t.CollectionName(), storage.Filter{document.FieldID: id})
}

// Update applies a field patch, running the full transition protocol when
// the patch carries a state change.
//
// Two concurrent updates to the same document can both pass authorization
// against the state they each read and then race on the final write;
// last-write-wins at the store resolves it. There is deliberately no
// per-document compare-and-swap here.
func (s *Service) Update(ctx context.Context, caller identity.Caller, typeName, id string, fields map[string]interface{}) (*document.Document, error) {
	start := time.Now()
	doc, err := s.update(ctx, caller, typeName, id, fields)
	s.observeOp(typeName, "update", start, err)
	if err == nil {
		event := "document.updated"
		if _, ok := fields[document.FieldState].(string); ok {
			event = "document.transitioned"
		}
		s.publish(ctx, event, caller, typeName, doc)
	}
	return doc, err
}

func (s *Service) update(ctx context.Context, caller identity.Caller, typeName, id string, fields map[string]interface{}) (*document.Document, error) {
	t, err := s.resolveType(typeName)
	if err != nil {
		return nil, err
	}
	collection := t.CollectionName()
	doc, err := s.store.FindOne(ctx, collection, storage.Filter{document.FieldID: id})
	if err != nil {
		return nil, err
	}

	// Pre-mutation context: exit/write gates and hooks see the document as
	// stored, with the pending payload alongside.
	ecPre := s.newEvalContext(caller, t, doc, fields, doctype.OpUpdate)
	currentName, current, currentKnown, err := s.currentState(ctx, ecPre, t, doc)
	if err != nil {
		return nil, err
	}

	target, hasTarget := fields[document.FieldState].(string)
	patch := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		if k == document.FieldID || k == document.FieldCurStateRead || k == document.FieldCurStateWrite {
			continue
		}
		patch[k] = v
	}
	hasFieldChanges := len(patch) > 0 && !(len(patch) == 1 && hasTarget)

	// Post-mutation context: entry gates, transition actions and entry
	// hooks see the merged document.
	merged := doc.Clone()
	merged.ApplyPatch(patch)
	ecPost := s.newEvalContext(caller, t, merged, fields, doctype.OpUpdate)
	if admin, ok := ecPre.CachedAdmin(); ok {
		ecPost.MemoizeAdmin(admin)
	}

	cacheState := current
	cacheEC := ecPre

	if hasTarget {
		var trans doctype.Transition
		transKnown := false
		if currentKnown {
			trans, transKnown = current.NextStates[target]
		}
		if !transKnown {
			if !s.evaluator.IsAdmin(ctx, ecPre) {
				return nil, docerr.InvalidTransition(t.Name, currentName, target)
			}
			s.recordOverride(ctx, ecPre, t, doc.ID, docerr.KindInvalidTransition, currentName, target)
		}
		if transKnown && trans.Groups != nil {
			if err := s.evaluator.Authorize(ctx, ecPre, doctype.Groups(trans.Groups...), "transition"); err != nil {
				return nil, err
			}
		}
		if currentKnown {
			if err := s.evaluator.Authorize(ctx, ecPre, current.Exit, "exit"); err != nil {
				return nil, err
			}
		}
		if hasFieldChanges && currentKnown {
			if err := s.evaluator.Authorize(ctx, ecPre, current.Write, "write"); err != nil {
				return nil, err
			}
			if current.OnWrite != nil {
				if err := current.OnWrite(ctx, ecPre); err != nil {
					return nil, err
				}
			}
		}

		targetState, targetKnown := t.State(target)
		if !targetKnown {
			// Admin repair into an undeclared state: no gates or hooks can
			// run, and the caches empty out.
			patch[document.FieldCurStateRead] = []string{}
			patch[document.FieldCurStateWrite] = []string{}
			if err := s.store.UpdateOne(ctx, collection, storage.Filter{document.FieldID: doc.ID}, patch); err != nil {
				return nil, err
			}
			return s.store.FindOne(ctx, collection, storage.Filter{document.FieldID: doc.ID})
		}

		if err := s.evaluator.Authorize(ctx, ecPost, targetState.Entry, "entry"); err != nil {
			return nil, err
		}
		if transKnown && trans.Action != nil {
			if err := trans.Action(ctx, ecPost); err != nil {
				return nil, err
			}
		}
		entryHook := targetState.OnEntry
		if target == currentName && targetState.OnReentry != nil {
			entryHook = targetState.OnReentry
		}
		if entryHook != nil {
			if err := entryHook(ctx, ecPost); err != nil {
				return nil, err
			}
		}
		cacheState = targetState
		cacheEC = ecPost
	} else {
		if currentKnown && hasFieldChanges {
			if err := s.evaluator.Authorize(ctx, ecPre, current.Write, "write"); err != nil {
				return nil, err
			}
			if current.OnWrite != nil {
				if err := current.OnWrite(ctx, ecPre); err != nil {
					return nil, err
				}
			}
		}
		if !currentKnown {
			// Admin touching a corrupt record: persist the merge, leave the
			// caches as they are.
			if err := s.store.UpdateOne(ctx, collection, storage.Filter{document.FieldID: doc.ID}, patch); err != nil {
				return nil, err
			}
			return s.store.FindOne(ctx, collection, storage.Filter{document.FieldID: doc.ID})
		}
	}

	patch[document.FieldCurStateRead] = s.evaluator.InGroups(ctx, cacheEC, cacheState.Read)
	patch[document.FieldCurStateWrite] = s.evaluator.InGroups(ctx, cacheEC, cacheState.Write)

	if err := s.store.UpdateOne(ctx, collection, storage.Filter{document.FieldID: doc.ID}, patch); err != nil {
		return nil, err
	}
	return s.store.FindOne(ctx, collection, storage.Filter{document.FieldID: doc.ID})
}

// Delete authorizes via the state's delete gate, falling back to the write
// gate when no delete gate is declared, and returns the removed record.
func (s *Service) Delete(ctx context.Context, caller identity.Caller, typeName, id string) (*document.Document, error) {
	start := time.Now()
	doc, err := s.delete(ctx, caller, typeName, id)
	s.observeOp(typeName, "delete", start, err)
	if err == nil {
		s.publish(ctx, "document.deleted", caller, typeName, doc)
	}
	return doc, err
}

func (s *Service) delete(ctx context.Context, caller identity.Caller, typeName, id string) (*document.Document, error) {
	t, err := s.resolveType(typeName)
	if err != nil {
		return nil, err
	}
	collection := t.CollectionName()
	doc, err := s.store.FindOne(ctx, collection, storage.Filter{document.FieldID: id})
	if err != nil {
		return nil, err
	}
	ec := s.newEvalContext(caller, t, doc, nil, doctype.OpDelete)
	_, st, known, err := s.currentState(ctx, ec, t, doc)
	if err != nil {
		return nil, err
	}
	if known {
		gate := st.Delete
		if !gate.Defined() {
			gate = st.Write
		}
		if err := s.evaluator.Authorize(ctx, ec, gate, "delete"); err != nil {
			return nil, err
		}
	}
	if err := s.store.DeleteOne(ctx, collection, storage.Filter{document.FieldID: doc.ID}); err != nil {
		return nil, err
	}
	if known && st.OnDelete != nil {
		if err := st.OnDelete(ctx, ec); err != nil {
			return nil, err
		}
	}
	return doc, nil
}
