// Package document defines the persisted document record: a small typed core
// (id, state, and the two derived state-cache fields) plus an open field map
// for application data. The engine's invariants live on the typed core; the
// field map stays free-form.
package document

import (
	"encoding/json"
	"strings"
)

// Reserved field names in the wire and storage shape. Everything else in a
// record belongs to the application.
const (
	FieldID            = "id"
	FieldState         = "state"
	FieldCurStateRead  = "curStateRead"
	FieldCurStateWrite = "curStateWrite"
)

// Document is one stored record. CurStateRead and CurStateWrite hold the
// group lists resolved from the current state's read/write gates. They are
// derived values refreshed on every create and update; authorization always
// re-evaluates the gates and never trusts them.
type Document struct {
	ID            string
	State         string
	CurStateRead  []string
	CurStateWrite []string
	Fields        map[string]interface{}
}

// New returns a document with an initialized field map.
func New(id string) *Document {
	return &Document{ID: id, Fields: map[string]interface{}{}}
}

// Clone returns a deep copy. Hooks and gate callbacks receive clones so a
// callback mutating its snapshot cannot corrupt the record being persisted.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := &Document{
		ID:            d.ID,
		State:         d.State,
		CurStateRead:  append([]string(nil), d.CurStateRead...),
		CurStateWrite: append([]string(nil), d.CurStateWrite...),
		Fields:        deepCopyMap(d.Fields),
	}
	return c
}

func deepCopyMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return deepCopyMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return v
	}
}

// Lookup resolves a dot-separated path ("owner.manager") against the field
// map. The second return is false when any path segment is missing.
func (d *Document) Lookup(path string) (interface{}, bool) {
	if d == nil || path == "" {
		return nil, false
	}
	var cur interface{} = d.Fields
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// ApplyPatch merges a field patch into the document. The reserved keys update
// the typed core; everything else replaces the named application field. A nil
// patch value removes the field.
func (d *Document) ApplyPatch(patch map[string]interface{}) {
	for k, v := range patch {
		switch k {
		case FieldID:
			// ids are immutable once assigned
		case FieldState:
			if s, ok := v.(string); ok {
				d.State = s
			}
		case FieldCurStateRead:
			d.CurStateRead = toStringList(v)
		case FieldCurStateWrite:
			d.CurStateWrite = toStringList(v)
		default:
			if d.Fields == nil {
				d.Fields = map[string]interface{}{}
			}
			if v == nil {
				delete(d.Fields, k)
			} else {
				d.Fields[k] = deepCopyValue(v)
			}
		}
	}
}

func toStringList(v interface{}) []string {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case nil:
		return nil
	default:
		return nil
	}
}

// MatchesFilter reports whether every filter entry equals the corresponding
// document value. Keys are dot-paths; the reserved id and state keys match
// the typed core.
func (d *Document) MatchesFilter(filter map[string]interface{}) bool {
	for k, want := range filter {
		var got interface{}
		switch k {
		case FieldID:
			got = d.ID
		case FieldState:
			got = d.State
		default:
			v, ok := d.Lookup(k)
			if !ok {
				return false
			}
			got = v
		}
		if !looseEqual(got, want) {
			return false
		}
	}
	return true
}

// looseEqual compares scalars across the numeric representations JSON
// decoding produces.
func looseEqual(a, b interface{}) bool {
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		return bok && af == bf
	}
	return a == b
}

func asFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
