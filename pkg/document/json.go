package document

import "encoding/json"

// The wire and export shape is flat: the typed core fields sit alongside the
// application fields in one JSON object. Import/export round-trips this
// shape exactly, including state and the two cache fields.

// MarshalJSON flattens the typed core into the field map.
func (d *Document) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(d.Fields)+4)
	for k, v := range d.Fields {
		flat[k] = v
	}
	if d.ID != "" {
		flat[FieldID] = d.ID
	}
	if d.State != "" {
		flat[FieldState] = d.State
	}
	if d.CurStateRead != nil {
		flat[FieldCurStateRead] = d.CurStateRead
	}
	if d.CurStateWrite != nil {
		flat[FieldCurStateWrite] = d.CurStateWrite
	}
	return json.Marshal(flat)
}

// UnmarshalJSON splits the reserved keys back out of the flat object.
func (d *Document) UnmarshalJSON(data []byte) error {
	var flat map[string]interface{}
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	*d = FromMap(flat)
	return nil
}

// FromMap builds a document from a flat decoded JSON object.
func FromMap(flat map[string]interface{}) Document {
	d := Document{Fields: map[string]interface{}{}}
	for k, v := range flat {
		switch k {
		case FieldID:
			if s, ok := v.(string); ok {
				d.ID = s
			}
		case FieldState:
			if s, ok := v.(string); ok {
				d.State = s
			}
		case FieldCurStateRead:
			d.CurStateRead = toStringList(v)
		case FieldCurStateWrite:
			d.CurStateWrite = toStringList(v)
		default:
			d.Fields[k] = v
		}
	}
	return d
}

// Project returns a copy keeping only the named application fields. The
// typed core always survives projection so callers can still see id and
// state. An empty projection returns the document unchanged.
func (d *Document) Project(fields []string) *Document {
	if len(fields) == 0 {
		return d
	}
	out := &Document{
		ID:            d.ID,
		State:         d.State,
		CurStateRead:  append([]string(nil), d.CurStateRead...),
		CurStateWrite: append([]string(nil), d.CurStateWrite...),
		Fields:        map[string]interface{}{},
	}
	for _, f := range fields {
		if v, ok := d.Fields[f]; ok {
			out.Fields[f] = deepCopyValue(v)
		}
	}
	return out
}
