package document

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	d := New("d1")
	d.Fields["owner"] = map[string]interface{}{
		"email": "owner@example.com",
		"manager": map[string]interface{}{
			"email": "mgr@example.com",
		},
	}
	d.Fields["count"] = 3

	tests := []struct {
		path  string
		want  interface{}
		found bool
	}{
		{"count", 3, true},
		{"owner.email", "owner@example.com", true},
		{"owner.manager.email", "mgr@example.com", true},
		{"owner.missing", nil, false},
		{"count.nested", nil, false},
		{"missing", nil, false},
		{"", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := d.Lookup(tt.path)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestApplyPatch(t *testing.T) {
	d := New("d1")
	d.State = "open"
	d.Fields["title"] = "before"
	d.Fields["remove"] = "me"

	d.ApplyPatch(map[string]interface{}{
		"id":     "other",
		"state":  "closed",
		"title":  "after",
		"remove": nil,
		"added":  42,
	})

	assert.Equal(t, "d1", d.ID, "id is immutable")
	assert.Equal(t, "closed", d.State)
	assert.Equal(t, "after", d.Fields["title"])
	assert.Equal(t, 42, d.Fields["added"])
	assert.NotContains(t, d.Fields, "remove")
}

func TestApplyPatchCacheFields(t *testing.T) {
	d := New("d1")
	d.ApplyPatch(map[string]interface{}{
		"curStateRead":  []string{"a"},
		"curStateWrite": []interface{}{"b", "c"},
	})
	assert.Equal(t, []string{"a"}, d.CurStateRead)
	assert.Equal(t, []string{"b", "c"}, d.CurStateWrite)
}

func TestCloneIsDeep(t *testing.T) {
	d := New("d1")
	d.CurStateRead = []string{"g"}
	d.Fields["nested"] = map[string]interface{}{"k": "v"}
	d.Fields["list"] = []interface{}{"x"}

	c := d.Clone()
	c.Fields["nested"].(map[string]interface{})["k"] = "changed"
	c.Fields["list"].([]interface{})[0] = "changed"
	c.CurStateRead[0] = "changed"

	assert.Equal(t, "v", d.Fields["nested"].(map[string]interface{})["k"])
	assert.Equal(t, "x", d.Fields["list"].([]interface{})[0])
	assert.Equal(t, "g", d.CurStateRead[0])
}

func TestJSONRoundTrip(t *testing.T) {
	d := New("d1")
	d.State = "open"
	d.CurStateRead = []string{"management"}
	d.CurStateWrite = []string{}
	d.Fields["title"] = "hello"
	d.Fields["owner"] = map[string]interface{}{"email": "o@example.com"}

	raw, err := json.Marshal(d)
	require.NoError(t, err)

	// The wire shape is flat: core fields sit alongside application fields.
	var flat map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &flat))
	assert.Equal(t, "d1", flat["id"])
	assert.Equal(t, "open", flat["state"])
	assert.Equal(t, "hello", flat["title"])

	var back Document
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, d.ID, back.ID)
	assert.Equal(t, d.State, back.State)
	assert.Equal(t, []string{"management"}, back.CurStateRead)
	assert.Equal(t, []string{}, back.CurStateWrite)
	assert.Equal(t, "hello", back.Fields["title"])
}

func TestFromMapSplitsReservedKeys(t *testing.T) {
	d := FromMap(map[string]interface{}{
		"id":    "d1",
		"state": "open",
		"title": "hello",
	})
	assert.Equal(t, "d1", d.ID)
	assert.Equal(t, "open", d.State)
	assert.Equal(t, "hello", d.Fields["title"])
	assert.NotContains(t, d.Fields, "id")
	assert.NotContains(t, d.Fields, "state")
}

func TestProject(t *testing.T) {
	d := New("d1")
	d.State = "open"
	d.Fields["keep"] = "yes"
	d.Fields["drop"] = "no"

	p := d.Project([]string{"keep"})
	assert.Equal(t, "d1", p.ID)
	assert.Equal(t, "open", p.State)
	assert.Equal(t, "yes", p.Fields["keep"])
	assert.NotContains(t, p.Fields, "drop")

	// Empty projection returns the document unchanged.
	assert.Same(t, d, d.Project(nil))
}

func TestMatchesFilter(t *testing.T) {
	d := New("d1")
	d.State = "open"
	d.Fields["n"] = float64(3) // as JSON decoding produces
	d.Fields["owner"] = map[string]interface{}{"email": "o@example.com"}

	assert.True(t, d.MatchesFilter(nil))
	assert.True(t, d.MatchesFilter(map[string]interface{}{"id": "d1"}))
	assert.True(t, d.MatchesFilter(map[string]interface{}{"state": "open"}))
	assert.True(t, d.MatchesFilter(map[string]interface{}{"owner.email": "o@example.com"}))
	assert.True(t, d.MatchesFilter(map[string]interface{}{"n": 3}), "numeric representations compare loosely")
	assert.False(t, d.MatchesFilter(map[string]interface{}{"state": "closed"}))
	assert.False(t, d.MatchesFilter(map[string]interface{}{"missing": "x"}))
}
