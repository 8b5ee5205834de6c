package doctype

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/docflow/pkg/identity"
)

func validType(name string) *Type {
	return &Type{
		Name: name,
		States: map[string]State{
			"open":   {NextStates: map[string]Transition{"closed": {}}},
			"closed": {},
		},
	}
}

func TestRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(validType("request")))
	require.NoError(t, r.Register(validType("invoice")))

	typ, ok := r.Type("request")
	require.True(t, ok)
	assert.Equal(t, "request", typ.Name)

	_, ok = r.Type("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"invoice", "request"}, r.Names())
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name string
		typ  *Type
	}{
		{"nil type", nil},
		{"empty name", &Type{States: map[string]State{"s": {}}}},
		{"no states", &Type{Name: "t"}},
		{"undeclared transition target", &Type{
			Name: "t",
			States: map[string]State{
				"open": {NextStates: map[string]Transition{"missing": {}}},
			},
		}},
		{"role without group or resolver", &Type{
			Name:   "t",
			States: map[string]State{"s": {}},
			Roles:  map[string]Role{"Owner": {}},
		}},
		{"role with both group and resolver", &Type{
			Name:   "t",
			States: map[string]State{"s": {}},
			Roles: map[string]Role{"Owner": {
				Group: "g",
				Resolve: func(ctx context.Context, ec *EvalContext) ([]identity.Person, error) {
					return nil, nil
				},
			}},
		}},
		{"self-referential role", &Type{
			Name:   "t",
			States: map[string]State{"s": {}},
			Roles:  map[string]Role{"Owner": {Group: "Owner"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, NewRegistry().Register(tt.typ))
		})
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(validType("request")))
	assert.Error(t, r.Register(validType("request")))
}

func TestGateSemantics(t *testing.T) {
	ctx := context.Background()

	var undefined Gate
	assert.False(t, undefined.Defined())
	assert.Nil(t, undefined.Resolve(ctx, nil))

	denyAll := Groups()
	assert.True(t, denyAll.Defined())
	assert.Empty(t, denyAll.Resolve(ctx, nil))

	static := Groups("a", "b")
	assert.Equal(t, []string{"a", "b"}, static.Resolve(ctx, nil))

	dynamic := Dynamic(func(ctx context.Context, ec *EvalContext) []string {
		return []string{ec.Doc.State}
	})
	assert.True(t, dynamic.Defined())

	assert.False(t, Dynamic(nil).Defined())
}

func TestSingleState(t *testing.T) {
	single := &Type{Name: "t", States: map[string]State{"only": {}}}
	name, ok := single.SingleState()
	assert.True(t, ok)
	assert.Equal(t, "only", name)

	_, ok = validType("t").SingleState()
	assert.False(t, ok)
}

func TestCollectionName(t *testing.T) {
	assert.Equal(t, "request", (&Type{Name: "request"}).CollectionName())
	assert.Equal(t, "req_docs", (&Type{Name: "request", Collection: "req_docs"}).CollectionName())
}

func TestAdminMemoization(t *testing.T) {
	ec := &EvalContext{}
	_, ok := ec.CachedAdmin()
	assert.False(t, ok)

	ec.MemoizeAdmin(true)
	admin, ok := ec.CachedAdmin()
	assert.True(t, ok)
	assert.True(t, admin)
}
