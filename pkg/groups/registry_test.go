package groups

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/docflow/pkg/docerr"
	"github.com/platinummonkey/docflow/pkg/identity"
	"github.com/platinummonkey/docflow/pkg/storage"
)

func TestMemoryStoreCRUD(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	g := &UserGroup{ID: "eng", Members: []identity.Person{{Email: "dev@example.com"}}, Deletable: true}
	require.NoError(t, s.Insert(ctx, g))
	assert.Equal(t, docerr.KindAlreadyExists, docerr.KindOf(s.Insert(ctx, g)))

	got, err := s.Get(ctx, "eng")
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", got.Members[0].Email)

	// Mutating the returned copy must not leak into the store.
	got.Members[0].Email = "mutated@example.com"
	again, err := s.Get(ctx, "eng")
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", again.Members[0].Email)

	g.Members = append(g.Members, identity.Person{Email: "two@example.com"})
	require.NoError(t, s.Update(ctx, g))
	updated, err := s.Get(ctx, "eng")
	require.NoError(t, err)
	assert.Len(t, updated.Members, 2)

	require.NoError(t, s.Insert(ctx, &UserGroup{ID: "ops"}))
	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "eng", list[0].ID)
	assert.Equal(t, "ops", list[1].ID)

	require.NoError(t, s.Delete(ctx, "eng"))
	_, err = s.Get(ctx, "eng")
	assert.Equal(t, docerr.KindNotFound, docerr.KindOf(err))
	assert.Equal(t, docerr.KindNotFound, docerr.KindOf(s.Delete(ctx, "eng")))
	assert.Equal(t, docerr.KindNotFound, docerr.KindOf(s.Update(ctx, &UserGroup{ID: "eng"})))
}

// countingStore counts loads so the tests can observe cache behavior.
type countingStore struct {
	Store
	gets int
}

func (c *countingStore) Get(ctx context.Context, id string) (*UserGroup, error) {
	c.gets++
	return c.Store.Get(ctx, id)
}

func TestRegistryCachesReads(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	require.NoError(t, inner.Insert(ctx, &UserGroup{ID: "eng", Deletable: true}))
	store := &countingStore{Store: inner}
	r := NewRegistry(store, NewLRUCache(16, 0), nil, nil)

	for i := 0; i < 3; i++ {
		_, err := r.Get(ctx, "eng")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, store.gets)
}

func TestRegistryInvalidatesOnMutation(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(NewMemoryStore(), NewLRUCache(16, 0), nil, nil)

	require.NoError(t, r.Create(ctx, &UserGroup{ID: "eng", Deletable: true}))
	_, err := r.Get(ctx, "eng")
	require.NoError(t, err)

	require.NoError(t, r.Update(ctx, &UserGroup{
		ID:        "eng",
		Members:   []identity.Person{{Email: "new@example.com"}},
		Deletable: true,
	}))
	got, err := r.Get(ctx, "eng")
	require.NoError(t, err)
	require.Len(t, got.Members, 1)
	assert.Equal(t, "new@example.com", got.Members[0].Email)

	require.NoError(t, r.Delete(ctx, "eng"))
	_, err = r.Get(ctx, "eng")
	assert.Equal(t, docerr.KindNotFound, docerr.KindOf(err))
}

func TestRegistryCreateRequiresID(t *testing.T) {
	r := NewRegistry(NewMemoryStore(), nil, nil, nil)
	assert.Equal(t, docerr.KindBadRequest, docerr.KindOf(r.Create(context.Background(), &UserGroup{})))
}

// Non-deletable groups refuse deletion no matter who asks.
func TestRegistryUndeletableGroup(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(NewMemoryStore(), nil, nil, nil)
	require.NoError(t, r.Create(ctx, &UserGroup{ID: "everyone"}))

	err := r.Delete(ctx, "everyone")
	assert.Equal(t, docerr.KindUndeletable, docerr.KindOf(err))

	got, err := r.Get(ctx, "everyone")
	require.NoError(t, err)
	assert.Equal(t, "everyone", got.ID)
}

func TestRegistrySeedSkipsExisting(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(NewMemoryStore(), nil, nil, nil)
	require.NoError(t, r.Create(ctx, &UserGroup{
		ID:      "eng",
		Members: []identity.Person{{Email: "kept@example.com"}},
	}))

	require.NoError(t, r.Seed(ctx, []*UserGroup{
		{ID: "eng", Members: []identity.Person{{Email: "seed@example.com"}}},
		{ID: "ops"},
	}))

	eng, err := r.Get(ctx, "eng")
	require.NoError(t, err)
	require.Len(t, eng.Members, 1)
	assert.Equal(t, "kept@example.com", eng.Members[0].Email)

	_, err = r.Get(ctx, "ops")
	assert.NoError(t, err)
}

func TestRedisCache(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	cache := NewRedisCache(client, time.Minute)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "eng")
	assert.False(t, ok)

	cache.Set(ctx, &UserGroup{ID: "eng", Members: []identity.Person{{Email: "dev@example.com"}}})
	got, ok := cache.Get(ctx, "eng")
	require.True(t, ok)
	assert.Equal(t, "dev@example.com", got.Members[0].Email)

	cache.Invalidate(ctx, "eng")
	_, ok = cache.Get(ctx, "eng")
	assert.False(t, ok)

	// Expiry behaves like invalidation.
	cache.Set(ctx, &UserGroup{ID: "ttl"})
	srv.FastForward(2 * time.Minute)
	_, ok = cache.Get(ctx, "ttl")
	assert.False(t, ok)
}

func TestRedisCacheDegradesWhenDown(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	cache := NewRedisCache(client, time.Minute)
	ctx := context.Background()
	srv.Close()

	cache.Set(ctx, &UserGroup{ID: "eng"})
	_, ok := cache.Get(ctx, "eng")
	assert.False(t, ok)
}

func TestCollectionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewCollectionStore(storage.NewMemoryStore(), "")

	g := &UserGroup{
		ID:        "management",
		Members:   []identity.Person{{Email: "boss@example.com", Name: "The Boss"}},
		Deletable: true,
	}
	require.NoError(t, s.Insert(ctx, g))
	assert.Equal(t, docerr.KindAlreadyExists, docerr.KindOf(s.Insert(ctx, g)))

	got, err := s.Get(ctx, "management")
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.ID)
	assert.True(t, got.Deletable)
	require.Len(t, got.Members, 1)
	assert.Equal(t, "boss@example.com", got.Members[0].Email)
	assert.Equal(t, "The Boss", got.Members[0].Name)

	g.Members = nil
	g.Deletable = false
	require.NoError(t, s.Update(ctx, g))
	got, err = s.Get(ctx, "management")
	require.NoError(t, err)
	assert.Empty(t, got.Members)
	assert.False(t, got.Deletable)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.Delete(ctx, "management"))
	_, err = s.Get(ctx, "management")
	assert.Equal(t, docerr.KindNotFound, docerr.KindOf(err))
}
