package groups

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/platinummonkey/docflow/pkg/docerr"
	"github.com/platinummonkey/docflow/pkg/observability"
)

// Registry is the cached front of the group store. Reads go through the
// cache; mutations write through to the store and invalidate the cached
// entry before returning. Between a store update and the invalidation a
// concurrent read may observe the previous membership — bounded staleness,
// not a correctness guarantee.
type Registry struct {
	store   Store
	cache   Cache
	loads   singleflight.Group
	log     *observability.Logger
	metrics *observability.Metrics
}

// NewRegistry builds a registry. cache may be nil to disable caching;
// metrics may be nil.
func NewRegistry(store Store, cache Cache, log *observability.Logger, metrics *observability.Metrics) *Registry {
	if log == nil {
		log = observability.NopLogger()
	}
	return &Registry{store: store, cache: cache, log: log, metrics: metrics}
}

// Get returns the group by id, cache-first. Concurrent misses for the same
// id collapse into a single store load.
func (r *Registry) Get(ctx context.Context, id string) (*UserGroup, error) {
	if r.cache != nil {
		if g, ok := r.cache.Get(ctx, id); ok {
			if r.metrics != nil {
				r.metrics.GroupCacheHitsTotal.Inc()
			}
			return g, nil
		}
		if r.metrics != nil {
			r.metrics.GroupCacheMissesTotal.Inc()
		}
	}
	v, err, _ := r.loads.Do(id, func() (interface{}, error) {
		g, err := r.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if r.cache != nil {
			r.cache.Set(ctx, g)
		}
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*UserGroup).Clone(), nil
}

// List returns all stored groups, bypassing the cache.
func (r *Registry) List(ctx context.Context) ([]*UserGroup, error) {
	return r.store.List(ctx)
}

// Create stores a new group. Duplicate ids fail with AlreadyExists no matter
// who asks.
func (r *Registry) Create(ctx context.Context, g *UserGroup) error {
	if g == nil || g.ID == "" {
		return docerr.BadRequest("group requires an id")
	}
	if err := r.store.Insert(ctx, g); err != nil {
		return err
	}
	r.log.WithField("group", g.ID).Debug("group created")
	return nil
}

// Update replaces a group's record and invalidates its cache entry.
func (r *Registry) Update(ctx context.Context, g *UserGroup) error {
	if g == nil || g.ID == "" {
		return docerr.BadRequest("group requires an id")
	}
	if err := r.store.Update(ctx, g); err != nil {
		return err
	}
	if r.cache != nil {
		r.cache.Invalidate(ctx, g.ID)
	}
	r.log.WithField("group", g.ID).Debug("group updated")
	return nil
}

// Delete removes a group. Groups marked non-deletable always refuse,
// regardless of the caller's privileges.
func (r *Registry) Delete(ctx context.Context, id string) error {
	g, err := r.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !g.Deletable {
		return docerr.Undeletable(id)
	}
	if err := r.store.Delete(ctx, id); err != nil {
		return err
	}
	if r.cache != nil {
		r.cache.Invalidate(ctx, id)
	}
	r.log.WithField("group", id).Debug("group deleted")
	return nil
}

// Seed installs the given groups, skipping ids that already exist. Used at
// startup and by the reset administrative operation.
func (r *Registry) Seed(ctx context.Context, seed []*UserGroup) error {
	for _, g := range seed {
		err := r.store.Insert(ctx, g)
		if err == nil {
			continue
		}
		if docerr.KindOf(err) == docerr.KindAlreadyExists {
			continue
		}
		return err
	}
	return nil
}
