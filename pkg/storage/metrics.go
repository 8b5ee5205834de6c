package storage

import (
	"context"
	"time"

	"github.com/platinummonkey/docflow/pkg/document"
	"github.com/platinummonkey/docflow/pkg/observability"
)

// Instrument wraps a store with per-call Prometheus metrics. A nil metrics
// handle returns the store unchanged.
func Instrument(store Store, metrics *observability.Metrics) Store {
	if metrics == nil {
		return store
	}
	return &instrumentedStore{next: store, metrics: metrics}
}

type instrumentedStore struct {
	next    Store
	metrics *observability.Metrics
}

func (s *instrumentedStore) observe(collection, op string, start time.Time) {
	s.metrics.StorageOperationsTotal.WithLabelValues(collection, op).Inc()
	s.metrics.StorageOperationDuration.WithLabelValues(collection, op).Observe(time.Since(start).Seconds())
}

func (s *instrumentedStore) FindOne(ctx context.Context, collection string, filter Filter) (*document.Document, error) {
	defer s.observe(collection, "findOne", time.Now())
	return s.next.FindOne(ctx, collection, filter)
}

func (s *instrumentedStore) Find(ctx context.Context, collection string, filter Filter, projection []string) ([]*document.Document, error) {
	defer s.observe(collection, "find", time.Now())
	return s.next.Find(ctx, collection, filter, projection)
}

func (s *instrumentedStore) InsertOne(ctx context.Context, collection string, doc *document.Document) (string, error) {
	defer s.observe(collection, "insertOne", time.Now())
	return s.next.InsertOne(ctx, collection, doc)
}

func (s *instrumentedStore) UpdateOne(ctx context.Context, collection string, filter Filter, patch map[string]interface{}) error {
	defer s.observe(collection, "updateOne", time.Now())
	return s.next.UpdateOne(ctx, collection, filter, patch)
}

func (s *instrumentedStore) DeleteOne(ctx context.Context, collection string, filter Filter) error {
	defer s.observe(collection, "deleteOne", time.Now())
	return s.next.DeleteOne(ctx, collection, filter)
}

func (s *instrumentedStore) Drop(ctx context.Context, collection string) error {
	defer s.observe(collection, "drop", time.Now())
	return s.next.Drop(ctx, collection)
}
