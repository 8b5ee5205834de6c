// Package storage defines the document store collaborator the engine
// persists through, plus an in-memory implementation and a database/sql
// implementation speaking the Postgres and SQLite dialects.
package storage

import (
	"context"

	"github.com/platinummonkey/docflow/pkg/document"
)

// Filter selects documents by exact field match. Keys are dot-paths into the
// document; the reserved "id" and "state" keys match the typed core.
type Filter map[string]interface{}

// Store is the storage collaborator. Each method operates on one named
// collection. FindOne, UpdateOne and DeleteOne return docerr.NotFound when
// nothing matches; InsertOne assigns a generated unique id when the document
// carries none and returns docerr.AlreadyExists on an id collision.
type Store interface {
	FindOne(ctx context.Context, collection string, filter Filter) (*document.Document, error)
	Find(ctx context.Context, collection string, filter Filter, projection []string) ([]*document.Document, error)
	InsertOne(ctx context.Context, collection string, doc *document.Document) (string, error)
	UpdateOne(ctx context.Context, collection string, filter Filter, patch map[string]interface{}) error
	DeleteOne(ctx context.Context, collection string, filter Filter) error
	Drop(ctx context.Context, collection string) error
}
