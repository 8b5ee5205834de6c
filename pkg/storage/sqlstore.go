package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/platinummonkey/docflow/pkg/docerr"
	"github.com/platinummonkey/docflow/pkg/document"
)

// SQLStore keeps each document as one JSON row in a single documents table,
// keyed by (collection, id). It speaks the lib/pq and mattn/go-sqlite3
// dialects; the only difference between them here is placeholder syntax.
//
// Filters beyond an exact id match are evaluated in Go after loading the
// collection's rows. Collections in this system are small configuration and
// workflow sets, not analytical tables.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewSQLStore wraps an open database handle. driver is "postgres" or
// "sqlite3".
func NewSQLStore(db *sql.DB, driver string) (*SQLStore, error) {
	switch driver {
	case "postgres", "sqlite3":
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	return &SQLStore{db: db, driver: driver}, nil
}

// Init creates the documents table if it does not exist.
func (s *SQLStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			doc TEXT NOT NULL,
			PRIMARY KEY (collection, id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	return nil
}

// placeholders renders "$1, $2, ..." or "?, ?, ..." depending on dialect.
func (s *SQLStore) placeholder(n int) string {
	if s.driver == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *SQLStore) getByID(ctx context.Context, collection, id string) (*document.Document, error) {
	query := fmt.Sprintf(
		"SELECT doc FROM documents WHERE collection = %s AND id = %s",
		s.placeholder(1), s.placeholder(2),
	)
	var raw string
	err := s.db.QueryRowContext(ctx, query, collection, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, docerr.NotFound("no document matches in collection %q", collection)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return decodeDoc(raw)
}

func (s *SQLStore) scanCollection(ctx context.Context, collection string, filter Filter) ([]*document.Document, error) {
	query := fmt.Sprintf(
		"SELECT doc FROM documents WHERE collection = %s ORDER BY id",
		s.placeholder(1),
	)
	rows, err := s.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to scan collection %q: %w", collection, err)
	}
	defer rows.Close()

	var out []*document.Document
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		d, err := decodeDoc(raw)
		if err != nil {
			return nil, err
		}
		if d.MatchesFilter(filter) {
			out = append(out, d)
		}
	}
	return out, rows.Err()
}

// idOnlyFilter reports whether the filter is an exact id match, which can be
// served by the primary key without scanning.
func idOnlyFilter(filter Filter) (string, bool) {
	if len(filter) != 1 {
		return "", false
	}
	id, ok := filter[document.FieldID].(string)
	return id, ok
}

// FindOne implements Store.
func (s *SQLStore) FindOne(ctx context.Context, collection string, filter Filter) (*document.Document, error) {
	if id, ok := idOnlyFilter(filter); ok {
		return s.getByID(ctx, collection, id)
	}
	docs, err := s.scanCollection(ctx, collection, filter)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, docerr.NotFound("no document matches in collection %q", collection)
	}
	return docs[0], nil
}

// Find implements Store.
func (s *SQLStore) Find(ctx context.Context, collection string, filter Filter, projection []string) ([]*document.Document, error) {
	docs, err := s.scanCollection(ctx, collection, filter)
	if err != nil {
		return nil, err
	}
	out := make([]*document.Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Project(projection))
	}
	return out, nil
}

// InsertOne implements Store.
func (s *SQLStore) InsertOne(ctx context.Context, collection string, doc *document.Document) (string, error) {
	d := doc.Clone()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if _, err := s.getByID(ctx, collection, d.ID); err == nil {
		return "", docerr.AlreadyExists("document %q already exists in collection %q", d.ID, collection)
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	query := fmt.Sprintf(
		"INSERT INTO documents (collection, id, doc) VALUES (%s, %s, %s)",
		s.placeholder(1), s.placeholder(2), s.placeholder(3),
	)
	if _, err := s.db.ExecContext(ctx, query, collection, d.ID, string(raw)); err != nil {
		return "", fmt.Errorf("failed to insert document: %w", err)
	}
	return d.ID, nil
}

// UpdateOne implements Store.
func (s *SQLStore) UpdateOne(ctx context.Context, collection string, filter Filter, patch map[string]interface{}) error {
	d, err := s.FindOne(ctx, collection, filter)
	if err != nil {
		return err
	}
	d.ApplyPatch(patch)
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	query := fmt.Sprintf(
		"UPDATE documents SET doc = %s WHERE collection = %s AND id = %s",
		s.placeholder(1), s.placeholder(2), s.placeholder(3),
	)
	if _, err := s.db.ExecContext(ctx, query, string(raw), collection, d.ID); err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	return nil
}

// DeleteOne implements Store.
func (s *SQLStore) DeleteOne(ctx context.Context, collection string, filter Filter) error {
	d, err := s.FindOne(ctx, collection, filter)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(
		"DELETE FROM documents WHERE collection = %s AND id = %s",
		s.placeholder(1), s.placeholder(2),
	)
	if _, err := s.db.ExecContext(ctx, query, collection, d.ID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// Drop implements Store.
func (s *SQLStore) Drop(ctx context.Context, collection string) error {
	query := fmt.Sprintf("DELETE FROM documents WHERE collection = %s", s.placeholder(1))
	if _, err := s.db.ExecContext(ctx, query, collection); err != nil {
		return fmt.Errorf("failed to drop collection %q: %w", collection, err)
	}
	return nil
}

func decodeDoc(raw string) (*document.Document, error) {
	var d document.Document
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("failed to decode stored document: %w", err)
	}
	return &d, nil
}
