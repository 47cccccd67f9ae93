// Package store persists pipeline records in a document-oriented record
// store. Three backends implement Store: SQLite for local runs, Postgres
// for shared deployments and Directus as the remote CMS-backed store.
package store

import (
	"context"
	"encoding/json"
	"regexp"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when an update or lookup targets a missing record.
var ErrNotFound = eris.New("store: record not found")

// Filter selects records whose fields equal the given values. Only exact
// matches are supported.
type Filter map[string]any

// Store is the record-store contract the pipeline depends on.
type Store interface {
	// Create inserts record into collection and returns its id.
	Create(ctx context.Context, collection string, record any) (string, error)
	// Update merges patch into the record with the given id.
	Update(ctx context.Context, collection, id string, patch any) error
	// List returns up to limit records matching filter in insertion order.
	// A limit <= 0 means no limit.
	List(ctx context.Context, collection string, filter Filter, limit int) ([]json.RawMessage, error)
	// Delete removes the record with the given id.
	Delete(ctx context.Context, collection, id string) error

	Migrate(ctx context.Context) error
	Close() error
}

// BulkCreator is implemented by stores with a faster multi-record insert.
type BulkCreator interface {
	CreateMany(ctx context.Context, collection string, records []any) ([]string, error)
}

var fieldName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func validateFilter(f Filter) error {
	for k := range f {
		if !fieldName.MatchString(k) {
			return eris.Errorf("store: invalid filter field %q", k)
		}
	}
	return nil
}

// document marshals record into a JSON object, assigning a new id unless
// the record already carries one.
func document(record any) (string, []byte, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return "", nil, eris.Wrap(err, "store: marshal record")
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", nil, eris.Wrap(err, "store: record is not an object")
	}
	id, _ := doc["id"].(string)
	if id == "" {
		id = uuid.New().String()
		doc["id"] = id
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return "", nil, eris.Wrap(err, "store: marshal document")
	}
	return id, out, nil
}

// patchDocument marshals patch, dropping any id so a record cannot be
// renamed by an update.
func patchDocument(patch any) ([]byte, error) {
	raw, err := json.Marshal(patch)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal patch")
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, eris.Wrap(err, "store: patch is not an object")
	}
	delete(doc, "id")
	out, err := json.Marshal(doc)
	return out, eris.Wrap(err, "store: marshal patch document")
}
