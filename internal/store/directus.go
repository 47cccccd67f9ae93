package store

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/KevinSGarrett/DebtCollect/pkg/directus"
)

// DirectusStore implements Store on top of Directus collections. Schema is
// managed in Directus itself, so Migrate is a no-op.
type DirectusStore struct {
	client directus.Client
}

// NewDirectus wraps a Directus client as a Store.
func NewDirectus(client directus.Client) *DirectusStore {
	return &DirectusStore{client: client}
}

func (s *DirectusStore) Migrate(context.Context) error { return nil }

func (s *DirectusStore) Close() error { return nil }

func (s *DirectusStore) Create(ctx context.Context, collection string, record any) (string, error) {
	data, err := s.client.CreateItem(ctx, collection, record)
	if err != nil {
		return "", err
	}
	doc, err := normalizeIDs(data)
	if err != nil {
		return "", eris.Wrapf(err, "directus store: create %s", collection)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(doc, &created); err != nil || created.ID == "" {
		return "", eris.Errorf("directus store: create %s returned no id", collection)
	}
	return created.ID, nil
}

func (s *DirectusStore) Update(ctx context.Context, collection, id string, patch any) error {
	data, err := patchDocument(patch)
	if err != nil {
		return err
	}
	_, err = s.client.UpdateItem(ctx, collection, id, json.RawMessage(data))
	return err
}

func (s *DirectusStore) List(ctx context.Context, collection string, filter Filter, limit int) ([]json.RawMessage, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	items, err := s.client.ListItems(ctx, collection, filter, limit)
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		doc, err := normalizeIDs(item)
		if err != nil {
			return nil, eris.Wrapf(err, "directus store: list %s", collection)
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *DirectusStore) Delete(ctx context.Context, collection, id string) error {
	return s.client.DeleteItem(ctx, collection, id)
}

// normalizeIDs rewrites numeric id and *_id fields as strings. Directus
// collections may use integer primary keys while the rest of the pipeline
// treats ids as opaque strings.
func normalizeIDs(raw json.RawMessage) (json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, eris.Wrap(err, "decode item")
	}
	changed := false
	for k, v := range doc {
		if k != "id" && !strings.HasSuffix(k, "_id") {
			continue
		}
		if n, ok := v.(json.Number); ok {
			doc[k] = n.String()
			changed = true
		}
	}
	if !changed {
		return raw, nil
	}
	out, err := json.Marshal(doc)
	return out, eris.Wrap(err, "encode item")
}

func sortedKeys(f Filter) []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
