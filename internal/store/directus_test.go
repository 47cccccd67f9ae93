package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KevinSGarrett/DebtCollect/pkg/directus"
)

func TestDirectusStore_CreateNumericID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/items/phones", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":42,"phone_e164":"+12146093137"}}`))
	}))
	defer srv.Close()

	st := NewDirectus(directus.NewClient(srv.URL, "tok"))
	id, err := st.Create(context.Background(), "phones", map[string]any{"phone_e164": "+12146093137"})
	require.NoError(t, err)
	assert.Equal(t, "42", id)
}

func TestDirectusStore_ListNormalizesIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var f map[string]map[string]any
		require.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("filter")), &f))
		assert.Equal(t, "7", f["debtor_id"]["_eq"])
		_, _ = w.Write([]byte(`{"data":[{"id":3,"debtor_id":7,"email":"a@b.com","hunter_score":91}]}`))
	}))
	defer srv.Close()

	st := NewDirectus(directus.NewClient(srv.URL, "tok"))
	out, err := st.List(context.Background(), "emails", Filter{"debtor_id": "7"}, 200)
	require.NoError(t, err)
	require.Len(t, out, 1)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out[0], &doc))
	assert.Equal(t, "3", doc["id"])
	assert.Equal(t, "7", doc["debtor_id"])
	assert.Equal(t, float64(91), doc["hunter_score"])
}

func TestDirectusStore_UpdateDropsID(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/items/debtors/d1", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	st := NewDirectus(directus.NewClient(srv.URL, "tok"))
	require.NoError(t, st.Update(context.Background(), "debtors", "d1", map[string]any{"id": "x", "age": 40}))
	assert.NotContains(t, body, "id")
	assert.Equal(t, float64(40), body["age"])
}

func TestDirectusStore_MigrateNoop(t *testing.T) {
	st := NewDirectus(directus.NewClient("http://unused", "tok"))
	assert.NoError(t, st.Migrate(context.Background()))
	assert.NoError(t, st.Close())
}
