package directus

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KevinSGarrett/DebtCollect/internal/resilience"
)

func fastRetry() Option {
	cfg := resilience.StoreRetryConfig()
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 2 * time.Millisecond
	return WithRetry(cfg)
}

func TestCreateItem(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/items/phones", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "+12146093137", body["phone_e164"])

		_, _ = w.Write([]byte(`{"data":{"id":17,"phone_e164":"+12146093137"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	data, err := c.CreateItem(context.Background(), "phones", map[string]any{"phone_e164": "+12146093137"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":17,"phone_e164":"+12146093137"}`, string(data))
}

func TestListItems_FilterAndLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/items/emails", r.URL.Path)
		assert.JSONEq(t, `{"debtor_id":{"_eq":"d1"},"email":{"_eq":"a@b.com"}}`, r.URL.Query().Get("filter"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"data":[{"id":"e1","email":"a@b.com"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	items, err := c.ListItems(context.Background(), "emails", map[string]any{"debtor_id": "d1", "email": "a@b.com"}, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.JSONEq(t, `{"id":"e1","email":"a@b.com"}`, string(items[0]))
}

func TestListItems_NoFilterNoLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("filter"))
		assert.Equal(t, "-1", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	items, err := NewClient(srv.URL, "tok").ListItems(context.Background(), "debtors", nil, 0)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUpdateAndDelete(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/items/debtors/d1", r.URL.Path)
		switch r.Method {
		case http.MethodPatch:
			b, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"best_phone_id":"p1"}`, string(b))
			_, _ = w.Write([]byte(`{"data":{"id":"d1","best_phone_id":"p1"}}`))
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	_, err := c.UpdateItem(context.Background(), "debtors", "d1", map[string]string{"best_phone_id": "p1"})
	require.NoError(t, err)
	require.NoError(t, c.DeleteItem(context.Background(), "debtors", "d1"))
}

func TestRetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "tok", fastRetry()).ListItems(context.Background(), "phones", nil, 10)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGivesUpAfterFiveAttempts(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "tok", fastRetry()).ListItems(context.Background(), "phones", nil, 10)
	require.Error(t, err)
	assert.Equal(t, int32(5), calls.Load())
}

func TestPermanentErrorNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errors":[{"message":"forbidden"}]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "tok", fastRetry()).CreateItem(context.Background(), "phones", map[string]any{})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "forbidden")
}
