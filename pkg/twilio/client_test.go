package twilio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KevinSGarrett/DebtCollect/internal/resilience"
)

func TestLookup_Carrier(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/PhoneNumbers/+12146093137", r.URL.Path)
		assert.Equal(t, []string{"carrier"}, r.URL.Query()["Type"])
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC1", user)
		assert.Equal(t, "secret", pass)
		_, _ = w.Write([]byte(`{"phone_number":"+12146093137","carrier":{"type":"mobile","name":"Verizon"}}`))
	}))
	defer srv.Close()

	resp, err := NewClient("AC1", "secret", WithBaseURL(srv.URL)).Lookup(context.Background(), "+12146093137")
	require.NoError(t, err)
	assert.Equal(t, "mobile", resp.Carrier.Type)
	assert.Equal(t, "Verizon", resp.Carrier.Name)
	assert.Nil(t, resp.CallerName)
}

func TestLookup_CallerName(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, []string{"carrier", "caller-name"}, r.URL.Query()["Type"])
		_, _ = w.Write([]byte(`{"carrier":{"type":"landline"},"caller_name":{"caller_name":"GARRETT K","caller_type":"CONSUMER"}}`))
	}))
	defer srv.Close()

	resp, err := NewClient("AC1", "secret", WithBaseURL(srv.URL), WithCallerName(true)).Lookup(context.Background(), "+12146093137")
	require.NoError(t, err)
	require.NotNil(t, resp.CallerName)
	assert.Equal(t, "GARRETT K", resp.CallerName.CallerName)
}

func TestLookup_MissingCredentials(t *testing.T) {
	_, err := NewClient("AC1", "").Lookup(context.Background(), "+12146093137")
	assert.True(t, resilience.IsConfiguration(err))
}

func TestLookup_NotFound(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":20404}`))
	}))
	defer srv.Close()

	_, err := NewClient("AC1", "secret", WithBaseURL(srv.URL)).Lookup(context.Background(), "+12146093137")
	require.Error(t, err)
	assert.True(t, resilience.IsPermanent(err))
	assert.Contains(t, err.Error(), "404")
}
