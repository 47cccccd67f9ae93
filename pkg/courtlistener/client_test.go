package courtlistener

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KevinSGarrett/DebtCollect/internal/resilience"
)

func TestSearchByParty(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dockets/", r.URL.Path)
		assert.Equal(t, "Kevin Garrett", r.URL.Query().Get("party_name"))
		assert.Equal(t, "20", r.URL.Query().Get("page_size"))
		assert.Equal(t, "-date_filed", r.URL.Query().Get("order_by"))
		assert.Contains(t, r.URL.Query().Get("fields"), "docket_number")
		assert.Equal(t, "Token tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"count":2,"results":[
			{"id":101,"court_id":"txsb","docket_number":"22-12345","date_filed":"2022-05-01","date_terminated":"2022-09-01","absolute_url":"/docket/101/"},
			{"id":102,"court_id":"txsb","date_filed":"2019-01-01"}
		]}`))
	}))
	defer srv.Close()

	ds, err := NewClient("tok", WithBaseURL(srv.URL)).SearchByParty(context.Background(), "Kevin Garrett")
	require.NoError(t, err)
	require.Len(t, ds, 2)
	assert.Equal(t, "22-12345", ds[0].CaseNumber())
	assert.Equal(t, "terminated", ds[0].Status())
	assert.Equal(t, "102", ds[1].CaseNumber())
	assert.Equal(t, "open", ds[1].Status())
}

func TestSearchByCaseName_Anonymous(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Kevin Garrett", r.URL.Query().Get("case_name__icontains"))
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"count":0,"results":[]}`))
	}))
	defer srv.Close()

	ds, err := NewClient("", WithBaseURL(srv.URL+"/")).SearchByCaseName(context.Background(), "Kevin Garrett")
	require.NoError(t, err)
	assert.Empty(t, ds)
}

func TestSearch_ServerError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient("", WithBaseURL(srv.URL)).SearchByParty(context.Background(), "x")
	assert.True(t, resilience.IsTransient(err))
}
