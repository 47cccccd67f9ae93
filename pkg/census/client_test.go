package census

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KevinSGarrett/DebtCollect/internal/resilience"
)

func TestZCTAMedianValue(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, MedianHomeValue, r.URL.Query().Get("get"))
		assert.Equal(t, "zip code tabulation area:77301", r.URL.Query().Get("for"))
		assert.Equal(t, "key", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(`[["B25077_001E","zip code tabulation area"],["187300","77301"]]`))
	}))
	defer srv.Close()

	v, err := NewClient("key", WithBaseURL(srv.URL)).ZCTAMedianValue(context.Background(), "77301")
	require.NoError(t, err)
	assert.InDelta(t, 187300, v, 0.01)
}

func TestZCTAMedianValue_Suppressed(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[["B25077_001E","zip code tabulation area"],["-666666666","00000"]]`))
	}))
	defer srv.Close()

	_, err := NewClient("key", WithBaseURL(srv.URL)).ZCTAMedianValue(context.Background(), "00000")
	assert.True(t, errors.Is(err, ErrNoEstimate))
}

func TestZCTAMedianValue_NoContent(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	_, err := NewClient("key", WithBaseURL(srv.URL)).ZCTAMedianValue(context.Background(), "99999")
	assert.True(t, errors.Is(err, ErrNoEstimate))
}

func TestZCTAMedianValue_NoKey(t *testing.T) {
	_, err := NewClient("").ZCTAMedianValue(context.Background(), "77301")
	assert.True(t, resilience.IsConfiguration(err))
}
