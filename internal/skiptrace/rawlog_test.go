package skiptrace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KevinSGarrett/DebtCollect/pkg/apify"
)

func TestFileSink_AppendsJSONLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "raw.jsonl")
	sink := FileSink(path, zap.NewNop())

	sink(apify.Exchange{Timestamp: time.Unix(0, 0).UTC(), Source: "run-sync", Status: 200, Body: json.RawMessage(`[]`)})
	sink(apify.Exchange{Timestamp: time.Unix(1, 0).UTC(), Source: "run-sync-get-dataset-items", Status: 500, Body: json.RawMessage(`{"error":"x"}`)})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var ex apify.Exchange
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &ex))
	assert.Equal(t, 500, ex.Status)
	assert.Equal(t, "run-sync-get-dataset-items", ex.Source)
}
