//go:build !integration

package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KevinSGarrett/DebtCollect/internal/model"
)

func resetSeedFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		seedFile = ""
		seedDebtor = model.Debtor{}
		seedAddress = ""
	})
}

func TestSeedCmd_FromFlags(t *testing.T) {
	dbPath := testConfig(t)
	resetSeedFlags(t)

	seedDebtor = model.Debtor{FirstName: "Jane", LastName: "Smith", City: "New York", State: " ny ", Zip: "10022", DebtOwed: 4200}
	seedAddress = "500 Park Avenue"

	out, err := execRunE(t, seedCmd)
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	d, err := openTestRepo(t, dbPath).Debtor(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "500 Park Avenue", d.Address1)
	assert.Equal(t, "NY", d.State)
	assert.Equal(t, model.EnrichmentPending, d.EnrichmentStatus)
}

func TestSeedCmd_RejectsInvalidDebtor(t *testing.T) {
	dbPath := testConfig(t)
	resetSeedFlags(t)

	seedDebtor = model.Debtor{FirstName: "Jane", State: "NYC"}

	_, err := execRunE(t, seedCmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "last_name")

	// Validation happens before the store is opened.
	_, statErr := os.Stat(dbPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSeedCmd_FromYAMLList(t *testing.T) {
	dbPath := testConfig(t)
	resetSeedFlags(t)

	seedFile = filepath.Join(t.TempDir(), "debtors.yaml")
	require.NoError(t, os.WriteFile(seedFile, []byte(`
- first_name: Jane
  last_name: Smith
  address1: 500 Park Avenue
  city: New York
  state: ny
  zip: "10022"
  debt_owed: 4200
- first_name: John
  last_name: Doe
  state: TX
`), 0o600))

	out, err := execRunE(t, seedCmd)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(out), 2)

	all, err := openTestRepo(t, dbPath).AllDebtors(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "NY", all[0].State)
	assert.Equal(t, 4200.0, all[0].DebtOwed)
	assert.Equal(t, "Doe", all[1].LastName)
}

func TestLoadSeedFile_Mapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debtors.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debtors:\n  - first_name: Jane\n    last_name: Smith\n    state: tx\n"), 0o600))

	ds, err := loadSeedFile(path)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, "TX", ds[0].State)
}

func TestLoadSeedFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := loadSeedFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed: read file")

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("debtors: []\n"), 0o600))
	_, err = loadSeedFile(empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no debtors")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("debtors: [unterminated\n"), 0o600))
	_, err = loadSeedFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed: parse yaml")
}
