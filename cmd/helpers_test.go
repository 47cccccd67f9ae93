//go:build !integration

package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/KevinSGarrett/DebtCollect/internal/config"
	"github.com/KevinSGarrett/DebtCollect/internal/model"
	"github.com/KevinSGarrett/DebtCollect/internal/store"
)

// testConfig points cfg at a temp SQLite file with simulation on and no
// provider credentials.
func testConfig(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "debtcollect.db")
	cfg = &config.Config{
		Store: config.StoreConfig{Driver: "sqlite", DatabaseURL: dbPath},
		Pipeline: config.PipelineConfig{
			BatchLimit:    25,
			Simulate:      true,
			FreshnessYear: 2024,
			CleanupLimit:  200,
		},
		Retry:   config.RetryConfig{ProviderAttempts: 1},
		Breaker: config.BreakerConfig{FailureThreshold: 5, CooldownSecs: 1},
	}
	t.Cleanup(func() { cfg = nil })
	return dbPath
}

func openTestRepo(t *testing.T, dbPath string) *store.Repo {
	t.Helper()
	st, err := store.NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return store.NewRepo(st)
}

func seedTestDebtor(t *testing.T, dbPath string) *model.Debtor {
	t.Helper()
	repo := openTestRepo(t, dbPath)
	d := &model.Debtor{FirstName: "Jane", LastName: "Smith", Address1: "500 Park Avenue", City: "New York", State: "NY", Zip: "10022", DebtOwed: 4200}
	_, err := repo.CreateDebtor(context.Background(), d)
	require.NoError(t, err)
	return d
}

// execRunE runs cmd's RunE directly with a background context and captures
// what it writes to OutOrStdout.
func execRunE(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	t.Cleanup(func() {
		cmd.SetOut(nil)
		cmd.SetContext(context.TODO())
	})
	err := cmd.RunE(cmd, args)
	return out.String(), err
}
