//go:build !integration

package main

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KevinSGarrett/DebtCollect/internal/fetcher"
	"github.com/KevinSGarrett/DebtCollect/internal/model"
)

func TestExportCmd_WritesBestContactsAndScore(t *testing.T) {
	dbPath := testConfig(t)
	ctx := context.Background()
	repo := openTestRepo(t, dbPath)

	scored := &model.Debtor{FirstName: "Jane", LastName: "Smith", State: "NY"}
	_, err := repo.CreateDebtor(ctx, scored)
	require.NoError(t, err)
	unscored := &model.Debtor{FirstName: "John", LastName: "Doe", State: "TX"}
	_, err = repo.CreateDebtor(ctx, unscored)
	require.NoError(t, err)

	phoneID, err := repo.CreatePhone(ctx, &model.PhoneFact{DebtorID: scored.ID, PhoneE164: "+12146093137", IsVerified: true, MatchStrength: 95})
	require.NoError(t, err)
	_, err = repo.CreatePhone(ctx, &model.PhoneFact{DebtorID: scored.ID, PhoneE164: "+12146093136", IsVerified: true, MatchStrength: 90})
	require.NoError(t, err)
	emailID, err := repo.CreateEmail(ctx, &model.EmailFact{DebtorID: scored.ID, Email: "jane.smith@example.com", IsVerified: true, MatchStrength: 95})
	require.NoError(t, err)
	require.NoError(t, repo.UpdateDebtor(ctx, scored.ID, &model.DebtorPatch{
		BestPhoneID:          model.Ptr(phoneID),
		BestEmailID:          model.Ptr(emailID),
		CollectibilityScore:  model.Ptr(100),
		CollectibilityReason: model.Ptr("verified phone, verified email"),
		EnrichmentStatus:     model.Ptr(model.EnrichmentComplete),
	}))

	outPath := filepath.Join(t.TempDir(), "out.csv")
	_, err = execRunE(t, exportCmd, outPath)
	require.NoError(t, err)

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, fetcher.ExportHeader, records[0])
	assert.Equal(t, []string{
		scored.ID, "Jane", "Smith", "+12146093137", "jane.smith@example.com",
		"100", "verified phone, verified email", "complete",
	}, records[1])
	assert.Equal(t, []string{unscored.ID, "John", "Doe", "", "", "", "", "pending"}, records[2])
}

func TestBuildExport_ScoredOnly(t *testing.T) {
	dbPath := testConfig(t)
	ctx := context.Background()
	repo := openTestRepo(t, dbPath)

	a := &model.Debtor{FirstName: "Jane", LastName: "Smith"}
	_, err := repo.CreateDebtor(ctx, a)
	require.NoError(t, err)
	b := &model.Debtor{FirstName: "John", LastName: "Doe"}
	_, err = repo.CreateDebtor(ctx, b)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateDebtor(ctx, b.ID, &model.DebtorPatch{CollectibilityScore: model.Ptr(40)}))

	rows, err := buildExport(ctx, repo, true)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, b.ID, rows[0].DebtorID)
	require.NotNil(t, rows[0].Score)
	assert.Equal(t, 40, *rows[0].Score)

	rows, err = buildExport(ctx, repo, false)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestExportCmd_BadOutputPath(t *testing.T) {
	testConfig(t)

	_, err := execRunE(t, exportCmd, filepath.Join(t.TempDir(), "missing", "out.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export: create file")
}
