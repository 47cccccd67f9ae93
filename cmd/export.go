package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KevinSGarrett/DebtCollect/internal/fetcher"
	"github.com/KevinSGarrett/DebtCollect/internal/model"
	"github.com/KevinSGarrett/DebtCollect/internal/store"
)

var exportScoredOnly bool

var exportCmd = &cobra.Command{
	Use:   "export <out.csv>",
	Short: "Write debtors with their best contacts and score to CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		repo, closeFn, err := openRepo(ctx, "store")
		if err != nil {
			return err
		}
		defer closeFn()

		rows, err := buildExport(ctx, repo, exportScoredOnly)
		if err != nil {
			return err
		}

		f, err := os.Create(args[0]) //nolint:gosec // operator-supplied output path
		if err != nil {
			return eris.Wrap(err, "export: create file")
		}
		if err := fetcher.WriteExport(f, rows); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrap(err, "export: close file")
		}

		zap.L().Info("export complete", zap.String("file", args[0]), zap.Int("debtors", len(rows)))
		return nil
	},
}

func init() {
	exportCmd.Flags().BoolVar(&exportScoredOnly, "scored-only", false, "skip debtors without a collectibility score")
	rootCmd.AddCommand(exportCmd)
}

// buildExport resolves each debtor's best phone and email ids to values.
func buildExport(ctx context.Context, repo *store.Repo, scoredOnly bool) ([]fetcher.ExportRow, error) {
	debtors, err := repo.AllDebtors(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "export: list debtors")
	}

	rows := make([]fetcher.ExportRow, 0, len(debtors))
	for i := range debtors {
		d := &debtors[i]
		if scoredOnly && d.CollectibilityScore == nil {
			continue
		}
		row := fetcher.ExportRow{
			DebtorID:  d.ID,
			FirstName: d.FirstName,
			LastName:  d.LastName,
			Score:     d.CollectibilityScore,
			Reason:    d.CollectibilityReason,
			Status:    string(d.EnrichmentStatus),
		}
		if d.BestPhoneID != "" || d.BestEmailID != "" {
			if err := fillBestContacts(ctx, repo, d, &row); err != nil {
				return nil, err
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func fillBestContacts(ctx context.Context, repo *store.Repo, d *model.Debtor, row *fetcher.ExportRow) error {
	if d.BestPhoneID != "" {
		phones, err := repo.Phones(ctx, d.ID, 0)
		if err != nil {
			return eris.Wrap(err, "export: list phones")
		}
		for _, p := range phones {
			if p.ID == d.BestPhoneID {
				row.BestPhone = p.PhoneE164
				break
			}
		}
	}
	if d.BestEmailID != "" {
		emails, err := repo.Emails(ctx, d.ID, 0)
		if err != nil {
			return eris.Wrap(err, "export: list emails")
		}
		for _, e := range emails {
			if e.ID == d.BestEmailID {
				row.BestEmail = e.Email
				break
			}
		}
	}
	return nil
}
