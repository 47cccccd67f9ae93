package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KevinSGarrett/DebtCollect/internal/fetcher"
	"github.com/KevinSGarrett/DebtCollect/internal/model"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv|file.xlsx>",
	Short: "Bulk create debtors from a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]

		rows, err := fetcher.ReadTable(ctx, path)
		if err != nil {
			return eris.Wrap(err, "import: read table")
		}
		parsed, err := fetcher.ParseDebtors(rows, model.NewDebtorValidator())
		if err != nil {
			return eris.Wrap(err, "import: parse debtors")
		}
		for _, re := range parsed.Rejected {
			zap.L().Warn("import: row rejected", zap.Int("row", re.Row), zap.Error(re.Err))
		}

		repo, closeFn, err := openRepo(ctx, "store")
		if err != nil {
			return err
		}
		defer closeFn()

		created := 0
		if len(parsed.Debtors) > 0 {
			created, err = repo.CreateDebtors(ctx, parsed.Debtors)
			if err != nil {
				return eris.Wrapf(err, "import: created %d of %d debtors", created, len(parsed.Debtors))
			}
		}

		zap.L().Info("import complete",
			zap.String("file", path),
			zap.Int("created", created),
			zap.Int("rejected", len(parsed.Rejected)),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "created=%d rejected=%d\n", created, len(parsed.Rejected))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
