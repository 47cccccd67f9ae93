package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runDebtorID string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Enrich a single debtor",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Pipeline.Run(ctx, runDebtorID)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		fields := []zap.Field{
			zap.String("debtor_id", result.DebtorID),
			zap.String("run_id", result.RunID),
			zap.String("status", string(result.Status)),
			zap.Strings("failed_stages", result.Failed()),
		}
		if result.Score != nil {
			fields = append(fields, zap.Int("score", *result.Score))
		}
		zap.L().Info("enrichment complete", fields...)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	runCmd.Flags().StringVar(&runDebtorID, "debtor", "", "debtor id (required)")
	_ = runCmd.MarkFlagRequired("debtor")
	rootCmd.AddCommand(runCmd)
}
