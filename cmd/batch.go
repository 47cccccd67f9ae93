package main

import (
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KevinSGarrett/DebtCollect/internal/pipeline"
)

var batchLimit int

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Enrich pending and partial debtors one after another",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		limit := batchLimit
		if limit <= 0 {
			limit = cfg.Pipeline.BatchLimit
		}

		sum, err := env.Pipeline.Batch(ctx, limit)
		if sum != nil {
			printBatchSummary(cmd.OutOrStdout(), sum)
		}
		if err != nil {
			return eris.Wrap(err, "batch")
		}

		zap.L().Info("batch complete",
			zap.Int("selected", sum.Selected),
			zap.Int("completed", sum.Completed),
			zap.Int("errored", sum.Errored),
		)
		return nil
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max debtors to enrich (default pipeline.batch_limit)")
	rootCmd.AddCommand(batchCmd)
}

func printBatchSummary(w io.Writer, sum *pipeline.BatchSummary) {
	fmt.Fprintf(w, "selected=%d completed=%d errored=%d\n", sum.Selected, sum.Completed, sum.Errored)
	for _, r := range sum.Results {
		score := "-"
		if r.Score != nil {
			score = fmt.Sprint(*r.Score)
		}
		line := fmt.Sprintf("%s\t%s\tscore=%s", r.DebtorID, r.Status, score)
		if failed := r.Failed(); len(failed) > 0 {
			line += "\tfailed=" + strings.Join(failed, ",")
		}
		fmt.Fprintln(w, line)
	}
}
