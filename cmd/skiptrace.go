package main

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KevinSGarrett/DebtCollect/internal/skiptrace"
)

var (
	skiptraceDebtorID string
	skiptraceDryRun   bool
)

var skiptraceCmd = &cobra.Command{
	Use:   "skiptrace",
	Short: "Run identity search and reconciliation for one debtor",
	Long:  "Searches the configured identity providers for one debtor and persists accepted phones and emails. With --dry-run the accepted candidates are printed and nothing is written.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		d, err := env.Repo.Debtor(ctx, skiptraceDebtorID)
		if err != nil {
			return eris.Wrap(err, "load debtor")
		}

		if skiptraceDryRun {
			res, err := env.Reconciler.Plan(ctx, d)
			if err != nil {
				return eris.Wrap(err, "skiptrace plan")
			}
			printAccepted(cmd.OutOrStdout(), res)
			return nil
		}

		res, err := env.Reconciler.Run(ctx, d)
		if err != nil {
			return eris.Wrap(err, "skiptrace run")
		}
		zap.L().Info("skiptrace complete",
			zap.String("debtor_id", d.ID),
			zap.String("source", res.Source),
			zap.Int("accepted", len(res.Accepted)),
			zap.Int("phones_created", res.PhonesCreated),
			zap.Int("emails_created", res.EmailsCreated),
		)
		printAccepted(cmd.OutOrStdout(), res)
		return nil
	},
}

func init() {
	skiptraceCmd.Flags().StringVar(&skiptraceDebtorID, "debtor", "", "debtor id (required)")
	skiptraceCmd.Flags().BoolVar(&skiptraceDryRun, "dry-run", false, "print accepted candidates without writing")
	_ = skiptraceCmd.MarkFlagRequired("debtor")
	rootCmd.AddCommand(skiptraceCmd)
}

func printAccepted(w io.Writer, res *skiptrace.Result) {
	fmt.Fprintf(w, "source=%s candidates=%d accepted=%d\n", res.Source, res.Candidates, len(res.Accepted))
	for _, a := range res.Accepted {
		fmt.Fprintf(w, "tier %d score %d\t%s\t%s %s %s\n", a.Tier, a.Score, a.Name, a.Street, a.State, a.Zip)
		for _, p := range a.Phones {
			fmt.Fprintf(w, "  phone\t%s\n", p.Value)
		}
		for _, e := range a.Emails {
			fmt.Fprintf(w, "  email\t%s\n", e)
		}
	}
}
