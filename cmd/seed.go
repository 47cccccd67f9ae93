package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/KevinSGarrett/DebtCollect/internal/model"
)

var (
	seedFile    string
	seedDebtor  model.Debtor
	seedAddress string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create debtors from flags or a YAML file",
	Example: `  debtcollect seed --first Jane --last Smith --address "500 Park Ave" --city "New York" --state NY --zip 10022 --debt 4200
  debtcollect seed --file debtors.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var debtors []model.Debtor
		if seedFile != "" {
			ds, err := loadSeedFile(seedFile)
			if err != nil {
				return err
			}
			debtors = ds
		} else {
			d := seedDebtor
			d.Address1 = seedAddress
			d.State = strings.ToUpper(strings.TrimSpace(d.State))
			debtors = []model.Debtor{d}
		}

		v := model.NewDebtorValidator()
		for i := range debtors {
			if err := v.Validate(&debtors[i]); err != nil {
				return eris.Wrapf(err, "seed: debtor %d", i+1)
			}
		}

		repo, closeFn, err := openRepo(ctx, "store")
		if err != nil {
			return err
		}
		defer closeFn()

		for i := range debtors {
			id, err := repo.CreateDebtor(ctx, &debtors[i])
			if err != nil {
				return eris.Wrap(err, "seed: create debtor")
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		zap.L().Info("seed complete", zap.Int("debtors", len(debtors)))
		return nil
	},
}

func init() {
	f := seedCmd.Flags()
	f.StringVar(&seedFile, "file", "", "YAML file holding a list of debtors")
	f.StringVar(&seedDebtor.FirstName, "first", "", "first name")
	f.StringVar(&seedDebtor.LastName, "last", "", "last name")
	f.StringVar(&seedAddress, "address", "", "street address")
	f.StringVar(&seedDebtor.City, "city", "", "city")
	f.StringVar(&seedDebtor.State, "state", "", "two-letter state")
	f.StringVar(&seedDebtor.Zip, "zip", "", "ZIP code")
	f.Float64Var(&seedDebtor.DebtOwed, "debt", 0, "amount owed")
	seedCmd.MarkFlagsMutuallyExclusive("file", "first")
	seedCmd.MarkFlagsMutuallyExclusive("file", "last")
	rootCmd.AddCommand(seedCmd)
}

// loadSeedFile reads either a top-level list of debtors or a mapping with a
// debtors key.
func loadSeedFile(path string) ([]model.Debtor, error) {
	b, err := os.ReadFile(path) //nolint:gosec // operator-supplied fixture path
	if err != nil {
		return nil, eris.Wrap(err, "seed: read file")
	}

	var list []model.Debtor
	if err := yaml.Unmarshal(b, &list); err == nil {
		if len(list) == 0 {
			return nil, eris.New("seed: no debtors in file")
		}
		return normalizeSeed(list), nil
	}

	var doc struct {
		Debtors []model.Debtor `yaml:"debtors"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, eris.Wrap(err, "seed: parse yaml")
	}
	if len(doc.Debtors) == 0 {
		return nil, eris.New("seed: no debtors in file")
	}
	return normalizeSeed(doc.Debtors), nil
}

func normalizeSeed(ds []model.Debtor) []model.Debtor {
	for i := range ds {
		ds[i].State = strings.ToUpper(strings.TrimSpace(ds[i].State))
		ds[i].ID = ""
	}
	return ds
}
