package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KevinSGarrett/DebtCollect/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "debtcollect",
	Short: "Debtor contact reconciliation and collectibility scoring",
	Long:  "Finds, reconciles and verifies debtor contact facts from identity-search providers, then scores each debtor's collectibility.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
