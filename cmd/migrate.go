package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the record store schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, closeFn, err := openRepo(cmd.Context(), "store")
		if err != nil {
			return err
		}
		defer closeFn()

		zap.L().Info("store migrated", zap.String("driver", cfg.Store.Driver))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
