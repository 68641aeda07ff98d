package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Opening a store applies its schema: indexes and counters on MongoDB,
// AutoMigrate on PostgreSQL.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create indexes and tables for the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close(ctx)

		fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", cfg.DBDriver)
		return nil
	},
}
