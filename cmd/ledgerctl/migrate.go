package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"travel-ledger/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|version]",
	Short:     "Apply or inspect the Postgres schema",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "version"},
	RunE:      runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	dsn := cfg.Database.ConnectionString()
	out := cmd.OutOrStdout()

	switch args[0] {
	case "up":
		if err := repository.Migrate(dsn); err != nil {
			return err
		}
		fmt.Fprintln(out, "schema up to date")
	case "down":
		if err := repository.MigrateDown(dsn); err != nil {
			return err
		}
		fmt.Fprintln(out, "schema removed")
	case "version":
		v, dirty, err := repository.MigrationVersion(dsn)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "version %d dirty=%t\n", v, dirty)
	}
	return nil
}
