package main

import (
	"fmt"

	"github.com/artpar/gymdesk/adapters/sqlite"
	"github.com/artpar/gymdesk/config"
	"github.com/spf13/cobra"
)

var migrateStatus bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Apply pending database migrations.

Migrations also run automatically on startup; this command is useful
before deploying a new version.

Examples:
  gymdesk migrate
  gymdesk migrate --status`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "show applied and pending migrations without applying")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()

	if migrateStatus {
		applied, pending, err := db.MigrationStatus()
		if err != nil {
			return err
		}
		for _, name := range applied {
			fmt.Fprintf(out, "  %s %s\n", checkMark, name)
		}
		for _, name := range pending {
			fmt.Fprintf(out, "  %s %s (pending)\n", crossMark, name)
		}
		return nil
	}

	applied, err := db.Migrate()
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if len(applied) == 0 {
		fmt.Fprintln(out, "Database is up to date.")
		return nil
	}
	for _, name := range applied {
		fmt.Fprintf(out, "  %s %s\n", checkMark, name)
	}
	fmt.Fprintf(out, "Applied %d migration(s).\n", len(applied))
	return nil
}
