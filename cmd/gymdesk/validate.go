package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/artpar/gymdesk/adapters/sqlite"
	"github.com/artpar/gymdesk/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the gymdesk configuration.

Checks:
  - YAML syntax is valid (or environment variables when no file exists)
  - Values are in range and the billing timezone is known
  - Database is reachable and migrated (optional)

Examples:
  gymdesk validate
  gymdesk validate --config /etc/gymdesk/config.yaml --check-database`,
	RunE: runValidate,
}

var validateCheckDatabase bool

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckDatabase, "check-database", false, "check if the database opens and is migrated")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	source := cfgFile
	if _, err := os.Stat(cfgFile); err != nil {
		source = "environment"
	}
	fmt.Fprintf(out, "Validating %s...\n\n", source)

	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		fmt.Fprintf(out, "  %s Config valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Fprintf(out, "  %s Config valid\n", checkMark)

	fmt.Fprintf(out, "  %s Listen: %s\n", checkMark, cfg.Server.Addr())
	fmt.Fprintf(out, "  %s Database: %s (%s)\n", checkMark, cfg.Database.DSN, cfg.Database.Driver)
	fmt.Fprintf(out, "  %s Timezone: %s\n", checkMark, cfg.Billing.Timezone)
	fmt.Fprintf(out, "  %s Max monthly fee: %s\n", checkMark, cfg.Billing.MaxMonthlyFee)
	fmt.Fprintf(out, "  %s Lockout: %d attempts, %d minutes\n", checkMark, cfg.Auth.MaxAttempts, cfg.Auth.LockMinutes)

	if validateCheckDatabase {
		if err := checkDatabase(cfg.Database.DSN); err != nil {
			fmt.Fprintf(out, "  %s Database ready\n", crossMark)
			return err
		}
		fmt.Fprintf(out, "  %s Database ready\n", checkMark)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

func checkDatabase(dsn string) error {
	db, err := sqlite.Open(dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	_, pending, err := db.MigrationStatus()
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		return fmt.Errorf("%d pending migration(s); run 'gymdesk migrate'", len(pending))
	}
	return nil
}
