package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/artpar/gymdesk/bootstrap"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the gymdesk HTTP API.

The server will:
  - Load configuration from gymdesk.yaml (or --config), watching it for changes
  - Or load configuration from GYMDESK_* environment variables
  - Open and migrate the SQLite database
  - Create the initial admin account if no staff exists
  - Run session cleanup and metric refresh jobs in the background

Environment variables (for Docker deployments):
  GYMDESK_DATABASE_DSN      - Database path (default: gymdesk.db)
  GYMDESK_SERVER_PORT       - Server port (default: 8080)
  GYMDESK_BILLING_TIMEZONE  - Zone that decides "today" (default: UTC)
  GYMDESK_LOG_LEVEL         - Log level: debug, info, warn, error

Examples:
  gymdesk serve
  gymdesk serve --config /etc/gymdesk/config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := bootstrap.New(bootstrap.Options{
		ConfigPath: cfgFile,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	result, err := a.Staff.BootstrapAdmin(context.Background())
	if err != nil {
		a.Close()
		return err
	}
	if result.Created {
		printInitialAdmin(cmd, result.User.Username, result.Password)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run (blocks until shutdown)
	return a.Run(ctx)
}
