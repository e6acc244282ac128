package main

import (
	"fmt"
	"io"
	"os"

	"github.com/artpar/gymdesk/bootstrap"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gymdesk",
	Short: "Membership billing for small gyms",
	Long: `gymdesk tracks gym members, their monthly fees and payments, and
reports who is behind.

Quick start:
  gymdesk admin bootstrap   # Create the initial admin account
  gymdesk serve             # Start the HTTP API

Front desk:
  gymdesk members list      # Members and their standing
  gymdesk payments record   # Record a payment
  gymdesk report delinquents`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", bootstrap.DefaultConfigPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr while running commands")
}

// openApp builds the application for one-shot commands. Metrics go to a
// private registry and logs are discarded unless --verbose is set.
func openApp() (*bootstrap.App, error) {
	var logOutput io.Writer = io.Discard
	if verbose {
		logOutput = os.Stderr
	}

	a, err := bootstrap.New(bootstrap.Options{
		ConfigPath: cfgFile,
		Version:    version,
		Registry:   prometheus.NewRegistry(),
		LogOutput:  logOutput,
	})
	if err != nil {
		return nil, fmt.Errorf("error initializing: %w", err)
	}
	return a, nil
}
