package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage administrator access",
}

var adminBootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create the initial admin account",
	Long: `Create the initial "admin" account when no staff account exists.

A random password is printed once. It must be changed on first login.
Nothing happens if any staff account already exists.`,
	RunE: runAdminBootstrap,
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminBootstrapCmd)
}

func runAdminBootstrap(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.Staff.BootstrapAdmin(cmd.Context())
	if err != nil {
		return err
	}
	if !result.Created {
		fmt.Fprintln(cmd.OutOrStdout(), "Staff accounts already exist; nothing to do.")
		return nil
	}

	printInitialAdmin(cmd, result.User.Username, result.Password)
	return nil
}

func printInitialAdmin(cmd *cobra.Command, username, password string) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Initial admin account created.")
	fmt.Fprintf(out, "  Username: %s\n", username)
	fmt.Fprintf(out, "  Password: %s\n", password)
	fmt.Fprintln(out, "The password is shown only once and must be changed on first login.")
}
