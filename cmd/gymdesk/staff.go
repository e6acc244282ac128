package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/artpar/gymdesk/domain/auth"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var staffCmd = &cobra.Command{
	Use:   "staff",
	Short: "Manage staff accounts",
	Long: `Manage the accounts that log in to gymdesk.

Examples:
  gymdesk staff list
  gymdesk staff create --username front_desk --name "Front Desk" --email desk@gym.com`,
}

var staffListCmd = &cobra.Command{
	Use:   "list",
	Short: "List staff accounts",
	RunE:  runStaffList,
}

var staffCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a staff account",
	Long: `Create a staff account.

The password is prompted for twice unless --password is given.`,
	RunE: runStaffCreate,
}

var (
	staffUsername string
	staffName     string
	staffEmail    string
	staffRole     string
	staffPassword string
)

func init() {
	rootCmd.AddCommand(staffCmd)

	staffCmd.AddCommand(staffListCmd)
	staffCmd.AddCommand(staffCreateCmd)

	staffCreateCmd.Flags().StringVar(&staffUsername, "username", "", "login name, letters, digits and underscore (required)")
	staffCreateCmd.Flags().StringVar(&staffName, "name", "", "full name (required)")
	staffCreateCmd.Flags().StringVar(&staffEmail, "email", "", "email address (required)")
	staffCreateCmd.Flags().StringVar(&staffRole, "role", string(auth.RoleCollaborator), "admin or collaborator")
	staffCreateCmd.Flags().StringVar(&staffPassword, "password", "", "password (will prompt if not provided)")
	staffCreateCmd.MarkFlagRequired("username")
	staffCreateCmd.MarkFlagRequired("name")
	staffCreateCmd.MarkFlagRequired("email")
}

func runStaffList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	users, err := a.Staff.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list staff: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(users) == 0 {
		fmt.Fprintln(out, "No staff accounts found.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Create the first admin with: gymdesk admin bootstrap")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tEMAIL\tROLE\tACTIVE")
	fmt.Fprintln(w, "--\t--------\t----\t-----\t----\t------")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n", u.ID, u.Username, u.FullName, u.Email, u.Role, u.Active)
	}
	return w.Flush()
}

func runStaffCreate(cmd *cobra.Command, args []string) error {
	password, confirm := staffPassword, staffPassword
	if password == "" {
		var err error
		if password, err = promptPassword(cmd, "Password: "); err != nil {
			return err
		}
		if confirm, err = promptPassword(cmd, "Confirm password: "); err != nil {
			return err
		}
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.Staff.Create(cmd.Context(), auth.CreateStaffRequest{
		Username: staffUsername,
		FullName: staffName,
		Email:    staffEmail,
		Role:     auth.Role(staffRole),
		Password: password,
		Confirm:  confirm,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Staff account created: %s (%s, %s)\n", user.Username, user.ID, user.Role)
	return nil
}

func promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("stdin is not a terminal; pass --password")
	}

	fmt.Fprint(cmd.OutOrStdout(), prompt)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.OutOrStdout()) // Print newline after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}
