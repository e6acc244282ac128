package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/artpar/gymdesk/app"
	"github.com/artpar/gymdesk/domain/dashboard"
	"github.com/artpar/gymdesk/domain/member"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "Manage gym members",
	Long: `Manage gym members.

Examples:
  gymdesk members list --status overdue
  gymdesk members add --name "Ana Souza" --phone 81999991000 --fee 100 --due-day 10
  gymdesk members standing mem_0b6c...`,
}

var membersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List members with their standing",
	RunE:  runMembersList,
}

var membersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new member",
	RunE:  runMembersAdd,
}

var membersStandingCmd = &cobra.Command{
	Use:   "standing <member-id>",
	Short: "Show a member's standing and payment history",
	Args:  cobra.ExactArgs(1),
	RunE:  runMembersStanding,
}

var (
	memberStatus string
	memberSearch string
	memberName   string
	memberPhone  string
	memberFee    string
	memberDueDay int
)

func init() {
	rootCmd.AddCommand(membersCmd)

	membersCmd.AddCommand(membersListCmd)
	membersCmd.AddCommand(membersAddCmd)
	membersCmd.AddCommand(membersStandingCmd)

	membersListCmd.Flags().StringVar(&memberStatus, "status", "all", "filter: all, current, awaiting, overdue, inactive")
	membersListCmd.Flags().StringVarP(&memberSearch, "search", "q", "", "name contains (case-insensitive)")

	membersAddCmd.Flags().StringVar(&memberName, "name", "", "full name (required)")
	membersAddCmd.Flags().StringVar(&memberPhone, "phone", "", "phone with area code (required)")
	membersAddCmd.Flags().StringVar(&memberFee, "fee", "", "monthly fee, e.g. 99.90 (required)")
	membersAddCmd.Flags().IntVar(&memberDueDay, "due-day", 0, "day of month the fee is due, 1-31 (required)")
	membersAddCmd.MarkFlagRequired("name")
	membersAddCmd.MarkFlagRequired("phone")
	membersAddCmd.MarkFlagRequired("fee")
	membersAddCmd.MarkFlagRequired("due-day")
}

func runMembersList(cmd *cobra.Command, args []string) error {
	filter := dashboard.ParseFilter(memberStatus)

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	rows, err := a.Members.List(cmd.Context(), app.ListQuery{Search: memberSearch, Filter: filter})
	if err != nil {
		return fmt.Errorf("failed to list members: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(out, "No members found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPHONE\tFEE\tDUE DAY\tSTATUS\tOWED")
	fmt.Fprintln(w, "--\t----\t-----\t---\t-------\t------\t----")

	for _, row := range rows {
		m, s := row.Member, row.Standing
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			m.ID, m.Name, m.Phone, m.MonthlyFee.StringFixed(2), m.DueDay, s.Status, s.Arrears.Amount.StringFixed(2))
	}

	return w.Flush()
}

func runMembersAdd(cmd *cobra.Command, args []string) error {
	fee, err := decimal.NewFromString(strings.TrimSpace(memberFee))
	if err != nil {
		return fmt.Errorf("invalid fee %q", memberFee)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.Members.Register(cmd.Context(), member.Registration{
		Name:       memberName,
		Phone:      memberPhone,
		MonthlyFee: fee,
		DueDay:     memberDueDay,
	})
	if err != nil {
		return describeError(err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Member registered: %s (%s)\n", result.Member.Name, result.Member.ID)
	for _, other := range result.SameName {
		fmt.Fprintf(out, "  Note: %s is already registered with phone %s (%s)\n", other.Name, other.Phone, other.ID)
	}
	return nil
}

func runMembersStanding(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	row, err := a.Members.Standing(cmd.Context(), args[0])
	if err != nil {
		return describeError(err)
	}
	history, err := a.Members.History(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	printStanding(cmd.OutOrStdout(), row)

	out := cmd.OutOrStdout()
	if len(history) == 0 {
		fmt.Fprintln(out, "\nNo payments recorded.")
		return nil
	}

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PAID AT\tPERIOD\tAMOUNT\tNOTES")
	for _, p := range history {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.PaidAt.Format(dateLayout), p.Period, p.Amount.StringFixed(2), p.Notes)
	}
	return w.Flush()
}

func printStanding(out io.Writer, row dashboard.Row) {
	m, s := row.Member, row.Standing

	fmt.Fprintf(out, "%s (%s)\n", m.Name, m.ID)
	fmt.Fprintf(out, "  Phone:        %s\n", m.Phone)
	fmt.Fprintf(out, "  Monthly fee:  %s, due on day %d\n", m.MonthlyFee.StringFixed(2), m.DueDay)
	fmt.Fprintf(out, "  Enrolled:     %s\n", m.EnrolledAt.Format(dateLayout))
	fmt.Fprintf(out, "  Status:       %s\n", s.Status)
	if s.Arrears.Months > 0 {
		fmt.Fprintf(out, "  Owes:         %s (%d month(s), %d day(s) late)\n",
			s.Arrears.Amount.StringFixed(2), s.Arrears.Months, s.DaysPastDue)
	}
	if m.Active {
		fmt.Fprintf(out, "  Next due:     %s\n", s.NextDueDate.Format(dateLayout))
	}
}
