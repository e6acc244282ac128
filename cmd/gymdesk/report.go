package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/artpar/gymdesk/bootstrap"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Billing reports",
}

var reportDelinquentsCmd = &cobra.Command{
	Use:   "delinquents",
	Short: "List overdue members, most months owed first",
	RunE:  runReportDelinquents,
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show this month's collection summary",
	RunE:  runDashboard,
}

var reportDate string

func init() {
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(dashboardCmd)
	reportCmd.AddCommand(reportDelinquentsCmd)

	reportDelinquentsCmd.Flags().StringVar(&reportDate, "date", "", "evaluate as of YYYY-MM-DD (default: today)")
	dashboardCmd.Flags().StringVar(&reportDate, "date", "", "evaluate as of YYYY-MM-DD (default: today)")
}

func reportRef(a *bootstrap.App) (time.Time, error) {
	today := a.Dashboard.Today()
	ref, err := parseDateFlag("date", reportDate, today.Location())
	if err != nil || ref.IsZero() {
		return today, err
	}
	return ref, nil
}

func runReportDelinquents(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ref, err := reportRef(a)
	if err != nil {
		return err
	}
	list, err := a.Dashboard.DelinquentsAt(cmd.Context(), ref)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintf(out, "No overdue members on %s.\n", ref.Format(dateLayout))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPHONE\tMONTHS\tOWED\tDAYS LATE\tLAST PAYMENT")
	fmt.Fprintln(w, "----\t-----\t------\t----\t---------\t------------")
	for _, d := range list {
		last := "never"
		if d.LastPayment != nil {
			last = d.LastPayment.PaidAt.Format(dateLayout)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%s\n",
			d.Member.Name, d.Member.Phone, d.MonthsOverdue, d.AmountDue.StringFixed(2), d.DaysPastDue, last)
	}
	return w.Flush()
}

func runDashboard(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ref, err := reportRef(a)
	if err != nil {
		return err
	}
	s, err := a.Dashboard.StatsAt(cmd.Context(), ref)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Period %s\n", s.Period)
	fmt.Fprintf(out, "  Active members:  %d\n", s.ActiveMembers)
	fmt.Fprintf(out, "  Paid:            %d\n", len(s.Paid))
	fmt.Fprintf(out, "  Overdue:         %d\n", len(s.Overdue))
	fmt.Fprintf(out, "  Awaiting:        %d\n", s.Awaiting)
	fmt.Fprintf(out, "  Expected:        %s\n", s.Expected.StringFixed(2))
	fmt.Fprintf(out, "  Received:        %s (%.1f%%)\n", s.Received.StringFixed(2), s.PercentPaid)
	fmt.Fprintf(out, "  Pending:         %s\n", s.Pending.StringFixed(2))
	fmt.Fprintf(out, "  Total arrears:   %s\n", s.TotalArrears.StringFixed(2))
	return nil
}
