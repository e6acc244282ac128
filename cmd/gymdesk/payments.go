package main

import (
	"fmt"
	"strings"

	"github.com/artpar/gymdesk/app"
	"github.com/artpar/gymdesk/domain/billing"
	"github.com/artpar/gymdesk/domain/dashboard"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var paymentsCmd = &cobra.Command{
	Use:   "payments",
	Short: "Record membership payments",
}

var paymentsRecordCmd = &cobra.Command{
	Use:   "record <member-id>",
	Short: "Record a payment for a member",
	Long: `Record a payment for a member.

The payment date defaults to today and the period it pays for defaults
to the payment date's month. Payments cannot be edited afterwards.

Examples:
  gymdesk payments record mem_0b6c... --amount 100
  gymdesk payments record mem_0b6c... --amount 100 --date 2024-03-01 --period 2024-02 --notes pix`,
	Args: cobra.ExactArgs(1),
	RunE: runPaymentsRecord,
}

var (
	paymentAmount string
	paymentDate   string
	paymentPeriod string
	paymentNotes  string
)

func init() {
	rootCmd.AddCommand(paymentsCmd)
	paymentsCmd.AddCommand(paymentsRecordCmd)

	paymentsRecordCmd.Flags().StringVar(&paymentAmount, "amount", "", "amount paid (required)")
	paymentsRecordCmd.Flags().StringVar(&paymentDate, "date", "", "payment date YYYY-MM-DD (default: today)")
	paymentsRecordCmd.Flags().StringVar(&paymentPeriod, "period", "", "month paid for YYYY-MM (default: month of --date)")
	paymentsRecordCmd.Flags().StringVar(&paymentNotes, "notes", "", "free text, e.g. payment method")
	paymentsRecordCmd.MarkFlagRequired("amount")
}

func runPaymentsRecord(cmd *cobra.Command, args []string) error {
	amount, err := decimal.NewFromString(strings.TrimSpace(paymentAmount))
	if err != nil {
		return fmt.Errorf("invalid amount %q", paymentAmount)
	}

	req := app.PaymentRequest{
		MemberID: args[0],
		Amount:   amount,
		Notes:    paymentNotes,
	}
	if paymentPeriod != "" {
		period, err := billing.ParsePeriod(paymentPeriod)
		if err != nil {
			return fmt.Errorf("--period must be YYYY-MM, got %q", paymentPeriod)
		}
		req.Period = &period
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	req.PaidAt, err = parseDateFlag("date", paymentDate, a.Members.Today().Location())
	if err != nil {
		return err
	}

	p, err := a.Payments.Record(cmd.Context(), req)
	if err != nil {
		return describeError(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Payment %s recorded: %s on %s for %s %d\n",
		p.ID, p.Amount.StringFixed(2), p.PaidAt.Format(dateLayout), dashboard.MonthName(p.Period), p.Period.Year)
	return nil
}
