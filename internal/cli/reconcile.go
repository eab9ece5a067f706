package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <client-id>",
	Short: "Run the reconciliation pipeline for a client",
	Long: `Match the client's bank transactions against invoices, detect
duplicates and GST mismatches, score findings and generate the working
papers and compliance summary reports.

Only one reconciliation per client runs at a time; transient failures are
retried under the reconcile policy.

Examples:
  ledgerly-worker reconcile acme-pvt-ltd`,
	Args: cobra.ExactArgs(1),
	RunE: runReconcile,
}

func runReconcile(cmd *cobra.Command, args []string) error {
	clientID := args[0]
	sched := buildScheduler()

	result, err := sched.ReconcileClient(context.Background(), clientID)
	if err != nil {
		return err
	}

	fmt.Printf("Run: %s\n", result.RunID)
	fmt.Printf("  Client: %s\n", result.ClientID)
	fmt.Printf("  Status: %s\n", result.Status)
	if m := result.Metrics; m != nil {
		fmt.Printf("  Bank transactions: %d (₹%.2f)\n", m.BankCount, m.BankTotal)
		fmt.Printf("  Invoices: %d (₹%.2f)\n", m.InvoiceCount, m.InvoiceTotal)
		fmt.Printf("  Matched: %d\n", m.MatchedCount)
		fmt.Printf("  Unmatched bank: %d\n", m.UnmatchedBankCount)
		fmt.Printf("  Unmatched invoices: %d\n", m.UnmatchedInvoiceCount)
	}
	fmt.Printf("  Issues: %d\n", result.IssueCount)

	reports, err := dbClient.ListReports(context.Background(), result.RunID)
	if err != nil {
		return fmt.Errorf("list reports: %w", err)
	}
	for _, report := range reports {
		if report.RenderedPath != "" {
			fmt.Printf("  Report (%s): %s\n", report.Type, report.RenderedPath)
		}
	}
	return nil
}
