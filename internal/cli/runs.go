package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "run <run-id>",
	Short: "Inspect a reconciliation run",
	Long: `Show the status and metrics of a reconciliation run.

Examples:
  ledgerly-worker run 7c2de1`,
	Args: cobra.ExactArgs(1),
	RunE: runShowRun,
}

func runShowRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	run, err := dbClient.GetRun(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}

	fmt.Printf("Run: %s\n", run.ID)
	fmt.Printf("  Client: %s\n", run.ClientID)
	fmt.Printf("  Status: %s\n", run.Status)
	if run.StartedAt != nil {
		fmt.Printf("  Started: %s\n", run.StartedAt.Format(time.RFC3339))
	}
	if run.EndedAt != nil {
		fmt.Printf("  Ended: %s\n", run.EndedAt.Format(time.RFC3339))
		if run.StartedAt != nil {
			fmt.Printf("  Duration: %s\n", run.EndedAt.Sub(*run.StartedAt).Round(time.Second))
		}
	}
	if run.ErrorMessage != "" {
		fmt.Printf("  Error: %s\n", run.ErrorMessage)
	}

	if m := run.Metrics; m != nil {
		fmt.Println("\nMetrics:")
		fmt.Printf("  Bank transactions: %d (₹%.2f)\n", m.BankCount, m.BankTotal)
		fmt.Printf("  Invoices: %d (₹%.2f)\n", m.InvoiceCount, m.InvoiceTotal)
		fmt.Printf("  Matched: %d\n", m.MatchedCount)
		fmt.Printf("  Unmatched bank: %d\n", m.UnmatchedBankCount)
		fmt.Printf("  Unmatched invoices: %d\n", m.UnmatchedInvoiceCount)
		fmt.Printf("  Issues: %d\n", m.IssueCount)
	}

	reports, err := dbClient.ListReports(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("list reports: %w", err)
	}
	if len(reports) > 0 {
		fmt.Println("\nReports:")
		for _, report := range reports {
			path := report.RenderedPath
			if path == "" {
				path = "(not rendered)"
			}
			fmt.Printf("  %s: %s\n", report.Type, path)
		}
	}
	return nil
}
