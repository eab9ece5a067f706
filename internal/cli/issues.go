package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piyushxpc7/LedgerlyAI/internal/models"
)

var issuesStatus string

var issuesCmd = &cobra.Command{
	Use:   "issues <client-id>",
	Short: "List reconciliation findings for a client",
	Long: `List the findings of the client's latest reconciliation runs.

Examples:
  ledgerly-worker issues acme-pvt-ltd
  ledgerly-worker issues acme-pvt-ltd --status open`,
	Args: cobra.ExactArgs(1),
	RunE: runIssues,
}

var issueSetCmd = &cobra.Command{
	Use:   "set-status <issue-id> <open|accepted|resolved>",
	Short: "Move a finding through its review lifecycle",
	Long: `Record a review decision on a finding. Only valid lifecycle moves
are accepted: open findings can be accepted or resolved, accepted ones
resolved or reopened, resolved ones reopened.

Examples:
  ledgerly-worker issues set-status 4fe1c9 accepted`,
	Args: cobra.ExactArgs(2),
	RunE: runIssueSetStatus,
}

func init() {
	issuesCmd.Flags().StringVar(&issuesStatus, "status", "", "filter by status (open, accepted, resolved)")
	issuesCmd.AddCommand(issueSetCmd)
}

func runIssues(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	issues, err := dbClient.ListIssues(ctx, args[0])
	if err != nil {
		return fmt.Errorf("list issues: %w", err)
	}
	if issuesStatus != "" {
		filtered := issues[:0]
		for _, issue := range issues {
			if string(issue.Status) == issuesStatus {
				filtered = append(filtered, issue)
			}
		}
		issues = filtered
	}

	if len(issues) == 0 {
		fmt.Println("No issues found")
		return nil
	}

	fmt.Printf("%-10s %-8s %-16s %-10s %s\n", "ID", "SEVERITY", "CATEGORY", "STATUS", "TITLE")
	fmt.Println("--------------------------------------------------------------------------------")
	for _, issue := range issues {
		fmt.Printf("%-10s %-8s %-16s %-10s %s\n",
			issue.ID, issue.Severity, issue.Category, issue.Status, issue.Title)
	}
	return nil
}

func runIssueSetStatus(cmd *cobra.Command, args []string) error {
	issue, err := dbClient.UpdateIssueStatus(context.Background(), args[0], models.IssueStatus(args[1]))
	if err != nil {
		return fmt.Errorf("update issue status: %w", err)
	}

	fmt.Printf("Issue %s is now %s\n", issue.ID, issue.Status)
	return nil
}
