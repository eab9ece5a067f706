package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <document-id>",
	Short: "Run the ingestion pipeline for an uploaded document",
	Long: `Run the ingestion pipeline for an uploaded document: extract content,
classify, parse structured records, chunk and embed the text, and persist
everything. Transient failures are retried under the ingest policy.

Examples:
  ledgerly-worker ingest 9f3ab2
  ledgerly-worker ingest 9f3ab2 --verbose`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	documentID := args[0]
	sched := buildScheduler()

	result, err := sched.IngestDocument(context.Background(), documentID)
	if err != nil {
		return err
	}

	fmt.Printf("Document: %s\n", result.DocumentID)
	fmt.Printf("  Status: %s\n", result.Status)
	fmt.Printf("  Type: %s\n", result.DocumentType)
	fmt.Printf("  Records: %d\n", result.RecordsExtracted)
	fmt.Printf("  Chunks: %d\n", result.ChunksCreated)
	if result.Summary != "" {
		fmt.Printf("\n%s\n", result.Summary)
	}
	return nil
}
