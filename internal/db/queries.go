package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"

	"github.com/piyushxpc7/LedgerlyAI/internal/models"
)

// first unwraps the leading query result, or nil when nothing came back.
func first[T any](results *[]surrealdb.QueryResult[[]T]) []T {
	if results == nil || len(*results) == 0 {
		return nil
	}
	return (*results)[0].Result
}

// CreateDocument stores a new uploaded document and returns it with its
// assigned id.
func (c *Client) CreateDocument(ctx context.Context, doc models.Document) (models.Document, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]documentRecord](ctx, c.db, `
		CREATE type::record("document", $id) CONTENT {
			client_id: $client_id,
			filename: $filename,
			storage_path: $storage_path,
			type: $type,
			status: $status,
			meta: $meta
		} RETURN AFTER
	`, map[string]any{
		"id":           uuid.NewString(),
		"client_id":    doc.ClientID,
		"filename":     doc.Filename,
		"storage_path": doc.StoragePath,
		"type":         string(doc.Type),
		"status":       string(doc.Status),
		"meta":         doc.Meta,
	})
	if err != nil {
		return models.Document{}, fmt.Errorf("create document: %w", wrapQueryError(err))
	}

	records := first(results)
	if len(records) == 0 {
		return models.Document{}, fmt.Errorf("create document: no result returned")
	}
	return records[0].toModel(), nil
}

// GetDocument retrieves a document by id.
func (c *Client) GetDocument(ctx context.Context, id string) (models.Document, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]documentRecord](ctx, c.db, `
		SELECT * FROM type::record("document", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return models.Document{}, fmt.Errorf("get document: %w", wrapQueryError(err))
	}

	records := first(results)
	if len(records) == 0 {
		return models.Document{}, fmt.Errorf("get document %s: %w", id, ErrNotFound)
	}
	return records[0].toModel(), nil
}

// UpdateDocument sets a document's classified type and lifecycle status.
func (c *Client) UpdateDocument(ctx context.Context, id string, docType models.DocumentType, status models.DocumentStatus) error {
	defer c.observe(time.Now())

	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("document", $id) SET type = $type, status = $status
	`, map[string]any{"id": id, "type": string(docType), "status": string(status)})
	if err != nil {
		return fmt.Errorf("update document: %w", wrapQueryError(err))
	}
	return nil
}

// SetDocumentProcessed marks a document processed and stores its
// post-ingestion metadata (summary, record and chunk counts).
func (c *Client) SetDocumentProcessed(ctx context.Context, id string, meta map[string]any) error {
	defer c.observe(time.Now())

	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("document", $id) SET status = "processed", meta = $meta
	`, map[string]any{"id": id, "meta": meta})
	if err != nil {
		return fmt.Errorf("set document processed: %w", wrapQueryError(err))
	}
	return nil
}

// SetDocumentFailed marks a document failed and records the error message.
func (c *Client) SetDocumentFailed(ctx context.Context, id, message string) error {
	defer c.observe(time.Now())

	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("document", $id) SET status = "failed", meta = { error: $message }
	`, map[string]any{"id": id, "message": message})
	if err != nil {
		return fmt.Errorf("set document failed: %w", wrapQueryError(err))
	}
	return nil
}

// SaveChunks stores embedded chunks for a document, replacing any chunks
// from an earlier ingestion attempt.
func (c *Client) SaveChunks(ctx context.Context, documentID string, chunks []models.DocChunk) error {
	defer c.observe(time.Now())

	if _, err := surrealdb.Query[any](ctx, c.db, `
		DELETE doc_chunk WHERE document_id = $document_id
	`, map[string]any{"document_id": documentID}); err != nil {
		return fmt.Errorf("clear chunks: %w", wrapQueryError(err))
	}

	for _, chunk := range chunks {
		_, err := surrealdb.Query[any](ctx, c.db, `
			CREATE doc_chunk CONTENT {
				document_id: $document_id,
				chunk_index: $chunk_index,
				chunk_text: $chunk_text,
				embedding: $embedding
			}
		`, map[string]any{
			"document_id": documentID,
			"chunk_index": chunk.Index,
			"chunk_text":  chunk.Text,
			"embedding":   chunk.Embedding,
		})
		if err != nil {
			return fmt.Errorf("save chunk %d: %w", chunk.Index, wrapQueryError(err))
		}
	}
	return nil
}

// ListChunks returns a document's chunks in order.
func (c *Client) ListChunks(ctx context.Context, documentID string) ([]models.DocChunk, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]chunkRecord](ctx, c.db, `
		SELECT * FROM doc_chunk WHERE document_id = $document_id ORDER BY chunk_index
	`, map[string]any{"document_id": documentID})
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", wrapQueryError(err))
	}

	records := first(results)
	chunks := make([]models.DocChunk, 0, len(records))
	for _, r := range records {
		chunks = append(chunks, r.toModel())
	}
	return chunks, nil
}

// SaveTransactions stores extracted transactions, replacing any earlier
// extraction from the same document.
func (c *Client) SaveTransactions(ctx context.Context, documentID string, txns []models.Transaction) error {
	defer c.observe(time.Now())

	if _, err := surrealdb.Query[any](ctx, c.db, `
		DELETE transaction WHERE document_id = $document_id
	`, map[string]any{"document_id": documentID}); err != nil {
		return fmt.Errorf("clear transactions: %w", wrapQueryError(err))
	}

	for i, txn := range txns {
		_, err := surrealdb.Query[any](ctx, c.db,
			`CREATE transaction CONTENT $data`,
			map[string]any{"data": transactionContent(txn)})
		if err != nil {
			return fmt.Errorf("save transaction %d: %w", i, wrapQueryError(err))
		}
	}
	return nil
}

// ListTransactions returns a client's transactions for one side of the
// reconciliation, oldest first.
func (c *Client) ListTransactions(ctx context.Context, clientID string, source models.TransactionSource) ([]models.Transaction, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]transactionRecord](ctx, c.db, `
		SELECT * FROM transaction
		WHERE client_id = $client_id AND source = $source
		ORDER BY txn_date
	`, map[string]any{"client_id": clientID, "source": string(source)})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", wrapQueryError(err))
	}

	records := first(results)
	txns := make([]models.Transaction, 0, len(records))
	for _, r := range records {
		txns = append(txns, r.toModel())
	}
	return txns, nil
}

// SaveGSTSummaries stores extracted GST summaries, replacing any earlier
// extraction from the same document.
func (c *Client) SaveGSTSummaries(ctx context.Context, documentID string, summaries []models.GSTSummary) error {
	defer c.observe(time.Now())

	if _, err := surrealdb.Query[any](ctx, c.db, `
		DELETE gst_summary WHERE document_id = $document_id
	`, map[string]any{"document_id": documentID}); err != nil {
		return fmt.Errorf("clear gst summaries: %w", wrapQueryError(err))
	}

	for i, s := range summaries {
		_, err := surrealdb.Query[any](ctx, c.db,
			`CREATE gst_summary CONTENT $data`,
			map[string]any{"data": gstSummaryContent(s)})
		if err != nil {
			return fmt.Errorf("save gst summary %d: %w", i, wrapQueryError(err))
		}
	}
	return nil
}

// ListGSTSummaries returns all declared GST figures for a client.
func (c *Client) ListGSTSummaries(ctx context.Context, clientID string) ([]models.GSTSummary, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]gstSummaryRecord](ctx, c.db, `
		SELECT * FROM gst_summary WHERE client_id = $client_id ORDER BY period
	`, map[string]any{"client_id": clientID})
	if err != nil {
		return nil, fmt.Errorf("list gst summaries: %w", wrapQueryError(err))
	}

	records := first(results)
	summaries := make([]models.GSTSummary, 0, len(records))
	for _, r := range records {
		summaries = append(summaries, r.toModel())
	}
	return summaries, nil
}

// CreateRun opens a new reconciliation run in running state.
func (c *Client) CreateRun(ctx context.Context, clientID string) (models.ReconciliationRun, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]runRecord](ctx, c.db, `
		CREATE type::record("reconciliation_run", $id) CONTENT {
			client_id: $client_id,
			status: "running",
			started_at: time::now()
		} RETURN AFTER
	`, map[string]any{"id": uuid.NewString(), "client_id": clientID})
	if err != nil {
		return models.ReconciliationRun{}, fmt.Errorf("create run: %w", wrapQueryError(err))
	}

	records := first(results)
	if len(records) == 0 {
		return models.ReconciliationRun{}, fmt.Errorf("create run: no result returned")
	}
	return records[0].toModel(), nil
}

// CompleteRun marks a run as completed and stores its headline metrics.
func (c *Client) CompleteRun(ctx context.Context, runID string, m models.RunMetrics) error {
	defer c.observe(time.Now())

	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("reconciliation_run", $id) SET
			status = "completed",
			ended_at = time::now(),
			metrics_json = $metrics
	`, map[string]any{"id": runID, "metrics": m})
	if err != nil {
		return fmt.Errorf("complete run: %w", wrapQueryError(err))
	}
	return nil
}

// FailRun marks a run as failed with an error message.
func (c *Client) FailRun(ctx context.Context, runID, message string) error {
	defer c.observe(time.Now())

	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("reconciliation_run", $id) SET
			status = "failed",
			ended_at = time::now(),
			error_message = $message
	`, map[string]any{"id": runID, "message": message})
	if err != nil {
		return fmt.Errorf("fail run: %w", wrapQueryError(err))
	}
	return nil
}

// GetRun retrieves a reconciliation run by id.
func (c *Client) GetRun(ctx context.Context, id string) (models.ReconciliationRun, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]runRecord](ctx, c.db, `
		SELECT * FROM type::record("reconciliation_run", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return models.ReconciliationRun{}, fmt.Errorf("get run: %w", wrapQueryError(err))
	}

	records := first(results)
	if len(records) == 0 {
		return models.ReconciliationRun{}, fmt.Errorf("get run %s: %w", id, ErrNotFound)
	}
	return records[0].toModel(), nil
}

// SaveIssues stores the findings of a run. Open issues from earlier runs
// for the same client are replaced so review always sees current findings.
func (c *Client) SaveIssues(ctx context.Context, clientID string, issues []models.Issue) error {
	defer c.observe(time.Now())

	if _, err := surrealdb.Query[any](ctx, c.db, `
		DELETE issue WHERE client_id = $client_id AND status = "open"
	`, map[string]any{"client_id": clientID}); err != nil {
		return fmt.Errorf("clear open issues: %w", wrapQueryError(err))
	}

	for i, issue := range issues {
		_, err := surrealdb.Query[any](ctx, c.db, `
			CREATE issue CONTENT {
				client_id: $client_id,
				run_id: $run_id,
				severity: $severity,
				category: $category,
				title: $title,
				details_json: $details,
				status: "open"
			}
		`, map[string]any{
			"client_id": issue.ClientID,
			"run_id":    issue.RunID,
			"severity":  string(issue.Severity),
			"category":  string(issue.Category),
			"title":     issue.Title,
			"details":   issue.Details,
		})
		if err != nil {
			return fmt.Errorf("save issue %d: %w", i, wrapQueryError(err))
		}
	}
	return nil
}

// ListIssues returns all findings for a client, newest first.
func (c *Client) ListIssues(ctx context.Context, clientID string) ([]models.Issue, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]issueRecord](ctx, c.db, `
		SELECT * FROM issue WHERE client_id = $client_id ORDER BY created_at DESC
	`, map[string]any{"client_id": clientID})
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", wrapQueryError(err))
	}

	records := first(results)
	issues := make([]models.Issue, 0, len(records))
	for _, r := range records {
		issues = append(issues, r.toModel())
	}
	return issues, nil
}

// UpdateIssueStatus applies a review action, enforcing the status machine.
func (c *Client) UpdateIssueStatus(ctx context.Context, id string, to models.IssueStatus) (models.Issue, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]issueRecord](ctx, c.db, `
		SELECT * FROM type::record("issue", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return models.Issue{}, fmt.Errorf("get issue: %w", wrapQueryError(err))
	}

	records := first(results)
	if len(records) == 0 {
		return models.Issue{}, fmt.Errorf("get issue %s: %w", id, ErrNotFound)
	}
	current := records[0].toModel()

	if !current.Status.CanTransition(to) {
		return models.Issue{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
	}

	updated, err := surrealdb.Query[[]issueRecord](ctx, c.db, `
		UPDATE type::record("issue", $id) SET status = $status RETURN AFTER
	`, map[string]any{"id": id, "status": string(to)})
	if err != nil {
		return models.Issue{}, fmt.Errorf("update issue: %w", wrapQueryError(err))
	}

	records = first(updated)
	if len(records) == 0 {
		return models.Issue{}, fmt.Errorf("update issue %s: %w", id, ErrNotFound)
	}
	return records[0].toModel(), nil
}

// SaveReport stores a generated report and returns it with its assigned id.
func (c *Client) SaveReport(ctx context.Context, report models.Report) (models.Report, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]reportRecord](ctx, c.db, `
		CREATE report CONTENT {
			client_id: $client_id,
			run_id: $run_id,
			type: $type,
			content_md: $content_md,
			content_pdf_url: $rendered_path
		} RETURN AFTER
	`, map[string]any{
		"client_id":     report.ClientID,
		"run_id":        report.RunID,
		"type":          string(report.Type),
		"content_md":    report.ContentMD,
		"rendered_path": report.RenderedPath,
	})
	if err != nil {
		return models.Report{}, fmt.Errorf("save report: %w", wrapQueryError(err))
	}

	records := first(results)
	if len(records) == 0 {
		return models.Report{}, fmt.Errorf("save report: no result returned")
	}
	return records[0].toModel(), nil
}

// ListReports returns the reports generated by a run.
func (c *Client) ListReports(ctx context.Context, runID string) ([]models.Report, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]reportRecord](ctx, c.db, `
		SELECT * FROM report WHERE run_id = $run_id ORDER BY type
	`, map[string]any{"run_id": runID})
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", wrapQueryError(err))
	}

	records := first(results)
	reports := make([]models.Report, 0, len(records))
	for _, r := range records {
		reports = append(reports, r.toModel())
	}
	return reports, nil
}
