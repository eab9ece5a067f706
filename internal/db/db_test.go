// Package db provides integration tests for SurrealDB operations.
package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/piyushxpc7/LedgerlyAI/internal/models"
)

var testDB *Client
var testContainer testcontainers.Container

// TestMain sets up and tears down the SurrealDB container for all tests.
func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testDB, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testDB.InitSchema(ctx, 8); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close(ctx)
	_ = testContainer.Terminate(ctx)

	os.Exit(code)
}

// dummyEmbedding returns a small embedding vector matching the test schema.
func dummyEmbedding() []float32 {
	embedding := make([]float32, 8)
	for i := range embedding {
		embedding[i] = float32(i) / 8.0
	}
	return embedding
}

func mustCreateDocument(t *testing.T, clientID string) models.Document {
	t.Helper()
	doc, err := testDB.CreateDocument(context.Background(), models.Document{
		ClientID:    clientID,
		Filename:    "statement.csv",
		StoragePath: "/storage/statement.csv",
		Type:        models.DocOther,
		Status:      models.DocUploaded,
	})
	if err != nil {
		t.Fatalf("CreateDocument failed: %v", err)
	}
	return doc
}

func TestDocumentLifecycle(t *testing.T) {
	ctx := context.Background()

	doc := mustCreateDocument(t, "client-doc")
	if doc.ID == "" {
		t.Fatal("expected assigned document id")
	}
	if doc.Status != models.DocUploaded {
		t.Errorf("status = %s, want uploaded", doc.Status)
	}

	if err := testDB.UpdateDocument(ctx, doc.ID, models.DocBank, models.DocProcessed); err != nil {
		t.Fatalf("UpdateDocument failed: %v", err)
	}

	got, err := testDB.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if got.Type != models.DocBank || got.Status != models.DocProcessed {
		t.Errorf("got type=%s status=%s, want bank/processed", got.Type, got.Status)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	_, err := testDB.GetDocument(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveChunksReplacesPreviousAttempt(t *testing.T) {
	ctx := context.Background()
	doc := mustCreateDocument(t, "client-chunks")

	firstAttempt := []models.DocChunk{
		{DocumentID: doc.ID, Index: 0, Text: "stale chunk", Embedding: dummyEmbedding()},
	}
	if err := testDB.SaveChunks(ctx, doc.ID, firstAttempt); err != nil {
		t.Fatalf("SaveChunks failed: %v", err)
	}

	secondAttempt := []models.DocChunk{
		{DocumentID: doc.ID, Index: 0, Text: "Row 1: amount: 100", Embedding: dummyEmbedding()},
		{DocumentID: doc.ID, Index: 1, Text: "Row 2: amount: 200", Embedding: dummyEmbedding()},
	}
	if err := testDB.SaveChunks(ctx, doc.ID, secondAttempt); err != nil {
		t.Fatalf("SaveChunks failed: %v", err)
	}

	chunks, err := testDB.ListChunks(ctx, doc.ID)
	if err != nil {
		t.Fatalf("ListChunks failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2 (first attempt replaced)", len(chunks))
	}
	if chunks[0].Index != 0 || chunks[1].Index != 1 {
		t.Errorf("chunks out of order: %v %v", chunks[0].Index, chunks[1].Index)
	}
	if chunks[0].Text != "Row 1: amount: 100" {
		t.Errorf("chunk text = %q", chunks[0].Text)
	}
}

func TestSaveAndListTransactions(t *testing.T) {
	ctx := context.Background()
	doc := mustCreateDocument(t, "client-txn")

	txns := []models.Transaction{
		{
			ClientID:    "client-txn",
			DocumentID:  doc.ID,
			Source:      models.SourceBank,
			Date:        time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC),
			Amount:      decimal.NewFromFloat(-1200.50),
			Description: "ATM WDL",
			ReferenceID: "550123",
		},
		{
			ClientID:   "client-txn",
			DocumentID: doc.ID,
			Source:     models.SourceBank,
			Date:       time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
			Amount:     decimal.NewFromInt(5000),
		},
	}
	if err := testDB.SaveTransactions(ctx, doc.ID, txns); err != nil {
		t.Fatalf("SaveTransactions failed: %v", err)
	}

	got, err := testDB.ListTransactions(ctx, "client-txn", models.SourceBank)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d transactions, want 2", len(got))
	}
	// Ordered by date ascending.
	if !got[0].Date.Before(got[1].Date) {
		t.Errorf("transactions not ordered by date: %v, %v", got[0].Date, got[1].Date)
	}
	if !got[1].Amount.Equal(decimal.NewFromFloat(-1200.50)) {
		t.Errorf("amount = %s, want -1200.5", got[1].Amount)
	}
	if got[1].ReferenceID != "550123" {
		t.Errorf("reference = %q", got[1].ReferenceID)
	}

	// Invoice side is empty for this client.
	invoices, err := testDB.ListTransactions(ctx, "client-txn", models.SourceInvoice)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(invoices) != 0 {
		t.Errorf("got %d invoice transactions, want 0", len(invoices))
	}

	// Re-ingesting the same document replaces its transactions.
	if err := testDB.SaveTransactions(ctx, doc.ID, txns[:1]); err != nil {
		t.Fatalf("SaveTransactions failed: %v", err)
	}
	got, err = testDB.ListTransactions(ctx, "client-txn", models.SourceBank)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d transactions after re-ingest, want 1", len(got))
	}
}

func TestSaveAndListGSTSummaries(t *testing.T) {
	ctx := context.Background()
	doc := mustCreateDocument(t, "client-gst")

	summaries := []models.GSTSummary{
		{
			ClientID:     "client-gst",
			DocumentID:   doc.ID,
			Period:       "2024-03",
			TaxableValue: decimal.NewFromInt(400000),
			TaxAmount:    decimal.NewFromInt(72000),
		},
	}
	if err := testDB.SaveGSTSummaries(ctx, doc.ID, summaries); err != nil {
		t.Fatalf("SaveGSTSummaries failed: %v", err)
	}

	got, err := testDB.ListGSTSummaries(ctx, "client-gst")
	if err != nil {
		t.Fatalf("ListGSTSummaries failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d summaries, want 1", len(got))
	}
	if got[0].Period != "2024-03" {
		t.Errorf("period = %q", got[0].Period)
	}
	if !got[0].TaxableValue.Equal(decimal.NewFromInt(400000)) {
		t.Errorf("taxable = %s", got[0].TaxableValue)
	}
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()

	run, err := testDB.CreateRun(ctx, "client-run")
	if err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if run.Status != models.RunRunning {
		t.Errorf("status = %s, want running", run.Status)
	}
	if run.StartedAt == nil {
		t.Error("expected started_at to be set")
	}

	metrics := models.RunMetrics{
		BankCount:    10,
		InvoiceCount: 8,
		MatchedCount: 6,
		IssueCount:   3,
		BankTotal:    15000.50,
	}
	if err := testDB.CompleteRun(ctx, run.ID, metrics); err != nil {
		t.Fatalf("CompleteRun failed: %v", err)
	}

	got, err := testDB.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Status != models.RunCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.EndedAt == nil {
		t.Error("expected ended_at to be set")
	}
	if got.Metrics == nil || got.Metrics.MatchedCount != 6 {
		t.Errorf("metrics = %+v", got.Metrics)
	}
}

func TestFailRun(t *testing.T) {
	ctx := context.Background()

	run, err := testDB.CreateRun(ctx, "client-failrun")
	if err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := testDB.FailRun(ctx, run.ID, "load client data: boom"); err != nil {
		t.Fatalf("FailRun failed: %v", err)
	}

	got, err := testDB.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Status != models.RunFailed {
		t.Errorf("status = %s, want failed", got.Status)
	}
	if got.ErrorMessage != "load client data: boom" {
		t.Errorf("error_message = %q", got.ErrorMessage)
	}
}

func TestSaveIssuesReplacesOpenFindings(t *testing.T) {
	ctx := context.Background()

	run, err := testDB.CreateRun(ctx, "client-issues")
	if err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	stale := []models.Issue{{
		ClientID: "client-issues",
		RunID:    run.ID,
		Severity: models.SeverityLow,
		Category: models.CategoryMissingInvoice,
		Title:    "stale finding",
	}}
	if err := testDB.SaveIssues(ctx, "client-issues", stale); err != nil {
		t.Fatalf("SaveIssues failed: %v", err)
	}

	// An accepted issue survives the next run's replacement.
	existing, err := testDB.ListIssues(ctx, "client-issues")
	if err != nil {
		t.Fatalf("ListIssues failed: %v", err)
	}
	if _, err := testDB.UpdateIssueStatus(ctx, existing[0].ID, models.IssueAccepted); err != nil {
		t.Fatalf("UpdateIssueStatus failed: %v", err)
	}

	fresh := []models.Issue{{
		ClientID: "client-issues",
		RunID:    run.ID,
		Severity: models.SeverityHigh,
		Category: models.CategoryGSTMismatch,
		Title:    "GST mismatch for 2024-03",
		Details:  map[string]any{"period": "2024-03", "recommendation": "Reconcile GST filings with invoice register"},
	}}
	if err := testDB.SaveIssues(ctx, "client-issues", fresh); err != nil {
		t.Fatalf("SaveIssues failed: %v", err)
	}

	issues, err := testDB.ListIssues(ctx, "client-issues")
	if err != nil {
		t.Fatalf("ListIssues failed: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("got %d issues, want 2 (accepted kept, open replaced)", len(issues))
	}

	var foundAccepted, foundFresh bool
	for _, issue := range issues {
		switch issue.Title {
		case "stale finding":
			foundAccepted = issue.Status == models.IssueAccepted
		case "GST mismatch for 2024-03":
			foundFresh = issue.Status == models.IssueOpen
			if issue.Details["recommendation"] != "Reconcile GST filings with invoice register" {
				t.Errorf("details = %v", issue.Details)
			}
		}
	}
	if !foundAccepted || !foundFresh {
		t.Errorf("issues = %+v", issues)
	}
}

func TestUpdateIssueStatusRejectsInvalidTransition(t *testing.T) {
	ctx := context.Background()

	run, err := testDB.CreateRun(ctx, "client-transition")
	if err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	issues := []models.Issue{{
		ClientID: "client-transition",
		RunID:    run.ID,
		Severity: models.SeverityMedium,
		Category: models.CategoryDuplicate,
		Title:    "possible duplicate",
	}}
	if err := testDB.SaveIssues(ctx, "client-transition", issues); err != nil {
		t.Fatalf("SaveIssues failed: %v", err)
	}
	saved, err := testDB.ListIssues(ctx, "client-transition")
	if err != nil {
		t.Fatalf("ListIssues failed: %v", err)
	}

	updated, err := testDB.UpdateIssueStatus(ctx, saved[0].ID, models.IssueResolved)
	if err != nil {
		t.Fatalf("UpdateIssueStatus failed: %v", err)
	}
	if updated.Status != models.IssueResolved {
		t.Errorf("status = %s, want resolved", updated.Status)
	}

	// resolved -> accepted is not a legal review action.
	if _, err := testDB.UpdateIssueStatus(ctx, updated.ID, models.IssueAccepted); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestSaveAndListReports(t *testing.T) {
	ctx := context.Background()

	run, err := testDB.CreateRun(ctx, "client-report")
	if err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	report, err := testDB.SaveReport(ctx, models.Report{
		ClientID:  "client-report",
		RunID:     run.ID,
		Type:      models.ReportWorkingPapers,
		ContentMD: "# Working Papers\n",
	})
	if err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
	if report.ID == "" {
		t.Fatal("expected assigned report id")
	}

	if _, err := testDB.SaveReport(ctx, models.Report{
		ClientID:     "client-report",
		RunID:        run.ID,
		Type:         models.ReportComplianceSummary,
		ContentMD:    "# Compliance Summary\n",
		RenderedPath: "/storage/reports/summary.html",
	}); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	reports, err := testDB.ListReports(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListReports failed: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}
	// Ordered by type: compliance_summary before working_papers.
	if reports[0].Type != models.ReportComplianceSummary || reports[1].Type != models.ReportWorkingPapers {
		t.Errorf("report order: %s, %s", reports[0].Type, reports[1].Type)
	}
	if reports[0].RenderedPath != "/storage/reports/summary.html" {
		t.Errorf("rendered path = %q", reports[0].RenderedPath)
	}
}
