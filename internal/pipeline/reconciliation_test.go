package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/piyushxpc7/LedgerlyAI/internal/config"
	"github.com/piyushxpc7/LedgerlyAI/internal/models"
)

type reconStoreStub struct {
	bank     []models.Transaction
	invoices []models.Transaction
	gst      []models.GSTSummary

	listErr error

	createdRuns      int
	completedMetrics *models.RunMetrics
	failedMessage    string
	savedIssues      []models.Issue
	savedReports     []models.Report
}

func (s *reconStoreStub) ListTransactions(ctx context.Context, clientID string, source models.TransactionSource) ([]models.Transaction, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	if source == models.SourceBank {
		return s.bank, nil
	}
	return s.invoices, nil
}

func (s *reconStoreStub) ListGSTSummaries(ctx context.Context, clientID string) ([]models.GSTSummary, error) {
	return s.gst, nil
}

func (s *reconStoreStub) CreateRun(ctx context.Context, clientID string) (models.ReconciliationRun, error) {
	s.createdRuns++
	return models.ReconciliationRun{ID: "run-1", ClientID: clientID, Status: models.RunRunning}, nil
}

func (s *reconStoreStub) CompleteRun(ctx context.Context, runID string, m models.RunMetrics) error {
	s.completedMetrics = &m
	return nil
}

func (s *reconStoreStub) FailRun(ctx context.Context, runID, message string) error {
	s.failedMessage = message
	return nil
}

func (s *reconStoreStub) SaveIssues(ctx context.Context, clientID string, issues []models.Issue) error {
	s.savedIssues = issues
	return nil
}

func (s *reconStoreStub) SaveReport(ctx context.Context, report models.Report) (models.Report, error) {
	s.savedReports = append(s.savedReports, report)
	return report, nil
}

type rendererStub struct {
	names []string
}

func (r *rendererStub) WriteReport(dir, name, title, contentMD string) (string, error) {
	r.names = append(r.names, name)
	return dir + "/" + name + ".html", nil
}

func testReconConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		DateToleranceDays:      3,
		AmountTolerancePercent: 0.01,
		StoragePath:            t.TempDir(),
	}
}

func seededReconStore() *reconStoreStub {
	march := func(day int) time.Time {
		return time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC)
	}
	return &reconStoreStub{
		bank: []models.Transaction{
			{ID: "b1", ClientID: "client-1", Source: models.SourceBank, Date: march(5),
				Amount: decimal.NewFromInt(1180), ReferenceID: "INV-001", Description: "Acme payment"},
			{ID: "b2", ClientID: "client-1", Source: models.SourceBank, Date: march(20),
				Amount: decimal.NewFromInt(-5000), Description: "Unknown vendor payment"},
		},
		invoices: []models.Transaction{
			{ID: "i1", ClientID: "client-1", Source: models.SourceInvoice, Date: march(5),
				Amount: decimal.NewFromInt(1180), ReferenceID: "INV-001", Counterparty: "Acme"},
			{ID: "i2", ClientID: "client-1", Source: models.SourceInvoice, Date: march(25),
				Amount: decimal.NewFromInt(2000), ReferenceID: "INV-002", Counterparty: "Beta Ltd"},
		},
	}
}

func TestReconciliationRun(t *testing.T) {
	store := seededReconStore()
	renderer := &rendererStub{}

	p := NewReconciliation(store, nil, renderer, testReconConfig(t), nil)
	result, outcome := p.Run(context.Background(), "client-1")

	if !outcome.Succeeded() {
		t.Fatalf("expected success, got %s: %v", outcome.Disposition, outcome.Err)
	}
	if result.Status != StatusCompleted {
		t.Errorf("expected status completed, got %q", result.Status)
	}
	if result.RunID != "run-1" {
		t.Errorf("expected run id run-1, got %q", result.RunID)
	}

	m := store.completedMetrics
	if m == nil {
		t.Fatal("run not completed with metrics")
	}
	if m.BankCount != 2 || m.InvoiceCount != 2 {
		t.Errorf("expected 2 bank and 2 invoice transactions, got %d and %d", m.BankCount, m.InvoiceCount)
	}
	if m.MatchedCount != 1 {
		t.Errorf("expected 1 match, got %d", m.MatchedCount)
	}
	if m.UnmatchedBankCount != 1 || m.UnmatchedInvoiceCount != 1 {
		t.Errorf("expected 1 unmatched on each side, got %d and %d", m.UnmatchedBankCount, m.UnmatchedInvoiceCount)
	}
	if m.BankTotal != 6180 {
		t.Errorf("expected bank total 6180, got %v", m.BankTotal)
	}
	if m.InvoiceTotal != 3180 {
		t.Errorf("expected invoice total 3180, got %v", m.InvoiceTotal)
	}

	// b2 has no invoice, i2 has no bank entry, and b1/i1 share an amount
	// and date which surfaces as a duplicate group.
	if m.IssueCount != 3 {
		t.Errorf("expected 3 issues, got %d", m.IssueCount)
	}
	if len(store.savedIssues) != result.IssueCount {
		t.Errorf("saved %d issues but result reports %d", len(store.savedIssues), result.IssueCount)
	}
	for _, issue := range store.savedIssues {
		if issue.ClientID != "client-1" || issue.RunID != "run-1" {
			t.Errorf("issue not stamped with client and run: %+v", issue)
		}
		if issue.Status != models.IssueOpen {
			t.Errorf("expected open issue, got %q", issue.Status)
		}
	}

	if len(store.savedReports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(store.savedReports))
	}
	if store.savedReports[0].Type != models.ReportWorkingPapers ||
		store.savedReports[1].Type != models.ReportComplianceSummary {
		t.Errorf("unexpected report types: %q, %q", store.savedReports[0].Type, store.savedReports[1].Type)
	}
	for _, report := range store.savedReports {
		if report.ContentMD == "" {
			t.Errorf("report %q has empty content", report.Type)
		}
		if report.RenderedPath == "" {
			t.Errorf("report %q has no rendered artifact", report.Type)
		}
	}
	if len(renderer.names) != 2 {
		t.Errorf("expected 2 rendered artifacts, got %v", renderer.names)
	}
}

func TestReconciliationNarrativeIncluded(t *testing.T) {
	store := seededReconStore()
	gen := &genStub{text: "Executive narrative for the client review."}

	p := NewReconciliation(store, gen, nil, testReconConfig(t), nil)
	_, outcome := p.Run(context.Background(), "client-1")

	if !outcome.Succeeded() {
		t.Fatalf("expected success, got %s: %v", outcome.Disposition, outcome.Err)
	}
	if len(store.savedReports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(store.savedReports))
	}
	compliance := store.savedReports[1]
	if !strings.Contains(compliance.ContentMD, "Executive narrative for the client review.") {
		t.Error("compliance summary missing LLM narrative")
	}
	if compliance.RenderedPath != "" {
		t.Error("expected no rendered artifact without a renderer")
	}
}

func TestReconciliationEmptyClient(t *testing.T) {
	store := &reconStoreStub{}

	p := NewReconciliation(store, nil, nil, testReconConfig(t), nil)
	result, outcome := p.Run(context.Background(), "client-empty")

	if !outcome.Succeeded() {
		t.Fatalf("expected success on empty client, got %s: %v", outcome.Disposition, outcome.Err)
	}
	if result.IssueCount != 0 {
		t.Errorf("expected no issues, got %d", result.IssueCount)
	}
	m := store.completedMetrics
	if m == nil {
		t.Fatal("run not completed")
	}
	if m.MatchedCount != 0 || m.BankCount != 0 || m.InvoiceCount != 0 {
		t.Errorf("expected zero counts, got %+v", m)
	}
	if len(store.savedReports) != 2 {
		t.Errorf("reports should still be generated, got %d", len(store.savedReports))
	}
}

func TestReconciliationLoadFailure(t *testing.T) {
	store := seededReconStore()
	store.listErr = errors.New("connection reset")

	p := NewReconciliation(store, nil, nil, testReconConfig(t), nil)
	result, outcome := p.Run(context.Background(), "client-1")

	if !outcome.Retryable() {
		t.Errorf("expected retryable outcome, got %s", outcome.Disposition)
	}
	if result.Status != StatusFailed {
		t.Errorf("expected status failed, got %q", result.Status)
	}
	if !strings.HasPrefix(store.failedMessage, "load_client_data:") {
		t.Errorf("expected failure recorded against load stage, got %q", store.failedMessage)
	}
	if store.completedMetrics != nil {
		t.Error("failed run must not record completion metrics")
	}
}
