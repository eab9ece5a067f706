package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/piyushxpc7/LedgerlyAI/internal/config"
	"github.com/piyushxpc7/LedgerlyAI/internal/metrics"
	"github.com/piyushxpc7/LedgerlyAI/internal/models"
	"github.com/piyushxpc7/LedgerlyAI/internal/recon"
)

// ReconciliationStore is the persistence surface the reconciliation
// pipeline needs. *db.Client satisfies it.
type ReconciliationStore interface {
	ListTransactions(ctx context.Context, clientID string, source models.TransactionSource) ([]models.Transaction, error)
	ListGSTSummaries(ctx context.Context, clientID string) ([]models.GSTSummary, error)
	CreateRun(ctx context.Context, clientID string) (models.ReconciliationRun, error)
	CompleteRun(ctx context.Context, runID string, m models.RunMetrics) error
	FailRun(ctx context.Context, runID, message string) error
	SaveIssues(ctx context.Context, clientID string, issues []models.Issue) error
	SaveReport(ctx context.Context, report models.Report) (models.Report, error)
}

// Renderer converts report markdown to a downloadable artifact.
// *render.Renderer satisfies it.
type Renderer interface {
	WriteReport(dir, name, title, contentMD string) (string, error)
}

// ReconciliationState carries one run through the reconciliation stages.
type ReconciliationState struct {
	ClientID string
	RunID    string

	Bank         []models.Transaction
	Invoices     []models.Transaction
	GSTSummaries []models.GSTSummary

	Matches           []recon.MatchResult
	UnmatchedBank     []models.Transaction
	UnmatchedInvoices []models.Transaction
	Duplicates        []recon.DuplicateGroup

	Issues       []models.Issue
	IssueSummary models.IssueSummary

	WorkingPapersMD   string
	ComplianceMD      string
	WorkingPapersPath string
	CompliancePath    string

	Metrics *models.RunMetrics

	Status string
	Err    string
}

func (s *ReconciliationState) SetStatus(status string) { s.Status = status }
func (s *ReconciliationState) SetError(message string) { s.Err = message }

// ReconciliationResult is the caller-facing summary of one run attempt.
type ReconciliationResult struct {
	ClientID   string             `json:"client_id"`
	RunID      string             `json:"run_id"`
	Status     string             `json:"status"`
	Metrics    *models.RunMetrics `json:"metrics,omitempty"`
	IssueCount int                `json:"issue_count"`
	Error      string             `json:"error,omitempty"`
}

// Reconciliation matches a client's bank and invoice sides, scores the
// findings and produces the two review reports.
type Reconciliation struct {
	store    ReconciliationStore
	gen      Generator
	renderer Renderer

	dateToleranceDays      int
	amountTolerancePercent float64
	reportsDir             string

	exec *Executor[*ReconciliationState]
}

// NewReconciliation builds the six-stage reconciliation pipeline. gen and
// renderer may be nil; the narrative and the rendered artifacts are then
// skipped.
func NewReconciliation(store ReconciliationStore, gen Generator, renderer Renderer, cfg config.Config, collector *metrics.Collector) *Reconciliation {
	p := &Reconciliation{
		store:                  store,
		gen:                    gen,
		renderer:               renderer,
		dateToleranceDays:      cfg.DateToleranceDays,
		amountTolerancePercent: cfg.AmountTolerancePercent,
		reportsDir:             filepath.Join(cfg.StoragePath, "reports"),
	}

	p.exec = NewExecutor("reconciliation", []Stage[*ReconciliationState]{
		{Name: "load_client_data", Status: "data_loaded", Run: p.loadClientData},
		{Name: "match_transactions", Status: "matched", Run: p.matchTransactions},
		{Name: "detect_issues", Status: "issues_detected", Run: p.detectIssues},
		{Name: "generate_working_papers", Status: "working_papers_generated", Run: p.generateWorkingPapers},
		{Name: "generate_compliance_summary", Status: "compliance_generated", Run: p.generateComplianceSummary},
		{Name: "export_reports", Status: "exported", Run: p.exportReports},
	}, collector)

	return p
}

// Run executes the reconciliation pipeline for one client. Every
// invocation opens a fresh run record; a failed run keeps its record with
// the failing stage's message.
func (p *Reconciliation) Run(ctx context.Context, clientID string) (ReconciliationResult, Outcome) {
	run, err := p.store.CreateRun(ctx, clientID)
	if err != nil {
		return ReconciliationResult{
			ClientID: clientID,
			Status:   StatusFailed,
			Error:    err.Error(),
		}, Failed(err)
	}

	state := &ReconciliationState{ClientID: clientID, RunID: run.ID}
	if err := p.exec.Execute(ctx, state); err != nil {
		if dbErr := p.store.FailRun(ctx, run.ID, state.Err); dbErr != nil {
			slog.Warn("failed to mark run failed", "run_id", run.ID, "error", dbErr)
		}
		return p.result(state), Failed(err)
	}

	return p.result(state), Completed()
}

func (p *Reconciliation) result(state *ReconciliationState) ReconciliationResult {
	return ReconciliationResult{
		ClientID:   state.ClientID,
		RunID:      state.RunID,
		Status:     state.Status,
		Metrics:    state.Metrics,
		IssueCount: len(state.Issues),
		Error:      state.Err,
	}
}

func (p *Reconciliation) loadClientData(ctx context.Context, state *ReconciliationState) error {
	bank, err := p.store.ListTransactions(ctx, state.ClientID, models.SourceBank)
	if err != nil {
		return err
	}
	invoices, err := p.store.ListTransactions(ctx, state.ClientID, models.SourceInvoice)
	if err != nil {
		return err
	}
	gst, err := p.store.ListGSTSummaries(ctx, state.ClientID)
	if err != nil {
		return err
	}

	state.Bank = bank
	state.Invoices = invoices
	state.GSTSummaries = gst
	return nil
}

func (p *Reconciliation) matchTransactions(ctx context.Context, state *ReconciliationState) error {
	if len(state.Bank) == 0 || len(state.Invoices) == 0 {
		state.UnmatchedBank = state.Bank
		state.UnmatchedInvoices = state.Invoices
	} else {
		state.Matches, state.UnmatchedBank, state.UnmatchedInvoices = recon.Match(
			state.Bank, state.Invoices,
			p.dateToleranceDays, p.amountTolerancePercent)
	}

	all := make([]models.Transaction, 0, len(state.Bank)+len(state.Invoices))
	all = append(all, state.Bank...)
	all = append(all, state.Invoices...)
	state.Duplicates = recon.DetectDuplicates(all)
	return nil
}

func (p *Reconciliation) detectIssues(ctx context.Context, state *ReconciliationState) error {
	// Declared GST figures are compared against invoice totals bucketed
	// by calendar month of the invoice date.
	invoiceTotals := make(map[string]decimal.Decimal)
	for _, inv := range state.Invoices {
		if inv.Date.IsZero() {
			continue
		}
		period := inv.Date.Format("2006-01")
		invoiceTotals[period] = invoiceTotals[period].Add(inv.AbsAmount())
	}

	issues := recon.ScoreIssues(
		state.Matches,
		state.UnmatchedBank, state.UnmatchedInvoices,
		state.Duplicates,
		state.GSTSummaries,
		invoiceTotals)

	for i := range issues {
		issues[i].ClientID = state.ClientID
		issues[i].RunID = state.RunID
	}

	state.Issues = issues
	state.IssueSummary = models.SummarizeIssues(issues)
	return nil
}

func (p *Reconciliation) generateWorkingPapers(ctx context.Context, state *ReconciliationState) error {
	state.WorkingPapersMD = buildWorkingPapers(state, time.Now())
	return nil
}

func (p *Reconciliation) generateComplianceSummary(ctx context.Context, state *ReconciliationState) error {
	narrative := ""
	if p.gen != nil {
		prompt := fmt.Sprintf(`Based on the following reconciliation data, write a 2-paragraph executive narrative:

Client: %s
Total Issues: %d
High Severity Issues: %d
Bank Transactions: %d
Invoices: %d
Matched: %d

Write a professional summary for CA review.`,
			state.ClientID,
			state.IssueSummary.Total,
			state.IssueSummary.BySeverity[models.SeverityHigh],
			len(state.Bank), len(state.Invoices), len(state.Matches))

		text, err := p.gen.Generate(ctx, prompt)
		if err != nil {
			slog.Warn("llm narrative failed", "run_id", state.RunID, "error", err)
		} else {
			narrative = text
		}
	}

	state.ComplianceMD = buildComplianceSummary(state, narrative, time.Now())
	return nil
}

func (p *Reconciliation) exportReports(ctx context.Context, state *ReconciliationState) error {
	if p.renderer != nil {
		dir := filepath.Join(p.reportsDir, state.RunID)

		path, err := p.renderer.WriteReport(dir, "working_papers", "Working Papers", state.WorkingPapersMD)
		if err != nil {
			slog.Warn("working papers rendering failed", "run_id", state.RunID, "error", err)
		} else {
			state.WorkingPapersPath = path
		}

		path, err = p.renderer.WriteReport(dir, "compliance_summary", "Compliance Summary", state.ComplianceMD)
		if err != nil {
			slog.Warn("compliance summary rendering failed", "run_id", state.RunID, "error", err)
		} else {
			state.CompliancePath = path
		}
	}

	if _, err := p.store.SaveReport(ctx, models.Report{
		ClientID:     state.ClientID,
		RunID:        state.RunID,
		Type:         models.ReportWorkingPapers,
		ContentMD:    state.WorkingPapersMD,
		RenderedPath: state.WorkingPapersPath,
	}); err != nil {
		return err
	}
	if _, err := p.store.SaveReport(ctx, models.Report{
		ClientID:     state.ClientID,
		RunID:        state.RunID,
		Type:         models.ReportComplianceSummary,
		ContentMD:    state.ComplianceMD,
		RenderedPath: state.CompliancePath,
	}); err != nil {
		return err
	}

	if err := p.store.SaveIssues(ctx, state.ClientID, state.Issues); err != nil {
		return err
	}

	bankTotal, invoiceTotal := 0.0, 0.0
	for _, t := range state.Bank {
		bankTotal += t.AbsAmount().InexactFloat64()
	}
	for _, t := range state.Invoices {
		invoiceTotal += t.AbsAmount().InexactFloat64()
	}
	state.Metrics = &models.RunMetrics{
		BankCount:             len(state.Bank),
		InvoiceCount:          len(state.Invoices),
		MatchedCount:          len(state.Matches),
		UnmatchedBankCount:    len(state.UnmatchedBank),
		UnmatchedInvoiceCount: len(state.UnmatchedInvoices),
		IssueCount:            len(state.Issues),
		BankTotal:             bankTotal,
		InvoiceTotal:          invoiceTotal,
	}

	return p.store.CompleteRun(ctx, state.RunID, *state.Metrics)
}
