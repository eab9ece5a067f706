package models

import "time"

// RunStatus tracks a reconciliation run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunMetrics are the headline numbers of a completed reconciliation run.
type RunMetrics struct {
	BankCount             int     `json:"bank_transactions"`
	InvoiceCount          int     `json:"invoice_transactions"`
	MatchedCount          int     `json:"matched_count"`
	UnmatchedBankCount    int     `json:"unmatched_bank"`
	UnmatchedInvoiceCount int     `json:"unmatched_invoices"`
	IssueCount            int     `json:"issues_count"`
	BankTotal             float64 `json:"bank_total"`
	InvoiceTotal          float64 `json:"invoice_total"`
}

// ReconciliationRun tracks one reconciliation pipeline invocation for a client.
type ReconciliationRun struct {
	ID           string      `json:"id"`
	ClientID     string      `json:"client_id"`
	Status       RunStatus   `json:"status"`
	StartedAt    *time.Time  `json:"started_at,omitempty"`
	EndedAt      *time.Time  `json:"ended_at,omitempty"`
	Metrics      *RunMetrics `json:"metrics_json,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
	CreatedAt    time.Time   `json:"created_at,omitempty"`
}

// ReportType distinguishes the two generated report kinds.
type ReportType string

const (
	ReportWorkingPapers     ReportType = "working_papers"
	ReportComplianceSummary ReportType = "compliance_summary"
)

// Report is a generated markdown report plus an optional rendered artifact.
type Report struct {
	ID        string     `json:"id"`
	ClientID  string     `json:"client_id"`
	RunID     string     `json:"run_id"`
	Type      ReportType `json:"type"`
	ContentMD string     `json:"content_md"`
	// RenderedPath references the rendered artifact produced by the
	// render collaborator; empty when rendering was unavailable.
	RenderedPath string    `json:"content_pdf_url,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}
