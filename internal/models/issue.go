package models

import "time"

// IssueSeverity ranks how urgently a finding needs human review.
// Wire values match the review UI and stored records.
type IssueSeverity string

const (
	SeverityLow    IssueSeverity = "low"
	SeverityMedium IssueSeverity = "med"
	SeverityHigh   IssueSeverity = "high"
)

// IssueCategory classifies what kind of discrepancy was found.
type IssueCategory string

const (
	CategoryMissingInvoice IssueCategory = "missing_invoice"
	CategoryDuplicate      IssueCategory = "duplicate"
	CategoryMismatch       IssueCategory = "mismatch"
	CategoryGSTMismatch    IssueCategory = "gst_mismatch"
	CategoryOther          IssueCategory = "other"
)

// IssueStatus is the human-review lifecycle of a finding, independent of
// the run that created it.
type IssueStatus string

const (
	IssueOpen     IssueStatus = "open"
	IssueAccepted IssueStatus = "accepted"
	IssueResolved IssueStatus = "resolved"
)

// CanTransition reports whether a review action may move an issue from the
// current status to the target status:
//
//	open     -> accepted, resolved
//	accepted -> resolved, open
//	resolved -> open
func (s IssueStatus) CanTransition(to IssueStatus) bool {
	switch s {
	case IssueOpen:
		return to == IssueAccepted || to == IssueResolved
	case IssueAccepted:
		return to == IssueResolved || to == IssueOpen
	case IssueResolved:
		return to == IssueOpen
	}
	return false
}

// Issue is a persisted finding produced by the issue scorer at the end of
// a reconciliation run. Status is mutated only by human review action.
type Issue struct {
	ID       string        `json:"id"`
	ClientID string        `json:"client_id"`
	RunID    string        `json:"run_id"`
	Severity IssueSeverity `json:"severity"`
	Category IssueCategory `json:"category"`
	Title    string        `json:"title"`
	// Details carries the structured payload, including a human
	// recommendation string under the "recommendation" key.
	Details   map[string]any `json:"details_json,omitempty"`
	Status    IssueStatus    `json:"status"`
	CreatedAt time.Time      `json:"created_at,omitempty"`
}

// IssueSummary aggregates issue counts for reporting.
type IssueSummary struct {
	Total      int                   `json:"total_issues"`
	BySeverity map[IssueSeverity]int `json:"by_severity"`
	ByCategory map[IssueCategory]int `json:"by_category"`
}

// SummarizeIssues tallies issues by severity and category.
func SummarizeIssues(issues []Issue) IssueSummary {
	s := IssueSummary{
		Total: len(issues),
		BySeverity: map[IssueSeverity]int{
			SeverityHigh: 0, SeverityMedium: 0, SeverityLow: 0,
		},
		ByCategory: map[IssueCategory]int{
			CategoryMissingInvoice: 0, CategoryDuplicate: 0, CategoryMismatch: 0,
			CategoryGSTMismatch: 0, CategoryOther: 0,
		},
	}
	for _, i := range issues {
		s.BySeverity[i.Severity]++
		s.ByCategory[i.Category]++
	}
	return s
}
