package recon

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/piyushxpc7/LedgerlyAI/internal/models"
)

// Amount thresholds for the scorer, in currency units.
var (
	// materialityFloor: unmatched transactions at or below this are ignored.
	materialityFloor = decimal.NewFromInt(100)
	// severity bands for missing-invoice / unreconciled rules, strictly greater-than.
	severityHighAbove   = decimal.NewFromInt(100000)
	severityMediumAbove = decimal.NewFromInt(10000)
)

// lowConfidenceThreshold flags fuzzy matches that need manual verification.
const lowConfidenceThreshold = 0.85

// ScoreIssues turns matcher and duplicate output plus declared tax summaries
// into review findings. Five independent rules; one transaction can trigger
// at most one issue per rule. Deterministic, no side effects. Client/run
// identifiers are left for the caller to fill in before persistence.
func ScoreIssues(
	matches []MatchResult,
	unmatchedBank, unmatchedInvoices []models.Transaction,
	duplicates []DuplicateGroup,
	gstSummaries []models.GSTSummary,
	invoiceTotalsByPeriod map[string]decimal.Decimal,
) []models.Issue {
	var issues []models.Issue

	// Rule 1: bank transactions with no matching invoice.
	for _, t := range unmatchedBank {
		if t.AbsAmount().Cmp(materialityFloor) <= 0 {
			continue
		}
		issues = append(issues, models.Issue{
			Category: models.CategoryMissingInvoice,
			Severity: amountSeverity(t.Amount),
			Title:    "Missing invoice for bank transaction",
			Status:   models.IssueOpen,
			Details: map[string]any{
				"bank_transaction": map[string]any{
					"id":          t.ID,
					"date":        t.Date.Format("2006-01-02"),
					"amount":      t.Amount.InexactFloat64(),
					"description": t.Description,
					"reference":   t.ReferenceID,
				},
				"recommendation": "Locate the corresponding invoice or document this as a non-invoice transaction.",
			},
		})
	}

	// Rule 2: invoices with no bank entry.
	for _, t := range unmatchedInvoices {
		if t.AbsAmount().Cmp(materialityFloor) <= 0 {
			continue
		}
		issues = append(issues, models.Issue{
			Category: models.CategoryMismatch,
			Severity: amountSeverity(t.Amount),
			Title:    "Invoice not found in bank statement",
			Status:   models.IssueOpen,
			Details: map[string]any{
				"invoice": map[string]any{
					"id":           t.ID,
					"date":         t.Date.Format("2006-01-02"),
					"amount":       t.Amount.InexactFloat64(),
					"reference":    t.ReferenceID,
					"counterparty": t.Counterparty,
				},
				"recommendation": "Verify payment status or check for recording errors.",
			},
		})
	}

	// Rule 3: duplicate groups.
	for _, g := range duplicates {
		total := decimal.Zero
		memberDetails := make([]map[string]any, 0, len(g.Members))
		for _, t := range g.Members {
			total = total.Add(t.AbsAmount())
			memberDetails = append(memberDetails, map[string]any{
				"id":          t.ID,
				"date":        t.Date.Format("2006-01-02"),
				"amount":      t.Amount.InexactFloat64(),
				"description": t.Description,
			})
		}
		issues = append(issues, models.Issue{
			Category: models.CategoryDuplicate,
			Severity: g.Severity(),
			Title:    fmt.Sprintf("Potential duplicate transactions detected (%d entries)", g.Count),
			Status:   models.IssueOpen,
			Details: map[string]any{
				"duplicate_key":  g.Key,
				"count":          g.Count,
				"total_amount":   total.InexactFloat64(),
				"transactions":   memberDetails,
				"recommendation": "Review and remove duplicate entries if confirmed.",
			},
		})
	}

	// Rule 4: declared GST vs invoiced totals, per period.
	for _, gst := range gstSummaries {
		invoiceTotal, ok := invoiceTotalsByPeriod[gst.Period]
		if !ok {
			continue
		}
		if gst.TaxableValue.Sign() <= 0 || invoiceTotal.Sign() <= 0 {
			continue
		}

		diff := gst.TaxableValue.Sub(invoiceTotal).Abs()
		diffPct, _ := diff.Div(decimal.Max(gst.TaxableValue, invoiceTotal)).Mul(decimal.NewFromInt(100)).Float64()
		if diffPct <= 1 {
			continue
		}

		severity := models.SeverityMedium
		if diffPct > 5 {
			severity = models.SeverityHigh
		}
		issues = append(issues, models.Issue{
			Category: models.CategoryGSTMismatch,
			Severity: severity,
			Title:    fmt.Sprintf("GST filing mismatch for period %s", gst.Period),
			Status:   models.IssueOpen,
			Details: map[string]any{
				"period":             gst.Period,
				"gst_declared":       gst.TaxableValue.InexactFloat64(),
				"invoice_total":      invoiceTotal.InexactFloat64(),
				"difference":         diff.InexactFloat64(),
				"difference_percent": roundTo2(diffPct),
				"recommendation":     "Reconcile GST returns with invoice records.",
			},
		})
	}

	// Rule 5: fuzzy matches below the manual-verification threshold.
	for _, m := range matches {
		if m.Type != MatchFuzzy || m.Confidence >= lowConfidenceThreshold {
			continue
		}
		issues = append(issues, models.Issue{
			Category: models.CategoryOther,
			Severity: models.SeverityLow,
			Title:    "Low confidence transaction match",
			Status:   models.IssueOpen,
			Details: map[string]any{
				"bank_txn_id":    m.BankID,
				"invoice_txn_id": m.InvoiceID,
				"confidence":     m.Confidence,
				"details":        m.Details,
				"recommendation": "Manually verify this match is correct.",
			},
		})
	}

	return issues
}

// amountSeverity maps an absolute amount to a severity band. Thresholds are
// strictly greater-than: exactly 100000 is still medium.
func amountSeverity(amount decimal.Decimal) models.IssueSeverity {
	abs := amount.Abs()
	switch {
	case abs.Cmp(severityHighAbove) > 0:
		return models.SeverityHigh
	case abs.Cmp(severityMediumAbove) > 0:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func roundTo2(f float64) float64 {
	d := decimal.NewFromFloat(f).Round(2)
	return d.InexactFloat64()
}
