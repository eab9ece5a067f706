package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/piyushxpc7/LedgerlyAI/internal/models"
)

// Table row caps keep the generated documents reviewable.
const (
	matchTableLimit        = 20
	unmatchedTableLimit    = 15
	issuesPerSeverityLimit = 10
)

// formatAmount renders a monetary value with thousands separators and two
// decimals, e.g. 1234567.5 -> "1,234,567.50".
func formatAmount(f float64) string {
	s := fmt.Sprintf("%.2f", f)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	return sign + b.String() + "." + fracPart
}

// buildWorkingPapers renders the working papers markdown: transaction
// totals, the match table, unmatched bank entries and declared GST figures.
func buildWorkingPapers(s *ReconciliationState, generatedAt time.Time) string {
	var md []string
	md = append(md, fmt.Sprintf("# Working Papers - %s", s.ClientID))
	md = append(md, fmt.Sprintf("\n**Run ID:** %s", s.RunID))
	md = append(md, fmt.Sprintf("\n**Generated:** %s", generatedAt.Format("2006-01-02 15:04:05")))
	md = append(md, "\n")

	md = append(md, "## Bank Transactions Summary")
	if len(s.Bank) > 0 {
		credits, debits := 0.0, 0.0
		for _, t := range s.Bank {
			amount := t.Amount.InexactFloat64()
			if amount > 0 {
				credits += amount
			} else {
				debits += -amount
			}
		}
		md = append(md, fmt.Sprintf("\n- **Total Transactions:** %d", len(s.Bank)))
		md = append(md, fmt.Sprintf("- **Total Credits:** ₹%s", formatAmount(credits)))
		md = append(md, fmt.Sprintf("- **Total Debits:** ₹%s", formatAmount(debits)))
	} else {
		md = append(md, "\nNo bank transactions found.")
	}

	md = append(md, "\n## Invoice Summary")
	if len(s.Invoices) > 0 {
		invoiced := 0.0
		for _, t := range s.Invoices {
			invoiced += t.AbsAmount().InexactFloat64()
		}
		md = append(md, fmt.Sprintf("\n- **Total Invoices:** %d", len(s.Invoices)))
		md = append(md, fmt.Sprintf("- **Total Invoiced Amount:** ₹%s", formatAmount(invoiced)))
	} else {
		md = append(md, "\nNo invoices found.")
	}

	md = append(md, "\n## Reconciliation Results")
	md = append(md, fmt.Sprintf("\n- **Matched Transactions:** %d", len(s.Matches)))
	md = append(md, fmt.Sprintf("- **Unmatched Bank Entries:** %d", len(s.UnmatchedBank)))
	md = append(md, fmt.Sprintf("- **Unmatched Invoices:** %d", len(s.UnmatchedInvoices)))

	if len(s.Matches) > 0 {
		md = append(md, "\n### Matched Transactions")
		md = append(md, "\n| Bank Amount | Invoice Amount | Confidence | Type |")
		md = append(md, "|-------------|----------------|------------|------|")
		for i, m := range s.Matches {
			if i == matchTableLimit {
				break
			}
			bankAmt, _ := m.Details["bank_amount"].(float64)
			invAmt, _ := m.Details["invoice_amount"].(float64)
			md = append(md, fmt.Sprintf("| ₹%s | ₹%s | %.0f%% | %s |",
				formatAmount(bankAmt), formatAmount(invAmt), m.Confidence*100, m.Type))
		}
	}

	if len(s.UnmatchedBank) > 0 {
		md = append(md, "\n### Unmatched Bank Entries")
		md = append(md, "\n| Date | Amount | Description |")
		md = append(md, "|------|--------|-------------|")
		for i, t := range s.UnmatchedBank {
			if i == unmatchedTableLimit {
				break
			}
			desc := t.Description
			if desc == "" {
				desc = "N/A"
			}
			md = append(md, fmt.Sprintf("| %s | ₹%s | %s |",
				t.Date.Format("2006-01-02"), formatAmount(t.Amount.InexactFloat64()), truncate(desc, 50)))
		}
	}

	if len(s.GSTSummaries) > 0 {
		md = append(md, "\n## GST Summary")
		md = append(md, "\n| Period | Taxable Value | Tax Amount |")
		md = append(md, "|--------|---------------|------------|")
		for _, g := range s.GSTSummaries {
			md = append(md, fmt.Sprintf("| %s | ₹%s | ₹%s |",
				g.Period,
				formatAmount(g.TaxableValue.InexactFloat64()),
				formatAmount(g.TaxAmount.InexactFloat64())))
		}
	}

	return strings.Join(md, "\n")
}

// buildComplianceSummary renders the compliance summary markdown:
// disclaimer, executive summary, category counts and the issues grouped
// by severity. The optional LLM narrative goes in right after the header.
func buildComplianceSummary(s *ReconciliationState, narrative string, generatedAt time.Time) string {
	var md []string
	md = append(md, fmt.Sprintf("# Compliance Summary - %s", s.ClientID))
	md = append(md, fmt.Sprintf("\n**Generated:** %s", generatedAt.Format("2006-01-02 15:04:05")))
	md = append(md, "\n")

	md = append(md, "> ⚠️ **DISCLAIMER:** This summary is generated for preparation and workflow automation purposes only. ")
	md = append(md, "> It does NOT constitute tax filing, certification, or legal opinion.")
	md = append(md, "\n")

	if narrative != "" {
		md = append(md, "\n"+narrative+"\n")
	}

	md = append(md, "## Executive Summary")
	highCount := s.IssueSummary.BySeverity[models.SeverityHigh]
	if s.IssueSummary.Total == 0 {
		md = append(md, "\n✅ No issues detected. All transactions reconciled successfully.")
	} else {
		md = append(md, fmt.Sprintf("\n⚠️ **%d issue(s) detected** requiring attention.", s.IssueSummary.Total))
		if highCount > 0 {
			md = append(md, fmt.Sprintf("\n🔴 **%d high severity issue(s)** require immediate review.", highCount))
		}
	}

	md = append(md, "\n## Issue Summary")
	md = append(md, "\n| Category | Count |")
	md = append(md, "|----------|-------|")
	for _, cat := range []models.IssueCategory{
		models.CategoryMissingInvoice, models.CategoryDuplicate,
		models.CategoryMismatch, models.CategoryGSTMismatch, models.CategoryOther,
	} {
		if count := s.IssueSummary.ByCategory[cat]; count > 0 {
			md = append(md, fmt.Sprintf("| %s | %d |", categoryLabel(cat), count))
		}
	}

	if len(s.Issues) > 0 {
		md = append(md, "\n## Detailed Issues")

		severityLabels := []struct {
			severity models.IssueSeverity
			label    string
		}{
			{models.SeverityHigh, "🔴 High"},
			{models.SeverityMedium, "🟡 Medium"},
			{models.SeverityLow, "🟢 Low"},
		}
		for _, band := range severityLabels {
			var banded []models.Issue
			for _, issue := range s.Issues {
				if issue.Severity == band.severity {
					banded = append(banded, issue)
				}
			}
			if len(banded) == 0 {
				continue
			}

			md = append(md, fmt.Sprintf("\n### %s Severity", band.label))
			for i, issue := range banded {
				if i == issuesPerSeverityLimit {
					break
				}
				md = append(md, fmt.Sprintf("\n**%d. %s**", i+1, issue.Title))
				md = append(md, fmt.Sprintf("- Category: %s", issue.Category))
				if rec, ok := issue.Details["recommendation"].(string); ok && rec != "" {
					md = append(md, fmt.Sprintf("- Recommendation: %s", rec))
				}
			}
		}
	}

	return strings.Join(md, "\n")
}

// categoryLabel turns a wire category into a heading, e.g.
// "missing_invoice" -> "Missing Invoice".
func categoryLabel(cat models.IssueCategory) string {
	words := strings.Split(string(cat), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
