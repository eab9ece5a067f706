package recon

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/piyushxpc7/LedgerlyAI/internal/models"
)

func TestScoreMissingInvoice(t *testing.T) {
	unmatched := []models.Transaction{
		bankTxn("b1", "2024-03-01", 50000.00),
		bankTxn("b2", "2024-03-02", 99.00), // under the materiality floor
	}

	issues := ScoreIssues(nil, unmatched, nil, nil, nil, nil)
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(issues))
	}
	i := issues[0]
	if i.Category != models.CategoryMissingInvoice {
		t.Errorf("category = %s, want missing_invoice", i.Category)
	}
	if i.Severity != models.SeverityMedium {
		t.Errorf("severity = %s, want med", i.Severity)
	}
	if i.Status != models.IssueOpen {
		t.Errorf("status = %s, want open", i.Status)
	}
	if _, ok := i.Details["recommendation"]; !ok {
		t.Error("details missing recommendation")
	}
}

func TestScoreUnreconciledInvoice(t *testing.T) {
	unmatched := []models.Transaction{invTxn("i1", "2024-03-01", -250.00)}

	issues := ScoreIssues(nil, nil, unmatched, nil, nil, nil)
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(issues))
	}
	if issues[0].Category != models.CategoryMismatch {
		t.Errorf("category = %s, want mismatch", issues[0].Category)
	}
	if issues[0].Severity != models.SeverityLow {
		t.Errorf("severity = %s, want low", issues[0].Severity)
	}
}

func TestAmountSeverityBoundaries(t *testing.T) {
	tests := []struct {
		amount float64
		want   models.IssueSeverity
	}{
		{100000.00, models.SeverityMedium}, // strictly greater-than, not at
		{100000.01, models.SeverityHigh},
		{10000.00, models.SeverityLow},
		{10000.01, models.SeverityMedium},
		{-200000.00, models.SeverityHigh}, // sign is irrelevant
		{500.00, models.SeverityLow},
	}

	for _, tt := range tests {
		got := amountSeverity(decimal.NewFromFloat(tt.amount))
		if got != tt.want {
			t.Errorf("amountSeverity(%v) = %s, want %s", tt.amount, got, tt.want)
		}
	}
}

func TestScoreDuplicateGroups(t *testing.T) {
	groups := []DuplicateGroup{
		{
			Key:     "500|2024-01-05",
			Members: []models.Transaction{bankTxn("t1", "2024-01-05", 500), bankTxn("t2", "2024-01-05", -500)},
			Count:   2,
		},
	}

	issues := ScoreIssues(nil, nil, nil, groups, nil, nil)
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(issues))
	}
	i := issues[0]
	if i.Category != models.CategoryDuplicate || i.Severity != models.SeverityMedium {
		t.Errorf("got %s/%s, want duplicate/med", i.Category, i.Severity)
	}
	if total := i.Details["total_amount"].(float64); total != 1000 {
		t.Errorf("total_amount = %v, want 1000 (absolute values)", total)
	}
}

func TestScoreGSTMismatchBoundaries(t *testing.T) {
	tests := []struct {
		name         string
		invoiceTotal float64
		wantIssues   int
		wantSeverity models.IssueSeverity
	}{
		{"just over one percent", 101500, 1, models.SeverityMedium}, // 1.5%
		{"over five percent", 106000, 1, models.SeverityHigh},       // 6%
		{"under one percent", 100900, 0, ""},                        // 0.9%
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gst := []models.GSTSummary{{
				Period:       "2024-03",
				TaxableValue: decimal.NewFromInt(100000),
			}}
			totals := map[string]decimal.Decimal{
				"2024-03": decimal.NewFromFloat(tt.invoiceTotal),
			}

			issues := ScoreIssues(nil, nil, nil, nil, gst, totals)
			if len(issues) != tt.wantIssues {
				t.Fatalf("got %d issues, want %d", len(issues), tt.wantIssues)
			}
			if tt.wantIssues == 1 {
				if issues[0].Category != models.CategoryGSTMismatch {
					t.Errorf("category = %s, want gst_mismatch", issues[0].Category)
				}
				if issues[0].Severity != tt.wantSeverity {
					t.Errorf("severity = %s, want %s", issues[0].Severity, tt.wantSeverity)
				}
			}
		})
	}
}

func TestScoreGSTSkipsIncomparablePeriods(t *testing.T) {
	gst := []models.GSTSummary{
		{Period: "2024-01", TaxableValue: decimal.NewFromInt(50000)}, // no invoice total
		{Period: "2024-02", TaxableValue: decimal.Zero},              // declared zero
	}
	totals := map[string]decimal.Decimal{"2024-02": decimal.NewFromInt(80000)}

	if issues := ScoreIssues(nil, nil, nil, nil, gst, totals); len(issues) != 0 {
		t.Errorf("got %d issues, want 0", len(issues))
	}
}

func TestScoreLowConfidenceMatches(t *testing.T) {
	matches := []MatchResult{
		{BankID: "b1", InvoiceID: "i1", Confidence: 0.75, Type: MatchFuzzy},
		{BankID: "b2", InvoiceID: "i2", Confidence: 0.92, Type: MatchFuzzy},
		{BankID: "b3", InvoiceID: "i3", Confidence: 1.0, Type: MatchExact},
	}

	issues := ScoreIssues(matches, nil, nil, nil, nil, nil)
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(issues))
	}
	i := issues[0]
	if i.Category != models.CategoryOther || i.Severity != models.SeverityLow {
		t.Errorf("got %s/%s, want other/low", i.Category, i.Severity)
	}
	if i.Details["bank_txn_id"] != "b1" {
		t.Errorf("flagged wrong match: %v", i.Details["bank_txn_id"])
	}
}
