// Package recon implements the reconciliation engine: transaction matching,
// duplicate detection and issue scoring. Everything in this package is a pure
// function of its inputs.
package recon

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/piyushxpc7/LedgerlyAI/internal/models"
)

// MatchType distinguishes strict-equality matches from weighted-score matches.
type MatchType string

const (
	MatchExact MatchType = "exact"
	MatchFuzzy MatchType = "fuzzy"
)

// fuzzyThreshold is the minimum confidence a fuzzy candidate must exceed.
const fuzzyThreshold = 0.7

// exactAmountTolerance is the absolute amount slack allowed for an exact match.
var exactAmountTolerance = decimal.NewFromFloat(0.01)

// MatchResult pairs one bank transaction with one invoice transaction.
// Ephemeral: produced per reconciliation run.
type MatchResult struct {
	BankID     string         `json:"bank_txn_id"`
	InvoiceID  string         `json:"invoice_txn_id"`
	Confidence float64        `json:"confidence"`
	Type       MatchType      `json:"match_type"`
	Details    map[string]any `json:"details"`
}

// Match pairs bank-side and invoice-side transactions in two greedy phases:
// exact first (amount within a cent, same calendar day, references equal or
// both absent), then fuzzy (weighted confidence above the 0.7 threshold).
// Greedy and order dependent on purpose: both lists are processed in date
// order, stable on input order for ties, so earlier-dated bank entries get
// first pick. Not a minimum-cost assignment solver.
//
// Returns the matches plus the bank and invoice transactions left unconsumed.
func Match(
	bank, invoices []models.Transaction,
	dateToleranceDays int,
	amountTolerancePercent float64,
) ([]MatchResult, []models.Transaction, []models.Transaction) {
	bankTxns := sortByDate(bank)
	invTxns := sortByDate(invoices)

	var matches []MatchResult
	matchedBank := make(map[string]bool)
	matchedInv := make(map[string]bool)

	// Phase 1: exact matches.
	for _, b := range bankTxns {
		if matchedBank[b.ID] {
			continue
		}
		for _, inv := range invTxns {
			if matchedInv[inv.ID] {
				continue
			}
			if !isExactMatch(b, inv) {
				continue
			}
			matches = append(matches, MatchResult{
				BankID:     b.ID,
				InvoiceID:  inv.ID,
				Confidence: 1.0,
				Type:       MatchExact,
				Details:    matchDetails(b, inv),
			})
			matchedBank[b.ID] = true
			matchedInv[inv.ID] = true
			break
		}
	}

	// Phase 2: fuzzy matches. Each remaining bank transaction takes the single
	// best-scoring invoice above the threshold; ties keep the earlier invoice.
	for _, b := range bankTxns {
		if matchedBank[b.ID] {
			continue
		}

		var best *models.Transaction
		bestConfidence := 0.0
		for i := range invTxns {
			inv := invTxns[i]
			if matchedInv[inv.ID] {
				continue
			}
			c := matchConfidence(b, inv, dateToleranceDays, amountTolerancePercent)
			if c > fuzzyThreshold && c > bestConfidence {
				bestConfidence = c
				best = &invTxns[i]
			}
		}

		if best != nil {
			details := matchDetails(b, *best)
			details["confidence_score"] = bestConfidence
			matches = append(matches, MatchResult{
				BankID:     b.ID,
				InvoiceID:  best.ID,
				Confidence: bestConfidence,
				Type:       MatchFuzzy,
				Details:    details,
			})
			matchedBank[b.ID] = true
			matchedInv[best.ID] = true
		}
	}

	var unmatchedBank, unmatchedInv []models.Transaction
	for _, b := range bankTxns {
		if !matchedBank[b.ID] {
			unmatchedBank = append(unmatchedBank, b)
		}
	}
	for _, inv := range invTxns {
		if !matchedInv[inv.ID] {
			unmatchedInv = append(unmatchedInv, inv)
		}
	}

	return matches, unmatchedBank, unmatchedInv
}

// isExactMatch requires amounts within a cent of each other (absolute
// values), the same calendar date, and either equal non-empty references or
// no reference on both sides.
func isExactMatch(b, inv models.Transaction) bool {
	if b.AbsAmount().Sub(inv.AbsAmount()).Abs().Cmp(exactAmountTolerance) > 0 {
		return false
	}

	if b.Date.IsZero() || inv.Date.IsZero() {
		return false
	}
	if !sameCalendarDay(b.Date, inv.Date) {
		return false
	}

	bankRef := normalizeRef(b.ReferenceID)
	invRef := normalizeRef(inv.ReferenceID)

	if bankRef != "" && invRef != "" {
		return bankRef == invRef
	}
	// Amount and date already agree; only acceptable without references when
	// neither side carries one.
	return bankRef == "" && invRef == ""
}

// matchConfidence scores a bank/invoice pair in [0,1]. Weights: amount 0.4,
// date 0.3, reference 0.2, description 0.1. A relative amount difference
// beyond the tolerance is a hard cutoff: the pair scores zero outright.
func matchConfidence(b, inv models.Transaction, dateToleranceDays int, amountTolerancePercent float64) float64 {
	bankAmt := b.AbsAmount()
	invAmt := inv.AbsAmount()
	if bankAmt.IsZero() || invAmt.IsZero() {
		return 0
	}

	maxAmt := decimal.Max(bankAmt, invAmt)
	diffPct, _ := bankAmt.Sub(invAmt).Abs().Div(maxAmt).Float64()
	if diffPct > amountTolerancePercent {
		return 0
	}

	confidence := 0.4 * (1 - diffPct/amountTolerancePercent)

	if !b.Date.IsZero() && !inv.Date.IsZero() && dateToleranceDays > 0 {
		gap := dayGap(b.Date, inv.Date)
		if gap <= dateToleranceDays {
			confidence += 0.3 * (1 - float64(gap)/float64(dateToleranceDays))
		}
	}

	bankRef := normalizeRef(b.ReferenceID)
	invRef := normalizeRef(inv.ReferenceID)
	if bankRef != "" && invRef != "" {
		switch {
		case bankRef == invRef:
			confidence += 0.2
		case strings.Contains(bankRef, invRef) || strings.Contains(invRef, bankRef):
			confidence += 0.1
		}
	}

	confidence += 0.1 * descriptionOverlap(b.Description, inv.Description)

	return confidence
}

// descriptionOverlap is the Jaccard overlap of lower-cased word sets.
func descriptionOverlap(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	setA := tokenSet(a)
	setB := tokenSet(b)

	common := 0
	for w := range setA {
		if setB[w] {
			common++
		}
	}
	union := len(setB)
	for w := range setA {
		if !setB[w] {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(common) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = true
	}
	return set
}

func normalizeRef(ref string) string {
	return strings.ToLower(strings.TrimSpace(ref))
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// dayGap returns the absolute difference in calendar days.
func dayGap(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	gap := int(db.Sub(da).Hours() / 24)
	if gap < 0 {
		gap = -gap
	}
	return gap
}

// sortByDate returns a copy sorted by date ascending, stable so input order
// breaks ties.
func sortByDate(txns []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, len(txns))
	copy(out, txns)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func matchDetails(b, inv models.Transaction) map[string]any {
	return map[string]any{
		"bank_amount":    b.Amount.InexactFloat64(),
		"invoice_amount": inv.Amount.InexactFloat64(),
		"bank_date":      b.Date.Format("2006-01-02"),
		"invoice_date":   inv.Date.Format("2006-01-02"),
	}
}
