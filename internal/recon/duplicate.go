package recon

import (
	"github.com/piyushxpc7/LedgerlyAI/internal/models"
)

// DuplicateGroup collects transactions that look like accidental re-entries:
// same amount (rounded to the cent) on the same calendar day, regardless of
// source. Ephemeral, same lifecycle as MatchResult.
type DuplicateGroup struct {
	Key     string               `json:"key"`
	Members []models.Transaction `json:"transactions"`
	Count   int                  `json:"count"`
}

// Severity a duplicate group implies for downstream scoring: two members is
// suspicious, three or more almost certainly a data-entry problem.
func (g DuplicateGroup) Severity() models.IssueSeverity {
	if g.Count >= 3 {
		return models.SeverityHigh
	}
	return models.SeverityMedium
}

// DetectDuplicates groups transactions by (rounded amount, calendar date) and
// reports every group with more than one member. Group order follows the
// first appearance of each key in the input; member order follows the input.
func DetectDuplicates(txns []models.Transaction) []DuplicateGroup {
	groups := make(map[string][]models.Transaction)
	var keyOrder []string

	for _, t := range txns {
		key := duplicateKey(t)
		if _, seen := groups[key]; !seen {
			keyOrder = append(keyOrder, key)
		}
		groups[key] = append(groups[key], t)
	}

	var out []DuplicateGroup
	for _, key := range keyOrder {
		members := groups[key]
		if len(members) < 2 {
			continue
		}
		out = append(out, DuplicateGroup{
			Key:     key,
			Members: members,
			Count:   len(members),
		})
	}
	return out
}

func duplicateKey(t models.Transaction) string {
	return t.Amount.Round(2).String() + "|" + t.Date.Format("2006-01-02")
}
