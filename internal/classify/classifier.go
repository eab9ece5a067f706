// Package classify assigns a coarse category to an ingested document.
package classify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/piyushxpc7/LedgerlyAI/internal/models"
)

// textSampleLimit bounds how much extracted text the heuristic inspects.
const textSampleLimit = 1000

// Indicator lists checked in fixed priority order; the first matching set wins.
var (
	bankIndicators    = []string{"bank statement", "account statement", "balance", "withdrawal", "deposit", "debit", "credit"}
	invoiceIndicators = []string{"invoice", "bill", "tax invoice", "proforma"}
	gstIndicators     = []string{"gst", "gstin", "gstr", "return", "govt", "government"}
	tdsIndicators     = []string{"tds", "26as", "form 16", "challan"}
)

// Heuristic classifies a document from its filename and the first ~1000
// characters of extracted text. Pure keyword matching; returns DocOther when
// nothing matches.
func Heuristic(filename, textSample string) models.DocumentType {
	name := strings.ToLower(filename)
	text := strings.ToLower(textSample)
	if len(text) > textSampleLimit {
		text = text[:textSampleLimit]
	}

	match := func(indicators []string) bool {
		for _, ind := range indicators {
			if strings.Contains(name, ind) || strings.Contains(text, ind) {
				return true
			}
		}
		return false
	}

	switch {
	case match(bankIndicators):
		return models.DocBank
	case match(invoiceIndicators):
		return models.DocInvoice
	case match(gstIndicators):
		return models.DocGST
	case match(tdsIndicators):
		return models.DocTDS
	default:
		return models.DocOther
	}
}

// Generator is the slice of the generative capability the classifier needs.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Classifier combines the keyword heuristic with optional LLM escalation.
// A nil generator disables escalation.
type Classifier struct {
	gen Generator
}

// New creates a classifier. gen may be nil.
func New(gen Generator) *Classifier {
	return &Classifier{gen: gen}
}

// Classify runs the heuristic and, only when it yields DocOther, asks the
// generative capability for a category. The answer is accepted only if it
// names one of the four specific categories; any failure of the external
// call is swallowed and the heuristic result stands.
func (c *Classifier) Classify(ctx context.Context, filename, textSample string) models.DocumentType {
	docType := Heuristic(filename, textSample)
	if docType != models.DocOther || c.gen == nil {
		return docType
	}

	sample := textSample
	if len(sample) > 500 {
		sample = sample[:500]
	}
	prompt := fmt.Sprintf(`Classify this document into one of: bank, invoice, gst, tds, other.

Filename: %s
Content sample: %s

Respond with just the category name.`, filename, sample)

	answer, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		slog.Warn("classification escalation failed, keeping heuristic result", "file", filename, "error", err)
		return docType
	}

	switch models.DocumentType(strings.ToLower(strings.TrimSpace(answer))) {
	case models.DocBank:
		return models.DocBank
	case models.DocInvoice:
		return models.DocInvoice
	case models.DocGST:
		return models.DocGST
	case models.DocTDS:
		return models.DocTDS
	}
	return docType
}
