package parser

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/piyushxpc7/LedgerlyAI/internal/models"
)

// Column synonym tables: real-world statements and invoice registers name
// the same field a dozen ways.
var (
	bankDateColumns   = []string{"date", "txn_date", "transaction_date", "value_date", "posting_date"}
	bankAmountColumns = []string{"amount", "debit", "credit", "withdrawal", "deposit", "transaction_amount"}
	bankDescColumns   = []string{"description", "particulars", "narration", "details", "remarks"}
	bankRefColumns    = []string{"reference", "ref_no", "reference_id", "cheque_no", "utr", "transaction_id"}

	invoiceDateColumns   = []string{"date", "invoice_date", "bill_date"}
	invoiceAmountColumns = []string{"amount", "total", "invoice_amount", "grand_total", "net_amount"}
	invoiceDescColumns   = []string{"description", "particulars", "item", "product"}
	invoiceRefColumns    = []string{"invoice_no", "invoice_number", "bill_no", "reference"}
	invoicePartyColumns  = []string{"party", "customer", "vendor", "buyer", "seller", "counterparty"}

	gstPeriodColumns  = []string{"period", "return_period", "month"}
	gstTaxableColumns = []string{"taxable_value", "taxable_amount", "taxable"}
	gstTaxColumns     = []string{"tax_amount", "total_tax", "tax"}

	// negatedColumns hold outflows recorded as positive figures.
	negatedColumns = map[string]bool{"debit": true, "withdrawal": true}
)

var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"02-Jan-2006",
	"02 Jan 2006",
	"02-January-2006",
}

// ParseDate tries the supported date layouts in order.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseAmount cleans a monetary cell (thousands separators, currency sign)
// and parses it. Dashes and NaN placeholders fail the parse.
func ParseAmount(s string) (decimal.Decimal, bool) {
	clean := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(s, ",", ""), "₹", ""))
	if clean == "" || clean == "-" || strings.EqualFold(clean, "nan") {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// NormalizeRows standardizes amount-ish cells in place of the raw rows:
// separators and currency signs are stripped, unparsable values blanked.
// Other cells pass through untouched.
func NormalizeRows(rows []map[string]string) []map[string]string {
	out := make([]map[string]string, len(rows))
	for i, row := range rows {
		norm := make(map[string]string, len(row))
		for k, v := range row {
			lk := strings.ToLower(k)
			if strings.Contains(lk, "amount") || strings.Contains(lk, "total") {
				if d, ok := ParseAmount(v); ok {
					norm[k] = d.String()
				} else {
					norm[k] = ""
				}
				continue
			}
			norm[k] = v
		}
		out[i] = norm
	}
	return out
}

// ParseBankRows maps bank-statement rows to transactions. Rows without a
// usable date and amount are dropped silently. Debit/withdrawal columns are
// negated so the sign convention is positive = credit/inflow.
func ParseBankRows(rows []map[string]string) []models.Transaction {
	var txns []models.Transaction
	for _, row := range rows {
		txn := models.Transaction{Source: models.SourceBank, Raw: rawFields(row)}

		if date, ok := firstDate(row, bankDateColumns); ok {
			txn.Date = date
		}
		for _, col := range bankAmountColumns {
			v, present := row[col]
			if !present || v == "" {
				continue
			}
			amount, ok := ParseAmount(v)
			if !ok {
				continue
			}
			if negatedColumns[col] && amount.Sign() > 0 {
				amount = amount.Neg()
			}
			txn.Amount = amount
			break
		}
		txn.Description = firstValue(row, bankDescColumns)
		txn.ReferenceID = firstValue(row, bankRefColumns)

		if txn.Usable() {
			txns = append(txns, txn)
		}
	}
	return txns
}

// ParseInvoiceRows maps invoice-register rows to transactions.
func ParseInvoiceRows(rows []map[string]string) []models.Transaction {
	var txns []models.Transaction
	for _, row := range rows {
		txn := models.Transaction{Source: models.SourceInvoice, Raw: rawFields(row)}

		if date, ok := firstDate(row, invoiceDateColumns); ok {
			txn.Date = date
		}
		for _, col := range invoiceAmountColumns {
			v, present := row[col]
			if !present || v == "" {
				continue
			}
			if amount, ok := ParseAmount(v); ok {
				txn.Amount = amount
				break
			}
		}
		txn.Description = firstValue(row, invoiceDescColumns)
		txn.ReferenceID = firstValue(row, invoiceRefColumns)
		txn.Counterparty = firstValue(row, invoicePartyColumns)

		if txn.Usable() {
			txns = append(txns, txn)
		}
	}
	return txns
}

// ParseGSTRows maps GST filing rows to periodic tax summaries. Rows without
// a period or taxable value are dropped.
func ParseGSTRows(rows []map[string]string) []models.GSTSummary {
	var summaries []models.GSTSummary
	for _, row := range rows {
		s := models.GSTSummary{Raw: rawFields(row)}

		s.Period = firstValue(row, gstPeriodColumns)
		if v := firstValue(row, gstTaxableColumns); v != "" {
			if d, ok := ParseAmount(v); ok {
				s.TaxableValue = d
			}
		}
		if v := firstValue(row, gstTaxColumns); v != "" {
			if d, ok := ParseAmount(v); ok {
				s.TaxAmount = d
			}
		}

		if s.Period != "" && !s.TaxableValue.IsZero() {
			summaries = append(summaries, s)
		}
	}
	return summaries
}

func firstValue(row map[string]string, columns []string) string {
	for _, col := range columns {
		if v := strings.TrimSpace(row[col]); v != "" {
			return v
		}
	}
	return ""
}

func firstDate(row map[string]string, columns []string) (time.Time, bool) {
	for _, col := range columns {
		if v := row[col]; v != "" {
			if t, ok := ParseDate(v); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func rawFields(row map[string]string) map[string]any {
	raw := make(map[string]any, len(row))
	for k, v := range row {
		raw[k] = v
	}
	return raw
}
