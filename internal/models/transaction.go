// Package models defines the domain records shared by the pipelines,
// the reconciliation engine and the store.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionSource identifies which side of the reconciliation a
// transaction belongs to.
type TransactionSource string

const (
	SourceBank    TransactionSource = "bank"
	SourceInvoice TransactionSource = "invoice"
)

// Transaction is a single extracted financial record. Created by the
// ingestion pipeline's structured-extraction stage and immutable afterwards.
// Amounts are signed: positive means credit/inflow.
type Transaction struct {
	ID           string            `json:"id"`
	ClientID     string            `json:"client_id"`
	DocumentID   string            `json:"document_id,omitempty"`
	Source       TransactionSource `json:"source"`
	Date         time.Time         `json:"txn_date"`
	Amount       decimal.Decimal   `json:"amount"`
	Description  string            `json:"description,omitempty"`
	Counterparty string            `json:"counterparty,omitempty"`
	ReferenceID  string            `json:"reference_id,omitempty"`
	// Raw preserves the original extracted columns verbatim.
	Raw map[string]any `json:"meta,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}

// AbsAmount returns the absolute transaction amount.
func (t Transaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// Usable reports whether the record carries enough data to take part in
// matching. Records without a date or amount are silently excluded rather
// than failing the stage.
func (t Transaction) Usable() bool {
	return !t.Date.IsZero() && !t.Amount.IsZero()
}

// GSTSummary is a declared periodic tax figure extracted from a GST filing.
type GSTSummary struct {
	ID           string          `json:"id"`
	ClientID     string          `json:"client_id"`
	DocumentID   string          `json:"document_id,omitempty"`
	Period       string          `json:"period"` // e.g. "2024-03"
	TaxableValue decimal.Decimal `json:"taxable_value"`
	TaxAmount    decimal.Decimal `json:"tax_amount"`
	Raw          map[string]any  `json:"meta,omitempty"`
	CreatedAt    time.Time       `json:"created_at,omitempty"`
}
