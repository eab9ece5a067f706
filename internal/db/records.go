package db

import (
	"time"

	"github.com/shopspring/decimal"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/piyushxpc7/LedgerlyAI/internal/models"
)

// Stored record shapes. SurrealDB speaks CBOR floats and record ids, so
// amounts cross the boundary as float64 and ids as RecordID; the domain
// models keep decimals and plain strings.

type documentRecord struct {
	ID          surrealmodels.RecordID `json:"id,omitempty"`
	ClientID    string                 `json:"client_id"`
	Filename    string                 `json:"filename"`
	StoragePath string                 `json:"storage_path"`
	Type        string                 `json:"type"`
	Status      string                 `json:"status"`
	Meta        map[string]any         `json:"meta,omitempty"`
	CreatedAt   time.Time              `json:"created_at,omitempty"`
}

type chunkRecord struct {
	ID         surrealmodels.RecordID `json:"id,omitempty"`
	DocumentID string                 `json:"document_id"`
	Index      int                    `json:"chunk_index"`
	Text       string                 `json:"chunk_text"`
	Embedding  []float32              `json:"embedding"`
	CreatedAt  time.Time              `json:"created_at,omitempty"`
}

type transactionRecord struct {
	ID           surrealmodels.RecordID `json:"id,omitempty"`
	ClientID     string                 `json:"client_id"`
	DocumentID   string                 `json:"document_id,omitempty"`
	Source       string                 `json:"source"`
	Date         time.Time              `json:"txn_date"`
	Amount       float64                `json:"amount"`
	Description  string                 `json:"description,omitempty"`
	Counterparty string                 `json:"counterparty,omitempty"`
	ReferenceID  string                 `json:"reference_id,omitempty"`
	Meta         map[string]any         `json:"meta,omitempty"`
	CreatedAt    time.Time              `json:"created_at,omitempty"`
}

type gstSummaryRecord struct {
	ID           surrealmodels.RecordID `json:"id,omitempty"`
	ClientID     string                 `json:"client_id"`
	DocumentID   string                 `json:"document_id,omitempty"`
	Period       string                 `json:"period"`
	TaxableValue float64                `json:"taxable_value"`
	TaxAmount    float64                `json:"tax_amount"`
	Meta         map[string]any         `json:"meta,omitempty"`
	CreatedAt    time.Time              `json:"created_at,omitempty"`
}

type issueRecord struct {
	ID        surrealmodels.RecordID `json:"id,omitempty"`
	ClientID  string                 `json:"client_id"`
	RunID     string                 `json:"run_id"`
	Severity  string                 `json:"severity"`
	Category  string                 `json:"category"`
	Title     string                 `json:"title"`
	Details   map[string]any         `json:"details_json,omitempty"`
	Status    string                 `json:"status"`
	CreatedAt time.Time              `json:"created_at,omitempty"`
}

type runRecord struct {
	ID           surrealmodels.RecordID `json:"id,omitempty"`
	ClientID     string                 `json:"client_id"`
	Status       string                 `json:"status"`
	StartedAt    *time.Time             `json:"started_at,omitempty"`
	EndedAt      *time.Time             `json:"ended_at,omitempty"`
	Metrics      *models.RunMetrics     `json:"metrics_json,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	CreatedAt    time.Time              `json:"created_at,omitempty"`
}

type reportRecord struct {
	ID           surrealmodels.RecordID `json:"id,omitempty"`
	ClientID     string                 `json:"client_id"`
	RunID        string                 `json:"run_id"`
	Type         string                 `json:"type"`
	ContentMD    string                 `json:"content_md"`
	RenderedPath string                 `json:"content_pdf_url,omitempty"`
	CreatedAt    time.Time              `json:"created_at,omitempty"`
}

// idString extracts the plain string part of a SurrealDB record id.
func idString(id surrealmodels.RecordID) string {
	if s, ok := id.ID.(string); ok {
		return s
	}
	return ""
}

func (r documentRecord) toModel() models.Document {
	return models.Document{
		ID:          idString(r.ID),
		ClientID:    r.ClientID,
		Filename:    r.Filename,
		StoragePath: r.StoragePath,
		Type:        models.DocumentType(r.Type),
		Status:      models.DocumentStatus(r.Status),
		Meta:        r.Meta,
		CreatedAt:   r.CreatedAt,
	}
}

func (r chunkRecord) toModel() models.DocChunk {
	return models.DocChunk{
		ID:         idString(r.ID),
		DocumentID: r.DocumentID,
		Index:      r.Index,
		Text:       r.Text,
		Embedding:  r.Embedding,
		CreatedAt:  r.CreatedAt,
	}
}

func (r transactionRecord) toModel() models.Transaction {
	return models.Transaction{
		ID:           idString(r.ID),
		ClientID:     r.ClientID,
		DocumentID:   r.DocumentID,
		Source:       models.TransactionSource(r.Source),
		Date:         r.Date,
		Amount:       decimal.NewFromFloat(r.Amount),
		Description:  r.Description,
		Counterparty: r.Counterparty,
		ReferenceID:  r.ReferenceID,
		Raw:          r.Meta,
		CreatedAt:    r.CreatedAt,
	}
}

func transactionContent(t models.Transaction) map[string]any {
	return map[string]any{
		"client_id":    t.ClientID,
		"document_id":  t.DocumentID,
		"source":       string(t.Source),
		"txn_date":     t.Date,
		"amount":       t.Amount.InexactFloat64(),
		"description":  t.Description,
		"counterparty": t.Counterparty,
		"reference_id": t.ReferenceID,
		"meta":         t.Raw,
	}
}

func (r gstSummaryRecord) toModel() models.GSTSummary {
	return models.GSTSummary{
		ID:           idString(r.ID),
		ClientID:     r.ClientID,
		DocumentID:   r.DocumentID,
		Period:       r.Period,
		TaxableValue: decimal.NewFromFloat(r.TaxableValue),
		TaxAmount:    decimal.NewFromFloat(r.TaxAmount),
		Raw:          r.Meta,
		CreatedAt:    r.CreatedAt,
	}
}

func gstSummaryContent(s models.GSTSummary) map[string]any {
	return map[string]any{
		"client_id":     s.ClientID,
		"document_id":   s.DocumentID,
		"period":        s.Period,
		"taxable_value": s.TaxableValue.InexactFloat64(),
		"tax_amount":    s.TaxAmount.InexactFloat64(),
		"meta":          s.Raw,
	}
}

func (r issueRecord) toModel() models.Issue {
	return models.Issue{
		ID:        idString(r.ID),
		ClientID:  r.ClientID,
		RunID:     r.RunID,
		Severity:  models.IssueSeverity(r.Severity),
		Category:  models.IssueCategory(r.Category),
		Title:     r.Title,
		Details:   r.Details,
		Status:    models.IssueStatus(r.Status),
		CreatedAt: r.CreatedAt,
	}
}

func (r runRecord) toModel() models.ReconciliationRun {
	return models.ReconciliationRun{
		ID:           idString(r.ID),
		ClientID:     r.ClientID,
		Status:       models.RunStatus(r.Status),
		StartedAt:    r.StartedAt,
		EndedAt:      r.EndedAt,
		Metrics:      r.Metrics,
		ErrorMessage: r.ErrorMessage,
		CreatedAt:    r.CreatedAt,
	}
}

func (r reportRecord) toModel() models.Report {
	return models.Report{
		ID:           idString(r.ID),
		ClientID:     r.ClientID,
		RunID:        r.RunID,
		Type:         models.ReportType(r.Type),
		ContentMD:    r.ContentMD,
		RenderedPath: r.RenderedPath,
		CreatedAt:    r.CreatedAt,
	}
}
