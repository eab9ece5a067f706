package models

import "time"

// DocumentType is the coarse category assigned by the classifier.
type DocumentType string

const (
	DocBank    DocumentType = "bank"
	DocInvoice DocumentType = "invoice"
	DocGST     DocumentType = "gst"
	DocTDS     DocumentType = "tds"
	DocOther   DocumentType = "other"
)

// DocumentStatus tracks a document through ingestion.
type DocumentStatus string

const (
	DocUploaded   DocumentStatus = "uploaded"
	DocProcessing DocumentStatus = "processing"
	DocProcessed  DocumentStatus = "processed"
	DocFailed     DocumentStatus = "failed"
)

// Document is an uploaded file owned by a client.
type Document struct {
	ID          string         `json:"id"`
	ClientID    string         `json:"client_id"`
	Filename    string         `json:"filename"`
	StoragePath string         `json:"storage_path"`
	Type        DocumentType   `json:"type"`
	Status      DocumentStatus `json:"status"`
	Meta        map[string]any `json:"meta,omitempty"`
	CreatedAt   time.Time      `json:"created_at,omitempty"`
}

// DocChunk is one embedded slice of a document's extracted text, kept for
// later semantic lookup.
type DocChunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Index      int       `json:"chunk_index"`
	Text       string    `json:"chunk_text"`
	Embedding  []float32 `json:"embedding,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}
