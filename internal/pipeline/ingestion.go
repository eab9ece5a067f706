package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/piyushxpc7/LedgerlyAI/internal/classify"
	"github.com/piyushxpc7/LedgerlyAI/internal/metrics"
	"github.com/piyushxpc7/LedgerlyAI/internal/models"
	"github.com/piyushxpc7/LedgerlyAI/internal/parser"
)

const (
	// llmExtractionTextCap bounds the document text sent to the LLM
	// extraction fallback.
	llmExtractionTextCap = 3000
	// llmSummaryTextCap bounds the document text sent for summarization.
	llmSummaryTextCap = 2000
	// llmSummaryMaxChars truncates the LLM summary before storage.
	llmSummaryMaxChars = 500
)

// IngestionStore is the persistence surface the ingestion pipeline needs.
// *db.Client satisfies it.
type IngestionStore interface {
	GetDocument(ctx context.Context, id string) (models.Document, error)
	UpdateDocument(ctx context.Context, id string, docType models.DocumentType, status models.DocumentStatus) error
	SaveChunks(ctx context.Context, documentID string, chunks []models.DocChunk) error
	SaveTransactions(ctx context.Context, documentID string, txns []models.Transaction) error
	SaveGSTSummaries(ctx context.Context, documentID string, summaries []models.GSTSummary) error
	SetDocumentProcessed(ctx context.Context, id string, meta map[string]any) error
	SetDocumentFailed(ctx context.Context, id, message string) error
}

// Generator is the LLM surface the pipelines use. *llm.Model satisfies it.
// All generator calls in the ingestion pipeline are best effort: a failure
// degrades the result, it never fails a stage.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateJSONList(ctx context.Context, systemPrompt, userPrompt string) ([]map[string]any, error)
}

// Embedder is the embedding surface of the chunk stage. *llm.Embedder
// satisfies it.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// IngestionState carries a document through the ingestion stages.
type IngestionState struct {
	Document     models.Document
	Content      parser.Content
	DocumentType models.DocumentType
	Rows         []map[string]string
	Transactions []models.Transaction
	GSTSummaries []models.GSTSummary
	Chunks       []models.DocChunk
	Summary      string

	Status string
	Err    string
}

func (s *IngestionState) SetStatus(status string) { s.Status = status }
func (s *IngestionState) SetError(message string) { s.Err = message }

// IngestionResult is the caller-facing summary of one ingestion attempt.
type IngestionResult struct {
	DocumentID       string              `json:"document_id"`
	Status           string              `json:"status"`
	DocumentType     models.DocumentType `json:"document_type"`
	RecordsExtracted int                 `json:"records_count"`
	ChunksCreated    int                 `json:"chunks_count"`
	Summary          string              `json:"summary,omitempty"`
	Error            string              `json:"error,omitempty"`
}

// Ingestion turns an uploaded document into classified, structured,
// embedded records. Stages run in order, failing fast; LLM and embedding
// degradations are absorbed rather than failing the run.
type Ingestion struct {
	store      IngestionStore
	classifier *classify.Classifier
	gen        Generator
	embedder   Embedder
	exec       *Executor[*IngestionState]
}

// NewIngestion builds the seven-stage ingestion pipeline. gen and embedder
// may be nil; the affected stages then fall back to heuristics and zero
// vectors.
func NewIngestion(store IngestionStore, classifier *classify.Classifier, gen Generator, embedder Embedder, collector *metrics.Collector) *Ingestion {
	p := &Ingestion{store: store, classifier: classifier, gen: gen, embedder: embedder}

	p.exec = NewExecutor("ingestion", []Stage[*IngestionState]{
		{Name: "extract_text", Status: "extracted", Run: p.extractText},
		{Name: "classify_document", Status: "classified", Run: p.classifyDocument},
		{Name: "normalize_fields", Status: "normalized", Run: p.normalizeFields},
		{Name: "extract_structured", Status: "structured", Run: p.extractStructured},
		{Name: "chunk_and_embed", Status: "chunked", Run: p.chunkAndEmbed},
		{Name: "persist_records", Status: "persisted", Run: p.persistRecords},
		{Name: "summarize_document", Status: "summarized", Run: p.summarizeDocument},
	}, collector)

	return p
}

// Run executes the ingestion pipeline for one document.
func (p *Ingestion) Run(ctx context.Context, documentID string) (IngestionResult, Outcome) {
	doc, err := p.store.GetDocument(ctx, documentID)
	if err != nil {
		return IngestionResult{
			DocumentID: documentID,
			Status:     StatusFailed,
			Error:      err.Error(),
		}, Failed(err)
	}

	if err := p.store.UpdateDocument(ctx, doc.ID, doc.Type, models.DocProcessing); err != nil {
		slog.Warn("failed to mark document processing", "document_id", doc.ID, "error", err)
	}

	state := &IngestionState{Document: doc, DocumentType: models.DocOther}
	if err := p.exec.Execute(ctx, state); err != nil {
		if dbErr := p.store.SetDocumentFailed(ctx, doc.ID, state.Err); dbErr != nil {
			slog.Warn("failed to mark document failed", "document_id", doc.ID, "error", dbErr)
		}
		return p.result(state), Failed(err)
	}

	return p.result(state), Completed()
}

func (p *Ingestion) result(state *IngestionState) IngestionResult {
	return IngestionResult{
		DocumentID:       state.Document.ID,
		Status:           state.Status,
		DocumentType:     state.DocumentType,
		RecordsExtracted: len(state.Transactions) + len(state.GSTSummaries),
		ChunksCreated:    len(state.Chunks),
		Summary:          state.Summary,
		Error:            state.Err,
	}
}

func (p *Ingestion) extractText(ctx context.Context, state *IngestionState) error {
	content, err := parser.ExtractFile(state.Document.StoragePath)
	if err != nil {
		return err
	}
	state.Content = content
	return nil
}

func (p *Ingestion) classifyDocument(ctx context.Context, state *IngestionState) error {
	state.DocumentType = p.classifier.Classify(ctx, state.Document.Filename, state.Content.Text)
	return nil
}

func (p *Ingestion) normalizeFields(ctx context.Context, state *IngestionState) error {
	if len(state.Content.Rows) == 0 {
		return nil
	}
	state.Rows = parser.NormalizeRows(state.Content.Rows)
	return nil
}

func (p *Ingestion) extractStructured(ctx context.Context, state *IngestionState) error {
	doc := state.Document

	if len(state.Rows) > 0 {
		switch state.DocumentType {
		case models.DocBank:
			state.Transactions = parser.ParseBankRows(state.Rows)
		case models.DocInvoice:
			state.Transactions = parser.ParseInvoiceRows(state.Rows)
		case models.DocGST:
			state.GSTSummaries = parser.ParseGSTRows(state.Rows)
		}
	} else if state.Content.Text != "" && p.gen != nil &&
		(state.DocumentType == models.DocBank || state.DocumentType == models.DocInvoice) {
		// Text-only documents (pre-extracted PDFs) go through LLM
		// extraction. Malformed output yields zero records, never a
		// stage failure.
		state.Transactions = p.llmExtractTransactions(ctx, state)
	}

	source := models.SourceBank
	if state.DocumentType == models.DocInvoice {
		source = models.SourceInvoice
	}
	for i := range state.Transactions {
		state.Transactions[i].ClientID = doc.ClientID
		state.Transactions[i].DocumentID = doc.ID
		state.Transactions[i].Source = source
	}
	for i := range state.GSTSummaries {
		state.GSTSummaries[i].ClientID = doc.ClientID
		state.GSTSummaries[i].DocumentID = doc.ID
	}
	return nil
}

func (p *Ingestion) llmExtractTransactions(ctx context.Context, state *IngestionState) []models.Transaction {
	prompt := fmt.Sprintf(`Extract transactions from this %s document.

Document content:
%s

Return a JSON array with objects containing: date, amount, description, reference_id, counterparty.`,
		state.DocumentType, truncate(state.Content.Text, llmExtractionTextCap))

	records, err := p.gen.GenerateJSONList(ctx, "You extract financial records from documents.", prompt)
	if err != nil {
		slog.Warn("llm extraction failed", "document_id", state.Document.ID, "error", err)
		return nil
	}

	var txns []models.Transaction
	for _, record := range records {
		txn := models.Transaction{Raw: record}
		if s, ok := record["date"].(string); ok {
			if d, parsed := parser.ParseDate(s); parsed {
				txn.Date = d
			}
		}
		switch v := record["amount"].(type) {
		case float64:
			txn.Amount = decimal.NewFromFloat(v)
		case string:
			if d, parsed := parser.ParseAmount(v); parsed {
				txn.Amount = d
			}
		}
		txn.Description, _ = record["description"].(string)
		txn.ReferenceID, _ = record["reference_id"].(string)
		txn.Counterparty, _ = record["counterparty"].(string)

		if txn.Usable() {
			txns = append(txns, txn)
		}
	}
	return txns
}

func (p *Ingestion) chunkAndEmbed(ctx context.Context, state *IngestionState) error {
	if strings.TrimSpace(state.Content.Text) == "" {
		return nil
	}

	texts := parser.Chunk(state.Content.Text)
	if len(texts) == 0 {
		return nil
	}

	var vectors [][]float32
	if p.embedder != nil {
		var err error
		vectors, err = p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			// Zero vectors keep the chunk rows usable for text search
			// while the embedding provider is unavailable.
			slog.Warn("embedding failed, storing zero vectors",
				"document_id", state.Document.ID, "chunks", len(texts), "error", err)
			vectors = nil
		}
	}

	state.Chunks = make([]models.DocChunk, len(texts))
	for i, text := range texts {
		chunk := models.DocChunk{
			DocumentID: state.Document.ID,
			Index:      i,
			Text:       text,
		}
		if vectors != nil {
			chunk.Embedding = vectors[i]
		} else if p.embedder != nil {
			chunk.Embedding = make([]float32, p.embedder.Dimension())
		}
		state.Chunks[i] = chunk
	}
	return nil
}

func (p *Ingestion) persistRecords(ctx context.Context, state *IngestionState) error {
	doc := state.Document

	if err := p.store.SaveChunks(ctx, doc.ID, state.Chunks); err != nil {
		return err
	}

	switch state.DocumentType {
	case models.DocBank, models.DocInvoice:
		if err := p.store.SaveTransactions(ctx, doc.ID, state.Transactions); err != nil {
			return err
		}
	case models.DocGST:
		if err := p.store.SaveGSTSummaries(ctx, doc.ID, state.GSTSummaries); err != nil {
			return err
		}
	}

	return p.store.UpdateDocument(ctx, doc.ID, state.DocumentType, models.DocProcessing)
}

func (p *Ingestion) summarizeDocument(ctx context.Context, state *IngestionState) error {
	parts := []string{fmt.Sprintf("Document Type: %s", state.DocumentType)}

	records := len(state.Transactions) + len(state.GSTSummaries)
	if records > 0 {
		parts = append(parts, fmt.Sprintf("Records extracted: %d", records))

		total := decimal.Zero
		for _, t := range state.Transactions {
			total = total.Add(t.AbsAmount())
		}
		if total.Sign() > 0 {
			parts = append(parts, fmt.Sprintf("Total amount: ₹%s", formatAmount(total.InexactFloat64())))
		}
	}
	if len(state.Chunks) > 0 {
		parts = append(parts, fmt.Sprintf("Text chunks created: %d", len(state.Chunks)))
	}
	summary := strings.Join(parts, " | ")

	if state.Content.Text != "" && p.gen != nil {
		prompt := fmt.Sprintf("Summarize this document in 2-3 sentences:\n\n%s",
			truncate(state.Content.Text, llmSummaryTextCap))
		if llmSummary, err := p.gen.Generate(ctx, prompt); err == nil {
			summary = truncate(llmSummary, llmSummaryMaxChars) + "\n\n" + summary
		} else {
			slog.Warn("llm summary failed", "document_id", state.Document.ID, "error", err)
		}
	}
	state.Summary = summary

	return p.store.SetDocumentProcessed(ctx, state.Document.ID, map[string]any{
		"summary":      summary,
		"record_count": records,
		"chunk_count":  len(state.Chunks),
		"processed_at": time.Now().UTC().Format(time.RFC3339),
	})
}

// truncate cuts s to at most n bytes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
