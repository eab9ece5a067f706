package parser

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Content is the raw extraction result for a document: always a text
// rendering, plus structured rows for tabular formats.
type Content struct {
	Text    string
	Headers []string
	Rows    []map[string]string
	Format  string
}

// ErrUnsupportedFormat reports a file extension the extractor cannot handle.
type ErrUnsupportedFormat struct {
	Ext string
}

func (e ErrUnsupportedFormat) Error() string {
	return fmt.Sprintf("unsupported file format: %s", e.Ext)
}

// ExtractFile pulls content from a document on disk based on its extension.
// CSV yields structured rows plus a text rendering; txt/md yield text only.
// Binary formats (PDF scans) are expected to arrive pre-extracted from the
// upload collaborator as .txt siblings.
func ExtractFile(path string) (Content, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))

	switch ext {
	case "csv":
		headers, rows, err := extractCSV(path)
		if err != nil {
			return Content{}, err
		}
		return Content{
			Text:    FormatRowsAsText(headers, rows),
			Headers: headers,
			Rows:    rows,
			Format:  "csv",
		}, nil

	case "txt", "md", "text":
		data, err := os.ReadFile(path)
		if err != nil {
			return Content{}, fmt.Errorf("read text file: %w", err)
		}
		return Content{Text: string(data), Format: "text"}, nil

	default:
		return Content{}, ErrUnsupportedFormat{Ext: ext}
	}
}

// extractCSV reads a CSV file into rows keyed by normalized header names.
func extractCSV(path string) ([]string, []map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = NormalizeHeader(h)
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return headers, rows, nil
}

// NormalizeHeader lower-cases a column name and replaces spaces with
// underscores, so "Txn Date" and "txn_date" address the same column.
func NormalizeHeader(h string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
}

// FormatRowsAsText renders tabular rows as readable text, one line per row,
// for classification sampling and chunking.
func FormatRowsAsText(headers []string, rows []map[string]string) string {
	if len(rows) == 0 {
		return ""
	}

	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Row %d: ", i+1)
		first := true
		for _, h := range headers {
			v := row[h]
			if v == "" {
				continue
			}
			if !first {
				b.WriteString(" | ")
			}
			fmt.Fprintf(&b, "%s: %s", h, v)
			first = false
		}
	}
	return b.String()
}
