// Package parser extracts and normalizes document content: tabular records
// from CSV uploads, free text, and the chunks fed to the embedding stage.
package parser

import "strings"

const (
	// MaxChunkChars caps greedy line accumulation per chunk.
	MaxChunkChars = 500
	// MaxChunks bounds embedding calls per document.
	MaxChunks = 50
)

// Chunk splits extracted text into ordered chunks by greedy line
// accumulation: lines are appended until a chunk would reach MaxChunkChars,
// then a new chunk starts. At most MaxChunks chunks are returned.
func Chunk(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		if current.Len()+len(line) >= MaxChunkChars {
			flush()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	flush()

	if len(chunks) > MaxChunks {
		chunks = chunks[:MaxChunks]
	}
	return chunks
}
