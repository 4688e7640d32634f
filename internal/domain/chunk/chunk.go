// Package chunk defines retrieved document passages and the splitter that produces them.
package chunk

import "maps"

// Chunk is an immutable slice of a source document.
type Chunk struct {
	ID       string
	Text     string
	Metadata map[string]string
	// Score is the similarity reported by the index (0 when the chunk was not retrieved).
	Score float64
}

// New copies metadata so the caller's map can be reused.
func New(id, text string, metadata map[string]string) Chunk {
	return Chunk{ID: id, Text: text, Metadata: maps.Clone(metadata)}
}

// Source returns the knowledge base the chunk was indexed into.
func (c Chunk) Source() string {
	return c.Metadata["source"]
}

// Meta returns a metadata value or "" when absent.
func (c Chunk) Meta(key string) string {
	return c.Metadata[key]
}

// IDs lists chunk ids in order.
func IDs(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.ID
	}
	return out
}

// Document is loaded source text before splitting, e.g. one PDF page.
type Document struct {
	Text     string
	Metadata map[string]string
}
