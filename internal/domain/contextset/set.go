// Package contextset keeps retrieved chunks unique by id in first-seen order.
package contextset

import (
	"strings"

	"github.com/kailas-cloud/supportrag/internal/domain/chunk"
)

// Separator joins chunk texts into a prompt context block.
const Separator = "\n\n"

// Set is an insertion-ordered collection of chunks keyed by id.
// The zero value is empty and ready to use.
type Set struct {
	chunks []chunk.Chunk
	seen   map[string]struct{}
}

// New builds a set from chunks, dropping repeated ids.
func New(chunks ...chunk.Chunk) Set {
	var s Set
	s.Add(chunks...)
	return s
}

// Add appends chunks whose id was not seen before and returns how many were added.
func (s *Set) Add(chunks ...chunk.Chunk) int {
	if s.seen == nil {
		s.seen = make(map[string]struct{}, len(chunks))
	}
	added := 0
	for _, c := range chunks {
		if _, ok := s.seen[c.ID]; ok {
			continue
		}
		s.seen[c.ID] = struct{}{}
		s.chunks = append(s.chunks, c)
		added++
	}
	return added
}

// Contains reports whether id is in the set.
func (s Set) Contains(id string) bool {
	_, ok := s.seen[id]
	return ok
}

// Len returns the number of chunks.
func (s Set) Len() int { return len(s.chunks) }

// Chunks returns a copy of the chunks in first-seen order.
func (s Set) Chunks() []chunk.Chunk {
	out := make([]chunk.Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out
}

// IDs lists chunk ids in order.
func (s Set) IDs() []string { return chunk.IDs(s.chunks) }

// Merge returns a new set holding s followed by the unseen chunks of other.
func (s Set) Merge(other Set) Set {
	out := New(s.chunks...)
	out.Add(other.chunks...)
	return out
}

// Text joins chunk texts in stored order with blank lines.
func (s Set) Text() string {
	texts := make([]string, len(s.chunks))
	for i, c := range s.chunks {
		texts[i] = c.Text
	}
	return strings.Join(texts, Separator)
}
