package chunk

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Default window settings for support documents.
const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

// DefaultSeparators are tried in order, from paragraph to character level.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// ErrInvalidWindow is returned for a non-positive size or an overlap not smaller than size.
var ErrInvalidWindow = errors.New("invalid chunk window")

// Splitter cuts text into windows of at most Size runes, recursively preferring
// coarse separators and carrying up to Overlap runes between neighbours.
type Splitter struct {
	size       int
	overlap    int
	separators []string
}

// NewSplitter validates the window and returns a splitter.
func NewSplitter(size, overlap int, separators ...string) (*Splitter, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, ErrInvalidWindow
	}
	if len(separators) == 0 {
		separators = DefaultSeparators
	}
	return &Splitter{size: size, overlap: overlap, separators: separators}, nil
}

// Split returns the non-empty pieces of text.
func (s *Splitter) Split(text string) []string {
	return s.split(text, s.separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var rest []string
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}

	var parts []string
	if sep == "" {
		parts = runes(text)
	} else {
		parts = strings.Split(text, sep)
	}

	var out, pending []string
	for _, part := range parts {
		if part == "" {
			continue
		}
		if length(part) <= s.size {
			pending = append(pending, part)
			continue
		}
		if len(pending) > 0 {
			out = append(out, s.merge(pending, sep)...)
			pending = nil
		}
		if len(rest) == 0 {
			out = append(out, part)
			continue
		}
		out = append(out, s.split(part, rest)...)
	}
	if len(pending) > 0 {
		out = append(out, s.merge(pending, sep)...)
	}
	return out
}

// merge packs small parts into windows, keeping a tail of at most overlap runes.
func (s *Splitter) merge(parts []string, sep string) []string {
	sepLen := length(sep)
	var out, window []string
	total := 0

	for _, part := range parts {
		n := length(part)
		extra := 0
		if len(window) > 0 {
			extra = sepLen
		}
		if total+n+extra > s.size && len(window) > 0 {
			if doc := strings.TrimSpace(strings.Join(window, sep)); doc != "" {
				out = append(out, doc)
			}
			for total > s.overlap || (total+n+sepLen > s.size && total > 0) {
				total -= length(window[0])
				if len(window) > 1 {
					total -= sepLen
				}
				window = window[1:]
			}
		}
		if len(window) > 0 {
			total += sepLen
		}
		window = append(window, part)
		total += n
	}
	if doc := strings.TrimSpace(strings.Join(window, sep)); doc != "" {
		out = append(out, doc)
	}
	return out
}

func length(s string) int { return utf8.RuneCountInString(s) }

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
