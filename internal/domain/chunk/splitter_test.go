package chunk

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNewSplitter_InvalidWindow(t *testing.T) {
	cases := []struct {
		name          string
		size, overlap int
	}{
		{"zero size", 0, 0},
		{"negative overlap", 10, -1},
		{"overlap equals size", 10, 10},
		{"overlap exceeds size", 10, 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewSplitter(tc.size, tc.overlap); err != ErrInvalidWindow {
				t.Fatalf("expected ErrInvalidWindow, got %v", err)
			}
		})
	}
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	s, _ := NewSplitter(DefaultSize, DefaultOverlap)
	got := s.Split("para one\n\npara two")
	if len(got) != 1 || got[0] != "para one\n\npara two" {
		t.Fatalf("unexpected chunks: %q", got)
	}
}

func TestSplit_EmptyText(t *testing.T) {
	s, _ := NewSplitter(DefaultSize, DefaultOverlap)
	if got := s.Split("   "); len(got) != 0 {
		t.Fatalf("expected no chunks, got %q", got)
	}
}

func TestSplit_WordWindowsOverlap(t *testing.T) {
	words := make([]string, 30)
	for i := range words {
		words[i] = "w" + string(rune('0'+i/10)) + string(rune('0'+i%10))
	}
	s, err := NewSplitter(20, 8)
	if err != nil {
		t.Fatal(err)
	}

	got := s.Split(strings.Join(words, " "))
	if len(got) < 2 {
		t.Fatalf("expected several chunks, got %q", got)
	}
	if got[0] != "w00 w01 w02 w03 w04" {
		t.Errorf("first chunk = %q", got[0])
	}
	if !strings.HasPrefix(got[1], "w03 w04 w05") {
		t.Errorf("second chunk should carry the overlap, got %q", got[1])
	}
	if !strings.HasSuffix(got[len(got)-1], "w29") {
		t.Errorf("last chunk should end with the last word, got %q", got[len(got)-1])
	}
	for _, c := range got {
		if utf8.RuneCountInString(c) > 20 {
			t.Errorf("chunk exceeds window: %q", c)
		}
	}
}

func TestSplit_FallsBackToCharacters(t *testing.T) {
	s, _ := NewSplitter(4, 1)
	got := s.Split("abcdefghij")
	want := []string{"abcd", "defg", "ghij"}
	if len(got) != len(want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSplit_ParagraphsBeforeLines(t *testing.T) {
	s, _ := NewSplitter(30, 0)
	text := "first paragraph here\n\nsecond paragraph here"
	got := s.Split(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %q", got)
	}
	if got[0] != "first paragraph here" || got[1] != "second paragraph here" {
		t.Errorf("unexpected chunks: %q", got)
	}
}

func TestIDs(t *testing.T) {
	chunks := []Chunk{New("a", "x", nil), New("b", "y", map[string]string{"source": "changelog"})}
	ids := IDs(chunks)
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("unexpected ids: %v", ids)
	}
	if chunks[1].Source() != "changelog" {
		t.Errorf("expected changelog source, got %q", chunks[1].Source())
	}
}
