package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDir_TextAndReviews(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_notes.md", "## v2.3\nFixed startup crash.\n")
	writeFile(t, dir, "a_reviews.csv", "Rating,Review Text,Developer Reply Text\n"+
		"1,Game crashes on launch,Fixed in v2.3 - please update\n"+
		"5,Love it,nan\n"+
		"2,Lag in menus,We are looking into it\n")
	writeFile(t, dir, "ignored.png", "binary")

	docs, err := NewLoader(zap.NewNop()).LoadDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d: %+v", len(docs), docs)
	}

	if docs[0].Text != "Q1: Game crashes on launch\nA: Fixed in v2.3 - please update" {
		t.Errorf("unexpected review document: %q", docs[0].Text)
	}
	if docs[1].Metadata["row"] != "3" {
		t.Errorf("unanswered review should be skipped, got row %q", docs[1].Metadata["row"])
	}
	if docs[2].Text != "## v2.3\nFixed startup crash." {
		t.Errorf("unexpected text document: %q", docs[2].Text)
	}
	if docs[2].Metadata["source_file"] != "b_notes.md" || !strings.HasSuffix(docs[2].Metadata["source_path"], "b_notes.md") {
		t.Errorf("unexpected metadata: %v", docs[2].Metadata)
	}
}

func TestLoadDir_Empty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "image.png", "x")

	_, err := NewLoader(zap.NewNop()).LoadDir(context.Background(), dir)
	if !errors.Is(err, ErrNoSourceFiles) {
		t.Fatalf("expected ErrNoSourceFiles, got %v", err)
	}
}

func TestLoadFiles_SkipsMissing(t *testing.T) {
	dir := t.TempDir()
	ok := writeFile(t, dir, "notes.txt", "hello")

	docs, err := NewLoader(zap.NewNop()).LoadFiles(context.Background(), []string{filepath.Join(dir, "gone.pdf"), ok})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 || docs[0].Text != "hello" {
		t.Fatalf("unexpected documents: %+v", docs)
	}
}

func TestLoadFiles_BrokenPDF(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "broken.pdf", "not a pdf")

	if _, err := NewLoader(zap.NewNop()).LoadFiles(context.Background(), []string{bad}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParseReviews_MissingColumns(t *testing.T) {
	_, err := parseReviews(strings.NewReader("Rating,Comment\n1,bad\n"))
	if !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("expected ErrMissingColumns, got %v", err)
	}
}

func TestSupported(t *testing.T) {
	for _, name := range []string{"a.pdf", "B.PDF", "c.txt", "d.md", "e.csv"} {
		if !Supported(name) {
			t.Errorf("%s should be supported", name)
		}
	}
	if Supported("f.docx") {
		t.Error("docx should not be supported")
	}
}
