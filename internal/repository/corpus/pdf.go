package corpus

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/domain/chunk"
)

// readPDF extracts one document per non-empty page. Page numbers are 0-based.
func readPDF(path string) ([]chunk.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}

	pages := r.NumPage()
	docs := make([]chunk.Document, 0, pages)
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// unreadable page, keep the rest of the file
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		docs = append(docs, chunk.Document{
			Text:     text,
			Metadata: map[string]string{domain.FieldPage: strconv.Itoa(i - 1)},
		})
	}
	return docs, nil
}
