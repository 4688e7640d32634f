package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kailas-cloud/supportrag/internal/domain/chunk"
)

// Review export columns.
const (
	ColumnReview = "Review Text"
	ColumnReply  = "Developer Reply Text"
)

// ErrMissingColumns is returned when a review export lacks the review or reply column.
var ErrMissingColumns = errors.New("review export must contain review and reply columns")

// readReviews turns each answered review into a "Qn: review / A: reply" document.
// Rows with an empty (or "nan") review or reply are skipped.
func readReviews(path string) ([]chunk.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	return parseReviews(f)
}

func parseReviews(r io.Reader) ([]chunk.Document, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	reviewCol, replyCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case ColumnReview:
			reviewCol = i
		case ColumnReply:
			replyCol = i
		}
	}
	if reviewCol < 0 || replyCol < 0 {
		return nil, fmt.Errorf("%w: found %v", ErrMissingColumns, header)
	}

	var docs []chunk.Document
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}
		review, reply := cell(rec, reviewCol), cell(rec, replyCol)
		if review == "" || reply == "" {
			continue
		}
		docs = append(docs, chunk.Document{
			Text:     fmt.Sprintf("Q%d: %s\nA: %s", row, review, reply),
			Metadata: map[string]string{"row": strconv.Itoa(row)},
		})
	}
	return docs, nil
}

func cell(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	v := strings.TrimSpace(rec[i])
	if strings.EqualFold(v, "nan") {
		return ""
	}
	return v
}
