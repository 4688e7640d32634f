// Package corpus loads knowledge base source files from disk.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/domain/chunk"
)

// ErrNoSourceFiles is returned when a directory holds nothing loadable.
var ErrNoSourceFiles = errors.New("no supported source files")

// Supported extensions.
const (
	ExtPDF      = ".pdf"
	ExtText     = ".txt"
	ExtMarkdown = ".md"
	ExtCSV      = ".csv"
)

// Loader reads PDFs (one document per page), plain text and markdown
// (one document per file) and review exports (one document per answered review).
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a loader.
func NewLoader(logger *zap.Logger) *Loader {
	return &Loader{logger: logger}
}

// LoadDir loads every supported file directly inside dir, in name order.
func (l *Loader) LoadDir(ctx context.Context, dir string) ([]chunk.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoSourceFiles, dir)
	}
	slices.Sort(paths)

	l.logger.Info("Found source files", zap.String("dir", dir), zap.Int("files", len(paths)))
	return l.LoadFiles(ctx, paths)
}

// LoadFiles loads the given files. Missing files are skipped with a warning.
func (l *Loader) LoadFiles(ctx context.Context, paths []string) ([]chunk.Document, error) {
	var docs []chunk.Document
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("Source file not found", zap.String("path", path))
			continue
		}

		loaded, err := l.loadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		l.logger.Debug("Loaded source file", zap.String("path", path), zap.Int("documents", len(loaded)))
		docs = append(docs, loaded...)
	}
	l.logger.Info("Loaded documents", zap.Int("documents", len(docs)), zap.Int("files", len(paths)))
	return docs, nil
}

// Supported reports whether the file extension has a reader.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ExtPDF, ExtText, ExtMarkdown, ExtCSV:
		return true
	default:
		return false
	}
}

func (l *Loader) loadFile(path string) ([]chunk.Document, error) {
	var (
		docs []chunk.Document
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtPDF:
		docs, err = readPDF(path)
	case ExtCSV:
		docs, err = readReviews(path)
	default:
		docs, err = readText(path)
	}
	if err != nil {
		return nil, err
	}

	for i := range docs {
		if docs[i].Metadata == nil {
			docs[i].Metadata = make(map[string]string, 2)
		}
		docs[i].Metadata[domain.FieldSourceFile] = filepath.Base(path)
		docs[i].Metadata[domain.FieldSourcePath] = path
	}
	return docs, nil
}

func readText(path string) ([]chunk.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, nil
	}
	return []chunk.Document{{Text: text}}, nil
}
