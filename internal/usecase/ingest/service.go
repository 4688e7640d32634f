// Package ingest builds a knowledge base index from source files.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/domain/chunk"
	"github.com/kailas-cloud/supportrag/internal/domain/knowledge"
	"github.com/kailas-cloud/supportrag/internal/metrics"
)

// Defaults for Config zero values.
const (
	DefaultBatchSize = 64
	DefaultWorkers   = 4
)

// ErrNothingToIndex is returned when the sources produced no chunks.
var ErrNothingToIndex = errors.New("no chunks to index")

// Config tunes embedding throughput.
type Config struct {
	BatchSize int
	Workers   int
}

// Request describes one indexing run. Files takes precedence over Dir.
type Request struct {
	Base  knowledge.Base
	Dir   string
	Files []string
	Reset bool
}

// Report summarizes an indexing run.
type Report struct {
	Base         knowledge.Base
	Documents    int
	Chunks       int
	Batches      int
	Tokens       int
	IndexCreated bool
	Stored       int
}

// Service runs the indexing pipeline.
type Service struct {
	loader   Loader
	splitter Splitter
	embedder domain.Embedder
	repo     Repository
	cfg      Config
	newID    func() string
	logger   *zap.Logger
}

// New creates an ingest service.
func New(loader Loader, splitter Splitter, embedder domain.Embedder, repo Repository, cfg Config, logger *zap.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		loader:   loader,
		splitter: splitter,
		embedder: embedder,
		repo:     repo,
		cfg:      cfg,
		newID:    uuid.NewString,
		logger:   logger,
	}
}

// Run loads, splits, embeds and stores the sources of req.Base.
func (s *Service) Run(ctx context.Context, req Request) (Report, error) {
	rep := Report{Base: req.Base}

	docs, err := s.load(ctx, req)
	if err != nil {
		return rep, err
	}
	rep.Documents = len(docs)

	chunks := s.Chunks(req.Base, docs)
	rep.Chunks = len(chunks)
	if len(chunks) == 0 {
		return rep, fmt.Errorf("%s: %w", req.Base, ErrNothingToIndex)
	}
	s.logger.Info("Sources split",
		zap.String("knowledge_base", req.Base.String()),
		zap.Int("documents", rep.Documents),
		zap.Int("chunks", rep.Chunks),
	)

	if req.Reset {
		if err := s.repo.Reset(ctx, req.Base); err != nil {
			return rep, fmt.Errorf("reset: %w", err)
		}
		s.logger.Info("Knowledge base reset", zap.String("knowledge_base", req.Base.String()))
	}

	if rep.IndexCreated, err = s.repo.EnsureIndex(ctx, req.Base); err != nil {
		return rep, fmt.Errorf("ensure index: %w", err)
	}

	if rep.Batches, rep.Tokens, err = s.store(ctx, req.Base, chunks); err != nil {
		return rep, err
	}
	metrics.IngestedChunksTotal.WithLabelValues(req.Base.String()).Add(float64(rep.Chunks))

	if rep.Stored, err = s.repo.Count(ctx, req.Base); err != nil {
		return rep, fmt.Errorf("count: %w", err)
	}
	return rep, nil
}

func (s *Service) load(ctx context.Context, req Request) ([]chunk.Document, error) {
	if len(req.Files) > 0 {
		docs, err := s.loader.LoadFiles(ctx, req.Files)
		if err != nil {
			return nil, fmt.Errorf("load files: %w", err)
		}
		return docs, nil
	}
	docs, err := s.loader.LoadDir(ctx, req.Dir)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", req.Dir, err)
	}
	return docs, nil
}

// Chunks splits docs and tags every window with "<uuid>_<i>", i counting across all documents.
func (s *Service) Chunks(base knowledge.Base, docs []chunk.Document) []chunk.Chunk {
	var out []chunk.Chunk
	for _, doc := range docs {
		for _, text := range s.splitter.Split(doc.Text) {
			i := len(out)
			meta := make(map[string]string, len(doc.Metadata)+2)
			for k, v := range doc.Metadata {
				meta[k] = v
			}
			meta[domain.FieldSource] = base.String()
			meta[domain.FieldChunkIndex] = strconv.Itoa(i)
			out = append(out, chunk.Chunk{
				ID:       s.newID() + "_" + strconv.Itoa(i),
				Text:     text,
				Metadata: meta,
			})
		}
	}
	return out
}

// store embeds and saves batches on a bounded worker pool. The first failure cancels the rest.
func (s *Service) store(ctx context.Context, base knowledge.Base, chunks []chunk.Chunk) (int, int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool, err := ants.NewPool(s.cfg.Workers, ants.WithPanicHandler(func(p any) {
		s.logger.Error("Ingest worker panic recovered", zap.Any("panic", p))
	}))
	if err != nil {
		return 0, 0, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		tokens   int
		batches  int
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	for start := 0; start < len(chunks); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(chunks))
		batch := chunks[start:end]
		batches++

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			n, err := s.storeBatch(ctx, base, batch)
			if err != nil {
				fail(fmt.Errorf("batch at %d: %w", start, err))
				return
			}
			mu.Lock()
			tokens += n
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			fail(fmt.Errorf("submit batch at %d: %w", start, submitErr))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return batches, tokens, firstErr
	}
	return batches, tokens, nil
}

func (s *Service) storeBatch(ctx context.Context, base knowledge.Base, batch []chunk.Chunk) (int, error) {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	res, err := domain.EmbedAll(ctx, s.embedder, texts)
	if err != nil {
		return 0, fmt.Errorf("embed: %w", err)
	}
	if err := s.repo.Save(ctx, base, batch, res.Embeddings); err != nil {
		return 0, fmt.Errorf("save: %w", err)
	}
	s.logger.Debug("Batch stored",
		zap.String("knowledge_base", base.String()),
		zap.Int("chunks", len(batch)),
		zap.Int("tokens", res.TotalTokens),
	)
	return res.TotalTokens, nil
}
