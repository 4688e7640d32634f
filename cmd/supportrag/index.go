package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/supportrag/internal/domain/chunk"
	"github.com/kailas-cloud/supportrag/internal/domain/knowledge"
	chunkrepo "github.com/kailas-cloud/supportrag/internal/repository/chunks"
	"github.com/kailas-cloud/supportrag/internal/repository/corpus"
	ingestuc "github.com/kailas-cloud/supportrag/internal/usecase/ingest"
)

type indexOptions struct {
	kb    string
	dir   string
	files []string
	reset bool
}

func newIndexCmd(flags *globalFlags) *cobra.Command {
	opts := &indexOptions{}

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build a knowledge base index from PDF, text or review CSV files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runIndex(ctx, flags, opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.kb, "kb", string(knowledge.Changelog), "knowledge base: changelog or user-reviews")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "source directory (default from config)")
	cmd.Flags().StringSliceVar(&opts.files, "file", nil, "source file; repeatable, overrides --dir")
	cmd.Flags().BoolVar(&opts.reset, "reset", false, "drop existing chunks and index first")
	return cmd
}

func runIndex(ctx context.Context, flags *globalFlags, opts *indexOptions, cmd *cobra.Command) error {
	base, err := knowledge.Parse(opts.kb)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, flags.env)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	dir := opts.dir
	if dir == "" {
		dir = a.cfg.KnowledgeBases.Changelog.Dir
		if base == knowledge.UserReviews {
			dir = a.cfg.KnowledgeBases.UserReviews.Dir
		}
	}

	ic := a.cfg.Ingest
	splitter, err := chunk.NewSplitter(ic.ChunkSize, ic.ChunkOverlap)
	if err != nil {
		return err
	}
	docEmbedder, _ := a.buildEmbedder(a.cfg.Embedding.DocumentInstruction)
	repo := chunkrepo.New(a.store, chunkrepo.IndexParams{
		Dimensions:     a.cfg.Embedding.Dimensions,
		M:              a.cfg.KnowledgeBases.Index.HNSWM,
		EFConstruction: a.cfg.KnowledgeBases.Index.HNSWEFConstruct,
	})

	svc := ingestuc.New(corpus.NewLoader(a.logger), splitter, docEmbedder, repo,
		ingestuc.Config{BatchSize: ic.BatchSize, Workers: ic.Workers}, a.logger)

	rep, err := svc.Run(ctx, ingestuc.Request{Base: base, Dir: dir, Files: opts.files, Reset: opts.reset})
	if err != nil {
		return fmt.Errorf("index %s: %w", base, err)
	}

	a.logger.Info("Indexing finished",
		zap.String("knowledge_base", rep.Base.String()),
		zap.Int("documents", rep.Documents),
		zap.Int("chunks", rep.Chunks),
		zap.Int("batches", rep.Batches),
		zap.Int("tokens", rep.Tokens),
		zap.Bool("index_created", rep.IndexCreated),
		zap.Int("stored", rep.Stored),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d documents, %d chunks, %d stored\n",
		rep.Base, rep.Documents, rep.Chunks, rep.Stored)
	return nil
}
