package ingest

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/domain/chunk"
	"github.com/kailas-cloud/supportrag/internal/domain/knowledge"
)

func TestChunks_IDsAndMetadata(t *testing.T) {
	svc := newTestService(t, &fakeLoader{}, &fakeEmbedder{}, newFakeRepo(), Config{})

	chunks := svc.Chunks(knowledge.Changelog, docs())
	require.Len(t, chunks, 5)

	for i, c := range chunks {
		assert.Equal(t, "00000000-0000-4000-8000-000000000000_"+string(rune('0'+i)), c.ID)
		assert.Equal(t, "changelog", c.Metadata[domain.FieldSource])
		assert.Equal(t, "changelog.pdf", c.Metadata[domain.FieldSourceFile])
	}
	assert.Equal(t, "0", chunks[1].Metadata[domain.FieldPage])
	assert.Equal(t, "1", chunks[2].Metadata[domain.FieldPage])
	assert.Equal(t, "4", chunks[4].Metadata[domain.FieldChunkIndex])
	assert.Equal(t, "v2.2 dark mode", chunks[2].Text)
}

func TestChunks_DoesNotMutateDocumentMetadata(t *testing.T) {
	svc := newTestService(t, &fakeLoader{}, &fakeEmbedder{}, newFakeRepo(), Config{})
	in := docs()

	svc.Chunks(knowledge.UserReviews, in)
	_, ok := in[0].Metadata[domain.FieldSource]
	assert.False(t, ok)
}

func TestChunks_DefaultIDsAreUUIDs(t *testing.T) {
	svc := New(&fakeLoader{}, lineSplitter{}, &fakeEmbedder{}, newFakeRepo(), Config{}, nil)

	chunks := svc.Chunks(knowledge.Changelog, docs())
	re := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}_\d+$`)
	for _, c := range chunks {
		assert.Regexp(t, re, c.ID)
	}
	assert.NotEqual(t, chunks[0].ID[:36], chunks[1].ID[:36], "every chunk gets a fresh uuid")
}

func TestRun_StoresAllChunksInBatches(t *testing.T) {
	loader := &fakeLoader{docs: docs()}
	emb := &fakeEmbedder{}
	repo := newFakeRepo()
	svc := New(loader, lineSplitter{}, emb, repo, Config{BatchSize: 2, Workers: 3}, nil)

	rep, err := svc.Run(context.Background(), Request{Base: knowledge.Changelog, Dir: "./data/change_logs"})
	require.NoError(t, err)

	assert.Equal(t, "./data/change_logs", loader.dir)
	assert.Equal(t, 2, rep.Documents)
	assert.Equal(t, 5, rep.Chunks)
	assert.Equal(t, 3, rep.Batches)
	assert.Equal(t, 15, rep.Tokens)
	assert.Equal(t, 5, rep.Stored)
	assert.True(t, rep.IndexCreated)
	assert.Equal(t, 3, emb.calls)
	assert.Zero(t, repo.resets)
}

func TestRun_FilesTakePrecedence(t *testing.T) {
	loader := &fakeLoader{docs: docs()}
	svc := newTestService(t, loader, &fakeEmbedder{}, newFakeRepo(), Config{})

	_, err := svc.Run(context.Background(), Request{
		Base:  knowledge.UserReviews,
		Dir:   "ignored",
		Files: []string{"reviews.csv"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"reviews.csv"}, loader.files)
	assert.Zero(t, loader.dirCalls)
}

func TestRun_Reset(t *testing.T) {
	repo := newFakeRepo()
	repo.saved["stale"] = chunk.New("stale", "old", nil)
	svc := newTestService(t, &fakeLoader{docs: docs()}, &fakeEmbedder{}, repo, Config{})

	rep, err := svc.Run(context.Background(), Request{Base: knowledge.Changelog, Dir: "d", Reset: true})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.resets)
	assert.Equal(t, 5, rep.Stored)
}

func TestRun_NothingToIndex(t *testing.T) {
	svc := newTestService(t, &fakeLoader{docs: []chunk.Document{{Text: ""}}}, &fakeEmbedder{}, newFakeRepo(), Config{})

	_, err := svc.Run(context.Background(), Request{Base: knowledge.Changelog, Dir: "d"})
	assert.ErrorIs(t, err, ErrNothingToIndex)
}

func TestRun_Errors(t *testing.T) {
	t.Run("load", func(t *testing.T) {
		svc := newTestService(t, &fakeLoader{err: errors.New("no such dir")}, &fakeEmbedder{}, newFakeRepo(), Config{})
		_, err := svc.Run(context.Background(), Request{Base: knowledge.Changelog, Dir: "d"})
		assert.ErrorContains(t, err, "no such dir")
	})

	t.Run("embed", func(t *testing.T) {
		emb := &fakeEmbedder{err: domain.ErrEmbeddingProviderError}
		svc := newTestService(t, &fakeLoader{docs: docs()}, emb, newFakeRepo(), Config{BatchSize: 1, Workers: 2})
		_, err := svc.Run(context.Background(), Request{Base: knowledge.Changelog, Dir: "d"})
		assert.ErrorIs(t, err, domain.ErrEmbeddingProviderError)
	})

	t.Run("save", func(t *testing.T) {
		repo := newFakeRepo()
		repo.saveErr = errors.New("OOM")
		svc := newTestService(t, &fakeLoader{docs: docs()}, &fakeEmbedder{}, repo, Config{})
		_, err := svc.Run(context.Background(), Request{Base: knowledge.Changelog, Dir: "d"})
		assert.ErrorContains(t, err, "OOM")
	})

	t.Run("index", func(t *testing.T) {
		repo := newFakeRepo()
		repo.indexErr = errors.New("unknown command FT.CREATE")
		svc := newTestService(t, &fakeLoader{docs: docs()}, &fakeEmbedder{}, repo, Config{})
		_, err := svc.Run(context.Background(), Request{Base: knowledge.Changelog, Dir: "d"})
		assert.ErrorContains(t, err, "ensure index")
	})
}
