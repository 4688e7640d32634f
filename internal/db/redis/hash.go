package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/supportrag/internal/db"
)

// Batch sizes for pipelined writes, key removal and SCAN pages.
const (
	hsetPipeline = 256
	unlinkBatch  = 500
	scanCount    = 500
)

// HSetMulti writes chunk hashes, pipelining up to hsetPipeline HSETs per round-trip.
// It stops at the first failed batch; earlier batches stay written.
func (s *Store) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	for start := 0; start < len(items); start += hsetPipeline {
		part := items[start:min(start+hsetPipeline, len(items))]

		cmds := make([]rueidis.Completed, len(part))
		for i, item := range part {
			cmd := s.b().Hset().Key(item.Key).FieldValue()
			for k, v := range item.Fields {
				cmd = cmd.FieldValue(k, v)
			}
			cmds[i] = cmd.Build()
		}

		for i, res := range s.client.DoMulti(ctx, cmds...) {
			if err := res.Error(); err != nil {
				return &db.Error{Op: db.OpHSet, Key: part[i].Key, Err: err}
			}
		}
	}
	return nil
}

// DelMulti removes keys with UNLINK so dropping a whole knowledge base does not
// block the server while memory is reclaimed.
func (s *Store) DelMulti(ctx context.Context, keys []string) error {
	for start := 0; start < len(keys); start += unlinkBatch {
		part := keys[start:min(start+unlinkBatch, len(keys))]
		if err := s.do(ctx, s.b().Unlink().Key(part...).Build()).Error(); err != nil {
			return &db.Error{Op: db.OpDel, Key: part[0], Err: err}
		}
	}
	return nil
}

// Scan lists hash keys matching pattern. Cache and budget keys are strings and never match.
func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		cmd := s.b().Scan().Cursor(cursor).Match(pattern).Count(scanCount).Type("hash").Build()
		page, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Key: pattern, Err: err}
		}
		keys = append(keys, page.Elements...)
		if cursor = page.Cursor; cursor == 0 {
			return keys, nil
		}
	}
}
