package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/supportrag/internal/db"
)

// SearchKNN runs FT.SEARCH for q. Entries keep the server order, nearest first.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q == nil {
		return nil, fmt.Errorf("knn query is required")
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(q.Args()...).Build()).ToArray()
	switch {
	case err == nil:
		return decodeHits(raw, q.ScoreField())
	case isMissingIndex(err):
		return nil, db.ErrIndexNotFound
	default:
		return nil, &db.Error{Op: db.OpSearch, Key: q.IndexName, Err: err}
	}
}

// decodeHits reads the RESP2 reply [total, key1, [f, v, ...], key2, ...].
// Hits whose key or field list cannot be decoded are skipped.
func decodeHits(raw []rueidis.RedisMessage, scoreField string) (*db.SearchResult, error) {
	res := &db.SearchResult{}
	if len(raw) == 0 {
		return res, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("decode total: %w", err)
	}
	res.Total = int(total)

	for i := 1; i+1 < len(raw); i += 2 {
		key, kerr := raw[i].ToString()
		pairs, ferr := raw[i+1].ToArray()
		if kerr != nil || ferr != nil {
			continue
		}
		entry := db.SearchEntry{Key: key, Fields: make(map[string]string, len(pairs)/2)}
		for j := 0; j+1 < len(pairs); j += 2 {
			name, nerr := pairs[j].ToString()
			val, verr := pairs[j+1].ToString()
			if nerr != nil || verr != nil {
				continue
			}
			if name == scoreField {
				if d, perr := strconv.ParseFloat(val, 64); perr == nil {
					entry.Score = min(1, max(0, 1-d))
				}
				continue
			}
			entry.Fields[name] = val
		}
		res.Entries = append(res.Entries, entry)
	}
	return res, nil
}
