package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/supportrag/internal/db"
)

func TestGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "supportrag:emb:abc")).
		Return(mock.Result(mock.RedisBlobString("\x00\x00\x80\x3f")))

	s := NewStoreForTest(c)
	data, err := s.Get(context.Background(), "supportrag:emb:abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) != 4 {
		t.Errorf("expected 4 raw bytes, got %d", len(data))
	}
}

func TestGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "missing")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestGet_ErrorCarriesKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "k")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), "k")

	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected db.Error, got %v", err)
	}
	if dbErr.Op != db.OpGet || dbErr.Key != "k" {
		t.Errorf("unexpected error context: %+v", dbErr)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("cause must stay reachable")
	}
}

func TestSetWithTTL_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v", "EX", "60")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.SetWithTTL(context.Background(), "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetWithTTL_RejectsZeroTTL(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := NewStoreForTest(mock.NewClient(ctrl))

	if err := s.SetWithTTL(context.Background(), "k", []byte("v"), 0); !isDBError(err) {
		t.Errorf("expected db.Error, got %v", err)
	}
}

func TestIncrByWithTTL_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(),
			mock.Match("INCRBY", "budget:llm:daily:2026-10-17", "120"),
			mock.Match("EXPIRE", "budget:llm:daily:2026-10-17", "172800", "NX"),
		).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(420)),
			mock.Result(mock.RedisInt64(0)),
		})

	s := NewStoreForTest(c)
	total, err := s.IncrByWithTTL(context.Background(), "budget:llm:daily:2026-10-17", 120, 48*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 420 {
		t.Errorf("expected 420, got %d", total)
	}
}

func TestIncrByWithTTL_Errors(t *testing.T) {
	tests := []struct {
		name    string
		results []rueidis.RedisResult
		op      string
		total   int64
	}{
		{
			name:    "incr fails",
			results: []rueidis.RedisResult{mock.ErrorResult(context.Canceled), mock.Result(mock.RedisInt64(0))},
			op:      db.OpIncrBy,
		},
		{
			name:    "expire fails",
			results: []rueidis.RedisResult{mock.Result(mock.RedisInt64(7)), mock.ErrorResult(context.Canceled)},
			op:      db.OpExpire,
			total:   7,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := mock.NewClient(ctrl)
			c.EXPECT().DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).Return(tc.results)

			s := NewStoreForTest(c)
			total, err := s.IncrByWithTTL(context.Background(), "k", 7, time.Hour)

			var dbErr *db.Error
			if !errors.As(err, &dbErr) || dbErr.Op != tc.op {
				t.Fatalf("expected %s error, got %v", tc.op, err)
			}
			if total != tc.total {
				t.Errorf("expected total %d, got %d", tc.total, total)
			}
		})
	}
}
