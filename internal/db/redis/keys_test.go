package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/croptalk/internal/db"
)

func TestHSetMulti_SortedFieldsOneRoundTrip(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		DoMulti(gomock.Any(),
			mock.Match("HSET", "croptalk:passage:a", "content", "Final planting date", "page", "3", "state", "19"),
			mock.Match("HSET", "croptalk:passage:b", "doc_category", "CP"),
		).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(3)),
			mock.Result(mock.RedisInt64(1)),
		})

	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "croptalk:passage:a", Fields: map[string]string{"state": "19", "page": "3", "content": "Final planting date"}},
		{Key: "croptalk:passage:b", Fields: map[string]string{"doc_category": "CP"}},
	})
	if err != nil {
		t.Fatalf("HSetMulti: %v", err)
	}
}

func TestHSetMulti_Empty(t *testing.T) {
	s, _ := newMockStore(t)
	if err := s.HSetMulti(context.Background(), nil); err != nil {
		t.Fatalf("HSetMulti(nil): %v", err)
	}
}

func TestHSetMulti_ReportsFailingKey(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).Return([]rueidis.RedisResult{
		mock.Result(mock.RedisInt64(1)),
		mock.Result(mock.RedisError("OOM command not allowed")),
	})

	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "k1", Fields: map[string]string{"a": "1"}},
		{Key: "k2", Fields: map[string]string{"a": "2"}},
	})
	if !isDBError(err) {
		t.Fatalf("err = %v, want db.Error", err)
	}
	if got := err.Error(); got != "db HSET: k2: OOM command not allowed" {
		t.Errorf("message = %q", got)
	}
}

func TestHGetAll(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), mock.Match("HGETALL", "croptalk:passage:a")).
		Return(mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
			"s3_key": mock.RedisString("sp/19/0041.pdf"),
			"page":   mock.RedisString("3"),
		})))

	m, err := s.HGetAll(context.Background(), "croptalk:passage:a")
	if err != nil {
		t.Fatalf("HGetAll: %v", err)
	}
	if m["s3_key"] != "sp/19/0041.pdf" || m["page"] != "3" {
		t.Errorf("fields = %v", m)
	}

	c.EXPECT().Do(gomock.Any(), mock.Match("HGETALL", "x")).Return(mock.ErrorResult(context.DeadlineExceeded))
	if _, err := s.HGetAll(context.Background(), "x"); !isDBError(err) {
		t.Errorf("err = %v, want db.Error", err)
	}
}

func TestDel(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), mock.Match("DEL", "k")).Return(mock.Result(mock.RedisInt64(1)))
	if err := s.Del(context.Background(), "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
}

func TestGet(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), mock.Match("GET", "croptalk:emb:abc")).Return(mock.Result(mock.RedisString("blob")))
	got, err := s.Get(context.Background(), "croptalk:emb:abc")
	if err != nil || string(got) != "blob" {
		t.Fatalf("Get = (%q, %v)", got, err)
	}

	c.EXPECT().Do(gomock.Any(), mock.Match("GET", "missing")).Return(mock.Result(mock.RedisNil()))
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("err = %v, want ErrKeyNotFound", err)
	}
}

func TestSet(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), mock.Match("SET", "k", "v")).Return(mock.Result(mock.RedisString("OK")))
	if err := s.Set(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	c.EXPECT().Do(gomock.Any(), mock.Match("SET", "k", "v", "EX", "3600")).Return(mock.Result(mock.RedisString("OK")))
	if err := s.SetWithTTL(context.Background(), "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("SetWithTTL: %v", err)
	}

	c.EXPECT().Do(gomock.Any(), mock.Match("SET", "k", "v")).Return(mock.Result(mock.RedisString("OK")))
	if err := s.SetWithTTL(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Fatalf("SetWithTTL(0): %v", err)
	}
}
