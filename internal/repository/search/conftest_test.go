package search

import (
	"context"

	"github.com/kailas-cloud/croptalk/internal/db"
)

// cannedStore answers every SearchKNN with the same reply and keeps the queries.
type cannedStore struct {
	reply   *db.SearchResult
	err     error
	queries []db.KNNQuery
}

func (c *cannedStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	c.queries = append(c.queries, *q)
	return c.reply, c.err
}

const (
	testIndex  = "croptalk:passages:idx"
	testPrefix = "croptalk:passage:"
)

var queryVector = []float32{0.1, 0.1, 0.1, 0.1}

func entry(id string, score float64, fields map[string]string) db.SearchEntry {
	return db.SearchEntry{Key: testPrefix + id, Score: score, Fields: fields}
}
