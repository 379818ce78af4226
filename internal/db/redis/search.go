package redis

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/croptalk/internal/db"
	"github.com/kailas-cloud/croptalk/internal/domain/search/filter"
)

const (
	defaultVectorField = "vector"
	// scoreAlias names the KNN distance in the reply.
	scoreAlias = "__vector_score"
)

// SearchKNN runs FT.SEARCH with the filter as a pre-filter of the KNN clause.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	switch {
	case q.IndexName == "":
		return nil, errors.New("knn query: index name is required")
	case len(q.Vector) == 0:
		return nil, errors.New("knn query: vector is required")
	case q.K <= 0:
		return nil, fmt.Errorf("knn query: k must be positive, got %d", q.K)
	}

	cmd := s.client.B().Arbitrary("FT.SEARCH").Args(knnArgs(q)...).Build()
	reply, err := s.client.Do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return decodeKNN(reply)
}

// knnArgs renders
//
//	<index> "(<prefilter>)=>[KNN k @vector $BLOB AS __vector_score]"
//	  [RETURN n fields... __vector_score] LIMIT 0 k PARAMS 2 BLOB <bytes> DIALECT 2
func knnArgs(q *db.KNNQuery) []string {
	field := q.VectorField
	if field == "" {
		field = defaultVectorField
	}

	prefilter := "*"
	if f := prefilterClause(q.Filters); f != "" {
		prefilter = "(" + f + ")"
	}
	query := fmt.Sprintf("%s=>[KNN %d @%s $BLOB AS %s]", prefilter, q.K, field, scoreAlias)

	args := []string{q.IndexName, query}
	if n := len(q.ReturnFields); n > 0 {
		args = append(args, "RETURN", strconv.Itoa(n+1))
		args = append(args, q.ReturnFields...)
		args = append(args, scoreAlias)
	}
	return append(args,
		"LIMIT", "0", strconv.Itoa(q.K),
		"PARAMS", "2", "BLOB", encodeVector(q.Vector),
		"DIALECT", "2",
	)
}

// prefilterClause turns the conjunction into space-separated tag clauses:
// "@f:{a}" for equality, "@f:{a | b}" for membership.
func prefilterClause(expr filter.Expression) string {
	if expr.IsEmpty() {
		return ""
	}
	clauses := make([]string, 0, len(expr.Conditions()))
	for _, c := range expr.Conditions() {
		values := make([]string, len(c.Values()))
		for i, v := range c.Values() {
			values[i] = escapeTag(v)
		}
		clauses = append(clauses, "@"+c.Key()+":{"+strings.Join(values, " | ")+"}")
	}
	return strings.Join(clauses, " ")
}

// escapeTag backslash-escapes every rune RediSearch could read as syntax.
func escapeTag(v string) string {
	var b strings.Builder
	b.Grow(len(v))
	for _, r := range v {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// decodeKNN reads the RESP2 reply [total, key1, [f, v, ...], key2, ...].
// Distances become similarities and hits are re-sorted, since the server
// returns them in index order when RETURN is used.
func decodeKNN(reply []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(reply) == 0 {
		return &db.SearchResult{}, nil
	}
	total, err := reply[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("knn reply total: %w", err)
	}

	res := &db.SearchResult{Total: int(total)}
	for i := 1; i+1 < len(reply); i += 2 {
		key, err := reply[i].ToString()
		if err != nil {
			continue
		}
		pairs, err := reply[i+1].ToArray()
		if err != nil {
			continue
		}
		fields := decodeFields(pairs)

		entry := db.SearchEntry{Key: key, Fields: fields}
		if raw, ok := fields[scoreAlias]; ok {
			if dist, err := strconv.ParseFloat(raw, 64); err == nil {
				entry.Score = max(0, 1-dist)
			}
			delete(fields, scoreAlias)
		}
		res.Entries = append(res.Entries, entry)
	}

	sort.SliceStable(res.Entries, func(a, b int) bool { return res.Entries[a].Score > res.Entries[b].Score })
	return res, nil
}

func decodeFields(pairs []rueidis.RedisMessage) map[string]string {
	fields := make(map[string]string, len(pairs)/2)
	for j := 0; j+1 < len(pairs); j += 2 {
		name, nerr := pairs[j].ToString()
		value, verr := pairs[j+1].ToString()
		if nerr == nil && verr == nil {
			fields[name] = value
		}
	}
	return fields
}

// encodeVector packs float32 little-endian, the FLOAT32 blob layout.
func encodeVector(v []float32) string {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return rueidis.BinaryString(buf)
}
