package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/croptalk/internal/db"
	"github.com/kailas-cloud/croptalk/internal/domain/search/candidate"
	"github.com/kailas-cloud/croptalk/internal/domain/search/filter"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

var returnFields = []string{
	candidate.FieldSourceKey,
	candidate.FieldTitle,
	candidate.FieldPage,
	candidate.FieldDocCategory,
	candidate.FieldState,
	candidate.FieldCounty,
	candidate.FieldCommodity,
	candidate.FieldContent,
}

// Repo implements usecase/retrieval.Repository over the passage index.
type Repo struct {
	store     store
	indexName string
	keyPrefix string
}

// New creates a search repository for the given index and passage key prefix.
func New(s store, indexName, keyPrefix string) *Repo {
	return &Repo{store: s, indexName: indexName, keyPrefix: keyPrefix}
}

// SearchKNN performs a KNN search with filter pre-filtering. Candidates keep the
// index's similarity order.
func (r *Repo) SearchKNN(
	ctx context.Context, vector []float32, filters filter.Expression, topK int,
) ([]candidate.Candidate, error) {
	q := &db.KNNQuery{
		IndexName:    r.indexName,
		VectorField:  candidate.FieldVector,
		Filters:      filters,
		Vector:       vector,
		K:            topK,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", r.indexName, err)
	}

	return r.toCandidates(sr), nil
}

func (r *Repo) toCandidates(sr *db.SearchResult) []candidate.Candidate {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	out := make([]candidate.Candidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, r.keyPrefix)
		out = append(out, candidate.New(id, entry.Score, entry.Fields))
	}
	return out
}
