package retrieval

import (
	"context"
	"strings"

	"github.com/kailas-cloud/croptalk/internal/domain"
	"github.com/kailas-cloud/croptalk/internal/domain/facet"
	"github.com/kailas-cloud/croptalk/internal/domain/search/candidate"
	"github.com/kailas-cloud/croptalk/internal/domain/search/filter"
)

// --- Mocks ---

type fakeLookup struct {
	states      map[string]string
	counties    map[string]string // "state/county" -> code
	commodities map[string]string
	calls       int
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		states:      map[string]string{"iowa": "19", "kansas": "20"},
		counties:    map[string]string{"iowa/story": "169"},
		commodities: map[string]string{"corn": "0041", "wheat": "0011"},
	}
}

func (l *fakeLookup) State(name string) facet.Resolution {
	l.calls++
	if code, ok := l.states[strings.ToLower(name)]; ok {
		return facet.Resolved(facet.State, name, code)
	}
	return facet.NotFound(facet.State, name)
}

func (l *fakeLookup) County(name, state string) facet.Resolution {
	l.calls++
	if code, ok := l.counties[strings.ToLower(state+"/"+name)]; ok {
		return facet.Resolved(facet.County, name, code)
	}
	return facet.NotFound(facet.County, name)
}

func (l *fakeLookup) Commodity(name string) facet.Resolution {
	l.calls++
	if code, ok := l.commodities[strings.ToLower(name)]; ok {
		return facet.Resolved(facet.Commodity, name, code)
	}
	return facet.NotFound(facet.Commodity, name)
}

type fakeRepo struct {
	results   []candidate.Candidate
	errs      []error // returned in order, then nil
	calls     int
	lastTopK  int
	lastExpr  filter.Expression
	lastQuery []float32
}

func (r *fakeRepo) SearchKNN(_ context.Context, vector []float32, expr filter.Expression, topK int) ([]candidate.Candidate, error) {
	r.calls++
	r.lastTopK = topK
	r.lastExpr = expr
	r.lastQuery = vector
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return r.results, nil
}

type fakeEmbedder struct {
	vec    []float32
	err    error
	called bool
}

func (e *fakeEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	e.called = true
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	return domain.EmbeddingResult{Embedding: e.vec, TotalTokens: 4}, nil
}

type fakeFetcher struct {
	texts map[string]string
	err   error
	keys  []string
}

func (f *fakeFetcher) FetchText(_ context.Context, key string) (string, error) {
	f.keys = append(f.keys, key)
	if f.err != nil {
		return "", f.err
	}
	return f.texts[key], nil
}

func cand(id, key, category string) candidate.Candidate {
	return candidate.New(id, 0.9, map[string]string{
		candidate.FieldSourceKey:   key,
		candidate.FieldTitle:       "Title " + key,
		candidate.FieldPage:        "2",
		candidate.FieldDocCategory: category,
		candidate.FieldState:       "19",
		candidate.FieldCounty:      "00",
		candidate.FieldCommodity:   "0041",
		candidate.FieldContent:     "excerpt of " + key,
	})
}
