package evaluation

import (
	"math"
	"strings"

	"github.com/kailas-cloud/croptalk/internal/domain/evalcase"
	"github.com/kailas-cloud/croptalk/internal/domain/facet"
)

// Report is a scored evaluation: one row per use case plus column means.
type Report struct {
	Rows    []evalcase.Row
	Summary evalcase.Summary
}

// Score fills the match flags and eval_score of every row and computes the
// summary over them. The input slice is not modified.
func Score(rows []evalcase.Row) Report {
	out := make([]evalcase.Row, len(rows))
	copy(out, rows)
	for i := range out {
		scoreRow(&out[i])
	}
	return Report{Rows: out, Summary: summarize(out)}
}

func scoreRow(r *evalcase.Row) {
	for i, f := range facet.All {
		r.FacetMatch[i] = facetMatch(r.Actual.Facets.Get(f), r.Case.Facets.Get(f))
	}
	for k, expected := range r.Case.Documents {
		r.DocMatch[k] = docMatch(expected, r.Actual.Documents)
		r.PageMatch[k] = pageMatch(expected, r.Actual.Documents)
	}

	matches := r.Matches()
	var hits int
	for _, m := range matches {
		if m {
			hits++
		}
	}
	r.Score = float64(hits) / float64(len(matches))
}

// facetMatch is true when both sides are absent or equal ignoring case.
func facetMatch(actual, expected string) bool {
	if actual == "" || expected == "" {
		return actual == expected
	}
	return strings.EqualFold(actual, expected)
}

// docMatch is true when nothing is expected or the expected key was retrieved
// in any slot.
func docMatch(expected *evalcase.ExpectedDocument, actual [evalcase.MaxDocuments]*evalcase.ActualDocument) bool {
	if expected == nil {
		return true
	}
	for _, a := range actual {
		if a != nil && a.Key == expected.Key {
			return true
		}
	}
	return false
}

// pageMatch is true when nothing is expected, or some slot retrieved the
// expected key on an accepted page. An empty page set accepts any page.
func pageMatch(expected *evalcase.ExpectedDocument, actual [evalcase.MaxDocuments]*evalcase.ActualDocument) bool {
	if expected == nil {
		return true
	}
	for _, a := range actual {
		if a == nil || a.Key != expected.Key {
			continue
		}
		if expected.Pages.IsEmpty() || (a.HasPage && expected.Pages.Contains(a.Page)) {
			return true
		}
	}
	return false
}

// summarize averages each match column and the score. With no rows every
// mean is NaN.
func summarize(rows []evalcase.Row) evalcase.Summary {
	s := evalcase.Summary{Matches: make([]float64, len(evalcase.MatchColumns()))}
	if len(rows) == 0 {
		for i := range s.Matches {
			s.Matches[i] = math.NaN()
		}
		s.Score = math.NaN()
		return s
	}

	for i := range rows {
		for j, m := range rows[i].Matches() {
			if m {
				s.Matches[j]++
			}
		}
		s.Score += rows[i].Score
	}
	n := float64(len(rows))
	for j := range s.Matches {
		s.Matches[j] /= n
	}
	s.Score /= n
	return s
}
