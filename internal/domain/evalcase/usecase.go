package evalcase

import "github.com/kailas-cloud/croptalk/internal/domain/facet"

// MaxDocuments is the number of expected / actual document slots per use case.
const MaxDocuments = 3

// ExpectedDocument is a labeled source document with the pages that answer the query.
type ExpectedDocument struct {
	Key   string
	Pages PageSet
}

// UseCase is one labeled evaluation row. Empty facet values mean "expected absent".
type UseCase struct {
	Row       int
	Query     string
	Facets    facet.Values
	Documents [MaxDocuments]*ExpectedDocument // nil slot: no expectation
}

// ActualDocument is one document the retrieval step produced.
type ActualDocument struct {
	Key     string
	Page    int
	HasPage bool
}

// Observation holds what the pipeline actually did for a use case.
// Ran is false when the pipeline failed before producing a trace.
// Filled is false when no retrieval step could be recovered.
type Observation struct {
	Facets         facet.Values
	Documents      [MaxDocuments]*ActualDocument
	RetrievalSteps int
	Ran            bool
	Filled         bool
}

// Row is a use case plus its observation and the derived match columns.
type Row struct {
	Case       UseCase
	Actual     Observation
	FacetMatch [4]bool // indexed like facet.All
	DocMatch   [MaxDocuments]bool
	PageMatch  [MaxDocuments]bool
	Score      float64
}

// Matches returns the ten match flags in MatchColumns order.
func (r *Row) Matches() []bool {
	out := make([]bool, 0, len(r.FacetMatch)+2*MaxDocuments)
	out = append(out, r.FacetMatch[:]...)
	out = append(out, r.DocMatch[:]...)
	out = append(out, r.PageMatch[:]...)
	return out
}

// Summary holds column-wise means over all scored rows.
type Summary struct {
	Matches []float64 // MatchColumns order
	Score   float64
}
