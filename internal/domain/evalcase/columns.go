package evalcase

import (
	"fmt"

	"github.com/kailas-cloud/croptalk/internal/domain/facet"
)

// Column names and suffixes of the evaluation table.
const (
	ColQuery          = "query"
	ColRetrievalCount = "nb_of_FindDocs_nodes_actual"
	ColScore          = "eval_score"

	SuffixExpected = "_expected"
	SuffixActual   = "_actual"
	SuffixMatch    = "_match"
)

// FacetColumn returns e.g. "state_filter_expected".
func FacetColumn(f facet.Facet, suffix string) string {
	return string(f) + "_filter" + suffix
}

// DocColumn returns e.g. "retrieved_doc2_expected" for slot index 1.
func DocColumn(slot int, suffix string) string {
	return fmt.Sprintf("retrieved_doc%d%s", slot+1, suffix)
}

// PageColumn returns e.g. "retrieved_doc2_page_expected" for slot index 1.
func PageColumn(slot int, suffix string) string {
	return fmt.Sprintf("retrieved_doc%d_page%s", slot+1, suffix)
}

// MatchColumns lists the ten match columns: facets, then documents, then pages.
func MatchColumns() []string {
	cols := make([]string, 0, len(facet.All)+2*MaxDocuments)
	for _, f := range facet.All {
		cols = append(cols, FacetColumn(f, SuffixMatch))
	}
	for slot := range MaxDocuments {
		cols = append(cols, DocColumn(slot, SuffixMatch))
	}
	for slot := range MaxDocuments {
		cols = append(cols, PageColumn(slot, SuffixMatch))
	}
	return cols
}
