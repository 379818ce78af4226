package retrieval

import "github.com/kailas-cloud/croptalk/internal/domain/search/candidate"

// Dedupe returns the indices of candidates to keep, in their original order.
// Only candidates of fullTextCategory are deduplicated, by source key, keeping the
// first occurrence; every other candidate survives.
func Dedupe(candidates []candidate.Candidate, fullTextCategory string) []int {
	seen := make(map[string]struct{})
	keep := make([]int, 0, len(candidates))

	for i := range candidates {
		c := &candidates[i]
		if c.DocCategory() == fullTextCategory {
			if _, dup := seen[c.SourceKey()]; dup {
				continue
			}
			seen[c.SourceKey()] = struct{}{}
		}
		keep = append(keep, i)
	}
	return keep
}
