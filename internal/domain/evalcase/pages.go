package evalcase

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/croptalk/internal/domain"
)

// PageSet is an expanded set of acceptable page numbers.
// An empty set means any page is acceptable.
type PageSet map[int]struct{}

// Contains reports whether page p is in the set.
func (s PageSet) Contains(p int) bool {
	_, ok := s[p]
	return ok
}

// IsEmpty reports whether the set places no constraint.
func (s PageSet) IsEmpty() bool { return len(s) == 0 }

// Sorted returns the pages in ascending order.
func (s PageSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// maxRangeSpan bounds a single range so a typo cannot allocate millions of pages.
const maxRangeSpan = 10000

// ParsePages expands compact page notation: "", "NaN" -> {}, "3" -> {3}, "4,8-11" -> {4,8,9,10,11}.
// Malformed tokens fail with domain.ErrParse.
func ParsePages(raw string) (PageSet, error) {
	raw = strings.TrimSpace(raw)
	pages := make(PageSet)
	if raw == "" || strings.EqualFold(raw, "nan") {
		return pages, nil
	}

	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if n, err := parsePage(token); err == nil {
			pages[n] = struct{}{}
			continue
		}

		lowerStr, upperStr, ok := strings.Cut(token, "-")
		if !ok {
			return nil, fmt.Errorf("%w: page token %q in %q", domain.ErrParse, token, raw)
		}
		lower, errL := parsePage(strings.TrimSpace(lowerStr))
		upper, errU := parsePage(strings.TrimSpace(upperStr))
		if errL != nil || errU != nil {
			return nil, fmt.Errorf("%w: page range %q in %q", domain.ErrParse, token, raw)
		}
		if upper-lower > maxRangeSpan {
			return nil, fmt.Errorf("%w: page range %q spans more than %d pages", domain.ErrParse, token, maxRangeSpan)
		}
		// lower > upper yields no pages
		for p := lower; p <= upper; p++ {
			pages[p] = struct{}{}
		}
	}
	return pages, nil
}

// parsePage accepts plain digits and the float spelling spreadsheets produce ("3.0").
func parsePage(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty page")
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a page number: %q", s)
	}
	return int(f), nil
}
