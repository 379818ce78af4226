package retrieval

import (
	"fmt"
	"math"
	"strings"

	"github.com/kailas-cloud/croptalk/internal/domain"
	"github.com/kailas-cloud/croptalk/internal/domain/facet"
)

const (
	// DefaultTopK is the number of passages requested when the caller sets none.
	DefaultTopK = 3
	// MaxTopK bounds a single similarity search.
	MaxTopK = 100
)

// Argument names of the retrieval tool call.
const (
	ArgQuery         = "query"
	ArgDocCategory   = "doc_category"
	ArgCommodity     = "commodity"
	ArgCounty        = "county"
	ArgState         = "state"
	ArgTopK          = "top_k"
	ArgIncludeCommon = "include_common_docs"
)

// Query is one retrieval request.
type Query struct {
	Text          string
	Facets        facet.Values
	TopK          int
	IncludeCommon bool
}

// NewQuery returns a query with default top-k that includes common documents.
func NewQuery(text string) Query {
	return Query{Text: text, TopK: DefaultTopK, IncludeCommon: true}
}

// Validate rejects queries that must not reach the index.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: query text is required", domain.ErrInvalidInput)
	}
	if q.TopK < 0 || q.TopK > MaxTopK {
		return fmt.Errorf("%w: top_k must be between 1 and %d, got %d", domain.ErrInvalidInput, MaxTopK, q.TopK)
	}
	return nil
}

// QueryFromArgs decodes an untyped argument map, as produced by a tool call or a
// JSON body. A missing or non-string query is invalid input.
func QueryFromArgs(args map[string]any) (Query, error) {
	raw, ok := args[ArgQuery]
	if !ok {
		return Query{}, fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, ArgQuery)
	}
	text, ok := raw.(string)
	if !ok {
		return Query{}, fmt.Errorf("%w: %s must be a string, got %T", domain.ErrInvalidInput, ArgQuery, raw)
	}

	q := NewQuery(text)
	var err error
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{ArgDocCategory, &q.Facets.DocCategory},
		{ArgCommodity, &q.Facets.Commodity},
		{ArgCounty, &q.Facets.County},
		{ArgState, &q.Facets.State},
	} {
		if *f.dst, err = optionalString(args, f.name); err != nil {
			return Query{}, err
		}
	}

	if v, ok := args[ArgTopK]; ok && v != nil {
		if q.TopK, err = toInt(v); err != nil {
			return Query{}, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, ArgTopK, err)
		}
	}
	if v, ok := args[ArgIncludeCommon]; ok && v != nil {
		b, isBool := v.(bool)
		if !isBool {
			return Query{}, fmt.Errorf("%w: %s must be a boolean, got %T", domain.ErrInvalidInput, ArgIncludeCommon, v)
		}
		q.IncludeCommon = b
	}
	return q, nil
}

func optionalString(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", domain.ErrInvalidInput, name, v)
	}
	return s, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("not an integer: %v", n)
		}
		return int(n), nil
	}
	return 0, fmt.Errorf("unsupported type %T", v)
}
