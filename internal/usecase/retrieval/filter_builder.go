package retrieval

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/croptalk/internal/domain/facet"
	"github.com/kailas-cloud/croptalk/internal/domain/search/filter"
	"github.com/kailas-cloud/croptalk/internal/metrics"
)

// Wildcards holds the per-facet codes of documents that apply to every value of that facet.
type Wildcards struct {
	State     string
	County    string
	Commodity string
}

// DefaultWildcards returns the codes used by the passage corpus.
func DefaultWildcards() Wildcards {
	return Wildcards{State: "00", County: "00", Commodity: "0000"}
}

func (w Wildcards) code(f facet.Facet) string {
	switch f {
	case facet.State:
		return w.State
	case facet.County:
		return w.County
	case facet.Commodity:
		return w.Commodity
	}
	return ""
}

// FilterBuilder turns facet values into an index filter.
type FilterBuilder struct {
	lookup    Lookup
	wildcards Wildcards
	logger    *zap.Logger
}

// NewFilterBuilder creates a filter builder. Every wildcard code must be set.
func NewFilterBuilder(lookup Lookup, wildcards Wildcards, logger *zap.Logger) (*FilterBuilder, error) {
	if wildcards.State == "" || wildcards.County == "" || wildcards.Commodity == "" {
		return nil, fmt.Errorf("wildcard codes are required: %+v", wildcards)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FilterBuilder{lookup: lookup, wildcards: wildcards, logger: logger}, nil
}

// Build resolves each requested facet in state, county, commodity, category order.
// Values that fail to resolve add no constraint; the returned resolutions, one per facet,
// tell a lookup miss apart from a facet that was never asked for.
func (b *FilterBuilder) Build(v facet.Values, includeCommon bool) (filter.Expression, []facet.Resolution, error) {
	resolutions := []facet.Resolution{
		b.resolve(facet.State, v.State, func() facet.Resolution { return b.lookup.State(v.State) }),
		b.resolve(facet.County, v.County, func() facet.Resolution {
			if !facet.IsRequested(v.State) {
				return facet.Ignored(facet.County, v.County)
			}
			return b.lookup.County(v.County, v.State)
		}),
		b.resolve(facet.Commodity, v.Commodity, func() facet.Resolution { return b.lookup.Commodity(v.Commodity) }),
		b.resolve(facet.DocCategory, v.DocCategory, func() facet.Resolution {
			category := facet.Normalize(v.DocCategory)
			return facet.Resolved(facet.DocCategory, category, category)
		}),
	}

	conds := make([]filter.Condition, 0, len(resolutions))
	for _, res := range resolutions {
		if res.Status != facet.StatusResolved {
			continue
		}

		var (
			c   filter.Condition
			err error
		)
		if includeCommon && res.Facet != facet.DocCategory {
			c, err = filter.NewIn(string(res.Facet), res.Code, b.wildcards.code(res.Facet))
		} else {
			c, err = filter.NewEq(string(res.Facet), res.Code)
		}
		if err != nil {
			return filter.Expression{}, nil, fmt.Errorf("%s condition: %w", res.Facet, err)
		}
		conds = append(conds, c)
	}

	expr, err := filter.NewExpression(conds...)
	if err != nil {
		return filter.Expression{}, nil, fmt.Errorf("build filter: %w", err)
	}
	return expr, resolutions, nil
}

func (b *FilterBuilder) resolve(f facet.Facet, raw string, lookup func() facet.Resolution) facet.Resolution {
	if !facet.IsRequested(raw) {
		return facet.NotRequested(f)
	}

	res := lookup()
	if f == facet.DocCategory {
		return res
	}

	metrics.FacetLookupTotal.WithLabelValues(string(f), res.Status.String()).Inc()
	if res.Status != facet.StatusResolved {
		b.logger.Debug("facet dropped from filter",
			zap.String("facet", string(f)),
			zap.String("value", raw),
			zap.Stringer("status", res.Status),
			zap.Error(res.Err()),
		)
	}
	return res
}
