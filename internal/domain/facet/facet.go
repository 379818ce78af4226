package facet

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/croptalk/internal/domain"
)

// Facet is a categorical filter dimension of the passage index.
type Facet string

const (
	State       Facet = "state"
	County      Facet = "county"
	Commodity   Facet = "commodity"
	DocCategory Facet = "doc_category"
)

// All lists facets in filter construction order.
var All = []Facet{State, County, Commodity, DocCategory}

// IsValid reports whether f is a known facet.
func (f Facet) IsValid() bool {
	switch f {
	case State, County, Commodity, DocCategory:
		return true
	}
	return false
}

// IsRequested reports whether a raw facet value asks for a constraint.
// Empty values and the "none" sentinel (any case) mean "no constraint".
func IsRequested(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, "none")
}

// Normalize maps the "none" sentinel and blanks to the empty (absent) value.
func Normalize(v string) string {
	if !IsRequested(v) {
		return ""
	}
	return strings.TrimSpace(v)
}

// Status is the outcome of resolving a facet value to a canonical code.
type Status int

const (
	// StatusNotRequested means the caller supplied no value.
	StatusNotRequested Status = iota
	// StatusResolved means a canonical code was found.
	StatusResolved
	// StatusNotFound means a value was supplied but has no canonical code.
	StatusNotFound
	// StatusIgnored means a value was supplied but a facet it depends on was not.
	StatusIgnored
)

func (s Status) String() string {
	switch s {
	case StatusNotRequested:
		return "not_requested"
	case StatusResolved:
		return "resolved"
	case StatusNotFound:
		return "not_found"
	case StatusIgnored:
		return "ignored"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Resolution records what happened to one facet during filter construction.
type Resolution struct {
	Facet  Facet
	Input  string
	Code   string
	Status Status
}

// Resolved builds a successful resolution.
func Resolved(f Facet, input, code string) Resolution {
	return Resolution{Facet: f, Input: input, Code: code, Status: StatusResolved}
}

// Err returns a domain.ErrLookupMiss wrap for unresolved values, nil otherwise.
func (r Resolution) Err() error {
	if r.Status != StatusNotFound {
		return nil
	}
	return fmt.Errorf("%s %q: %w", r.Facet, r.Input, domain.ErrLookupMiss)
}

// NotFound builds a lookup-miss resolution.
func NotFound(f Facet, input string) Resolution {
	return Resolution{Facet: f, Input: input, Status: StatusNotFound}
}

// Ignored builds a resolution for a value dropped because its parent facet is absent.
func Ignored(f Facet, input string) Resolution {
	return Resolution{Facet: f, Input: input, Status: StatusIgnored}
}

// NotRequested builds a resolution for an absent value.
func NotRequested(f Facet) Resolution {
	return Resolution{Facet: f, Status: StatusNotRequested}
}

// Values holds raw facet strings as extracted from a conversational turn.
// An empty string means absent.
type Values struct {
	State       string `json:"state,omitempty"`
	County      string `json:"county,omitempty"`
	Commodity   string `json:"commodity,omitempty"`
	DocCategory string `json:"doc_category,omitempty"`
}

// Get returns the raw value for f.
func (v Values) Get(f Facet) string {
	switch f {
	case State:
		return v.State
	case County:
		return v.County
	case Commodity:
		return v.Commodity
	case DocCategory:
		return v.DocCategory
	}
	return ""
}

// Set assigns the raw value for f. Unknown facets are ignored.
func (v *Values) Set(f Facet, value string) {
	switch f {
	case State:
		v.State = value
	case County:
		v.County = value
	case Commodity:
		v.Commodity = value
	case DocCategory:
		v.DocCategory = value
	}
}

// Normalized returns a copy with sentinels mapped to absent.
func (v Values) Normalized() Values {
	return Values{
		State:       Normalize(v.State),
		County:      Normalize(v.County),
		Commodity:   Normalize(v.Commodity),
		DocCategory: Normalize(v.DocCategory),
	}
}
