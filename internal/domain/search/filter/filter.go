package filter

import (
	"encoding/json"
	"fmt"
)

// MaxConditions is the maximum number of conditions in one expression.
const MaxConditions = 32

// Op is the comparison a condition applies to its field.
type Op string

const (
	// OpEq requires the field to equal a single value.
	OpEq Op = "$eq"
	// OpIn requires the field to equal any of the listed values.
	OpIn Op = "$in"
	// OpAnd is the conjunction operator of the wire grammar.
	OpAnd = "$and"
)

// Expression is a conjunction (logical AND) of conditions, kept in insertion order.
type Expression struct {
	conditions []Condition
}

// NewExpression validates and creates an Expression.
func NewExpression(conditions ...Condition) (Expression, error) {
	if len(conditions) > MaxConditions {
		return Expression{}, fmt.Errorf("too many conditions (max %d)", MaxConditions)
	}
	return Expression{conditions: conditions}, nil
}

// Conditions returns the conjuncts in order.
func (e Expression) Conditions() []Condition { return e.conditions }

// IsEmpty reports whether the expression matches everything.
func (e Expression) IsEmpty() bool { return len(e.conditions) == 0 }

// Wire flattens the expression for an index filter grammar:
// no conditions -> {}, one condition -> the condition itself, more -> {"$and": [...]}.
func (e Expression) Wire() map[string]any {
	switch len(e.conditions) {
	case 0:
		return map[string]any{}
	case 1:
		return e.conditions[0].Wire()
	}
	parts := make([]any, 0, len(e.conditions))
	for _, c := range e.conditions {
		parts = append(parts, c.Wire())
	}
	return map[string]any{OpAnd: parts}
}

// MarshalJSON encodes the flattened wire form.
func (e Expression) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Wire())
}

// Condition is a single equality or membership test on one field.
type Condition struct {
	key    string
	op     Op
	values []string
}

// NewEq creates an exact equality condition.
func NewEq(key, value string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if value == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, op: OpEq, values: []string{value}}, nil
}

// NewIn creates a membership condition against the given values.
func NewIn(key string, values ...string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if len(values) == 0 {
		return Condition{}, fmt.Errorf("at least one value is required for key %q", key)
	}
	for _, v := range values {
		if v == "" {
			return Condition{}, fmt.Errorf("empty value in membership for key %q", key)
		}
	}
	return Condition{key: key, op: OpIn, values: values}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Op returns the comparison operator.
func (c Condition) Op() Op { return c.op }

// Values returns the accepted values (one for equality).
func (c Condition) Values() []string { return c.values }

// Wire renders {key: {"$eq": v}} or {key: {"$in": [v...]}}.
func (c Condition) Wire() map[string]any {
	if c.op == OpEq {
		return map[string]any{c.key: map[string]any{string(OpEq): c.values[0]}}
	}
	vals := make([]any, len(c.values))
	for i, v := range c.values {
		vals[i] = v
	}
	return map[string]any{c.key: map[string]any{string(OpIn): vals}}
}
