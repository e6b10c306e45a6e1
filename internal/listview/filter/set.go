package filter

import (
	"cmp"
	"fmt"
	"strings"
)

// Set is a conjunction of criteria bound to a schema. The zero value matches
// everything.
type Set[T any] struct {
	schema   *Schema[T]
	criteria []Criterion
}

// NewSet validates criteria against schema and normalizes their values to
// the field types.
func NewSet[T any](schema *Schema[T], criteria ...Criterion) (Set[T], error) {
	if schema == nil {
		return Set[T]{}, fmt.Errorf("filter schema is required")
	}
	s := Set[T]{schema: schema}
	return s.With(criteria...)
}

// With derives a set where each given criterion replaces the one with the
// same key, or is added when none exists.
func (s Set[T]) With(criteria ...Criterion) (Set[T], error) {
	if s.schema == nil && len(criteria) > 0 {
		return s, fmt.Errorf("filter schema is required")
	}
	next := Set[T]{schema: s.schema, criteria: append([]Criterion(nil), s.criteria...)}
	for _, c := range criteria {
		normalized, err := normalize(s.schema, c)
		if err != nil {
			return s, err
		}
		key := normalized.Key()
		replaced := false
		if key != "" {
			for i := range next.criteria {
				if next.criteria[i].Key() == key {
					next.criteria[i] = normalized
					replaced = true
					break
				}
			}
		}
		if !replaced {
			next.criteria = append(next.criteria, normalized)
		}
	}
	return next, nil
}

// Criteria returns a copy of the criteria in the set.
func (s Set[T]) Criteria() []Criterion {
	return append([]Criterion(nil), s.criteria...)
}

// Schema returns the schema the set is bound to.
func (s Set[T]) Schema() *Schema[T] {
	return s.schema
}

// Active reports whether any criterion constrains records.
func (s Set[T]) Active() bool {
	for _, c := range s.criteria {
		if c.Active() {
			return true
		}
	}
	return false
}

// Matches reports whether record satisfies every active criterion.
func (s Set[T]) Matches(record T) bool {
	for _, c := range s.criteria {
		if c.Active() && !eval(s.schema, c, record) {
			return false
		}
	}
	return true
}

// Combined returns the active criteria joined with AND.
func (s Set[T]) Combined() Criterion {
	var active []Criterion
	for _, c := range s.criteria {
		if c.Active() {
			active = append(active, c)
		}
	}
	if len(active) == 1 {
		return active[0]
	}
	return And(active...)
}

func normalize[T any](schema *Schema[T], c Criterion) (Criterion, error) {
	switch c.Op {
	case OpAnd, OpOr:
		children := make([]Criterion, 0, len(c.Children))
		for _, child := range c.Children {
			normalized, err := normalize(schema, child)
			if err != nil {
				return c, err
			}
			children = append(children, normalized)
		}
		c.Children = children
		return c, nil
	case OpNot:
		if len(c.Children) != 1 {
			return c, fmt.Errorf("NOT requires exactly one criterion")
		}
		child, err := normalize(schema, c.Children[0])
		if err != nil {
			return c, err
		}
		c.Children = []Criterion{child}
		return c, nil
	case OpContains:
		if len(c.Fields) == 0 {
			return c, fmt.Errorf("contains requires at least one field")
		}
		for _, name := range c.Fields {
			field, ok := schema.Field(name)
			if !ok {
				return c, fmt.Errorf("unknown field %q", name)
			}
			if field.Type != TypeString {
				return c, fmt.Errorf("field %q is %s; contains needs a string field", name, field.Type)
			}
		}
		if _, ok := c.Value.(string); !ok && c.Value != nil {
			return c, fmt.Errorf("contains query must be text, got %T", c.Value)
		}
		c.Fields = append([]string(nil), c.Fields...)
		return c, nil
	case OpEquals, OpNotEquals, OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		if len(c.Fields) != 1 {
			return c, fmt.Errorf("%s requires exactly one field", c.Op)
		}
		field, ok := schema.Field(c.Fields[0])
		if !ok {
			return c, fmt.Errorf("unknown field %q", c.Fields[0])
		}
		if field.Type == TypeBool && c.Op != OpEquals && c.Op != OpNotEquals {
			return c, fmt.Errorf("field %q is bool; only = and != apply", field.Name)
		}
		if !c.Active() {
			return c, nil
		}
		value, err := Coerce(field.Type, c.Value)
		if err != nil {
			return c, fmt.Errorf("field %q: %w", field.Name, err)
		}
		c.Value = value
		return c, nil
	default:
		return c, fmt.Errorf("unsupported operator %q", c.Op)
	}
}

func eval[T any](schema *Schema[T], c Criterion, record T) bool {
	switch c.Op {
	case OpAnd:
		for _, child := range c.Children {
			if child.Active() && !eval(schema, child, record) {
				return false
			}
		}
		return true
	case OpOr:
		considered := false
		for _, child := range c.Children {
			if !child.Active() {
				continue
			}
			considered = true
			if eval(schema, child, record) {
				return true
			}
		}
		return !considered
	case OpNot:
		return !eval(schema, c.Children[0], record)
	case OpContains:
		query := fold(strings.TrimSpace(c.Value.(string)))
		for _, name := range c.Fields {
			field, _ := schema.Field(name)
			if text, ok := field.Get(record).(string); ok && strings.Contains(fold(text), query) {
				return true
			}
		}
		return false
	}

	field, _ := schema.Field(c.Fields[0])
	got := field.Get(record)
	if got == nil {
		return c.Op == OpNotEquals
	}
	order, comparable := compareValues(got, c.Value)
	if !comparable {
		return c.Op == OpNotEquals
	}
	switch c.Op {
	case OpEquals:
		return order == 0
	case OpNotEquals:
		return order != 0
	case OpLess:
		return order < 0
	case OpLessEqual:
		return order <= 0
	case OpGreater:
		return order > 0
	case OpGreaterEqual:
		return order >= 0
	}
	return false
}

// compareValues orders two normalized values of the same type.
func compareValues(left, right any) (int, bool) {
	switch l := left.(type) {
	case string:
		r, ok := right.(string)
		return cmp.Compare(l, r), ok
	case int64:
		switch r := right.(type) {
		case int64:
			return cmp.Compare(l, r), true
		case float64:
			return cmp.Compare(float64(l), r), true
		}
	case float64:
		switch r := right.(type) {
		case float64:
			return cmp.Compare(l, r), true
		case int64:
			return cmp.Compare(l, float64(r)), true
		}
	case bool:
		r, ok := right.(bool)
		if !ok {
			return 0, false
		}
		if l == r {
			return 0, true
		}
		return 1, true
	}
	return 0, false
}
