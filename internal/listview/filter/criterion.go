package filter

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// All is the placeholder value that deactivates an equality input built by
// Equals. Parsed expressions compare against it literally.
const All = "all"

// Op is the predicate or combinator of a criterion node.
type Op string

const (
	OpContains     Op = "contains"
	OpEquals       Op = "eq"
	OpNotEquals    Op = "ne"
	OpLess         Op = "lt"
	OpLessEqual    Op = "le"
	OpGreater      Op = "gt"
	OpGreaterEqual Op = "ge"
	OpAnd          Op = "and"
	OpOr           Op = "or"
	OpNot          Op = "not"
)

// Criterion is one node of a filter: a predicate over one or more fields, or
// a combination of child criteria.
type Criterion struct {
	Op       Op
	Fields   []string
	Value    any
	Children []Criterion
	// AllowsAll makes the All sentinel deactivate the criterion. Only
	// categorical inputs set it.
	AllowsAll bool
	// Name identifies the input a criterion came from so With can replace it.
	Name string
}

// Contains matches records where any of fields contains query, ignoring case.
func Contains(query string, fields ...string) Criterion {
	return Criterion{Op: OpContains, Fields: fields, Value: query}
}

// Equals is a categorical input: it matches records whose field equals value
// exactly, and the All sentinel turns it off.
func Equals(field string, value any) Criterion {
	return Criterion{Op: OpEquals, Fields: []string{field}, Value: value, AllowsAll: true}
}

// Compare builds an ordering or inequality predicate.
func Compare(op Op, field string, value any) Criterion {
	return Criterion{Op: op, Fields: []string{field}, Value: value}
}

// And matches when every active child matches.
func And(children ...Criterion) Criterion {
	return Criterion{Op: OpAnd, Children: children}
}

// Or matches when any active child matches.
func Or(children ...Criterion) Criterion {
	return Criterion{Op: OpOr, Children: children}
}

// Not negates child.
func Not(child Criterion) Criterion {
	return Criterion{Op: OpNot, Children: []Criterion{child}}
}

// Named labels c with the input it came from.
func (c Criterion) Named(name string) Criterion {
	c.Name = name
	return c
}

// Key returns the identity used by Set.With: the explicit name, or the op and
// fields for unnamed predicates.
func (c Criterion) Key() string {
	if c.Name != "" {
		return c.Name
	}
	if c.isPredicate() {
		return string(c.Op) + ":" + strings.Join(c.Fields, ",")
	}
	return ""
}

// Active reports whether c constrains anything. Blank values and, for
// categorical inputs, the All sentinel are inactive. Combinators are active
// when any child is.
func (c Criterion) Active() bool {
	switch c.Op {
	case OpAnd, OpOr, OpNot:
		for _, child := range c.Children {
			if child.Active() {
				return true
			}
		}
		return false
	}
	switch v := c.Value.(type) {
	case nil:
		return false
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return false
		}
		return !c.AllowsAll || !strings.EqualFold(trimmed, All)
	default:
		return true
	}
}

// String renders c for logs.
func (c Criterion) String() string {
	switch c.Op {
	case OpAnd, OpOr:
		parts := make([]string, 0, len(c.Children))
		for _, child := range c.Children {
			parts = append(parts, child.String())
		}
		return "(" + strings.Join(parts, " "+strings.ToUpper(string(c.Op))+" ") + ")"
	case OpNot:
		if len(c.Children) == 1 {
			return "NOT " + c.Children[0].String()
		}
		return "NOT ()"
	default:
		return fmt.Sprintf("%s %s %v", strings.Join(c.Fields, "|"), c.Op, c.Value)
	}
}

func (c Criterion) isPredicate() bool {
	switch c.Op {
	case OpAnd, OpOr, OpNot:
		return false
	}
	return true
}

// fold applies Unicode case folding. Casers are stateful, so each call gets
// its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
