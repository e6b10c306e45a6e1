package filter

import (
	"fmt"
	"strings"
)

// SQLCondition is a WHERE clause fragment with positional parameters.
type SQLCondition struct {
	Clause string
	Params []any
}

// Empty reports whether the condition constrains nothing.
func (c SQLCondition) Empty() bool {
	return strings.TrimSpace(c.Clause) == ""
}

var sqlOps = map[Op]string{
	OpEquals:       "=",
	OpNotEquals:    "!=",
	OpLess:         "<",
	OpLessEqual:    "<=",
	OpGreater:      ">",
	OpGreaterEqual: ">=",
}

// ToSQL translates c into a condition over columns, which maps field names to
// SQL expressions. Inactive criteria translate to an empty condition.
// Substring matches use LIKE, which folds case for ASCII only.
//
// A missing field (NULL) matches like it does in memory: it is never equal,
// ordered or contained, so it satisfies != and any negation.
func ToSQL(c Criterion, columns map[string]string) (SQLCondition, error) {
	if !c.Active() {
		return SQLCondition{}, nil
	}
	switch c.Op {
	case OpAnd, OpOr:
		joiner := " AND "
		if c.Op == OpOr {
			joiner = " OR "
		}
		var clauses []string
		var params []any
		for _, child := range c.Children {
			cond, err := ToSQL(child, columns)
			if err != nil {
				return SQLCondition{}, err
			}
			if cond.Empty() {
				continue
			}
			clauses = append(clauses, cond.Clause)
			params = append(params, cond.Params...)
		}
		if len(clauses) == 1 {
			return SQLCondition{Clause: clauses[0], Params: params}, nil
		}
		return SQLCondition{Clause: "(" + strings.Join(clauses, joiner) + ")", Params: params}, nil
	case OpNot:
		inner, err := ToSQL(c.Children[0], columns)
		if err != nil {
			return SQLCondition{}, err
		}
		return SQLCondition{Clause: "NOT COALESCE(" + inner.Clause + ", 0)", Params: inner.Params}, nil
	case OpContains:
		pattern := "%" + escapeLike(strings.TrimSpace(c.Value.(string))) + "%"
		clauses := make([]string, 0, len(c.Fields))
		params := make([]any, 0, len(c.Fields))
		for _, field := range c.Fields {
			column, err := columnFor(field, columns)
			if err != nil {
				return SQLCondition{}, err
			}
			clauses = append(clauses, column+` LIKE ? ESCAPE '\'`)
			params = append(params, pattern)
		}
		if len(clauses) == 1 {
			return SQLCondition{Clause: clauses[0], Params: params}, nil
		}
		return SQLCondition{Clause: "(" + strings.Join(clauses, " OR ") + ")", Params: params}, nil
	}

	op, ok := sqlOps[c.Op]
	if !ok || len(c.Fields) != 1 {
		return SQLCondition{}, fmt.Errorf("unsupported criterion %s", c)
	}
	column, err := columnFor(c.Fields[0], columns)
	if err != nil {
		return SQLCondition{}, err
	}
	if c.Op == OpNotEquals {
		return SQLCondition{Clause: fmt.Sprintf("(%s IS NULL OR %s != ?)", column, column), Params: []any{c.Value}}, nil
	}
	return SQLCondition{Clause: fmt.Sprintf("%s %s ?", column, op), Params: []any{c.Value}}, nil
}

func columnFor(field string, columns map[string]string) (string, error) {
	column, ok := columns[field]
	if !ok {
		return "", fmt.Errorf("unknown field: %s", field)
	}
	return column, nil
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}
