package filter

import (
	"fmt"
	"strings"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// ExpressionName is the criterion name given to parsed expressions so a page
// holds at most one.
const ExpressionName = "expression"

// Parse compiles an AIP-160 filter expression over schema's fields. A blank
// expression yields an inactive criterion.
func Parse[T any](expression string, schema *Schema[T]) (Criterion, error) {
	if strings.TrimSpace(expression) == "" {
		return And().Named(ExpressionName), nil
	}
	if schema == nil {
		return Criterion{}, fmt.Errorf("filter schema is required")
	}
	decls, err := declarations(schema)
	if err != nil {
		return Criterion{}, err
	}
	parsed, err := filtering.ParseFilterString(expression, decls)
	if err != nil {
		return Criterion{}, fmt.Errorf("parse filter: %w", err)
	}
	c, err := translate(parsed.CheckedExpr.GetExpr(), schema)
	if err != nil {
		return Criterion{}, err
	}
	return c.Named(ExpressionName), nil
}

func declarations[T any](schema *Schema[T]) (*filtering.Declarations, error) {
	opts := []filtering.DeclarationOption{filtering.DeclareStandardFunctions()}
	for _, name := range schema.Names() {
		field, _ := schema.Field(name)
		var declared *expr.Type
		switch field.Type {
		case TypeString:
			declared = filtering.TypeString
		case TypeInt:
			declared = filtering.TypeInt
		case TypeFloat:
			declared = filtering.TypeFloat
		case TypeBool:
			declared = filtering.TypeBool
		default:
			return nil, fmt.Errorf("unsupported field type for %s", name)
		}
		opts = append(opts, filtering.DeclareIdent(name, declared))
	}
	return filtering.NewDeclarations(opts...)
}

func translate[T any](e *expr.Expr, schema *Schema[T]) (Criterion, error) {
	if e == nil {
		return And(), nil
	}
	call, ok := e.GetExprKind().(*expr.Expr_CallExpr)
	if !ok {
		return Criterion{}, fmt.Errorf("unsupported expression type: %T", e.GetExprKind())
	}
	args := call.CallExpr.GetArgs()

	switch fn := call.CallExpr.GetFunction(); fn {
	case "_&&_", "AND", "FUZZY":
		return translateAll(args, schema, And)
	case "_||_", "OR":
		return translateAll(args, schema, Or)
	case "NOT", "-":
		if len(args) != 1 {
			return Criterion{}, fmt.Errorf("NOT requires 1 argument")
		}
		child, err := translate(args[0], schema)
		if err != nil {
			return Criterion{}, err
		}
		return Not(child), nil
	case ":":
		field, value, err := operands(args, schema)
		if err != nil {
			return Criterion{}, err
		}
		text, ok := value.(string)
		if !ok {
			return Criterion{}, fmt.Errorf("%s: has operator needs a text value", field)
		}
		return Contains(text, field), nil
	default:
		op, ok := comparisonOps[fn]
		if !ok {
			return Criterion{}, fmt.Errorf("unsupported function: %s", fn)
		}
		field, value, err := operands(args, schema)
		if err != nil {
			return Criterion{}, err
		}
		return Compare(op, field, value), nil
	}
}

var comparisonOps = map[string]Op{
	"=": OpEquals, "_==_": OpEquals,
	"!=": OpNotEquals, "_!=_": OpNotEquals,
	"<": OpLess, "_<_": OpLess,
	"<=": OpLessEqual, "_<=_": OpLessEqual,
	">": OpGreater, "_>_": OpGreater,
	">=": OpGreaterEqual, "_>=_": OpGreaterEqual,
}

// translateAll flattens binary or n-ary AND/OR calls.
func translateAll[T any](args []*expr.Expr, schema *Schema[T], combine func(...Criterion) Criterion) (Criterion, error) {
	if len(args) < 2 {
		return Criterion{}, fmt.Errorf("logical operator requires at least 2 arguments")
	}
	children := make([]Criterion, 0, len(args))
	for _, arg := range args {
		child, err := translate(arg, schema)
		if err != nil {
			return Criterion{}, err
		}
		children = append(children, child)
	}
	return combine(children...), nil
}

func operands[T any](args []*expr.Expr, schema *Schema[T]) (string, any, error) {
	if len(args) != 2 {
		return "", nil, fmt.Errorf("comparison requires 2 arguments")
	}
	ident, ok := args[0].GetExprKind().(*expr.Expr_IdentExpr)
	if !ok {
		return "", nil, fmt.Errorf("expected field name, got %T", args[0].GetExprKind())
	}
	name := ident.IdentExpr.GetName()
	if _, ok := schema.Field(name); !ok {
		return "", nil, fmt.Errorf("unknown field: %s", name)
	}
	value, err := constant(args[1])
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", name, err)
	}
	return name, value, nil
}

func constant(e *expr.Expr) (any, error) {
	switch kind := e.GetExprKind().(type) {
	case *expr.Expr_ConstExpr:
		switch c := kind.ConstExpr.GetConstantKind().(type) {
		case *expr.Constant_StringValue:
			return c.StringValue, nil
		case *expr.Constant_Int64Value:
			return c.Int64Value, nil
		case *expr.Constant_Uint64Value:
			return int64(c.Uint64Value), nil
		case *expr.Constant_DoubleValue:
			return c.DoubleValue, nil
		case *expr.Constant_BoolValue:
			return c.BoolValue, nil
		default:
			return nil, fmt.Errorf("unsupported constant type: %T", c)
		}
	case *expr.Expr_IdentExpr:
		switch kind.IdentExpr.GetName() {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("expected a value, got field %s", kind.IdentExpr.GetName())
	default:
		return nil, fmt.Errorf("expected constant, got %T", kind)
	}
}
