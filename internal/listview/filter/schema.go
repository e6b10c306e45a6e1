// Package filter evaluates the criteria that narrow a list page.
package filter

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/louisbranch/boardkit/internal/listview/record"
)

// FieldType is the value type of a filterable field.
type FieldType string

const (
	TypeString FieldType = "string"
	TypeInt    FieldType = "int"
	TypeFloat  FieldType = "float"
	TypeBool   FieldType = "bool"
)

// Field is one filterable field. Get returns the field value normalized to
// string, int64, float64 or bool for the field type.
type Field[T any] struct {
	Name string
	Type FieldType
	Get  func(T) any
}

// StringField declares a string field.
func StringField[T any](name string, get func(T) string) Field[T] {
	return Field[T]{Name: name, Type: TypeString, Get: func(r T) any { return get(r) }}
}

// IntField declares an integer field.
func IntField[T any](name string, get func(T) int64) Field[T] {
	return Field[T]{Name: name, Type: TypeInt, Get: func(r T) any { return get(r) }}
}

// FloatField declares a floating point field.
func FloatField[T any](name string, get func(T) float64) Field[T] {
	return Field[T]{Name: name, Type: TypeFloat, Get: func(r T) any { return get(r) }}
}

// BoolField declares a boolean field.
func BoolField[T any](name string, get func(T) bool) Field[T] {
	return Field[T]{Name: name, Type: TypeBool, Get: func(r T) any { return get(r) }}
}

// Schema is the set of fields a record type can be filtered on.
type Schema[T any] struct {
	fields map[string]Field[T]
	order  []string
}

// NewSchema builds a schema, rejecting blank, duplicate or untyped fields.
func NewSchema[T any](fields ...Field[T]) (*Schema[T], error) {
	s := &Schema[T]{fields: make(map[string]Field[T], len(fields))}
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			return nil, fmt.Errorf("field name is required")
		}
		if _, dup := s.fields[name]; dup {
			return nil, fmt.Errorf("field %q declared twice", name)
		}
		switch field.Type {
		case TypeString, TypeInt, TypeFloat, TypeBool:
		default:
			return nil, fmt.Errorf("field %q has unsupported type %q", name, field.Type)
		}
		if field.Get == nil {
			return nil, fmt.Errorf("field %q has no accessor", name)
		}
		field.Name = name
		s.fields[name] = field
		s.order = append(s.order, name)
	}
	return s, nil
}

// MustSchema is NewSchema for package-level declarations.
func MustSchema[T any](fields ...Field[T]) *Schema[T] {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Field returns the named field.
func (s *Schema[T]) Field(name string) (Field[T], bool) {
	if s == nil {
		return Field[T]{}, false
	}
	field, ok := s.fields[name]
	return field, ok
}

// Names returns field names in declaration order.
func (s *Schema[T]) Names() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// Types returns the field types keyed by name.
func (s *Schema[T]) Types() map[string]FieldType {
	out := make(map[string]FieldType, len(s.order))
	for _, name := range s.order {
		out[name] = s.fields[name].Type
	}
	return out
}

// DocumentSchema builds a schema over record.Document from name/type pairs.
func DocumentSchema(types map[string]FieldType, order ...string) (*Schema[record.Document], error) {
	if len(order) == 0 {
		for name := range types {
			order = append(order, name)
		}
		slices.Sort(order)
	}
	fields := make([]Field[record.Document], 0, len(order))
	for _, name := range order {
		fieldType, ok := types[name]
		if !ok {
			return nil, fmt.Errorf("field %q has no type", name)
		}
		fields = append(fields, Field[record.Document]{
			Name: name,
			Type: fieldType,
			Get: func(d record.Document) any {
				value, err := Coerce(fieldType, d[name])
				if err != nil {
					return nil
				}
				return value
			},
		})
	}
	return NewSchema(fields...)
}

// Coerce converts value to the normalized Go type for fieldType. Strings are
// parsed for numeric and boolean fields so text inputs can target them.
func Coerce(fieldType FieldType, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch fieldType {
	case TypeString:
		if s, ok := value.(string); ok {
			return s, nil
		}
	case TypeInt:
		switch v := value.(type) {
		case int:
			return int64(v), nil
		case int32:
			return int64(v), nil
		case int64:
			return v, nil
		case float64:
			if v == math.Trunc(v) {
				return int64(v), nil
			}
		case json.Number:
			return v.Int64()
		case string:
			return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		}
	case TypeFloat:
		switch v := value.(type) {
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case float32:
			return float64(v), nil
		case float64:
			return v, nil
		case json.Number:
			return v.Float64()
		case string:
			return strconv.ParseFloat(strings.TrimSpace(v), 64)
		}
	case TypeBool:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			return strconv.ParseBool(strings.TrimSpace(v))
		}
	}
	return nil, fmt.Errorf("value %v (%T) is not a %s", value, value, fieldType)
}
