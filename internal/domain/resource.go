// Package domain describes the dashboard resources boardkit serves and the
// shared helpers their record types use.
package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/louisbranch/boardkit/internal/listview/filter"
	"github.com/louisbranch/boardkit/internal/listview/record"
	apperrors "github.com/louisbranch/boardkit/internal/platform/errors"
)

// Server-owned document fields. Clients cannot set them.
const (
	FieldID        = record.IDField
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// Field is one scalar, filterable field of a resource.
type Field struct {
	Name string
	Type filter.FieldType
}

// Resource is the schema-level description of one list page.
type Resource struct {
	Name      string
	Fields    []Field
	Nested    []string // non-scalar fields passed through as-is
	Required  []string
	Enums     map[string][]string
	Search    []string // fields free-text search runs over
	Defaults  map[string]any
	Placement record.Placement
}

// Types returns the field types keyed by name.
func (r Resource) Types() map[string]filter.FieldType {
	out := make(map[string]filter.FieldType, len(r.Fields))
	for _, f := range r.Fields {
		out[f.Name] = f.Type
	}
	return out
}

// FieldNames returns scalar field names in declaration order.
func (r Resource) FieldNames() []string {
	out := make([]string, 0, len(r.Fields))
	for _, f := range r.Fields {
		out = append(out, f.Name)
	}
	return out
}

// DocumentSchema builds the document filter schema for r.
func (r Resource) DocumentSchema() (*filter.Schema[record.Document], error) {
	return filter.DocumentSchema(r.Types(), r.FieldNames()...)
}

// SearchCriterion is the free-text input of the page.
func (r Resource) SearchCriterion(query string) filter.Criterion {
	return filter.Contains(query, r.Search...).Named("search")
}

// EnumCriterion is the categorical input for field.
func (r Resource) EnumCriterion(field, value string) filter.Criterion {
	return filter.Equals(field, value).Named(field)
}

// DefaultCriteria are the inputs of a freshly opened page: empty search and
// every enum set to the All sentinel.
func (r Resource) DefaultCriteria() []filter.Criterion {
	criteria := []filter.Criterion{r.SearchCriterion("")}
	for _, field := range r.enumFields() {
		criteria = append(criteria, r.EnumCriterion(field, filter.All))
	}
	return criteria
}

// Columns maps every scalar field to the SQL expression column returns.
func (r Resource) Columns(column func(field string) string) map[string]string {
	out := make(map[string]string, len(r.Fields))
	for _, f := range r.Fields {
		out[f.Name] = column(f.Name)
	}
	return out
}

// WithDefaults fills absent fields of doc from r.Defaults.
func (r Resource) WithDefaults(doc record.Document) record.Document {
	out := doc.Clone()
	if out == nil {
		out = record.Document{}
	}
	for key, value := range r.Defaults {
		if _, ok := out[key]; !ok {
			out[key] = value
		}
	}
	return out
}

// Validate checks a full document: known fields, field types, enum
// membership and required fields.
func (r Resource) Validate(doc record.Document) error {
	if err := r.checkFields(doc); err != nil {
		return err
	}
	for _, name := range r.Required {
		value, _ := doc[name].(string)
		if strings.TrimSpace(value) == "" {
			if _, present := doc[name]; !present || r.Types()[name] == filter.TypeString {
				return apperrors.Validation(name, name+" is required")
			}
		}
	}
	return nil
}

// ValidatePatch checks a partial document. Required fields may be omitted
// but not blanked.
func (r Resource) ValidatePatch(patch map[string]any) error {
	if err := r.checkFields(patch); err != nil {
		return err
	}
	for _, name := range r.Required {
		value, present := patch[name]
		if !present {
			continue
		}
		if s, ok := value.(string); value == nil || (ok && strings.TrimSpace(s) == "") {
			return apperrors.Validation(name, name+" is required")
		}
	}
	return nil
}

// Strip returns doc without server-owned fields.
func Strip(doc map[string]any) record.Document {
	out := record.Document{}
	for key, value := range doc {
		switch key {
		case FieldID, FieldCreatedAt, FieldUpdatedAt:
			continue
		}
		out[key] = value
	}
	return out
}

func (r Resource) checkFields(doc map[string]any) error {
	types := r.Types()
	for key, value := range doc {
		switch key {
		case FieldID, FieldCreatedAt, FieldUpdatedAt:
			continue
		}
		fieldType, scalar := types[key]
		if !scalar {
			if slices.Contains(r.Nested, key) {
				continue
			}
			return apperrors.Validation(key, fmt.Sprintf("unknown field %q for %s", key, r.Name))
		}
		if value == nil {
			continue
		}
		if _, err := filter.Coerce(fieldType, value); err != nil {
			return apperrors.Validation(key, fmt.Sprintf("%s must be a %s", key, fieldType))
		}
		if allowed, ok := r.Enums[key]; ok {
			s, _ := value.(string)
			if !slices.Contains(allowed, s) {
				return apperrors.Validation(key, fmt.Sprintf("%s must be one of %s", key, strings.Join(allowed, ", ")))
			}
		}
	}
	return nil
}

func (r Resource) enumFields() []string {
	var out []string
	for _, f := range r.Fields {
		if _, ok := r.Enums[f.Name]; ok {
			out = append(out, f.Name)
		}
	}
	return out
}

// ToDocument converts a typed record to its document form.
func ToDocument(v any) (record.Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var doc record.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return doc, nil
}

// FromDocument converts a document to a typed record.
func FromDocument[T any](doc map[string]any) (T, error) {
	var out T
	data, err := json.Marshal(doc)
	if err != nil {
		return out, fmt.Errorf("encode document: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, apperrors.Validation("", fmt.Sprintf("invalid record: %v", err))
	}
	return out, nil
}

// ApplyPatch merges patch into a typed record through its document form.
func ApplyPatch[T any](current T, patch map[string]any) (T, error) {
	doc, err := ToDocument(current)
	if err != nil {
		return current, err
	}
	return FromDocument[T](doc.Merge(patch))
}

// ValidatorFor validates typed records against r.
func ValidatorFor[T any](r Resource) func(T) error {
	return func(v T) error {
		doc, err := ToDocument(v)
		if err != nil {
			return err
		}
		return r.Validate(doc)
	}
}

// EnumValues converts a closed set of typed values to strings.
func EnumValues[E ~string](values []E) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
