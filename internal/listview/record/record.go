// Package record holds the in-memory ordered collection backing one list
// page.
package record

import (
	"context"
	"maps"
)

// Record is an entity with a stable identifier.
type Record interface {
	RecordID() string
}

// Source fetches every record visible to the session in ctx.
type Source[T Record] interface {
	List(ctx context.Context) ([]T, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc[T Record] func(ctx context.Context) ([]T, error)

// List implements Source.
func (fn SourceFunc[T]) List(ctx context.Context) ([]T, error) {
	return fn(ctx)
}

// Placement is where a store puts records with a new identifier.
type Placement int

const (
	// Append adds new records at the end.
	Append Placement = iota
	// Prepend adds new records at the start.
	Prepend
)

// String returns the placement name.
func (p Placement) String() string {
	if p == Prepend {
		return "prepend"
	}
	return "append"
}

// IDField is the Document key holding the identifier.
const IDField = "id"

// Document is a schema-less record keyed by field name.
type Document map[string]any

// RecordID implements Record.
func (d Document) RecordID() string {
	value, _ := d[IDField].(string)
	return value
}

// Clone returns a shallow copy of d.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return maps.Clone(d)
}

// Merge returns a copy of d with patch applied. A nil value in patch removes
// the field. The identifier is never changed by a patch.
func (d Document) Merge(patch map[string]any) Document {
	out := d.Clone()
	if out == nil {
		out = Document{}
	}
	for key, value := range patch {
		if key == IDField {
			continue
		}
		if value == nil {
			delete(out, key)
			continue
		}
		out[key] = value
	}
	return out
}

// String returns the field as a string, or "" when absent or not a string.
func (d Document) String(field string) string {
	value, _ := d[field].(string)
	return value
}

// WithID returns a copy of d carrying id.
func (d Document) WithID(id string) Document {
	out := d.Clone()
	if out == nil {
		out = Document{}
	}
	out[IDField] = id
	return out
}

// Apply returns d with patch merged. It never fails for documents.
func (d Document) Apply(patch map[string]any) (Document, error) {
	return d.Merge(patch), nil
}
