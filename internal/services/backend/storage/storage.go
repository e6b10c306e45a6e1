// Package storage defines persistence contracts for backend records.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/boardkit/internal/listview/filter"
	"github.com/louisbranch/boardkit/internal/listview/record"
)

// ErrNotFound indicates a requested record is missing for its owner.
var ErrNotFound = errors.New("record not found")

// Scope addresses one owner's collection.
type Scope struct {
	OwnerID  string
	Resource string
}

// ListOptions narrows a list.
type ListOptions struct {
	Filter filter.Criterion
	// Fields are the filterable fields of the resource.
	Fields      []string
	Limit       int
	NewestFirst bool
}

// RecordStore persists schema-less records as documents.
type RecordStore interface {
	List(ctx context.Context, scope Scope, opts ListOptions) ([]record.Document, error)
	Get(ctx context.Context, scope Scope, id string) (record.Document, error)
	Create(ctx context.Context, scope Scope, doc record.Document, now time.Time) (record.Document, error)
	Update(ctx context.Context, scope Scope, id string, patch map[string]any, now time.Time) (record.Document, error)
	Delete(ctx context.Context, scope Scope, id string) error
}
