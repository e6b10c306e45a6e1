// Package mutation applies create, update and delete intents to a record
// store and its backend. Every change is applied locally first and rolled
// back when the backend rejects it.
package mutation

import (
	"context"

	"github.com/louisbranch/boardkit/internal/listview/record"
)

// State is the lifecycle position of one mutation.
type State int

const (
	Idle State = iota
	Pending
	Applied
	Failed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Applied:
		return "applied"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == Applied || s == Failed
}

// Kind is the intent of a mutation.
type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Mutation is one dispatched intent and where it ended up.
type Mutation struct {
	Kind     Kind
	RecordID string
	State    State
	Err      error
}

// Patch is a partial record keyed by field name.
type Patch = map[string]any

// Mutable is a record the dispatcher can give a provisional identifier and
// patch locally.
type Mutable[T any] interface {
	record.Record
	WithID(id string) T
	Apply(patch Patch) (T, error)
}

// Remote is the backend side of every mutation.
type Remote[T any] interface {
	Create(ctx context.Context, payload T) (T, error)
	Update(ctx context.Context, id string, patch Patch) (T, error)
	Delete(ctx context.Context, id string) error
}

// Validator checks a record before anything is dispatched.
type Validator[T any] interface {
	Validate(T) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc[T any] func(T) error

// Validate implements Validator.
func (fn ValidatorFunc[T]) Validate(r T) error { return fn(r) }
