// Package pagetest provides an in-memory page backend for tests.
package pagetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/louisbranch/boardkit/internal/listview/mutation"
	apperrors "github.com/louisbranch/boardkit/internal/platform/errors"
)

// Memory is a page.Backend holding records in a slice. Errors set on the
// fields are returned by the matching call.
type Memory[T mutation.Mutable[T]] struct {
	mu      sync.Mutex
	records []T
	nextID  int

	ListErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error

	Lists   int
	Creates int
	Updates int
	Deletes int
}

// NewMemory returns a backend seeded with records.
func NewMemory[T mutation.Mutable[T]](records ...T) *Memory[T] {
	return &Memory[T]{records: append([]T(nil), records...)}
}

// List implements record.Source.
func (m *Memory[T]) List(context.Context) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Lists++
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return append([]T(nil), m.records...), nil
}

// Create implements mutation.Remote and assigns srv-N identifiers.
func (m *Memory[T]) Create(_ context.Context, payload T) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Creates++
	if m.CreateErr != nil {
		var zero T
		return zero, m.CreateErr
	}
	m.nextID++
	created := payload.WithID(fmt.Sprintf("srv-%d", m.nextID))
	m.records = append(m.records, created)
	return created, nil
}

// Update implements mutation.Remote.
func (m *Memory[T]) Update(_ context.Context, id string, patch mutation.Patch) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Updates++
	var zero T
	if m.UpdateErr != nil {
		return zero, m.UpdateErr
	}
	for i, r := range m.records {
		if r.RecordID() != id {
			continue
		}
		next, err := r.Apply(patch)
		if err != nil {
			return zero, err
		}
		m.records[i] = next
		return next, nil
	}
	return zero, apperrors.E(apperrors.KindNotFound, "record not found")
}

// Delete implements mutation.Remote.
func (m *Memory[T]) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deletes++
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	for i, r := range m.records {
		if r.RecordID() == id {
			m.records = append(m.records[:i:i], m.records[i+1:]...)
			return nil
		}
	}
	return apperrors.E(apperrors.KindNotFound, "record not found")
}

// Records returns the backend contents.
func (m *Memory[T]) Records() []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]T(nil), m.records...)
}

// Calls returns how many remote mutations were attempted.
func (m *Memory[T]) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Creates + m.Updates + m.Deletes
}
