package mutation

import (
	"context"
	"fmt"
	"sync"

	"github.com/louisbranch/boardkit/internal/listview/notice"
	"github.com/louisbranch/boardkit/internal/listview/record"
	apperrors "github.com/louisbranch/boardkit/internal/platform/errors"
	"github.com/louisbranch/boardkit/internal/platform/id"
)

// Dispatcher applies mutations to one store.
type Dispatcher[T Mutable[T]] struct {
	store     *record.Store[T]
	remote    Remote[T]
	validator Validator[T]
	sink      notice.Sink
	localizer notice.Localizer
	observe   func(Mutation)
	newID     func() (string, error)

	mu       sync.Mutex
	inflight map[string]struct{}
}

// Option configures a Dispatcher.
type Option[T Mutable[T]] func(*Dispatcher[T])

// WithValidator sets the pre-dispatch validator.
func WithValidator[T Mutable[T]](v Validator[T]) Option[T] {
	return func(d *Dispatcher[T]) { d.validator = v }
}

// WithSink sets where failure notices go.
func WithSink[T Mutable[T]](sink notice.Sink, l notice.Localizer) Option[T] {
	return func(d *Dispatcher[T]) {
		d.sink = sink
		d.localizer = l
	}
}

// WithObserver receives every state transition.
func WithObserver[T Mutable[T]](fn func(Mutation)) Option[T] {
	return func(d *Dispatcher[T]) { d.observe = fn }
}

// NewDispatcher binds a store to its backend.
func NewDispatcher[T Mutable[T]](store *record.Store[T], remote Remote[T], opts ...Option[T]) *Dispatcher[T] {
	d := &Dispatcher[T]{
		store:    store,
		remote:   remote,
		sink:     notice.Discard,
		newID:    id.NewProvisionalID,
		inflight: map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.remote == nil {
		d.remote = unavailableRemote[T]{}
	}
	return d
}

// Create validates payload, shows it under a provisional identifier and
// swaps in the backend record on success. On failure the provisional record
// is removed.
func (d *Dispatcher[T]) Create(ctx context.Context, payload T) (T, error) {
	var zero T
	m := Mutation{Kind: KindCreate}
	if err := d.validate(payload); err != nil {
		return zero, d.fail(m, err)
	}

	provisionalID, err := d.newID()
	if err != nil {
		return zero, d.fail(m, apperrors.Wrap(apperrors.KindMutationFailure, err))
	}
	m.RecordID = provisionalID
	d.store.Upsert(payload.WithID(provisionalID))
	d.transition(&m, Pending, nil)

	created, err := d.remote.Create(ctx, payload)
	if err == nil && created.RecordID() == "" {
		err = apperrors.E(apperrors.KindMutationFailure, "backend returned a record without an id")
	}
	if err != nil {
		d.store.Remove(provisionalID)
		return zero, d.fail(m, apperrors.Reclassify(apperrors.KindMutationFailure, err))
	}
	d.store.Replace(provisionalID, created)
	m.RecordID = created.RecordID()
	d.transition(&m, Applied, nil)
	return created, nil
}

// Update patches the record locally, then on the backend. The previous
// record is restored when the backend rejects the patch.
func (d *Dispatcher[T]) Update(ctx context.Context, recordID string, patch Patch) (T, error) {
	var zero T
	m := Mutation{Kind: KindUpdate, RecordID: recordID}
	if id.IsProvisional(recordID) {
		return zero, d.fail(m, apperrors.EK(apperrors.KindInvalidInput, "notice.pending_create", "record is still being created"))
	}
	release, err := d.acquire(recordID)
	if err != nil {
		return zero, d.fail(m, err)
	}
	defer release()

	previous, ok := d.store.Get(recordID)
	if !ok {
		return zero, d.fail(m, apperrors.EK(apperrors.KindNotFound, "notice.not_found", fmt.Sprintf("record %s not found", recordID)))
	}
	next, err := previous.Apply(patch)
	if err != nil {
		return zero, d.fail(m, err)
	}
	if err := d.validate(next); err != nil {
		return zero, d.fail(m, err)
	}

	d.store.Upsert(next)
	d.transition(&m, Pending, nil)

	updated, err := d.remote.Update(ctx, recordID, patch)
	if err == nil && updated.RecordID() != recordID {
		err = apperrors.E(apperrors.KindMutationFailure, fmt.Sprintf("backend returned record %q for %s", updated.RecordID(), recordID))
	}
	if err != nil {
		d.store.Upsert(previous)
		return zero, d.fail(m, apperrors.Reclassify(apperrors.KindMutationFailure, err))
	}
	d.store.Upsert(updated)
	d.transition(&m, Applied, nil)
	return updated, nil
}

// Delete removes the record locally, then on the backend. The record is put
// back at its former position when the backend rejects the delete.
func (d *Dispatcher[T]) Delete(ctx context.Context, recordID string) error {
	m := Mutation{Kind: KindDelete, RecordID: recordID}
	if id.IsProvisional(recordID) {
		return d.fail(m, apperrors.EK(apperrors.KindInvalidInput, "notice.pending_create", "record is still being created"))
	}
	release, err := d.acquire(recordID)
	if err != nil {
		return d.fail(m, err)
	}
	defer release()

	removed, index, ok := d.store.Remove(recordID)
	if !ok {
		return d.fail(m, apperrors.EK(apperrors.KindNotFound, "notice.not_found", fmt.Sprintf("record %s not found", recordID)))
	}
	d.transition(&m, Pending, nil)

	if err := d.remote.Delete(ctx, recordID); err != nil {
		d.store.Insert(index, removed)
		return d.fail(m, apperrors.Reclassify(apperrors.KindMutationFailure, err))
	}
	d.transition(&m, Applied, nil)
	return nil
}

func (d *Dispatcher[T]) validate(r T) error {
	if d.validator == nil {
		return nil
	}
	return d.validator.Validate(r)
}

// acquire holds recordID for one mutation at a time.
func (d *Dispatcher[T]) acquire(recordID string) (func(), error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, busy := d.inflight[recordID]; busy {
		return nil, apperrors.EK(apperrors.KindInvalidInput, "notice.busy", "another change to this record is in progress")
	}
	d.inflight[recordID] = struct{}{}
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.inflight, recordID)
	}, nil
}

func (d *Dispatcher[T]) fail(m Mutation, err error) error {
	d.transition(&m, Failed, err)
	d.sink.Notify(notice.FromError(err, d.localizer))
	return err
}

func (d *Dispatcher[T]) transition(m *Mutation, state State, err error) {
	m.State = state
	m.Err = err
	if d.observe != nil {
		d.observe(*m)
	}
}

type unavailableRemote[T any] struct{}

func (unavailableRemote[T]) Create(context.Context, T) (T, error) {
	var zero T
	return zero, apperrors.E(apperrors.KindUnavailable, "backend is not configured")
}

func (unavailableRemote[T]) Update(context.Context, string, Patch) (T, error) {
	var zero T
	return zero, apperrors.E(apperrors.KindUnavailable, "backend is not configured")
}

func (unavailableRemote[T]) Delete(context.Context, string) error {
	return apperrors.E(apperrors.KindUnavailable, "backend is not configured")
}
