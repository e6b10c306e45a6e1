// Package page ties a record store, a filter set and a mutation dispatcher
// into one list page and turns every failure into a notice.
package page

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/louisbranch/boardkit/internal/listview/filter"
	"github.com/louisbranch/boardkit/internal/listview/mutation"
	"github.com/louisbranch/boardkit/internal/listview/notice"
	"github.com/louisbranch/boardkit/internal/listview/projection"
	"github.com/louisbranch/boardkit/internal/listview/record"
)

// Backend is the collaborator a page loads from and mutates through.
type Backend[T record.Record] interface {
	record.Source[T]
	mutation.Remote[T]
}

// Config describes one list page.
type Config[T mutation.Mutable[T]] struct {
	Schema    *filter.Schema[T]
	Backend   Backend[T]
	Placement record.Placement
	Validator mutation.Validator[T]
	// Defaults are the criteria a freshly opened page starts with.
	Defaults  []filter.Criterion
	Localizer notice.Localizer
}

// Page is the state behind one list page.
type Page[T mutation.Mutable[T]] struct {
	store      *record.Store[T]
	backend    Backend[T]
	dispatcher *mutation.Dispatcher[T]
	localizer  notice.Localizer
	notices    *notice.Queue

	mu  sync.RWMutex
	set filter.Set[T]
}

// New builds a page from cfg.
func New[T mutation.Mutable[T]](cfg Config[T]) (*Page[T], error) {
	if cfg.Schema == nil {
		return nil, errors.New("page schema is required")
	}
	if cfg.Backend == nil {
		return nil, errors.New("page backend is required")
	}
	set, err := filter.NewSet(cfg.Schema, cfg.Defaults...)
	if err != nil {
		return nil, fmt.Errorf("default criteria: %w", err)
	}
	store := record.NewStore[T](cfg.Placement)
	queue := &notice.Queue{}
	opts := []mutation.Option[T]{mutation.WithSink[T](queue, cfg.Localizer)}
	if cfg.Validator != nil {
		opts = append(opts, mutation.WithValidator(cfg.Validator))
	}
	return &Page[T]{
		store:      store,
		backend:    cfg.Backend,
		dispatcher: mutation.NewDispatcher(store, mutation.Remote[T](cfg.Backend), opts...),
		localizer:  cfg.Localizer,
		notices:    queue,
		set:        set,
	}, nil
}

// Load refreshes the store. A failure keeps the previous records and queues
// a notice.
func (p *Page[T]) Load(ctx context.Context) error {
	if err := p.store.Load(ctx, p.backend); err != nil {
		p.notices.Notify(notice.FromError(err, p.localizer))
		return err
	}
	return nil
}

// Filter replaces the criteria with the same keys as criteria. Invalid
// criteria leave the current set untouched.
func (p *Page[T]) Filter(criteria ...filter.Criterion) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	next, err := p.set.With(criteria...)
	if err != nil {
		return err
	}
	p.set = next
	return nil
}

// FilterExpression compiles an AIP-160 expression and applies it in place of
// the previous expression.
func (p *Page[T]) FilterExpression(expression string) error {
	c, err := filter.Parse(expression, p.Set().Schema())
	if err != nil {
		return err
	}
	return p.Filter(c)
}

// Set returns the active filter set.
func (p *Page[T]) Set() filter.Set[T] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.set
}

// Entries returns the current projection.
func (p *Page[T]) Entries() []T {
	return projection.Project(p.store.Snapshot(), p.Set())
}

// Records returns every record in the store, in order.
func (p *Page[T]) Records() []T {
	return p.store.Snapshot()
}

// Create dispatches a create and queues the resulting notice.
func (p *Page[T]) Create(ctx context.Context, payload T) (T, error) {
	created, err := p.dispatcher.Create(ctx, payload)
	if err == nil {
		p.notices.Notify(notice.Success("notice.created", p.localizer))
	}
	return created, err
}

// Update dispatches an update and queues the resulting notice.
func (p *Page[T]) Update(ctx context.Context, id string, patch mutation.Patch) (T, error) {
	updated, err := p.dispatcher.Update(ctx, id, patch)
	if err == nil {
		p.notices.Notify(notice.Success("notice.updated", p.localizer))
	}
	return updated, err
}

// Delete dispatches a delete and queues the resulting notice.
func (p *Page[T]) Delete(ctx context.Context, id string) error {
	err := p.dispatcher.Delete(ctx, id)
	if err == nil {
		p.notices.Notify(notice.Success("notice.deleted", p.localizer))
	}
	return err
}

// Notices drains the queued notices.
func (p *Page[T]) Notices() []notice.Notice {
	return p.notices.Drain()
}

// View maps the current projection through derive.
func View[T mutation.Mutable[T], V any](p *Page[T], derive func(T) V) []V {
	return projection.Map(p.store.Snapshot(), p.Set(), derive)
}
