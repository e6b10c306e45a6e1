package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/louisbranch/boardkit/internal/domain"
	"github.com/louisbranch/boardkit/internal/listview/mutation"
	"github.com/louisbranch/boardkit/internal/listview/record"
	apperrors "github.com/louisbranch/boardkit/internal/platform/errors"
)

// Query narrows a server-side list.
type Query struct {
	Search string
	Filter string // AIP-160 expression
	Limit  int
}

func (q Query) values() url.Values {
	v := url.Values{}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("q", s)
	}
	if f := strings.TrimSpace(q.Filter); f != "" {
		v.Set("filter", f)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

type listResponse[T any] struct {
	Records []T `json:"records"`
}

// Resource is one backend collection. It is both the record source and the
// mutation remote of a page.
type Resource[T record.Record] struct {
	client *Client
	name   string
	query  Query
}

// NewResource binds the collection name to c.
func NewResource[T record.Record](c *Client, name string) *Resource[T] {
	return &Resource[T]{client: c, name: strings.TrimSpace(name)}
}

// Where returns a copy of r whose List sends q.
func (r *Resource[T]) Where(q Query) *Resource[T] {
	next := *r
	next.query = q
	return &next
}

// Name returns the collection name.
func (r *Resource[T]) Name() string {
	return r.name
}

// List implements record.Source.
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	var resp listResponse[T]
	if err := r.client.do(ctx, http.MethodGet, r.collectionPath(), r.query.values(), nil, &resp, true); err != nil {
		return nil, err
	}
	if resp.Records == nil {
		return []T{}, nil
	}
	return resp.Records, nil
}

// Create implements mutation.Remote. The payload is sent without server-owned
// fields.
func (r *Resource[T]) Create(ctx context.Context, payload T) (T, error) {
	var created T
	doc, err := domain.ToDocument(payload)
	if err != nil {
		return created, apperrors.Wrap(apperrors.KindInvalidInput, err)
	}
	if err := r.client.do(ctx, http.MethodPost, r.collectionPath(), nil, domain.Strip(doc), &created, true); err != nil {
		return created, err
	}
	return created, nil
}

// Update implements mutation.Remote.
func (r *Resource[T]) Update(ctx context.Context, id string, patch mutation.Patch) (T, error) {
	var updated T
	target, err := r.recordPath(id)
	if err != nil {
		return updated, err
	}
	if err := r.client.do(ctx, http.MethodPatch, target, nil, domain.Strip(patch), &updated, true); err != nil {
		return updated, err
	}
	return updated, nil
}

// Delete implements mutation.Remote.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	target, err := r.recordPath(id)
	if err != nil {
		return err
	}
	return r.client.do(ctx, http.MethodDelete, target, nil, nil, nil, true)
}

func (r *Resource[T]) collectionPath() string {
	return "/v1/" + url.PathEscape(r.name)
}

// recordPath escapes id into a single path segment. Dot segments would be
// cleaned into another route, so they are rejected.
func (r *Resource[T]) recordPath(id string) (string, error) {
	switch strings.TrimSpace(id) {
	case "":
		return "", apperrors.E(apperrors.KindInvalidInput, "record id is required")
	case ".", "..":
		return "", apperrors.E(apperrors.KindInvalidInput, fmt.Sprintf("invalid record id %q", id))
	}
	return r.collectionPath() + "/" + url.PathEscape(id), nil
}
