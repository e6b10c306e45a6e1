package board

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/louisbranch/boardkit/internal/backend/client"
	"github.com/louisbranch/boardkit/internal/domain"
	"github.com/louisbranch/boardkit/internal/domain/catalog"
	"github.com/louisbranch/boardkit/internal/domain/deal"
	"github.com/louisbranch/boardkit/internal/domain/notification"
	"github.com/louisbranch/boardkit/internal/domain/post"
	"github.com/louisbranch/boardkit/internal/listview/filter"
	"github.com/louisbranch/boardkit/internal/listview/mutation"
	"github.com/louisbranch/boardkit/internal/listview/page"
	"github.com/louisbranch/boardkit/internal/listview/record"
)

func (a *app) create(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: create <resource> key=value...", ErrUsage)
	}
	r, p, err := a.documentPage(args[0])
	if err != nil {
		return err
	}
	fields, err := parseAssignments(r, args[1:])
	if err != nil {
		return err
	}
	created, err := p.Create(ctx, record.Document(fields))
	a.report(p.Notices())
	if err != nil {
		return fmt.Errorf("create %s: %w", r.Name, err)
	}
	fmt.Fprintln(a.out, created.RecordID())
	return nil
}

func (a *app) update(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("%w: update <resource> <id> key=value...", ErrUsage)
	}
	r, p, err := a.documentPage(args[0])
	if err != nil {
		return err
	}
	patch, err := parseAssignments(r, args[2:])
	if err != nil {
		return err
	}
	if err := p.Load(ctx); err != nil {
		a.report(p.Notices())
		return fmt.Errorf("update %s: %w", r.Name, err)
	}
	_, err = p.Update(ctx, args[1], patch)
	a.report(p.Notices())
	if err != nil {
		return fmt.Errorf("update %s: %w", r.Name, err)
	}
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: delete <resource> <id>", ErrUsage)
	}
	r, p, err := a.documentPage(args[0])
	if err != nil {
		return err
	}
	if err := p.Load(ctx); err != nil {
		a.report(p.Notices())
		return fmt.Errorf("delete %s: %w", r.Name, err)
	}
	err = p.Delete(ctx, args[1])
	a.report(p.Notices())
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.Name, err)
	}
	return nil
}

func (a *app) move(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: move <deal-id> <stage>", ErrUsage)
	}
	patch, err := deal.Move(deal.Stage(strings.ToLower(strings.TrimSpace(args[1]))))
	if err != nil {
		return fmt.Errorf("move deal: %w", err)
	}
	p, err := deal.NewPage(client.NewResource[deal.Deal](a.client, deal.ResourceName), a.localizer)
	if err != nil {
		return err
	}
	return patchTyped(ctx, a, p, deal.ResourceName, args[0], func(deal.Deal) (mutation.Patch, error) { return patch, nil })
}

func (a *app) vote(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: vote <post-id> <option>", ErrUsage)
	}
	option, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: option must be a number", ErrUsage)
	}
	p, err := post.NewPage(client.NewResource[post.Post](a.client, post.ResourceName), a.localizer)
	if err != nil {
		return err
	}
	return patchTyped(ctx, a, p, post.ResourceName, args[0], func(current post.Post) (mutation.Patch, error) {
		return post.Vote(current, option)
	})
}

func (a *app) read(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: read <notification-id>", ErrUsage)
	}
	p, err := notification.NewPage(client.NewResource[notification.Notification](a.client, notification.ResourceName), a.localizer)
	if err != nil {
		return err
	}
	return patchTyped(ctx, a, p, notification.ResourceName, args[0], func(notification.Notification) (mutation.Patch, error) {
		return notification.MarkRead(), nil
	})
}

// patchTyped loads p, derives the patch from the current record and
// dispatches it.
func patchTyped[T mutation.Mutable[T]](ctx context.Context, a *app, p *page.Page[T], resource, recordID string, derive func(T) (mutation.Patch, error)) error {
	recordID = strings.TrimSpace(recordID)
	if err := p.Load(ctx); err != nil {
		a.report(p.Notices())
		return fmt.Errorf("update %s: %w", resource, err)
	}
	i := slices.IndexFunc(p.Records(), func(r T) bool { return r.RecordID() == recordID })
	if i < 0 {
		return fmt.Errorf("update %s: record %s not found", resource, recordID)
	}
	patch, err := derive(p.Records()[i])
	if err != nil {
		return fmt.Errorf("update %s: %w", resource, err)
	}
	_, err = p.Update(ctx, recordID, patch)
	a.report(p.Notices())
	if err != nil {
		return fmt.Errorf("update %s: %w", resource, err)
	}
	return nil
}

func (a *app) documentPage(resource string) (domain.Resource, *page.Page[record.Document], error) {
	r, ok := catalog.Lookup(resource)
	if !ok {
		return domain.Resource{}, nil, fmt.Errorf("unknown resource %q; expected one of %s", resource, strings.Join(catalog.Names(), ", "))
	}
	p, err := catalog.NewPage(r, client.NewResource[record.Document](a.client, r.Name), a.localizer)
	if err != nil {
		return domain.Resource{}, nil, err
	}
	return r, p, nil
}

// parseAssignments turns key=value arguments into typed field values. Nested
// fields take JSON and the literal null clears a field.
func parseAssignments(r domain.Resource, args []string) (map[string]any, error) {
	types := r.Types()
	out := make(map[string]any, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: expected key=value, got %q", ErrUsage, arg)
		}
		if raw == "null" {
			out[key] = nil
			continue
		}
		if slices.Contains(r.Nested, key) {
			var value any
			if err := json.Unmarshal([]byte(raw), &value); err != nil {
				return nil, fmt.Errorf("%w: %s must be JSON: %v", ErrUsage, key, err)
			}
			out[key] = value
			continue
		}
		fieldType, known := types[key]
		if !known {
			out[key] = raw
			continue
		}
		value, err := filter.Coerce(fieldType, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a %s", ErrUsage, key, fieldType)
		}
		out[key] = value
	}
	return out, nil
}
