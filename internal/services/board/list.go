package board

import (
	"context"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/louisbranch/boardkit/internal/backend/client"
	"github.com/louisbranch/boardkit/internal/domain"
	"github.com/louisbranch/boardkit/internal/domain/campaign"
	"github.com/louisbranch/boardkit/internal/domain/catalog"
	"github.com/louisbranch/boardkit/internal/domain/customer"
	"github.com/louisbranch/boardkit/internal/domain/deal"
	"github.com/louisbranch/boardkit/internal/domain/lead"
	"github.com/louisbranch/boardkit/internal/domain/notification"
	"github.com/louisbranch/boardkit/internal/domain/post"
	"github.com/louisbranch/boardkit/internal/listview/filter"
	"github.com/louisbranch/boardkit/internal/listview/mutation"
	"github.com/louisbranch/boardkit/internal/listview/page"
	"github.com/louisbranch/boardkit/internal/platform/i18n"
)

type listQuery struct {
	search     string
	expression string
	enums      map[string]string
	limit      int
}

// remote is the part of q the backend can apply. Only the row limit is sent,
// and only when no input narrows the list: server-side search folds case for
// ASCII only, so narrowed lists are always filtered here.
func (q listQuery) remote(r domain.Resource) client.Query {
	if q.limit <= 0 || strings.TrimSpace(q.search) != "" || strings.TrimSpace(q.expression) != "" {
		return client.Query{}
	}
	for field, value := range q.enums {
		if r.EnumCriterion(field, value).Active() {
			return client.Query{}
		}
	}
	return client.Query{Limit: q.limit}
}

// lister loads one resource and renders its filtered projection.
type lister func(ctx context.Context, a *app, q listQuery) (table, error)

var listers = map[string]lister{
	lead.ResourceName:         listLeads,
	customer.ResourceName:     listCustomers,
	deal.ResourceName:         listDeals,
	campaign.ResourceName:     listCampaigns,
	post.ResourceName:         listPosts,
	notification.ResourceName: listNotifications,
}

func (a *app) list(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: list <resource>", ErrUsage)
	}
	r, ok := catalog.Lookup(args[0])
	if !ok {
		return fmt.Errorf("unknown resource %q; expected one of %s", args[0], strings.Join(catalog.Names(), ", "))
	}

	fs := flag.NewFlagSet("list "+r.Name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	q := listQuery{enums: map[string]string{}}
	fs.StringVar(&q.search, "q", "", "search text")
	fs.StringVar(&q.expression, "filter", "", "AIP-160 filter expression")
	fs.IntVar(&q.limit, "limit", 0, "maximum rows")
	enumValues := map[string]*string{}
	for field, allowed := range r.Enums {
		enumValues[field] = fs.String(field, "", "one of "+strings.Join(allowed, ", ")+" or all")
	}
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	for field, value := range enumValues {
		if v := strings.TrimSpace(*value); v != "" {
			q.enums[field] = v
		}
	}

	t, err := listers[r.Name](ctx, a, q)
	if err != nil {
		return err
	}
	return t.limit(q.limit).render(a.out)
}

// loadFiltered loads p and applies q through the resource's inputs.
func loadFiltered[T mutation.Mutable[T]](ctx context.Context, a *app, p *page.Page[T], r domain.Resource, q listQuery) error {
	if err := p.Load(ctx); err != nil {
		a.report(p.Notices())
		return fmt.Errorf("list %s: %w", r.Name, err)
	}
	criteria := []filter.Criterion{r.SearchCriterion(q.search)}
	fields := make([]string, 0, len(q.enums))
	for field := range q.enums {
		fields = append(fields, field)
	}
	slices.Sort(fields)
	for _, field := range fields {
		criteria = append(criteria, r.EnumCriterion(field, q.enums[field]))
	}
	if err := p.Filter(criteria...); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if q.expression != "" {
		if err := p.FilterExpression(q.expression); err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
	}
	return nil
}

func listLeads(ctx context.Context, a *app, q listQuery) (table, error) {
	p, err := lead.NewPage(client.NewResource[lead.Lead](a.client, lead.ResourceName).Where(q.remote(lead.Resource)), a.localizer)
	if err != nil {
		return table{}, err
	}
	if err := loadFiltered(ctx, a, p, lead.Resource, q); err != nil {
		return table{}, err
	}
	t := table{headers: []string{"ID", "NAME", "EMAIL", "COMPANY", "STATUS"}}
	for _, row := range lead.Rows(p) {
		t.add(row.ID, row.Name, row.Email, row.Company, string(row.Status))
	}
	return t, nil
}

func listCustomers(ctx context.Context, a *app, q listQuery) (table, error) {
	p, err := customer.NewPage(client.NewResource[customer.Customer](a.client, customer.ResourceName).Where(q.remote(customer.Resource)), a.localizer)
	if err != nil {
		return table{}, err
	}
	if err := loadFiltered(ctx, a, p, customer.Resource, q); err != nil {
		return table{}, err
	}
	t := table{headers: []string{"ID", "NAME", "EMAIL", "STAGE", "INTERACTIONS", "LAST"}}
	for _, row := range customer.Rows(p) {
		t.add(row.ID, row.Name, row.Email, string(row.Stage), a.localizer.Sprintf("%d", row.Interactions), row.LastInteraction)
	}
	return t, nil
}

func listDeals(ctx context.Context, a *app, q listQuery) (table, error) {
	p, err := deal.NewPage(client.NewResource[deal.Deal](a.client, deal.ResourceName), a.localizer)
	if err != nil {
		return table{}, err
	}
	if err := loadFiltered(ctx, a, p, deal.Resource, q); err != nil {
		return table{}, err
	}
	t := table{headers: []string{"STAGE", "ID", "TITLE", "CUSTOMER", "VALUE"}}
	for _, column := range deal.BoardOf(p) {
		for _, d := range column.Deals {
			t.add(string(column.Stage), d.ID, d.Title, d.Customer, money(a.localizer, d.Value))
		}
	}
	return t, nil
}

func listCampaigns(ctx context.Context, a *app, q listQuery) (table, error) {
	p, err := campaign.NewPage(client.NewResource[campaign.Campaign](a.client, campaign.ResourceName).Where(q.remote(campaign.Resource)), a.localizer)
	if err != nil {
		return table{}, err
	}
	if err := loadFiltered(ctx, a, p, campaign.Resource, q); err != nil {
		return table{}, err
	}
	t := table{headers: []string{"ID", "NAME", "STATUS", "RECIPIENTS", "OPEN", "CLICK"}}
	for _, row := range campaign.Rows(p) {
		t.add(row.ID, row.Name, string(row.Status), a.localizer.Sprintf("%d", row.Recipients), percent(a.localizer, row.OpenRate), percent(a.localizer, row.ClickRate))
	}
	return t, nil
}

func listPosts(ctx context.Context, a *app, q listQuery) (table, error) {
	p, err := post.NewPage(client.NewResource[post.Post](a.client, post.ResourceName).Where(q.remote(post.Resource)), a.localizer)
	if err != nil {
		return table{}, err
	}
	if err := loadFiltered(ctx, a, p, post.Resource, q); err != nil {
		return table{}, err
	}
	t := table{headers: []string{"ID", "AUTHOR", "LIKES", "CONTENT", "POLL"}}
	for _, entry := range post.Feed(p) {
		t.add(entry.ID, entry.Author, a.localizer.Sprintf("%d", entry.Likes), truncate(entry.Content, 48), pollSummary(entry.Poll))
	}
	return t, nil
}

func listNotifications(ctx context.Context, a *app, q listQuery) (table, error) {
	p, err := notification.NewPage(client.NewResource[notification.Notification](a.client, notification.ResourceName).Where(q.remote(notification.Resource)), a.localizer)
	if err != nil {
		return table{}, err
	}
	if err := loadFiltered(ctx, a, p, notification.Resource, q); err != nil {
		return table{}, err
	}
	t := table{headers: []string{"ID", "CATEGORY", "READ", "TITLE"}}
	for _, n := range p.Entries() {
		read := "no"
		if n.Read {
			read = "yes"
		}
		t.add(n.ID, string(n.Category), read, n.Title)
	}
	return t, nil
}

func pollSummary(poll *post.PollView) string {
	if poll == nil {
		return ""
	}
	parts := make([]string, 0, len(poll.Options))
	for _, o := range poll.Options {
		parts = append(parts, fmt.Sprintf("%s %d%%", o.Label, o.Percent))
	}
	return poll.Question + ": " + strings.Join(parts, ", ")
}

func money(l i18n.Localizer, v float64) string {
	return l.Sprintf("%.2f", v)
}

func percent(l i18n.Localizer, v float64) string {
	return l.Sprintf("%.1f%%", v)
}
