package board

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/louisbranch/boardkit/internal/backend/client"
	"github.com/louisbranch/boardkit/internal/domain/campaign"
	"github.com/louisbranch/boardkit/internal/domain/customer"
	"github.com/louisbranch/boardkit/internal/domain/deal"
	"github.com/louisbranch/boardkit/internal/domain/lead"
	"github.com/louisbranch/boardkit/internal/listview/projection"
)

// dashboard loads the four CRM pages concurrently and prints one summary
// section per page.
func (a *app) dashboard(ctx context.Context) error {
	leads, err := lead.NewPage(client.NewResource[lead.Lead](a.client, lead.ResourceName), a.localizer)
	if err != nil {
		return err
	}
	customers, err := customer.NewPage(client.NewResource[customer.Customer](a.client, customer.ResourceName), a.localizer)
	if err != nil {
		return err
	}
	deals, err := deal.NewPage(client.NewResource[deal.Deal](a.client, deal.ResourceName), a.localizer)
	if err != nil {
		return err
	}
	campaigns, err := campaign.NewPage(client.NewResource[campaign.Campaign](a.client, campaign.ResourceName), a.localizer)
	if err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return leads.Load(groupCtx) })
	group.Go(func() error { return customers.Load(groupCtx) })
	group.Go(func() error { return deals.Load(groupCtx) })
	group.Go(func() error { return campaigns.Load(groupCtx) })
	loadErr := group.Wait()
	a.report(leads.Notices())
	a.report(customers.Notices())
	a.report(deals.Notices())
	a.report(campaigns.Notices())
	if loadErr != nil {
		return fmt.Errorf("load dashboard: %w", loadErr)
	}

	sections := []struct {
		title string
		table table
	}{
		{title: "LEADS", table: a.leadSummary(leads.Records())},
		{title: "CUSTOMERS", table: a.customerSummary(customers.Records())},
		{title: "PIPELINE", table: a.pipelineSummary(deal.BoardOf(deals))},
		{title: "CAMPAIGNS", table: a.campaignSummary(campaign.Summarize(campaigns.Records()))},
	}
	for i, section := range sections {
		if i > 0 {
			fmt.Fprintln(a.out)
		}
		fmt.Fprintln(a.out, section.title)
		if err := section.table.render(a.out); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) leadSummary(leads []lead.Lead) table {
	t := table{headers: []string{"STATUS", "COUNT"}}
	for _, status := range lead.Statuses {
		n := projection.Count(leads, func(l lead.Lead) bool { return lead.ToRow(l).Status == status })
		t.add(string(status), a.localizer.Sprintf("%d", n))
	}
	t.add("total", a.localizer.Sprintf("%d", len(leads)))
	return t
}

func (a *app) customerSummary(customers []customer.Customer) table {
	t := table{headers: []string{"STAGE", "COUNT", "INTERACTIONS"}}
	groups := projection.GroupTotals(customers, customer.Stages,
		func(c customer.Customer) customer.Stage { return c.Stage },
		func(c customer.Customer) float64 { return float64(len(c.Interactions)) })
	for _, g := range groups {
		t.add(string(g.Key), a.localizer.Sprintf("%d", g.Count), a.localizer.Sprintf("%d", int(g.Total)))
	}
	return t
}

func (a *app) pipelineSummary(columns []deal.Column) table {
	t := table{headers: []string{"STAGE", "DEALS", "VALUE"}}
	for _, column := range columns {
		t.add(string(column.Stage), a.localizer.Sprintf("%d", column.Count), money(a.localizer, column.Subtotal))
	}
	t.add("open pipeline", "", money(a.localizer, deal.Pipeline(columns)))
	t.add("win rate", "", percent(a.localizer, deal.WinRate(columns)))
	return t
}

func (a *app) campaignSummary(s campaign.Summary) table {
	t := table{headers: []string{"SENT", "RECIPIENTS", "OPEN", "CLICK"}}
	t.add(a.localizer.Sprintf("%d", s.Campaigns), a.localizer.Sprintf("%d", s.Recipients), percent(a.localizer, s.OpenRate), percent(a.localizer, s.ClickRate))
	return t
}
