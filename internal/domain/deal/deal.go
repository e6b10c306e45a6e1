// Package deal is the CRM deal pipeline. The board groups deals into one
// column per stage; dropping a card on another column is an ordinary update.
package deal

import (
	"slices"

	"github.com/louisbranch/boardkit/internal/domain"
	"github.com/louisbranch/boardkit/internal/listview/filter"
	"github.com/louisbranch/boardkit/internal/listview/mutation"
	"github.com/louisbranch/boardkit/internal/listview/notice"
	"github.com/louisbranch/boardkit/internal/listview/page"
	"github.com/louisbranch/boardkit/internal/listview/projection"
	"github.com/louisbranch/boardkit/internal/listview/record"
	apperrors "github.com/louisbranch/boardkit/internal/platform/errors"
)

// ResourceName is the backend collection for deals.
const ResourceName = "deals"

// Stage is a pipeline column.
type Stage string

const (
	StageLead        Stage = "lead"
	StageQualified   Stage = "qualified"
	StageProposal    Stage = "proposal"
	StageNegotiation Stage = "negotiation"
	StageWon         Stage = "won"
	StageLost        Stage = "lost"
)

// Stages lists the pipeline columns left to right.
var Stages = []Stage{StageLead, StageQualified, StageProposal, StageNegotiation, StageWon, StageLost}

// Deal is one opportunity on the pipeline.
type Deal struct {
	ID        string  `json:"id,omitempty"`
	Title     string  `json:"title"`
	Customer  string  `json:"customer,omitempty"`
	Value     float64 `json:"value"`
	Stage     Stage   `json:"stage,omitempty"`
	CreatedAt string  `json:"created_at,omitempty"`
}

// RecordID implements record.Record.
func (d Deal) RecordID() string { return d.ID }

// WithID returns d carrying id.
func (d Deal) WithID(id string) Deal {
	d.ID = id
	return d
}

// Apply merges patch into d.
func (d Deal) Apply(patch mutation.Patch) (Deal, error) {
	return domain.ApplyPatch(d, patch)
}

// Resource describes the deals collection.
var Resource = domain.Resource{
	Name: ResourceName,
	Fields: []domain.Field{
		{Name: "title", Type: filter.TypeString},
		{Name: "customer", Type: filter.TypeString},
		{Name: "value", Type: filter.TypeFloat},
		{Name: "stage", Type: filter.TypeString},
	},
	Required:  []string{"title"},
	Enums:     map[string][]string{"stage": domain.EnumValues(Stages)},
	Search:    []string{"title", "customer"},
	Defaults:  map[string]any{"stage": string(StageLead), "value": 0.0},
	Placement: record.Append,
}

// Schema is the filter schema for typed deals.
var Schema = filter.MustSchema(
	filter.StringField("title", func(d Deal) string { return d.Title }),
	filter.StringField("customer", func(d Deal) string { return d.Customer }),
	filter.FloatField("value", func(d Deal) float64 { return d.Value }),
	filter.StringField("stage", func(d Deal) string { return string(d.Stage) }),
)

// Validate checks d before it is dispatched. Values cannot be negative.
func Validate(d Deal) error {
	if d.Value < 0 {
		return apperrors.Validation("value", "value cannot be negative")
	}
	return domain.ValidatorFor[Deal](Resource)(d)
}

// Search is the free-text input over title and customer.
func Search(query string) filter.Criterion {
	return Resource.SearchCriterion(query)
}

// NewPage builds the pipeline page over backend.
func NewPage(backend page.Backend[Deal], localizer notice.Localizer) (*page.Page[Deal], error) {
	return page.New(page.Config[Deal]{
		Schema:    Schema,
		Backend:   backend,
		Placement: Resource.Placement,
		Validator: mutation.ValidatorFunc[Deal](Validate),
		Defaults:  []filter.Criterion{Search("")},
		Localizer: localizer,
	})
}

// Column is one stage of the board.
type Column struct {
	Stage    Stage
	Deals    []Deal
	Count    int
	Subtotal float64
}

// Board groups the filtered deals into stage columns, in stage order.
// Deals without a stage sit in the lead column.
func Board(deals []Deal, set filter.Set[Deal]) []Column {
	visible := projection.Project(deals, set)
	groups := projection.GroupTotals(visible, Stages, stageOf, func(d Deal) float64 { return d.Value })
	columns := make([]Column, len(groups))
	for i, g := range groups {
		columns[i] = Column{Stage: g.Key, Deals: g.Records, Count: g.Count, Subtotal: g.Total}
	}
	return columns
}

// BoardOf returns the board for the current state of p.
func BoardOf(p *page.Page[Deal]) []Column {
	return Board(p.Records(), p.Set())
}

// Pipeline is the value of every open deal, excluding won and lost.
func Pipeline(columns []Column) float64 {
	total := 0.0
	for _, c := range columns {
		if c.Stage == StageWon || c.Stage == StageLost {
			continue
		}
		total += c.Subtotal
	}
	return total
}

// WinRate is the share of closed deals that were won.
func WinRate(columns []Column) float64 {
	won, lost := 0, 0
	for _, c := range columns {
		switch c.Stage {
		case StageWon:
			won = c.Count
		case StageLost:
			lost = c.Count
		}
	}
	return projection.Ratio(won, won+lost)
}

// Move is the update a card drop produces.
func Move(stage Stage) (mutation.Patch, error) {
	if !slices.Contains(Stages, stage) {
		return nil, apperrors.Validation("stage", "stage is not one of the allowed values")
	}
	return mutation.Patch{"stage": string(stage)}, nil
}

func stageOf(d Deal) Stage {
	if d.Stage == "" {
		return StageLead
	}
	return d.Stage
}
