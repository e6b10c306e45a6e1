// Package customer is the CRM customers list page. Customers carry their
// interaction history as nested records.
package customer

import (
	"github.com/louisbranch/boardkit/internal/domain"
	"github.com/louisbranch/boardkit/internal/listview/filter"
	"github.com/louisbranch/boardkit/internal/listview/mutation"
	"github.com/louisbranch/boardkit/internal/listview/notice"
	"github.com/louisbranch/boardkit/internal/listview/page"
	"github.com/louisbranch/boardkit/internal/listview/record"
)

// ResourceName is the backend collection for customers.
const ResourceName = "customers"

// Stage is the lifecycle stage of a customer.
type Stage string

const (
	StageProspect Stage = "prospect"
	StageActive   Stage = "active"
	StageChurned  Stage = "churned"
)

// Stages lists every stage.
var Stages = []Stage{StageProspect, StageActive, StageChurned}

// Interaction is one touchpoint with a customer.
type Interaction struct {
	Kind string `json:"kind"`
	Note string `json:"note,omitempty"`
	At   string `json:"at,omitempty"`
}

// Customer is a company or person with an account.
type Customer struct {
	ID           string        `json:"id,omitempty"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Company      string        `json:"company,omitempty"`
	Stage        Stage         `json:"stage,omitempty"`
	Interactions []Interaction `json:"interactions,omitempty"`
	CreatedAt    string        `json:"created_at,omitempty"`
}

// RecordID implements record.Record.
func (c Customer) RecordID() string { return c.ID }

// WithID returns c carrying id.
func (c Customer) WithID(id string) Customer {
	c.ID = id
	return c
}

// Apply merges patch into c.
func (c Customer) Apply(patch mutation.Patch) (Customer, error) {
	return domain.ApplyPatch(c, patch)
}

// Resource describes the customers collection.
var Resource = domain.Resource{
	Name: ResourceName,
	Fields: []domain.Field{
		{Name: "name", Type: filter.TypeString},
		{Name: "email", Type: filter.TypeString},
		{Name: "company", Type: filter.TypeString},
		{Name: "stage", Type: filter.TypeString},
	},
	Nested:    []string{"interactions"},
	Required:  []string{"name", "email"},
	Enums:     map[string][]string{"stage": domain.EnumValues(Stages)},
	Search:    []string{"name", "email"},
	Defaults:  map[string]any{"stage": string(StageProspect)},
	Placement: record.Append,
}

// Schema is the filter schema for typed customers.
var Schema = filter.MustSchema(
	filter.StringField("name", func(c Customer) string { return c.Name }),
	filter.StringField("email", func(c Customer) string { return c.Email }),
	filter.StringField("company", func(c Customer) string { return c.Company }),
	filter.StringField("stage", func(c Customer) string { return string(c.Stage) }),
	filter.IntField("interactions", func(c Customer) int64 { return int64(len(c.Interactions)) }),
)

// Validate checks c before it is dispatched.
var Validate = domain.ValidatorFor[Customer](Resource)

// Search is the free-text input over name and email.
func Search(query string) filter.Criterion {
	return Resource.SearchCriterion(query)
}

// StageIs is the stage dropdown; filter.All clears it.
func StageIs(stage string) filter.Criterion {
	return Resource.EnumCriterion("stage", stage)
}

// NewPage builds the customers page over backend.
func NewPage(backend page.Backend[Customer], localizer notice.Localizer) (*page.Page[Customer], error) {
	return page.New(page.Config[Customer]{
		Schema:    Schema,
		Backend:   backend,
		Placement: Resource.Placement,
		Validator: mutation.ValidatorFunc[Customer](Validate),
		Defaults:  Resource.DefaultCriteria(),
		Localizer: localizer,
	})
}

// Row is the rendered form of a customer.
type Row struct {
	ID              string
	Name            string
	Email           string
	Company         string
	Stage           Stage
	Interactions    int
	LastInteraction string
}

// ToRow derives the row for c.
func ToRow(c Customer) Row {
	row := Row{
		ID:           c.ID,
		Name:         c.Name,
		Email:        c.Email,
		Company:      c.Company,
		Stage:        c.Stage,
		Interactions: len(c.Interactions),
	}
	if n := len(c.Interactions); n > 0 {
		row.LastInteraction = c.Interactions[n-1].Kind
	}
	return row
}

// Rows returns the current rows of p.
func Rows(p *page.Page[Customer]) []Row {
	return page.View(p, ToRow)
}

// LogInteraction returns the patch appending i to c's history.
func LogInteraction(c Customer, i Interaction) mutation.Patch {
	history := append(append([]Interaction(nil), c.Interactions...), i)
	return mutation.Patch{"interactions": history}
}
