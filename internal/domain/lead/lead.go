// Package lead is the CRM leads list page.
package lead

import (
	"github.com/louisbranch/boardkit/internal/domain"
	"github.com/louisbranch/boardkit/internal/listview/filter"
	"github.com/louisbranch/boardkit/internal/listview/mutation"
	"github.com/louisbranch/boardkit/internal/listview/notice"
	"github.com/louisbranch/boardkit/internal/listview/page"
	"github.com/louisbranch/boardkit/internal/listview/record"
)

// ResourceName is the backend collection for leads.
const ResourceName = "leads"

// Status is the qualification state of a lead.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusQualified Status = "qualified"
	StatusLost      Status = "lost"
)

// Statuses lists every status in funnel order.
var Statuses = []Status{StatusNew, StatusContacted, StatusQualified, StatusLost}

// Lead is a prospective customer.
type Lead struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Company   string `json:"company,omitempty"`
	Status    Status `json:"status,omitempty"`
	Source    string `json:"source,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// RecordID implements record.Record.
func (l Lead) RecordID() string { return l.ID }

// WithID returns l carrying id.
func (l Lead) WithID(id string) Lead {
	l.ID = id
	return l
}

// Apply merges patch into l.
func (l Lead) Apply(patch mutation.Patch) (Lead, error) {
	return domain.ApplyPatch(l, patch)
}

// Resource describes the leads collection.
var Resource = domain.Resource{
	Name: ResourceName,
	Fields: []domain.Field{
		{Name: "name", Type: filter.TypeString},
		{Name: "email", Type: filter.TypeString},
		{Name: "company", Type: filter.TypeString},
		{Name: "status", Type: filter.TypeString},
		{Name: "source", Type: filter.TypeString},
	},
	Required:  []string{"name", "email"},
	Enums:     map[string][]string{"status": domain.EnumValues(Statuses)},
	Search:    []string{"name", "email", "company"},
	Defaults:  map[string]any{"status": string(StatusNew)},
	Placement: record.Prepend,
}

// Schema is the filter schema for typed leads.
var Schema = filter.MustSchema(
	filter.StringField("name", func(l Lead) string { return l.Name }),
	filter.StringField("email", func(l Lead) string { return l.Email }),
	filter.StringField("company", func(l Lead) string { return l.Company }),
	filter.StringField("status", func(l Lead) string { return string(l.Status) }),
	filter.StringField("source", func(l Lead) string { return l.Source }),
)

// Validate checks l before it is dispatched.
var Validate = domain.ValidatorFor[Lead](Resource)

// Search is the free-text input over name, email and company.
func Search(query string) filter.Criterion {
	return Resource.SearchCriterion(query)
}

// StatusIs is the status dropdown; filter.All clears it.
func StatusIs(status string) filter.Criterion {
	return Resource.EnumCriterion("status", status)
}

// NewPage builds the leads page over backend.
func NewPage(backend page.Backend[Lead], localizer notice.Localizer) (*page.Page[Lead], error) {
	return page.New(page.Config[Lead]{
		Schema:    Schema,
		Backend:   backend,
		Placement: Resource.Placement,
		Validator: mutation.ValidatorFunc[Lead](Validate),
		Defaults:  Resource.DefaultCriteria(),
		Localizer: localizer,
	})
}

// Row is the rendered form of a lead.
type Row struct {
	ID      string
	Name    string
	Email   string
	Company string
	Status  Status
}

// ToRow derives the row for l. A missing status renders as new.
func ToRow(l Lead) Row {
	status := l.Status
	if status == "" {
		status = StatusNew
	}
	return Row{ID: l.ID, Name: l.Name, Email: l.Email, Company: l.Company, Status: status}
}

// Rows returns the current rows of p.
func Rows(p *page.Page[Lead]) []Row {
	return page.View(p, ToRow)
}
