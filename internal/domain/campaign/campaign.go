// Package campaign is the email-marketing campaigns list page.
package campaign

import (
	"github.com/louisbranch/boardkit/internal/domain"
	"github.com/louisbranch/boardkit/internal/listview/filter"
	"github.com/louisbranch/boardkit/internal/listview/mutation"
	"github.com/louisbranch/boardkit/internal/listview/notice"
	"github.com/louisbranch/boardkit/internal/listview/page"
	"github.com/louisbranch/boardkit/internal/listview/projection"
	"github.com/louisbranch/boardkit/internal/listview/record"
	apperrors "github.com/louisbranch/boardkit/internal/platform/errors"
)

// ResourceName is the backend collection for campaigns.
const ResourceName = "campaigns"

// Status is the delivery state of a campaign.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusSent      Status = "sent"
)

// Statuses lists every status.
var Statuses = []Status{StatusDraft, StatusScheduled, StatusSent}

// Campaign is one email blast and its engagement counters.
type Campaign struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	Subject    string `json:"subject"`
	Status     Status `json:"status,omitempty"`
	Recipients int    `json:"recipients"`
	Opens      int    `json:"opens"`
	Clicks     int    `json:"clicks"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// RecordID implements record.Record.
func (c Campaign) RecordID() string { return c.ID }

// WithID returns c carrying id.
func (c Campaign) WithID(id string) Campaign {
	c.ID = id
	return c
}

// Apply merges patch into c.
func (c Campaign) Apply(patch mutation.Patch) (Campaign, error) {
	return domain.ApplyPatch(c, patch)
}

// Resource describes the campaigns collection.
var Resource = domain.Resource{
	Name: ResourceName,
	Fields: []domain.Field{
		{Name: "name", Type: filter.TypeString},
		{Name: "subject", Type: filter.TypeString},
		{Name: "status", Type: filter.TypeString},
		{Name: "recipients", Type: filter.TypeInt},
		{Name: "opens", Type: filter.TypeInt},
		{Name: "clicks", Type: filter.TypeInt},
	},
	Required: []string{"name", "subject"},
	Enums:    map[string][]string{"status": domain.EnumValues(Statuses)},
	Search:   []string{"name", "subject"},
	Defaults: map[string]any{
		"status":     string(StatusDraft),
		"recipients": 0,
		"opens":      0,
		"clicks":     0,
	},
	Placement: record.Prepend,
}

// Schema is the filter schema for typed campaigns.
var Schema = filter.MustSchema(
	filter.StringField("name", func(c Campaign) string { return c.Name }),
	filter.StringField("subject", func(c Campaign) string { return c.Subject }),
	filter.StringField("status", func(c Campaign) string { return string(c.Status) }),
	filter.IntField("recipients", func(c Campaign) int64 { return int64(c.Recipients) }),
	filter.IntField("opens", func(c Campaign) int64 { return int64(c.Opens) }),
	filter.IntField("clicks", func(c Campaign) int64 { return int64(c.Clicks) }),
)

// Validate checks c before it is dispatched. Engagement counters cannot
// exceed the audience.
func Validate(c Campaign) error {
	if err := domain.ValidatorFor[Campaign](Resource)(c); err != nil {
		return err
	}
	if c.Recipients < 0 || c.Opens < 0 || c.Clicks < 0 {
		return apperrors.Validation("recipients", "counters cannot be negative")
	}
	if c.Opens > c.Recipients {
		return apperrors.Validation("opens", "opens cannot exceed recipients")
	}
	if c.Clicks > c.Opens {
		return apperrors.Validation("clicks", "clicks cannot exceed opens")
	}
	return nil
}

// Search is the free-text input over name and subject.
func Search(query string) filter.Criterion {
	return Resource.SearchCriterion(query)
}

// StatusIs is the status tab; filter.All clears it.
func StatusIs(status string) filter.Criterion {
	return Resource.EnumCriterion("status", status)
}

// NewPage builds the campaigns page over backend.
func NewPage(backend page.Backend[Campaign], localizer notice.Localizer) (*page.Page[Campaign], error) {
	return page.New(page.Config[Campaign]{
		Schema:    Schema,
		Backend:   backend,
		Placement: Resource.Placement,
		Validator: mutation.ValidatorFunc[Campaign](Validate),
		Defaults:  Resource.DefaultCriteria(),
		Localizer: localizer,
	})
}

// Row is the rendered form of a campaign.
type Row struct {
	ID         string
	Name       string
	Subject    string
	Status     Status
	Recipients int
	OpenRate   float64
	ClickRate  float64
}

// ToRow derives the row for c. Rates are percentages of recipients.
func ToRow(c Campaign) Row {
	return Row{
		ID:         c.ID,
		Name:       c.Name,
		Subject:    c.Subject,
		Status:     c.Status,
		Recipients: c.Recipients,
		OpenRate:   projection.Ratio(c.Opens, c.Recipients),
		ClickRate:  projection.Ratio(c.Clicks, c.Recipients),
	}
}

// Rows returns the current rows of p.
func Rows(p *page.Page[Campaign]) []Row {
	return page.View(p, ToRow)
}

// Summary aggregates engagement over a set of campaigns.
type Summary struct {
	Campaigns  int
	Recipients int
	OpenRate   float64
	ClickRate  float64
}

// Summarize totals the sent campaigns in campaigns.
func Summarize(campaigns []Campaign) Summary {
	var s Summary
	opens, clicks := 0, 0
	for _, c := range campaigns {
		if c.Status != StatusSent {
			continue
		}
		s.Campaigns++
		s.Recipients += c.Recipients
		opens += c.Opens
		clicks += c.Clicks
	}
	s.OpenRate = projection.Ratio(opens, s.Recipients)
	s.ClickRate = projection.Ratio(clicks, s.Recipients)
	return s
}
