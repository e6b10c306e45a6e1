// Package notification is the notifications inbox.
package notification

import (
	"github.com/louisbranch/boardkit/internal/domain"
	"github.com/louisbranch/boardkit/internal/listview/filter"
	"github.com/louisbranch/boardkit/internal/listview/mutation"
	"github.com/louisbranch/boardkit/internal/listview/notice"
	"github.com/louisbranch/boardkit/internal/listview/page"
	"github.com/louisbranch/boardkit/internal/listview/projection"
	"github.com/louisbranch/boardkit/internal/listview/record"
)

// ResourceName is the backend collection for notifications.
const ResourceName = "notifications"

// Category groups notifications in the inbox.
type Category string

const (
	CategorySystem  Category = "system"
	CategoryMention Category = "mention"
	CategoryBilling Category = "billing"
)

// Categories lists every category.
var Categories = []Category{CategorySystem, CategoryMention, CategoryBilling}

// Notification is one inbox item.
type Notification struct {
	ID        string   `json:"id,omitempty"`
	Title     string   `json:"title"`
	Body      string   `json:"body,omitempty"`
	Category  Category `json:"category,omitempty"`
	Read      bool     `json:"read"`
	CreatedAt string   `json:"created_at,omitempty"`
}

// RecordID implements record.Record.
func (n Notification) RecordID() string { return n.ID }

// WithID returns n carrying id.
func (n Notification) WithID(id string) Notification {
	n.ID = id
	return n
}

// Apply merges patch into n.
func (n Notification) Apply(patch mutation.Patch) (Notification, error) {
	return domain.ApplyPatch(n, patch)
}

// Resource describes the notifications collection.
var Resource = domain.Resource{
	Name: ResourceName,
	Fields: []domain.Field{
		{Name: "title", Type: filter.TypeString},
		{Name: "body", Type: filter.TypeString},
		{Name: "category", Type: filter.TypeString},
		{Name: "read", Type: filter.TypeBool},
	},
	Required:  []string{"title"},
	Enums:     map[string][]string{"category": domain.EnumValues(Categories)},
	Search:    []string{"title", "body"},
	Defaults:  map[string]any{"category": string(CategorySystem), "read": false},
	Placement: record.Prepend,
}

// Schema is the filter schema for typed notifications.
var Schema = filter.MustSchema(
	filter.StringField("title", func(n Notification) string { return n.Title }),
	filter.StringField("body", func(n Notification) string { return n.Body }),
	filter.StringField("category", func(n Notification) string { return string(n.Category) }),
	filter.BoolField("read", func(n Notification) bool { return n.Read }),
)

// Validate checks n before it is dispatched.
var Validate = domain.ValidatorFor[Notification](Resource)

// Search is the free-text input over title and body.
func Search(query string) filter.Criterion {
	return Resource.SearchCriterion(query)
}

// CategoryIs is the category tab; filter.All clears it.
func CategoryIs(category string) filter.Criterion {
	return Resource.EnumCriterion("category", category)
}

// UnreadOnly hides read notifications.
func UnreadOnly(on bool) filter.Criterion {
	if !on {
		return filter.Equals("read", nil).Named("unread")
	}
	return filter.Equals("read", false).Named("unread")
}

// NewPage builds the inbox over backend.
func NewPage(backend page.Backend[Notification], localizer notice.Localizer) (*page.Page[Notification], error) {
	return page.New(page.Config[Notification]{
		Schema:    Schema,
		Backend:   backend,
		Placement: Resource.Placement,
		Validator: mutation.ValidatorFunc[Notification](Validate),
		Defaults:  append(Resource.DefaultCriteria(), UnreadOnly(false)),
		Localizer: localizer,
	})
}

// Unread counts unread notifications over the whole inbox.
func Unread(notifications []Notification) int {
	return projection.Count(notifications, func(n Notification) bool { return !n.Read })
}

// MarkRead is the update the inbox sends when an item is opened.
func MarkRead() mutation.Patch {
	return mutation.Patch{"read": true}
}
