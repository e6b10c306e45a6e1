// Package catalog registers every dashboard resource by collection name.
package catalog

import (
	"slices"
	"strings"

	"github.com/louisbranch/boardkit/internal/domain"
	"github.com/louisbranch/boardkit/internal/domain/campaign"
	"github.com/louisbranch/boardkit/internal/domain/customer"
	"github.com/louisbranch/boardkit/internal/domain/deal"
	"github.com/louisbranch/boardkit/internal/domain/lead"
	"github.com/louisbranch/boardkit/internal/domain/notification"
	"github.com/louisbranch/boardkit/internal/domain/post"
	"github.com/louisbranch/boardkit/internal/listview/mutation"
	"github.com/louisbranch/boardkit/internal/listview/notice"
	"github.com/louisbranch/boardkit/internal/listview/page"
	"github.com/louisbranch/boardkit/internal/listview/record"
)

var resources = map[string]domain.Resource{
	lead.ResourceName:         lead.Resource,
	customer.ResourceName:     customer.Resource,
	deal.ResourceName:         deal.Resource,
	campaign.ResourceName:     campaign.Resource,
	post.ResourceName:         post.Resource,
	notification.ResourceName: notification.Resource,
}

// Lookup returns the resource registered under name.
func Lookup(name string) (domain.Resource, bool) {
	r, ok := resources[strings.ToLower(strings.TrimSpace(name))]
	return r, ok
}

// Names returns every registered collection name, sorted.
func Names() []string {
	out := make([]string, 0, len(resources))
	for name := range resources {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// NewPage builds a schema-less page over r. Creates are validated with the
// resource defaults applied, the same way the backend will store them.
func NewPage(r domain.Resource, backend page.Backend[record.Document], localizer notice.Localizer) (*page.Page[record.Document], error) {
	schema, err := r.DocumentSchema()
	if err != nil {
		return nil, err
	}
	return page.New(page.Config[record.Document]{
		Schema:    schema,
		Backend:   backend,
		Placement: r.Placement,
		Validator: mutation.ValidatorFunc[record.Document](func(doc record.Document) error {
			return r.Validate(r.WithDefaults(doc))
		}),
		Defaults:  r.DefaultCriteria(),
		Localizer: localizer,
	})
}
