package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/boardkit/internal/domain/catalog"
	"github.com/louisbranch/boardkit/internal/listview/filter"
	"github.com/louisbranch/boardkit/internal/listview/notice"
	"github.com/louisbranch/boardkit/internal/listview/page"
	"github.com/louisbranch/boardkit/internal/listview/record"
	apperrors "github.com/louisbranch/boardkit/internal/platform/errors"
	"github.com/louisbranch/boardkit/internal/platform/timeouts"
)

// Backends opens the backend collection for a resource.
type Backends interface {
	Collection(resource string) page.Backend[record.Document]
}

// BackendsFunc adapts a function to Backends.
type BackendsFunc func(resource string) page.Backend[record.Document]

// Collection implements Backends.
func (fn BackendsFunc) Collection(resource string) page.Backend[record.Document] { return fn(resource) }

// Deps are the collaborators shared by every record tool.
type Deps struct {
	Backends  Backends
	Localizer notice.Localizer
}

// ResourceListInput is the input of list_resources.
type ResourceListInput struct{}

// ResourceField describes one filterable field.
type ResourceField struct {
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Values []string `json:"values,omitempty" jsonschema:"allowed values for enum fields"`
}

// ResourceSummary describes one collection.
type ResourceSummary struct {
	Name     string          `json:"name"`
	Fields   []ResourceField `json:"fields"`
	Nested   []string        `json:"nested,omitempty"`
	Required []string        `json:"required,omitempty"`
	Search   []string        `json:"search,omitempty"`
}

// ResourceListResult is the output of list_resources.
type ResourceListResult struct {
	Resources []ResourceSummary `json:"resources"`
}

// RecordListInput is the input of list_records.
type RecordListInput struct {
	Resource string            `json:"resource" jsonschema:"collection name, e.g. leads or deals"`
	Search   string            `json:"search,omitempty" jsonschema:"case-insensitive text matched against the searchable fields"`
	Filter   string            `json:"filter,omitempty" jsonschema:"AIP-160 filter expression, e.g. value > 1000"`
	Where    map[string]string `json:"where,omitempty" jsonschema:"enum field equality filters; the value all disables one"`
	Limit    int               `json:"limit,omitempty" jsonschema:"maximum number of records returned"`
}

// RecordListResult is the output of list_records.
type RecordListResult struct {
	Resource string            `json:"resource"`
	Records  []record.Document `json:"records"`
	Matched  int               `json:"matched"`
	Total    int               `json:"total"`
}

// RecordCreateInput is the input of create_record.
type RecordCreateInput struct {
	Resource string         `json:"resource" jsonschema:"collection name"`
	Fields   map[string]any `json:"fields" jsonschema:"field values of the new record"`
}

// RecordUpdateInput is the input of update_record.
type RecordUpdateInput struct {
	Resource string         `json:"resource" jsonschema:"collection name"`
	ID       string         `json:"id" jsonschema:"record identifier"`
	Fields   map[string]any `json:"fields" jsonschema:"fields to change; null removes a field"`
}

// RecordResult is the output of create_record and update_record.
type RecordResult struct {
	Resource string          `json:"resource"`
	Record   record.Document `json:"record"`
	Notice   string          `json:"notice,omitempty"`
}

// RecordDeleteInput is the input of delete_record.
type RecordDeleteInput struct {
	Resource string `json:"resource" jsonschema:"collection name"`
	ID       string `json:"id" jsonschema:"record identifier"`
}

// RecordDeleteResult is the output of delete_record.
type RecordDeleteResult struct {
	Resource string `json:"resource"`
	ID       string `json:"id"`
	Deleted  bool   `json:"deleted"`
	Notice   string `json:"notice,omitempty"`
}

// ResourceListTool defines the list_resources tool.
func ResourceListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_resources",
		Description: "Lists the dashboard collections with their fields and allowed values",
	}
}

// RecordListTool defines the list_records tool.
func RecordListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_records",
		Description: "Lists the records of a collection narrowed by search, enum filters and an AIP-160 expression",
	}
}

// RecordCreateTool defines the create_record tool.
func RecordCreateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "create_record",
		Description: "Creates a record after validating required fields and enum values",
	}
}

// RecordUpdateTool defines the update_record tool.
func RecordUpdateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "update_record",
		Description: "Applies a partial update to a record",
	}
}

// RecordDeleteTool defines the delete_record tool.
func RecordDeleteTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "delete_record",
		Description: "Deletes a record",
	}
}

// ResourceListHandler describes the catalog.
func ResourceListHandler() mcp.ToolHandlerFor[ResourceListInput, ResourceListResult] {
	return func(context.Context, *mcp.CallToolRequest, ResourceListInput) (*mcp.CallToolResult, ResourceListResult, error) {
		var result ResourceListResult
		for _, name := range catalog.Names() {
			r, _ := catalog.Lookup(name)
			summary := ResourceSummary{Name: r.Name, Nested: r.Nested, Required: r.Required, Search: r.Search}
			for _, f := range r.Fields {
				summary.Fields = append(summary.Fields, ResourceField{Name: f.Name, Type: string(f.Type), Values: r.Enums[f.Name]})
			}
			result.Resources = append(result.Resources, summary)
		}
		return nil, result, nil
	}
}

// RecordListHandler loads a collection and returns its filtered projection.
func RecordListHandler(deps Deps) mcp.ToolHandlerFor[RecordListInput, RecordListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RecordListInput) (*mcp.CallToolResult, RecordListResult, error) {
		if input.Limit < 0 {
			return nil, RecordListResult{}, fmt.Errorf("limit must not be negative")
		}
		ctx, cancel := context.WithTimeout(ctx, timeouts.BackendRequest)
		defer cancel()
		p, name, err := openPage(deps, input.Resource)
		if err != nil {
			return nil, RecordListResult{}, err
		}
		if err := p.Load(ctx); err != nil {
			return nil, RecordListResult{}, failure(p, "list "+name, err)
		}
		r, _ := catalog.Lookup(name)
		criteria := []filter.Criterion{r.SearchCriterion(input.Search)}
		for field, value := range input.Where {
			criteria = append(criteria, r.EnumCriterion(strings.TrimSpace(field), strings.TrimSpace(value)))
		}
		if err := p.Filter(criteria...); err != nil {
			return nil, RecordListResult{}, fmt.Errorf("list %s: %w", name, err)
		}
		if expression := strings.TrimSpace(input.Filter); expression != "" {
			if err := p.FilterExpression(expression); err != nil {
				return nil, RecordListResult{}, fmt.Errorf("list %s: %w", name, err)
			}
		}
		entries := p.Entries()
		result := RecordListResult{Resource: name, Matched: len(entries), Total: len(p.Records())}
		if input.Limit > 0 && len(entries) > input.Limit {
			entries = entries[:input.Limit]
		}
		result.Records = entries
		if result.Records == nil {
			result.Records = []record.Document{}
		}
		return nil, result, nil
	}
}

// RecordCreateHandler dispatches a create through a freshly loaded page.
func RecordCreateHandler(deps Deps) mcp.ToolHandlerFor[RecordCreateInput, RecordResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RecordCreateInput) (*mcp.CallToolResult, RecordResult, error) {
		ctx, cancel := context.WithTimeout(ctx, timeouts.BackendRequest)
		defer cancel()
		p, name, err := openPage(deps, input.Resource)
		if err != nil {
			return nil, RecordResult{}, err
		}
		created, err := p.Create(ctx, record.Document(input.Fields))
		if err != nil {
			return nil, RecordResult{}, failure(p, "create "+name, err)
		}
		return nil, RecordResult{Resource: name, Record: created, Notice: lastMessage(p)}, nil
	}
}

// RecordUpdateHandler dispatches an update. The collection is loaded first
// so the patch applies to the current record.
func RecordUpdateHandler(deps Deps) mcp.ToolHandlerFor[RecordUpdateInput, RecordResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RecordUpdateInput) (*mcp.CallToolResult, RecordResult, error) {
		recordID := strings.TrimSpace(input.ID)
		if recordID == "" {
			return nil, RecordResult{}, fmt.Errorf("id is required")
		}
		ctx, cancel := context.WithTimeout(ctx, timeouts.BackendRequest)
		defer cancel()
		p, name, err := openPage(deps, input.Resource)
		if err != nil {
			return nil, RecordResult{}, err
		}
		if err := p.Load(ctx); err != nil {
			return nil, RecordResult{}, failure(p, "update "+name, err)
		}
		updated, err := p.Update(ctx, recordID, input.Fields)
		if err != nil {
			return nil, RecordResult{}, failure(p, "update "+name, err)
		}
		return nil, RecordResult{Resource: name, Record: updated, Notice: lastMessage(p)}, nil
	}
}

// RecordDeleteHandler dispatches a delete.
func RecordDeleteHandler(deps Deps) mcp.ToolHandlerFor[RecordDeleteInput, RecordDeleteResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RecordDeleteInput) (*mcp.CallToolResult, RecordDeleteResult, error) {
		recordID := strings.TrimSpace(input.ID)
		if recordID == "" {
			return nil, RecordDeleteResult{}, fmt.Errorf("id is required")
		}
		ctx, cancel := context.WithTimeout(ctx, timeouts.BackendRequest)
		defer cancel()
		p, name, err := openPage(deps, input.Resource)
		if err != nil {
			return nil, RecordDeleteResult{}, err
		}
		if err := p.Load(ctx); err != nil {
			return nil, RecordDeleteResult{}, failure(p, "delete "+name, err)
		}
		if err := p.Delete(ctx, recordID); err != nil {
			return nil, RecordDeleteResult{}, failure(p, "delete "+name, err)
		}
		return nil, RecordDeleteResult{Resource: name, ID: recordID, Deleted: true, Notice: lastMessage(p)}, nil
	}
}

func openPage(deps Deps, resource string) (*page.Page[record.Document], string, error) {
	r, ok := catalog.Lookup(resource)
	if !ok {
		return nil, "", fmt.Errorf("unknown resource %q; expected one of %s", strings.TrimSpace(resource), strings.Join(catalog.Names(), ", "))
	}
	if deps.Backends == nil {
		return nil, "", fmt.Errorf("record backend is not configured")
	}
	p, err := catalog.NewPage(r, deps.Backends.Collection(r.Name), deps.Localizer)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", r.Name, err)
	}
	return p, r.Name, nil
}

// failure reports the notice the page raised for err, which carries the
// localized or server-provided message.
func failure(p *page.Page[record.Document], action string, err error) error {
	message := apperrors.Message(err)
	for _, n := range p.Notices() {
		if (n.Kind == notice.KindError || n.Kind == notice.KindWarning) && n.Message != "" {
			message = n.Message
		}
	}
	if message == "" {
		return fmt.Errorf("%s: %w", action, err)
	}
	return fmt.Errorf("%s: %s", action, message)
}

func lastMessage(p *page.Page[record.Document]) string {
	notices := p.Notices()
	if len(notices) == 0 {
		return ""
	}
	return notices[len(notices)-1].Message
}
