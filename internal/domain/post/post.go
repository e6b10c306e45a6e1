// Package post is the social feed. Posts may carry a poll whose options
// accumulate votes.
package post

import (
	"fmt"

	"github.com/louisbranch/boardkit/internal/domain"
	"github.com/louisbranch/boardkit/internal/listview/filter"
	"github.com/louisbranch/boardkit/internal/listview/mutation"
	"github.com/louisbranch/boardkit/internal/listview/notice"
	"github.com/louisbranch/boardkit/internal/listview/page"
	"github.com/louisbranch/boardkit/internal/listview/projection"
	"github.com/louisbranch/boardkit/internal/listview/record"
	apperrors "github.com/louisbranch/boardkit/internal/platform/errors"
)

// ResourceName is the backend collection for posts.
const ResourceName = "posts"

// Option is one poll choice.
type Option struct {
	Label string `json:"label"`
	Votes int    `json:"votes"`
}

// Poll is a question attached to a post.
type Poll struct {
	Question string   `json:"question"`
	Options  []Option `json:"options"`
}

// Post is one feed entry.
type Post struct {
	ID        string `json:"id,omitempty"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	Likes     int    `json:"likes"`
	Poll      *Poll  `json:"poll,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// RecordID implements record.Record.
func (p Post) RecordID() string { return p.ID }

// WithID returns p carrying id.
func (p Post) WithID(id string) Post {
	p.ID = id
	return p
}

// Apply merges patch into p.
func (p Post) Apply(patch mutation.Patch) (Post, error) {
	return domain.ApplyPatch(p, patch)
}

// Resource describes the posts collection. New posts go on top of the feed.
var Resource = domain.Resource{
	Name: ResourceName,
	Fields: []domain.Field{
		{Name: "author", Type: filter.TypeString},
		{Name: "content", Type: filter.TypeString},
		{Name: "likes", Type: filter.TypeInt},
	},
	Nested:    []string{"poll"},
	Required:  []string{"author", "content"},
	Search:    []string{"author", "content"},
	Defaults:  map[string]any{"likes": 0},
	Placement: record.Prepend,
}

// Schema is the filter schema for typed posts.
var Schema = filter.MustSchema(
	filter.StringField("author", func(p Post) string { return p.Author }),
	filter.StringField("content", func(p Post) string { return p.Content }),
	filter.IntField("likes", func(p Post) int64 { return int64(p.Likes) }),
	filter.BoolField("has_poll", func(p Post) bool { return p.Poll != nil }),
)

// Validate checks p before it is dispatched. A poll needs a question and at
// least two options.
func Validate(p Post) error {
	if err := domain.ValidatorFor[Post](Resource)(p); err != nil {
		return err
	}
	if p.Poll == nil {
		return nil
	}
	if p.Poll.Question == "" {
		return apperrors.Validation("poll", "poll question is required")
	}
	if len(p.Poll.Options) < 2 {
		return apperrors.Validation("poll", "a poll needs at least two options")
	}
	for _, o := range p.Poll.Options {
		if o.Votes < 0 {
			return apperrors.Validation("poll", "votes cannot be negative")
		}
	}
	return nil
}

// Search is the free-text input over author and content.
func Search(query string) filter.Criterion {
	return Resource.SearchCriterion(query)
}

// NewPage builds the feed over backend.
func NewPage(backend page.Backend[Post], localizer notice.Localizer) (*page.Page[Post], error) {
	return page.New(page.Config[Post]{
		Schema:    Schema,
		Backend:   backend,
		Placement: Resource.Placement,
		Validator: mutation.ValidatorFunc[Post](Validate),
		Defaults:  []filter.Criterion{Search("")},
		Localizer: localizer,
	})
}

// OptionView is a poll option with its share of the votes.
type OptionView struct {
	Label   string
	Votes   int
	Percent int
}

// PollView is a rendered poll.
type PollView struct {
	Question string
	Total    int
	Options  []OptionView
}

// ViewPoll computes whole-number percentages for each option.
func ViewPoll(poll Poll) PollView {
	votes := make([]int, len(poll.Options))
	total := 0
	for i, o := range poll.Options {
		votes[i] = o.Votes
		total += o.Votes
	}
	percents := projection.Percentages(votes)
	view := PollView{Question: poll.Question, Total: total, Options: make([]OptionView, len(poll.Options))}
	for i, o := range poll.Options {
		view.Options[i] = OptionView{Label: o.Label, Votes: o.Votes, Percent: percents[i]}
	}
	return view
}

// Entry is the rendered form of a post.
type Entry struct {
	ID      string
	Author  string
	Content string
	Likes   int
	Poll    *PollView
}

// ToEntry derives the feed entry for p.
func ToEntry(p Post) Entry {
	e := Entry{ID: p.ID, Author: p.Author, Content: p.Content, Likes: p.Likes}
	if p.Poll != nil {
		view := ViewPoll(*p.Poll)
		e.Poll = &view
	}
	return e
}

// Feed returns the current entries of p.
func Feed(p *page.Page[Post]) []Entry {
	return page.View(p, ToEntry)
}

// Vote returns the patch adding one vote to option of p's poll.
func Vote(p Post, option int) (mutation.Patch, error) {
	if p.Poll == nil {
		return nil, apperrors.Validation("poll", "post has no poll")
	}
	if option < 0 || option >= len(p.Poll.Options) {
		return nil, apperrors.Validation("poll", fmt.Sprintf("option %d is out of range", option))
	}
	next := Poll{Question: p.Poll.Question, Options: append([]Option(nil), p.Poll.Options...)}
	next.Options[option].Votes++
	return mutation.Patch{"poll": next}, nil
}

// Like returns the patch adding one like to p.
func Like(p Post) mutation.Patch {
	return mutation.Patch{"likes": p.Likes + 1}
}
