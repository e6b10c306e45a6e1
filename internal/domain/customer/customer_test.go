package customer

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/louisbranch/boardkit/internal/listview/filter"
	"github.com/louisbranch/boardkit/internal/listview/pagetest"
)

func TestStageFilterKeepsOriginalOrder(t *testing.T) {
	t.Parallel()

	backend := pagetest.NewMemory(
		Customer{ID: "c1", Name: "Ada", Email: "ada@x.com", Stage: StageProspect},
		Customer{ID: "c2", Name: "Ben", Email: "ben@x.com", Stage: StageActive},
		Customer{ID: "c3", Name: "Cal", Email: "cal@x.com", Stage: StageActive},
		Customer{ID: "c4", Name: "Dee", Email: "dee@x.com", Stage: StageChurned},
	)
	p, err := NewPage(backend, nil)
	if err != nil {
		t.Fatalf("NewPage() error = %v", err)
	}
	if err := p.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := p.Filter(StageIs(string(StageActive))); err != nil {
		t.Fatalf("Filter() error = %v", err)
	}

	got := []string{}
	for _, c := range p.Entries() {
		got = append(got, c.ID)
	}
	if diff := cmp.Diff([]string{"c2", "c3"}, got); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}

	if err := p.Filter(StageIs(filter.All)); err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if len(p.Entries()) != 4 {
		t.Fatalf("entries = %d, want 4 after clearing the stage", len(p.Entries()))
	}
}

func TestRowCountsInteractions(t *testing.T) {
	t.Parallel()

	row := ToRow(Customer{
		ID:   "c1",
		Name: "Ada",
		Interactions: []Interaction{
			{Kind: "call"},
			{Kind: "email"},
		},
	})
	if row.Interactions != 2 || row.LastInteraction != "email" {
		t.Fatalf("row = %+v", row)
	}
}

func TestLogInteractionDoesNotAlias(t *testing.T) {
	t.Parallel()

	original := Customer{ID: "c1", Name: "Ada", Email: "ada@x.com", Interactions: make([]Interaction, 1, 4)}
	patch := LogInteraction(original, Interaction{Kind: "meeting"})
	next, err := original.Apply(patch)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(next.Interactions) != 2 || next.Interactions[1].Kind != "meeting" {
		t.Fatalf("interactions = %+v", next.Interactions)
	}
	if len(original.Interactions) != 1 {
		t.Fatal("original customer was modified")
	}
}

func TestInteractionCountIsFilterable(t *testing.T) {
	t.Parallel()

	set, err := filter.NewSet(Schema, filter.Compare(filter.OpGreaterEqual, "interactions", 2))
	if err != nil {
		t.Fatalf("NewSet() error = %v", err)
	}
	if set.Matches(Customer{Interactions: []Interaction{{Kind: "call"}}}) {
		t.Fatal("one interaction should not match >= 2")
	}
	if !set.Matches(Customer{Interactions: []Interaction{{Kind: "call"}, {Kind: "email"}}}) {
		t.Fatal("two interactions should match >= 2")
	}
}
