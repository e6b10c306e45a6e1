package filter

import (
	"slices"
	"testing"
)

func TestParseMatchesRecords(t *testing.T) {
	t.Parallel()

	records := []contact{
		{Name: "Ann", Stage: "active", Visits: 3},
		{Name: "Bob", Stage: "prospect", Visits: 12},
		{Name: "Dana", Stage: "churned", Visits: 0},
	}
	tests := []struct {
		expression string
		want       []string
	}{
		{expression: `stage = "active"`, want: []string{"Ann"}},
		{expression: `stage != "active"`, want: []string{"Bob", "Dana"}},
		{expression: `visits > 2`, want: []string{"Ann", "Bob"}},
		{expression: `visits >= 3 AND stage = "prospect"`, want: []string{"Bob"}},
		{expression: `stage = "churned" OR visits < 1`, want: []string{"Dana"}},
		{expression: `name:"an"`, want: []string{"Ann", "Dana"}},
		{expression: `NOT stage = "active"`, want: []string{"Bob", "Dana"}},
		{expression: ``, want: []string{"Ann", "Bob", "Dana"}},
	}
	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			t.Parallel()
			c, err := Parse(tt.expression, contactSchema)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			set := mustSet(t, c)
			var got []string
			for _, r := range records {
				if set.Matches(r) {
					got = append(got, r.Name)
				}
			}
			if len(got) != len(tt.want) {
				t.Fatalf("matched %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("matched %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestParseRejectsUnknownField(t *testing.T) {
	t.Parallel()

	if _, err := Parse(`owner = "me"`, contactSchema); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := Parse(`stage = `, contactSchema); err == nil {
		t.Fatal("expected syntax error")
	}
}

func TestParsedCriterionIsNamed(t *testing.T) {
	t.Parallel()

	c, err := Parse(`stage = "active"`, contactSchema)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Key() != ExpressionName {
		t.Fatalf("Key() = %q, want %q", c.Key(), ExpressionName)
	}
}

func TestParsedComparisonsTreatAllLiterally(t *testing.T) {
	t.Parallel()

	records := []contact{
		{Name: "Ann", Stage: "active"},
		{Name: "Bob", Stage: "all"},
	}
	tests := []struct {
		expression string
		want       []string
	}{
		{expression: `stage = "all"`, want: []string{"Bob"}},
		{expression: `stage = "All"`, want: nil},
		{expression: `stage != "all"`, want: []string{"Ann"}},
	}
	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			t.Parallel()
			c, err := Parse(tt.expression, contactSchema)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if !c.Active() {
				t.Fatalf("%s is inactive", tt.expression)
			}
			set := mustSet(t, c)
			var got []string
			for _, r := range records {
				if set.Matches(r) {
					got = append(got, r.Name)
				}
			}
			if !slices.Equal(got, tt.want) {
				t.Fatalf("matched %v, want %v", got, tt.want)
			}
		})
	}

	if Equals("stage", "All").Active() {
		t.Fatal("categorical input set to All should be inactive")
	}
}
