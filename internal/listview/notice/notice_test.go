package notice

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/louisbranch/boardkit/internal/listview/record"
	apperrors "github.com/louisbranch/boardkit/internal/platform/errors"
	"github.com/louisbranch/boardkit/internal/platform/i18n"
)

type mapLocalizer map[string]string

func (m mapLocalizer) Text(key, fallback string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}

func TestFromError(t *testing.T) {
	t.Parallel()

	l := mapLocalizer{
		"notice.mutation_failure": "Could not save.",
		"notice.load_failure":     "Could not load.",
		"error.validation.name":   "Name is required.",
	}
	tests := []struct {
		name string
		err  error
		want Notice
	}{
		{
			name: "server message verbatim",
			err:  apperrors.Reclassify(apperrors.KindMutationFailure, apperrors.E(apperrors.KindInvalidInput, "email already taken")),
			want: Notice{Kind: KindError, Key: "notice.mutation_failure", Message: "email already taken"},
		},
		{
			name: "fallback when no message",
			err:  apperrors.Wrap(apperrors.KindLoadFailure, errors.New("dial tcp: refused")),
			want: Notice{Kind: KindError, Key: "notice.load_failure", Message: "Could not load."},
		},
		{
			name: "validation is a warning on the field",
			err:  apperrors.Validation("name", "name is required"),
			want: Notice{Kind: KindWarning, Key: "error.validation.name", Message: "Name is required.", Field: "name"},
		},
		{
			name: "plain error",
			err:  fmt.Errorf("boom"),
			want: Notice{Kind: KindError, Key: "notice.unknown", Message: "Something went wrong."},
		},
		{
			name: "stale load",
			err:  record.ErrStaleLoad,
			want: Notice{Kind: KindInfo, Key: "notice.stale_load", Message: "A newer change arrived while loading."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.want, FromError(tt.err, l)); diff != "" {
				t.Fatalf("notice mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFromErrorWithCatalog(t *testing.T) {
	t.Parallel()

	n := FromError(apperrors.Wrap(apperrors.KindUnavailable, errors.New("timeout")), i18n.NewLocalizer("pt-BR"))
	if n.Message != "O serviço está temporariamente indisponível." {
		t.Fatalf("Message = %q", n.Message)
	}
	if got := FromError(nil, nil); got != (Notice{}) {
		t.Fatalf("FromError(nil) = %+v", got)
	}
}

func TestQueueDrainsInOrder(t *testing.T) {
	t.Parallel()

	var q Queue
	q.Notify(Notice{Kind: KindSuccess, Message: "first"})
	q.Notify(Notice{Kind: "bogus", Message: " second "})
	q.Notify(Notice{})
	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", q.Len())
	}
	want := []Notice{{Kind: KindSuccess, Message: "first"}, {Kind: KindInfo, Message: "second"}}
	if diff := cmp.Diff(want, q.Drain()); diff != "" {
		t.Fatalf("drain mismatch (-want +got):\n%s", diff)
	}
	if q.Drain() != nil {
		t.Fatal("expected empty queue after drain")
	}
}

func TestSuccessUsesLocalizer(t *testing.T) {
	t.Parallel()

	n := Success("notice.created", mapLocalizer{"notice.created": "Created!"})
	if n.Kind != KindSuccess || n.Message != "Created!" {
		t.Fatalf("Success() = %+v", n)
	}
	Discard.Notify(n)
}
