package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusMapsKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: http.StatusOK},
		{name: "invalid input", err: E(KindInvalidInput, "bad"), want: http.StatusBadRequest},
		{name: "validation", err: Validation("name", "name is required"), want: http.StatusBadRequest},
		{name: "unauthorized", err: E(KindUnauthorized, "no"), want: http.StatusUnauthorized},
		{name: "not found", err: E(KindNotFound, "gone"), want: http.StatusNotFound},
		{name: "unavailable", err: E(KindUnavailable, "down"), want: http.StatusServiceUnavailable},
		{name: "wrapped", err: fmt.Errorf("ctx: %w", E(KindNotFound, "gone")), want: http.StatusNotFound},
		{name: "plain", err: stderrors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Fatalf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReclassifyKeepsServerMessage(t *testing.T) {
	t.Parallel()

	transport := EK(KindInvalidInput, "", "email already taken")
	err := Reclassify(KindMutationFailure, transport)

	if got := KindOf(err); got != KindMutationFailure {
		t.Fatalf("KindOf() = %q, want %q", got, KindMutationFailure)
	}
	if got := Message(err); got != "email already taken" {
		t.Fatalf("Message() = %q", got)
	}
	if !stderrors.Is(err, &Error{Kind: KindInvalidInput}) {
		t.Fatal("expected original kind in chain")
	}
}

func TestReclassifyLeavesValidationAlone(t *testing.T) {
	t.Parallel()

	err := Reclassify(KindMutationFailure, Validation("name", "name is required"))
	if got := KindOf(err); got != KindValidationFailure {
		t.Fatalf("KindOf() = %q, want %q", got, KindValidationFailure)
	}
	if got := FieldOf(err); got != "name" {
		t.Fatalf("FieldOf() = %q, want name", got)
	}
}

func TestMessageSkipsBlankLayers(t *testing.T) {
	t.Parallel()

	err := Wrap(KindLoadFailure, E(KindUnavailable, "backend offline"))
	if got := Message(err); got != "backend offline" {
		t.Fatalf("Message() = %q", got)
	}
	if got := Message(Wrap(KindLoadFailure, stderrors.New("dial tcp"))); got != "" {
		t.Fatalf("Message() = %q, want empty", got)
	}
	if got := KindOf(stderrors.New("x")); got != KindUnknown {
		t.Fatalf("KindOf() = %q, want unknown", got)
	}
}

func TestFromHTTPStatus(t *testing.T) {
	t.Parallel()

	if got := FromHTTPStatus(http.StatusUnauthorized); got != KindUnauthorized {
		t.Fatalf("FromHTTPStatus(401) = %q", got)
	}
	if got := FromHTTPStatus(http.StatusTeapot); got != KindUnknown {
		t.Fatalf("FromHTTPStatus(418) = %q", got)
	}
}
