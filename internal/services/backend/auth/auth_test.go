package auth

import (
	"strings"
	"testing"
	"time"

	apperrors "github.com/louisbranch/boardkit/internal/platform/errors"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestIssuer(t *testing.T, now time.Time) *Issuer {
	t.Helper()
	i, err := NewIssuer(testSecret, "key", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}
	i.now = func() time.Time { return now }
	return i
}

func TestNewIssuerValidates(t *testing.T) {
	t.Parallel()

	if _, err := NewIssuer("short", "key", time.Hour); err == nil {
		t.Fatal("expected short secret error")
	}
	if _, err := NewIssuer(testSecret, " ", time.Hour); err == nil {
		t.Fatal("expected api key error")
	}
	if _, err := NewIssuer(testSecret, "key", 0); err == nil {
		t.Fatal("expected ttl error")
	}
}

func TestLoginRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.October, 15, 8, 0, 0, 0, time.UTC)
	i := newTestIssuer(t, now)
	token, expires, err := i.Login("key", "user-1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !expires.Equal(now.Add(time.Hour)) {
		t.Fatalf("expires = %v", expires)
	}
	userID, err := i.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("user = %q, want user-1", userID)
	}
}

func TestLoginRejectsBadKey(t *testing.T) {
	t.Parallel()

	i := newTestIssuer(t, time.Now())
	if _, _, err := i.Login("nope", "user-1"); apperrors.KindOf(err) != apperrors.KindUnauthorized {
		t.Fatalf("Login() error = %v", err)
	}
	if _, _, err := i.Login("key", ""); apperrors.KindOf(err) != apperrors.KindValidationFailure {
		t.Fatalf("Login() blank user error = %v", err)
	}
}

func TestVerifyRejectsExpiredAndForeignTokens(t *testing.T) {
	t.Parallel()

	issued := time.Date(2026, time.October, 15, 8, 0, 0, 0, time.UTC)
	i := newTestIssuer(t, issued)
	token, _, err := i.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	i.now = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, err := i.Verify(token); apperrors.Message(err) != "session expired" {
		t.Fatalf("Verify(expired) error = %v", err)
	}

	other, err := NewIssuer(strings.Repeat("z", 32), "key", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}
	if _, err := other.Verify(token); apperrors.KindOf(err) != apperrors.KindUnauthorized {
		t.Fatalf("Verify(foreign) error = %v", err)
	}
	if _, err := i.Verify("not-a-jwt"); apperrors.KindOf(err) != apperrors.KindUnauthorized {
		t.Fatalf("Verify(garbage) error = %v", err)
	}
}
