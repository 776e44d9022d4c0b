package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestIs_MatchesWrappedDomainError(t *testing.T) {
	err := fmt.Errorf("handler: %w", ErrInvalidCode())
	if !Is(err, "invalid_code") {
		t.Fatalf("expected invalid_code to match through wrapping")
	}
	if Is(err, "token_mismatch") {
		t.Fatalf("unexpected match for token_mismatch")
	}
	if Is(errors.New("plain"), "invalid_code") {
		t.Fatalf("plain errors must not match")
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want ErrKind
	}{
		{ErrMissingField("Email is required", "email"), KindValidation},
		{ErrTokenMismatch(), KindAuth},
		{ErrUserNotFound(), KindNotFound},
		{ErrUserAlreadyExists(), KindConflict},
		{ErrDeliveryFailed(errors.New("smtp down")), KindDelivery},
		{ErrDBUnavailable(errors.New("conn refused")), KindInfrastructure},
		{errors.New("boom"), KindInternal},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("KindOf(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestError_UnwrapExposesCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := ErrDBUnavailable(cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable via errors.Is")
	}
	if got := err.Error(); got != "infrastructure (db_unavailable): Database unavailable: dial tcp: refused" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestErrMissingField_MetaOnlyWhenFieldGiven(t *testing.T) {
	if m := ErrMissingField("Email is required").Meta; m != nil {
		t.Fatalf("expected nil meta, got %+v", m)
	}
	m := ErrMissingField("Email is required", "email").Meta
	if m["field"] != "email" {
		t.Fatalf("expected field=email, got %+v", m)
	}
}
