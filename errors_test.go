package authcore

import (
	"errors"
	"testing"
)

func TestErrorKindsMatchSentinels(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"validation", newValidationError("Email cannot be empty", nil), ErrValidation},
		{"user exists", newUserExistsError("a@b.io"), ErrUserExists},
		{"authentication", newAuthenticationError(), ErrInvalidCredentials},
		{"session not found", newSessionNotFoundError("s1"), ErrSessionNotFound},
		{"service", newServiceError("op", errors.New("boom")), ErrService},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.Is(tc.err, tc.sentinel) {
				t.Fatalf("expected %v to match its sentinel", tc.err)
			}
		})
	}
}

func TestErrorKindsDoNotCrossMatch(t *testing.T) {
	if errors.Is(newAuthenticationError(), ErrValidation) {
		t.Fatal("authentication error matched validation sentinel")
	}
	if errors.Is(newSessionNotFoundError("s1"), ErrNotFound) {
		t.Fatal("session-not-found matched generic not-found sentinel")
	}
}

func TestAuthenticationErrorCarriesNoAccountSignal(t *testing.T) {
	a := newAuthenticationError()
	b := newAuthenticationError()
	if a.Message != b.Message || a.Code != b.Code {
		t.Fatal("authentication errors must be indistinguishable")
	}
	if len(a.Detail) != 0 {
		t.Fatalf("authentication error leaks detail: %v", a.Detail)
	}
}

func TestServiceErrorWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := newServiceError("session.create", cause)

	if !errors.Is(err, cause) {
		t.Fatal("cause must be reachable via errors.Is")
	}
	if err.Error() != "internal service error" {
		t.Fatalf("outward message leaks internals: %q", err.Error())
	}
}

func TestStatusClass(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{newValidationError("bad", nil), 400},
		{newUserExistsError("a@b.io"), 409},
		{newAuthenticationError(), 401},
		{newSessionNotFoundError("s1"), 401},
		{ErrSessionExpired, 401},
		{ErrUnauthorized, 403},
		{ErrNotFound, 404},
		{newServiceError("op", errors.New("boom")), 500},
		{errors.New("untagged"), 500},
	}

	for _, tc := range cases {
		if got := StatusClass(tc.err); got != tc.want {
			t.Errorf("StatusClass(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
