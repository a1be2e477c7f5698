package credential

import (
	"errors"
	"strings"
	"testing"

	"github.com/eventhive/authcore/ids"
	"github.com/eventhive/authcore/rbac"
)

func TestValidateEmailNormalizes(t *testing.T) {
	got, err := ValidateEmail("  Alice@Example.COM ")
	if err != nil {
		t.Fatalf("ValidateEmail failed: %v", err)
	}
	if got != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", got)
	}
}

func TestValidateEmailRejections(t *testing.T) {
	cases := []struct {
		name  string
		email string
		want  error
	}{
		{"empty", "", ErrEmailEmpty},
		{"whitespace only", "   ", ErrEmailEmpty},
		{"too long", strings.Repeat("a", 250) + "@x.io", ErrEmailTooLong},
		{"no at sign", "alice.example.com", ErrEmailFormat},
		{"no domain dot", "alice@example", ErrEmailFormat},
		{"embedded space", "ali ce@example.com", ErrEmailFormat},
		{"double at", "a@b@example.com", ErrEmailFormat},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ValidateEmail(tc.email); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestValidatePasswordCollectsAllViolations(t *testing.T) {
	check := ValidatePassword("abc", DefaultPasswordPolicy())
	if check.Valid {
		t.Fatal("expected invalid password")
	}
	// Too short, no uppercase, no digit.
	if len(check.Violations) != 3 {
		t.Fatalf("expected 3 violations, got %d: %v", len(check.Violations), check.Violations)
	}
}

func TestValidatePasswordAccepts(t *testing.T) {
	check := ValidatePassword("Str0ngEnough", DefaultPasswordPolicy())
	if !check.Valid {
		t.Fatalf("expected valid password, violations: %v", check.Violations)
	}
}

func TestValidatePasswordSymbolRequirement(t *testing.T) {
	policy := DefaultPasswordPolicy()
	policy.RequireSymbol = true

	if check := ValidatePassword("Str0ngEnough", policy); check.Valid {
		t.Fatal("expected symbol violation")
	}
	if check := ValidatePassword("Str0ngEnough!", policy); !check.Valid {
		t.Fatalf("expected valid password, violations: %v", check.Violations)
	}
}

func TestValidatePasswordMaxLength(t *testing.T) {
	long := "Aa1" + strings.Repeat("x", 130)
	check := ValidatePassword(long, DefaultPasswordPolicy())
	if check.Valid {
		t.Fatal("expected max length violation")
	}
}

func TestValidateRole(t *testing.T) {
	role, err := ValidateRole(" Organizer ")
	if err != nil {
		t.Fatalf("ValidateRole failed: %v", err)
	}
	if role != rbac.RoleOrganizer {
		t.Fatalf("expected organizer, got %q", role)
	}

	if _, err := ValidateRole("superuser"); !errors.Is(err, ErrRoleInvalid) {
		t.Fatalf("expected ErrRoleInvalid, got %v", err)
	}
}

func TestValidateIdentifier(t *testing.T) {
	if err := ValidateIdentifier(ids.New()); err != nil {
		t.Fatalf("expected generated id to validate: %v", err)
	}
	if err := ValidateIdentifier("not-an-id"); !errors.Is(err, ErrIdentifierBad) {
		t.Fatalf("expected ErrIdentifierBad, got %v", err)
	}
}
