// Package credential holds pure, side-effect-free validation of email,
// password, role, and identifier shape. Nothing here touches storage;
// callers translate violations into their own error taxonomy.
package credential

import (
	"errors"
	"regexp"
	"strings"

	"github.com/eventhive/authcore/ids"
	"github.com/eventhive/authcore/rbac"
)

const maxEmailLength = 254

var (
	ErrEmailEmpty    = errors.New("Email cannot be empty")
	ErrEmailTooLong  = errors.New("Email too long")
	ErrEmailFormat   = errors.New("Invalid email format")
	ErrRoleInvalid   = errors.New("Invalid role")
	ErrIdentifierBad = errors.New("Invalid identifier format")
)

// local@domain.tld; no whitespace, exactly one @, dotted domain.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail trims and normalizes an email address to lowercase.
// Returns the normalized form, or one of ErrEmailEmpty, ErrEmailTooLong,
// ErrEmailFormat.
func ValidateEmail(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmailEmpty
	}
	if len(s) > maxEmailLength {
		return "", ErrEmailTooLong
	}
	if !emailPattern.MatchString(s) {
		return "", ErrEmailFormat
	}
	return strings.ToLower(s), nil
}

// PasswordPolicy configures the hard password validation gate. Two
// requirement sets are in use; RequireSymbol selects the stricter one.
type PasswordPolicy struct {
	MinLength     int
	MaxLength     int
	RequireSymbol bool
}

// DefaultPasswordPolicy returns the baseline policy: 8–128 characters
// with at least one lowercase letter, one uppercase letter, and one digit.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{MinLength: 8, MaxLength: 128}
}

// PasswordValidation carries the complete violation list for one password
// so callers can show full feedback instead of the first failure.
type PasswordValidation struct {
	Valid      bool
	Violations []string
}

// ValidatePassword checks a password against the policy. Every violated
// rule is reported; the check never short-circuits.
func ValidatePassword(password string, policy PasswordPolicy) PasswordValidation {
	if policy.MinLength <= 0 {
		policy.MinLength = 8
	}
	if policy.MaxLength <= 0 {
		policy.MaxLength = 128
	}

	var violations []string
	if len(password) < policy.MinLength {
		violations = append(violations, "Password must be at least 8 characters long")
	}
	if len(password) > policy.MaxLength {
		violations = append(violations, "Password must be at most 128 characters long")
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	if !hasLower {
		violations = append(violations, "Password must contain at least one lowercase letter")
	}
	if !hasUpper {
		violations = append(violations, "Password must contain at least one uppercase letter")
	}
	if !hasDigit {
		violations = append(violations, "Password must contain at least one number")
	}
	if policy.RequireSymbol && !hasSymbol {
		violations = append(violations, "Password must contain at least one special character")
	}

	return PasswordValidation{Valid: len(violations) == 0, Violations: violations}
}

// ValidateRole checks that s is a member of the fixed role enum.
func ValidateRole(s string) (rbac.Role, error) {
	role := rbac.Role(strings.ToLower(strings.TrimSpace(s)))
	if !role.Valid() {
		return "", ErrRoleInvalid
	}
	return role, nil
}

// ValidateIdentifier checks the fixed 26-character sortable-identifier format.
func ValidateIdentifier(s string) error {
	if !ids.Valid(s) {
		return ErrIdentifierBad
	}
	return nil
}
