package authcore

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation policy and transport mapping.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindUserExists
	KindAuthentication
	KindUnauthorized
	KindNotFound
	KindSessionNotFound
	KindSessionExpired
	KindService
)

// Error is the tagged error type used across the core. Expected outcomes
// carry a specific kind and code; persistence and infra failures are
// wrapped as KindService with the cause retained for server-side logging
// but never exposed in Message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Detail  map[string]string

	cause error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error of the same kind, so callers can test against the
// exported sentinels with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks. Operational errors are constructed with
// the new*Error helpers below and match these by kind.
var (
	ErrValidation         = &Error{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: "validation failed"}
	ErrUserExists         = &Error{Kind: KindUserExists, Code: "USER_EXISTS", Message: "user with this email already exists"}
	ErrInvalidCredentials = &Error{Kind: KindAuthentication, Code: "INVALID_CREDENTIALS", Message: "Invalid email or password"}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized, Code: "UNAUTHORIZED", Message: "insufficient role or permissions"}
	ErrNotFound           = &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: "resource not found"}
	ErrSessionNotFound    = &Error{Kind: KindSessionNotFound, Code: "SESSION_NOT_FOUND", Message: "session not found"}
	ErrSessionExpired     = &Error{Kind: KindSessionExpired, Code: "SESSION_EXPIRED", Message: "session expired"}
	ErrService            = &Error{Kind: KindService, Code: "SERVICE_ERROR", Message: "internal service error"}
)

func newValidationError(message string, detail map[string]string) *Error {
	return &Error{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: message, Detail: detail}
}

func newUserExistsError(email string) *Error {
	return &Error{
		Kind:    KindUserExists,
		Code:    "USER_EXISTS",
		Message: "user with this email already exists",
		Detail:  map[string]string{"email": email},
	}
}

func newAuthenticationError() *Error {
	// Identical for unknown email and wrong password: no enumeration signal.
	return &Error{Kind: KindAuthentication, Code: "INVALID_CREDENTIALS", Message: "Invalid email or password"}
}

func newSessionNotFoundError(ref string) *Error {
	return &Error{
		Kind:    KindSessionNotFound,
		Code:    "SESSION_NOT_FOUND",
		Message: "session not found",
		Detail:  map[string]string{"session": ref},
	}
}

// newServiceError wraps an infrastructure failure. The cause is available
// through errors.Unwrap for logging; the outward message stays generic.
func newServiceError(op string, cause error) *Error {
	return &Error{
		Kind:    KindService,
		Code:    "SERVICE_ERROR",
		Message: "internal service error",
		Detail:  map[string]string{"op": op},
		cause:   fmt.Errorf("%s: %w", op, cause),
	}
}

// StatusClass maps an error to its transport-level status code at the
// boundary. Unknown errors are treated as service failures.
func StatusClass(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return 500
	}
	switch e.Kind {
	case KindValidation:
		return 400
	case KindUserExists:
		return 409
	case KindAuthentication, KindSessionNotFound, KindSessionExpired:
		return 401
	case KindUnauthorized:
		return 403
	case KindNotFound:
		return 404
	default:
		return 500
	}
}
