// Package authcore provides the authentication and authorization core of
// an event-management platform: account registration, credential
// verification, opaque-token session lifecycle, and static role-based
// access control.
//
// The package is designed for concurrent server workloads: AuthService and
// SessionManager methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [AuthService], [SessionManager],
// [Builder], [Config], the store contracts ([UserStore], [SessionStore]) and
// value types (AuthResult, SessionValidation, SessionStats). Persistence
// implementations live under store/, credential and token primitives under
// their own sub-packages, and none of them re-import authcore's service
// types beyond the store contracts.
//
// # Trust boundary
//
// PasswordHash never crosses the package boundary: every outward user
// representation goes through [User.Sanitize]. Sign-in reports the same
// error for an unknown email and a wrong password, and session expiry is
// an expected result on the read path, not an error.
package authcore
