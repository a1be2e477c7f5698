package authcore

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eventhive/authcore/audit"
	"github.com/eventhive/authcore/credential"
	"github.com/eventhive/authcore/ids"
	"github.com/eventhive/authcore/password"
	"github.com/eventhive/authcore/rbac"
)

// AuthService is the front door of the core: account creation, credential
// verification, session issuance and teardown. When a CredentialProvider
// is configured, credential and session handling are delegated to it and
// the local stores are bypassed; authorization stays local either way.
type AuthService struct {
	users    UserStore
	sessions *SessionManager
	engine   *rbac.Engine
	hasher   password.Hasher
	policy   credential.PasswordPolicy
	provider CredentialProvider

	logger  *zap.Logger
	metrics *Metrics
	audit   *audit.Dispatcher

	// hashSem bounds concurrent hash computations; nil means unbounded.
	hashSem chan struct{}

	// dummyHash absorbs a verify cycle when the email does not resolve,
	// so unknown-email and wrong-password take comparable time.
	dummyHash string
}

// CurrentUser is the resolved caller behind a valid session token.
type CurrentUser struct {
	User    *SanitizedUser `json:"user"`
	Session *Session       `json:"session,omitempty"`
}

// SignUp registers a new account and opens its first session. Validation
// failures report every violated rule at once; a duplicate email is
// reported identically whether it is caught by the pre-check or by the
// store's uniqueness constraint.
func (s *AuthService) SignUp(ctx context.Context, email, pass, name string) (*AuthResult, error) {
	normalized, err := credential.ValidateEmail(email)
	if err != nil {
		s.metrics.Inc(MetricSignUpInvalid)
		return nil, newValidationError(err.Error(), map[string]string{"field": "email"})
	}

	if check := credential.ValidatePassword(pass, s.policy); !check.Valid {
		s.metrics.Inc(MetricSignUpInvalid)
		return nil, newValidationError(check.Violations[0], map[string]string{
			"field":      "password",
			"violations": joinViolations(check.Violations),
		})
	}

	if s.provider != nil {
		return s.delegatedSignUp(ctx, normalized, pass, name)
	}

	// Advisory pre-check. The store constraint below is the authoritative
	// duplicate signal; this only shortcuts the common case before the
	// expensive hash.
	if exists, err := s.users.ExistsByEmail(ctx, normalized); err != nil {
		s.logger.Error("email existence check failed", zap.Error(err))
		return nil, newServiceError("auth.signup", err)
	} else if exists {
		s.metrics.Inc(MetricSignUpDuplicate)
		return nil, newUserExistsError(normalized)
	}

	hash, err := s.hashPassword(ctx, pass)
	if err != nil {
		s.logger.Error("password hash failed", zap.Error(err))
		return nil, newServiceError("auth.signup", err)
	}

	now := time.Now().UTC()
	user := &User{
		ID:           ids.New(),
		Email:        normalized,
		PasswordHash: hash,
		Role:         rbac.RoleUser,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			s.metrics.Inc(MetricSignUpDuplicate)
			s.emitAuth(ctx, auditEventSignUp, false, "", errors.New("duplicate email"))
			return nil, newUserExistsError(normalized)
		}
		s.logger.Error("user persist failed", zap.Error(err))
		return nil, newServiceError("auth.signup", err)
	}

	sess, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.metrics.Inc(MetricSignUpSuccess)
	s.emitAuth(ctx, auditEventSignUp, true, user.ID, nil)
	s.logger.Info("user signed up", zap.String("user_id", user.ID))

	return &AuthResult{
		User:      user.Sanitize(),
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		Session:   sess,
	}, nil
}

// SignIn verifies credentials and opens a new session. Unknown email and
// wrong password produce the same error and comparable latency, so the
// response carries no account-enumeration signal.
func (s *AuthService) SignIn(ctx context.Context, email, pass string) (*AuthResult, error) {
	normalized, err := credential.ValidateEmail(email)
	if err != nil {
		return nil, newValidationError(err.Error(), map[string]string{"field": "email"})
	}
	if pass == "" {
		return nil, newValidationError("Password cannot be empty", map[string]string{"field": "password"})
	}

	if s.provider != nil {
		return s.delegatedSignIn(ctx, normalized, pass)
	}

	user, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Burn a verify against a throwaway hash before answering.
			_, _ = s.hasher.Verify(pass, s.dummyHash)
			s.metrics.Inc(MetricSignInFailure)
			s.emitAuth(ctx, auditEventSignIn, false, "", errors.New("unknown email"))
			return nil, newAuthenticationError()
		}
		s.logger.Error("user lookup failed", zap.Error(err))
		return nil, newServiceError("auth.signin", err)
	}

	ok, err := s.hasher.Verify(pass, user.PasswordHash)
	if err != nil {
		s.logger.Error("password verify failed", zap.String("user_id", user.ID), zap.Error(err))
		return nil, newServiceError("auth.signin", err)
	}
	if !ok {
		s.metrics.Inc(MetricSignInFailure)
		s.emitAuth(ctx, auditEventSignIn, false, user.ID, errors.New("password mismatch"))
		return nil, newAuthenticationError()
	}

	s.maybeRehash(ctx, user, pass)

	sess, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.metrics.Inc(MetricSignInSuccess)
	s.emitAuth(ctx, auditEventSignIn, true, user.ID, nil)
	s.logger.Info("user signed in", zap.String("user_id", user.ID))

	return &AuthResult{
		User:      user.Sanitize(),
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		Session:   sess,
	}, nil
}

// SignOut revokes the session behind the token. Unknown, expired and
// already-revoked tokens all succeed silently; internal failures are
// logged and swallowed, so sign-out never surfaces an error to the caller.
func (s *AuthService) SignOut(ctx context.Context, token string) {
	if token == "" {
		return
	}

	if s.provider != nil {
		if err := s.provider.SignOut(ctx, token); err != nil {
			s.logger.Error("delegated sign-out failed", zap.Error(err))
		}
		s.metrics.Inc(MetricSignOut)
		s.emitAuth(ctx, auditEventSignOut, true, "", nil)
		return
	}

	s.sessions.RevokeByToken(ctx, token)
	s.metrics.Inc(MetricSignOut)
	s.emitAuth(ctx, auditEventSignOut, true, "", nil)
}

// GetCurrentUser resolves a session token to its sanitized account.
// An invalid or expired token yields (nil, nil); the caller distinguishes
// "no user" from infrastructure failure by the error.
func (s *AuthService) GetCurrentUser(ctx context.Context, token string) (*CurrentUser, error) {
	if token == "" {
		return nil, nil
	}

	if s.provider != nil {
		user, err := s.provider.Validate(ctx, token)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrSessionNotFound) {
				return nil, nil
			}
			s.logger.Error("delegated token validation failed", zap.Error(err))
			return nil, newServiceError("auth.current_user", err)
		}
		if user == nil {
			return nil, nil
		}
		return &CurrentUser{User: user.Sanitize()}, nil
	}

	check, err := s.sessions.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	if !check.Valid {
		return nil, nil
	}
	return &CurrentUser{User: check.User.Sanitize(), Session: check.Session}, nil
}

// ValidatePasswordStrength scores a candidate password for interactive
// feedback. Advisory only: a score of zero does not block sign-up, the
// hard policy in SignUp does.
func (s *AuthService) ValidatePasswordStrength(pass string) credential.Strength {
	return credential.PasswordStrength(pass)
}

// ChangePassword swaps the account password after verifying the current
// one, then revokes every session of the user so stolen tokens die with
// the old credential.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPass, newPass string) error {
	if s.users == nil {
		return newServiceError("auth.change_password", errors.New("password changes require a user store"))
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return newAuthenticationError()
		}
		s.logger.Error("user lookup failed", zap.String("user_id", userID), zap.Error(err))
		return newServiceError("auth.change_password", err)
	}

	ok, err := s.hasher.Verify(oldPass, user.PasswordHash)
	if err != nil {
		s.logger.Error("password verify failed", zap.String("user_id", userID), zap.Error(err))
		return newServiceError("auth.change_password", err)
	}
	if !ok {
		s.metrics.Inc(MetricPasswordChangeInvalidOld)
		s.emitAuth(ctx, auditEventPasswordChanged, false, userID, errors.New("current password mismatch"))
		return newAuthenticationError()
	}

	if newPass == oldPass {
		return newValidationError("New password must differ from the current password",
			map[string]string{"field": "password"})
	}
	if check := credential.ValidatePassword(newPass, s.policy); !check.Valid {
		return newValidationError(check.Violations[0], map[string]string{
			"field":      "password",
			"violations": joinViolations(check.Violations),
		})
	}

	hash, err := s.hashPassword(ctx, newPass)
	if err != nil {
		s.logger.Error("password hash failed", zap.Error(err))
		return newServiceError("auth.change_password", err)
	}

	if _, err := s.users.Update(ctx, userID, UserUpdate{PasswordHash: &hash}); err != nil {
		s.logger.Error("password update failed", zap.String("user_id", userID), zap.Error(err))
		return newServiceError("auth.change_password", err)
	}

	s.sessions.RevokeAllForUser(ctx, userID)

	s.metrics.Inc(MetricPasswordChangeSuccess)
	s.emitAuth(ctx, auditEventPasswordChanged, true, userID, nil)
	s.logger.Info("password changed", zap.String("user_id", userID))
	return nil
}

// DeleteAccount removes the account after verifying the password, and
// revokes every session it had. Deleting an already-deleted account is
// an authentication failure, not a crash.
func (s *AuthService) DeleteAccount(ctx context.Context, userID, pass string) error {
	if s.users == nil {
		return newServiceError("auth.delete_account", errors.New("account deletion requires a user store"))
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return newAuthenticationError()
		}
		s.logger.Error("user lookup failed", zap.String("user_id", userID), zap.Error(err))
		return newServiceError("auth.delete_account", err)
	}

	ok, err := s.hasher.Verify(pass, user.PasswordHash)
	if err != nil {
		s.logger.Error("password verify failed", zap.String("user_id", userID), zap.Error(err))
		return newServiceError("auth.delete_account", err)
	}
	if !ok {
		s.emitAuth(ctx, auditEventAccountDeleted, false, userID, errors.New("password mismatch"))
		return newAuthenticationError()
	}

	if err := s.users.Delete(ctx, userID); err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Error("account delete failed", zap.String("user_id", userID), zap.Error(err))
		return newServiceError("auth.delete_account", err)
	}

	s.sessions.RevokeAllForUser(ctx, userID)

	s.metrics.Inc(MetricAccountDeleted)
	s.emitAuth(ctx, auditEventAccountDeleted, true, userID, nil)
	s.logger.Info("account deleted", zap.String("user_id", userID))
	return nil
}

// Authorize checks a role against an access requirement and returns
// ErrUnauthorized on refusal. It is the service-level counterpart of the
// middleware guard.
func (s *AuthService) Authorize(role rbac.Role, req rbac.Requirement) error {
	if s.engine.CanAccess(role, req) {
		return nil
	}
	s.metrics.Inc(MetricAccessDenied)
	return ErrUnauthorized
}

// Sessions exposes the session manager for lifecycle operations that do
// not need the credential layer (refresh, cleanup, stats).
func (s *AuthService) Sessions() *SessionManager {
	return s.sessions
}

// RBAC exposes the authorization engine.
func (s *AuthService) RBAC() *rbac.Engine {
	return s.engine
}

// MetricsSnapshot returns the current counter values.
func (s *AuthService) MetricsSnapshot() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// Metrics exposes the counter registry for exporter bridges.
func (s *AuthService) Metrics() *Metrics {
	return s.metrics
}

// AuditDropped reports how many audit events the dispatcher has shed
// under backpressure. Zero with auditing disabled.
func (s *AuthService) AuditDropped() uint64 {
	if s.audit == nil {
		return 0
	}
	return s.audit.Dropped()
}

// Close drains and stops the audit dispatcher. Safe to call more than
// once and with auditing disabled.
func (s *AuthService) Close() {
	if s.audit != nil {
		s.audit.Close()
	}
}

func (s *AuthService) delegatedSignUp(ctx context.Context, email, pass, name string) (*AuthResult, error) {
	creds, err := s.provider.SignUp(ctx, email, pass, name)
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			s.metrics.Inc(MetricSignUpDuplicate)
			return nil, newUserExistsError(email)
		}
		s.logger.Error("delegated sign-up failed", zap.Error(err))
		return nil, newServiceError("auth.signup", err)
	}

	s.metrics.Inc(MetricSignUpSuccess)
	s.emitAuth(ctx, auditEventSignUp, true, creds.User.ID, nil)
	return &AuthResult{
		User:      creds.User.Sanitize(),
		Token:     creds.Token,
		ExpiresAt: creds.ExpiresAt,
	}, nil
}

func (s *AuthService) delegatedSignIn(ctx context.Context, email, pass string) (*AuthResult, error) {
	creds, err := s.provider.SignIn(ctx, email, pass)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.metrics.Inc(MetricSignInFailure)
			s.emitAuth(ctx, auditEventSignIn, false, "", errors.New("provider rejected credentials"))
			return nil, newAuthenticationError()
		}
		s.logger.Error("delegated sign-in failed", zap.Error(err))
		return nil, newServiceError("auth.signin", err)
	}

	s.metrics.Inc(MetricSignInSuccess)
	s.emitAuth(ctx, auditEventSignIn, true, creds.User.ID, nil)
	return &AuthResult{
		User:      creds.User.Sanitize(),
		Token:     creds.Token,
		ExpiresAt: creds.ExpiresAt,
	}, nil
}

// hashPassword runs the configured hasher under the concurrency bound.
func (s *AuthService) hashPassword(ctx context.Context, pass string) (string, error) {
	if s.hashSem != nil {
		select {
		case s.hashSem <- struct{}{}:
			defer func() { <-s.hashSem }()
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.hasher.Hash(pass)
}

// maybeRehash transparently upgrades a hash that was produced under
// weaker parameters than currently configured. Best effort: the sign-in
// already succeeded, so failures here are only logged.
func (s *AuthService) maybeRehash(ctx context.Context, user *User, pass string) {
	needs, err := s.hasher.NeedsUpgrade(user.PasswordHash)
	if err != nil || !needs {
		return
	}
	hash, err := s.hashPassword(ctx, pass)
	if err != nil {
		s.logger.Warn("password rehash failed", zap.String("user_id", user.ID), zap.Error(err))
		return
	}
	if _, err := s.users.Update(ctx, user.ID, UserUpdate{PasswordHash: &hash}); err != nil {
		s.logger.Warn("password rehash persist failed", zap.String("user_id", user.ID), zap.Error(err))
	}
}

func (s *AuthService) emitAuth(ctx context.Context, eventType string, success bool, userID string, cause error) {
	if s.audit == nil {
		return
	}
	event := audit.NewEvent(eventType, success)
	event.UserID = userID
	if cause != nil {
		event.Error = cause.Error()
	}
	s.audit.Emit(ctx, event)
}

func joinViolations(vs []string) string {
	return strings.Join(vs, "; ")
}
