package authcore

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/eventhive/authcore/audit"
	"github.com/eventhive/authcore/ids"
	"github.com/eventhive/authcore/token"
)

// SessionManager drives the session lifecycle over a SessionStore.
// A session is Active until its expiry passes, Expired while the stale
// record is still persisted, and Gone once deleted. The read path is the
// only place Expired records are retired; there is no background flag.
type SessionManager struct {
	store   SessionStore
	issuer  *token.Issuer
	cfg     SessionConfig
	logger  *zap.Logger
	metrics *Metrics
	audit   *audit.Dispatcher
}

// NewSessionManager wires a manager. logger may be nil; metrics and
// dispatcher may be nil too, in which case they are inert.
func NewSessionManager(
	store SessionStore,
	issuer *token.Issuer,
	cfg SessionConfig,
	logger *zap.Logger,
	metrics *Metrics,
	dispatcher *audit.Dispatcher,
) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if issuer == nil {
		issuer = token.NewDefaultIssuer()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 7 * 24 * time.Hour
	}
	if cfg.RefreshThreshold <= 0 {
		cfg.RefreshThreshold = 24 * time.Hour
	}
	return &SessionManager{
		store:   store,
		issuer:  issuer,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		audit:   dispatcher,
	}
}

// Create opens a new Active session for the user with the default TTL.
func (m *SessionManager) Create(ctx context.Context, userID string) (*Session, error) {
	return m.CreateWithTTL(ctx, userID, m.cfg.TTL)
}

// CreateWithTTL opens a new Active session with an explicit lifetime.
func (m *SessionManager) CreateWithTTL(ctx context.Context, userID string, ttl time.Duration) (*Session, error) {
	if ttl <= 0 {
		ttl = m.cfg.TTL
	}

	tok, err := m.issuer.Issue()
	if err != nil {
		m.logger.Error("session token generation failed", zap.Error(err))
		return nil, newServiceError("session.create", err)
	}

	now := time.Now().UTC()
	sess := &Session{
		ID:        ids.New(),
		Token:     tok,
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.store.Create(ctx, sess); err != nil {
		m.logger.Error("session persist failed",
			zap.String("user_id", userID), zap.Error(err))
		return nil, newServiceError("session.create", err)
	}

	m.metrics.Inc(MetricSessionCreated)
	m.emit(ctx, auditEventSessionCreated, true, userID, sess.ID, nil)
	return sess, nil
}

// Validate resolves a token to its session and user. An absent token and
// an expired session are expected outcomes reported in the result, not
// errors; an expired record is deleted as a side effect of the lookup.
func (m *SessionManager) Validate(ctx context.Context, tok string) (*SessionValidation, error) {
	sess, user, err := m.store.GetWithUser(ctx, tok)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &SessionValidation{Valid: false, Reason: "not found"}, nil
		}
		m.logger.Error("session lookup failed", zap.Error(err))
		return nil, newServiceError("session.validate", err)
	}

	if sess.Expired(time.Now().UTC()) {
		// Active → Gone straight from the read path.
		m.deleteQuietly(ctx, sess.ID, "expired session cleanup")
		m.metrics.Inc(MetricSessionExpiredOnRead)
		return &SessionValidation{Valid: false, Reason: "expired"}, nil
	}

	m.metrics.Inc(MetricSessionValidated)
	return &SessionValidation{Valid: true, User: user, Session: sess}, nil
}

// RefreshIfNeeded extends a session to a full TTL when its remaining life
// has dropped below the refresh threshold. Invalid or expired tokens are
// an idempotent no-op returning nil; a healthy session outside the
// threshold is returned unchanged.
func (m *SessionManager) RefreshIfNeeded(ctx context.Context, tok string) (*Session, error) {
	check, err := m.Validate(ctx, tok)
	if err != nil {
		return nil, err
	}
	if !check.Valid {
		return nil, nil
	}

	now := time.Now().UTC()
	if check.Session.ExpiresAt.Sub(now) >= m.cfg.RefreshThreshold {
		return check.Session, nil
	}

	expires := now.Add(m.cfg.TTL)
	updated, err := m.store.Update(ctx, check.Session.ID, SessionUpdate{ExpiresAt: &expires})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Revoked between lookup and update; treat like an invalid token.
			return nil, nil
		}
		m.logger.Error("session refresh failed",
			zap.String("session_id", check.Session.ID), zap.Error(err))
		return nil, newServiceError("session.refresh", err)
	}

	m.metrics.Inc(MetricSessionRefreshed)
	return updated, nil
}

// Extend unconditionally pushes a session's expiry to now+ttl (default
// TTL when ttl <= 0). Unlike RefreshIfNeeded it fails when the id does
// not resolve.
func (m *SessionManager) Extend(ctx context.Context, sessionID string, ttl time.Duration) (*Session, error) {
	if ttl <= 0 {
		ttl = m.cfg.TTL
	}

	expires := time.Now().UTC().Add(ttl)
	updated, err := m.store.Update(ctx, sessionID, SessionUpdate{ExpiresAt: &expires})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, newSessionNotFoundError(sessionID)
		}
		m.logger.Error("session extend failed",
			zap.String("session_id", sessionID), zap.Error(err))
		return nil, newServiceError("session.extend", err)
	}

	m.metrics.Inc(MetricSessionExtended)
	return updated, nil
}

// Revoke deletes a session by id. Absence of the target is not an error;
// it is logged and swallowed, so repeated calls are safe. Returns whether
// a record was actually removed.
func (m *SessionManager) Revoke(ctx context.Context, sessionID string) bool {
	err := m.store.Delete(ctx, sessionID)
	switch {
	case err == nil:
		m.metrics.Inc(MetricSessionRevoked)
		m.emit(ctx, auditEventSessionRevoked, true, "", sessionID, nil)
		return true
	case errors.Is(err, ErrNotFound):
		m.logger.Debug("revoke of absent session", zap.String("session_id", sessionID))
		return false
	default:
		m.logger.Error("session revoke failed",
			zap.String("session_id", sessionID), zap.Error(err))
		m.emit(ctx, auditEventSessionRevoked, false, "", sessionID, err)
		return false
	}
}

// RevokeByToken deletes a session by token with the same idempotent
// semantics as Revoke.
func (m *SessionManager) RevokeByToken(ctx context.Context, tok string) bool {
	err := m.store.DeleteByToken(ctx, tok)
	switch {
	case err == nil:
		m.metrics.Inc(MetricSessionRevoked)
		m.emit(ctx, auditEventSessionRevoked, true, "", "", nil)
		return true
	case errors.Is(err, ErrNotFound):
		m.logger.Debug("revoke of absent session token")
		return false
	default:
		m.logger.Error("session revoke by token failed", zap.Error(err))
		m.emit(ctx, auditEventSessionRevoked, false, "", "", err)
		return false
	}
}

// RevokeAllForUser deletes every session of a user: logout-everywhere and
// account deletion. Idempotent; returns how many sessions went away.
func (m *SessionManager) RevokeAllForUser(ctx context.Context, userID string) int64 {
	count, err := m.store.DeleteByUser(ctx, userID)
	if err != nil {
		m.logger.Error("bulk session revoke failed",
			zap.String("user_id", userID), zap.Error(err))
		m.emit(ctx, auditEventSessionsRevokedAll, false, userID, "", err)
		return 0
	}

	m.metrics.Add(MetricSessionsRevokedForUser, uint64(count))
	m.emit(ctx, auditEventSessionsRevokedAll, true, userID, "", nil)
	return count
}

// ListByUser returns the user's persisted sessions, expired records
// included, for "active devices" style views.
func (m *SessionManager) ListByUser(ctx context.Context, userID string) ([]*Session, error) {
	sessions, err := m.store.ListByUser(ctx, userID)
	if err != nil {
		m.logger.Error("session list failed",
			zap.String("user_id", userID), zap.Error(err))
		return nil, newServiceError("session.list", err)
	}
	return sessions, nil
}

// CleanupExpired batch-deletes every session whose expiry has passed.
// Safe to run concurrently with live traffic: rows deleted by a racing
// validation are counted as already done, never as a failure.
func (m *SessionManager) CleanupExpired(ctx context.Context) CleanupResult {
	now := time.Now().UTC()
	count, err := m.store.DeleteExpiredBefore(ctx, now)
	if err != nil {
		m.logger.Error("expired session cleanup failed", zap.Error(err))
		m.emit(ctx, auditEventSessionsCleaned, false, "", "", err)
		return CleanupResult{Timestamp: now}
	}

	m.metrics.Add(MetricSessionsCleaned, uint64(count))
	m.emit(ctx, auditEventSessionsCleaned, true, "", "", nil)
	return CleanupResult{DeletedCount: count, Timestamp: now}
}

// CleanupOlderThan batch-deletes sessions created before the cutoff,
// regardless of expiry.
func (m *SessionManager) CleanupOlderThan(ctx context.Context, cutoff time.Time) CleanupResult {
	now := time.Now().UTC()
	count, err := m.store.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		m.logger.Error("aged session cleanup failed",
			zap.Time("cutoff", cutoff), zap.Error(err))
		m.emit(ctx, auditEventSessionsCleaned, false, "", "", err)
		return CleanupResult{Timestamp: now}
	}

	m.metrics.Add(MetricSessionsCleaned, uint64(count))
	m.emit(ctx, auditEventSessionsCleaned, true, "", "", nil)
	return CleanupResult{DeletedCount: count, Timestamp: now}
}

// Stats returns total/active/expired session counts. Admin-only at the
// RBAC layer; the manager itself does not gate it.
func (m *SessionManager) Stats(ctx context.Context) (SessionStats, error) {
	total, err := m.store.CountAll(ctx)
	if err != nil {
		m.logger.Error("session stats failed", zap.Error(err))
		return SessionStats{}, newServiceError("session.stats", err)
	}
	active, err := m.store.CountActive(ctx, time.Now().UTC())
	if err != nil {
		m.logger.Error("session stats failed", zap.Error(err))
		return SessionStats{}, newServiceError("session.stats", err)
	}

	return SessionStats{
		Total:   total,
		Active:  active,
		Expired: total - active,
	}, nil
}

func (m *SessionManager) deleteQuietly(ctx context.Context, sessionID, what string) {
	if err := m.store.Delete(ctx, sessionID); err != nil && !errors.Is(err, ErrNotFound) {
		m.logger.Warn(what+" failed",
			zap.String("session_id", sessionID), zap.Error(err))
	}
}

func (m *SessionManager) emit(ctx context.Context, eventType string, success bool, userID, sessionID string, cause error) {
	if m.audit == nil {
		return
	}
	event := audit.NewEvent(eventType, success)
	event.UserID = userID
	event.SessionID = sessionID
	if cause != nil {
		event.Error = cause.Error()
	}
	m.audit.Emit(ctx, event)
}
