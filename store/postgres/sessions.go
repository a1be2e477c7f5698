package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventhive/authcore"
	"github.com/eventhive/authcore/rbac"
)

var _ authcore.SessionStore = (*SessionStore)(nil)

// SessionStore persists sessions in the sessions table. Expiry is not
// enforced by the database; the session manager retires stale rows on
// read and through batch cleanup.
type SessionStore struct {
	pool *pgxpool.Pool
}

func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

const sessionColumns = `id, token, user_id, expires_at, created_at, updated_at`

func scanSession(row pgx.Row) (*authcore.Session, error) {
	var s authcore.Session
	err := row.Scan(&s.ID, &s.Token, &s.UserID, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *SessionStore) Create(ctx context.Context, sess *authcore.Session) error {
	const q = `INSERT INTO sessions (id, token, user_id, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.pool.Exec(ctx, q,
		sess.ID, sess.Token, sess.UserID, sess.ExpiresAt, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SessionStore) GetByToken(ctx context.Context, token string) (*authcore.Session, error) {
	q := `SELECT ` + sessionColumns + ` FROM sessions WHERE token = $1`
	sess, err := scanSession(s.pool.QueryRow(ctx, q, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, authcore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	return sess, nil
}

func (s *SessionStore) GetByID(ctx context.Context, id string) (*authcore.Session, error) {
	q := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	sess, err := scanSession(s.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, authcore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	return sess, nil
}

// GetWithUser resolves a token to its session and owning user in one
// round-trip.
func (s *SessionStore) GetWithUser(ctx context.Context, token string) (*authcore.Session, *authcore.User, error) {
	const q = `SELECT s.id, s.token, s.user_id, s.expires_at, s.created_at, s.updated_at,
		u.id, u.email, u.password_hash, u.role, u.email_verified,
		COALESCE(u.name,''), COALESCE(u.image,''), u.created_at, u.updated_at
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token = $1`

	var sess authcore.Session
	var user authcore.User
	var role string
	err := s.pool.QueryRow(ctx, q, token).Scan(
		&sess.ID, &sess.Token, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt, &sess.UpdatedAt,
		&user.ID, &user.Email, &user.PasswordHash, &role, &user.EmailVerified,
		&user.Name, &user.Image, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, authcore.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("select session with user: %w", err)
	}
	user.Role = rbac.Role(role)
	return &sess, &user, nil
}

func (s *SessionStore) ListByUser(ctx context.Context, userID string) ([]*authcore.Session, error) {
	q := `SELECT ` + sessionColumns + ` FROM sessions WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var list []*authcore.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, sess)
	}
	return list, rows.Err()
}

func (s *SessionStore) Update(ctx context.Context, id string, upd authcore.SessionUpdate) (*authcore.Session, error) {
	if upd.ExpiresAt == nil {
		return s.GetByID(ctx, id)
	}
	q := `UPDATE sessions SET expires_at = $2, updated_at = now()
		WHERE id = $1 RETURNING ` + sessionColumns
	sess, err := scanSession(s.pool.QueryRow(ctx, q, id, *upd.ExpiresAt))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, authcore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return authcore.ErrNotFound
	}
	return nil
}

func (s *SessionStore) DeleteByToken(ctx context.Context, token string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return authcore.ErrNotFound
	}
	return nil
}

func (s *SessionStore) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *SessionStore) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *SessionStore) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete aged sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *SessionStore) CountAll(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

func (s *SessionStore) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM sessions WHERE expires_at > $1`, now).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active sessions: %w", err)
	}
	return n, nil
}
