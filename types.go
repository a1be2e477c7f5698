package authcore

import (
	"context"
	"time"

	"github.com/eventhive/authcore/rbac"
)

// User is the full account record as persisted. PasswordHash never leaves
// the trust boundary: every outward representation goes through Sanitize.
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	Role          rbac.Role
	EmailVerified bool
	Name          string
	Image         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SanitizedUser is the outward-facing account representation. It omits
// PasswordHash always, and EmailVerified in the public-facing shape.
type SanitizedUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Image     string    `json:"image,omitempty"`
	Role      rbac.Role `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Sanitize strips credential material from a user record.
func (u *User) Sanitize() *SanitizedUser {
	if u == nil {
		return nil
	}
	return &SanitizedUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Image:     u.Image,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Session is the sole proof of authentication after sign-in. Token is an
// opaque high-entropy secret; no other credential travels with requests.
type Session struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the session is past its expiry at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// UserUpdate carries the mutable user fields for UserStore.Update.
// Nil fields are left unchanged.
type UserUpdate struct {
	Email         *string
	PasswordHash  *string
	Role          *rbac.Role
	EmailVerified *bool
	Name          *string
	Image         *string
}

// SessionUpdate carries the mutable session fields for SessionStore.Update.
type SessionUpdate struct {
	ExpiresAt *time.Time
}

// UserStore is the persistence contract for accounts. Email lookups take
// the normalized (lowercase) form; uniqueness is enforced by the store and
// surfaced from Create as ErrUserExists, which is the authoritative
// collision signal closing the check-then-act race.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, id string, upd UserUpdate) (*User, error)
	Delete(ctx context.Context, id string) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// SessionStore is the persistence contract for sessions. Single-row
// mutations are keyed by unique id or token and atomic at the store.
// Deletes of absent rows return ErrNotFound so idempotent callers can
// distinguish "nothing to do" from a real failure; bulk deletes report
// how many rows went away and treat zero as success.
type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	GetByID(ctx context.Context, id string) (*Session, error)
	GetWithUser(ctx context.Context, token string) (*Session, *User, error)
	ListByUser(ctx context.Context, userID string) ([]*Session, error)
	Update(ctx context.Context, id string, upd SessionUpdate) (*Session, error)
	Delete(ctx context.Context, id string) error
	DeleteByToken(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CountAll(ctx context.Context) (int64, error)
	CountActive(ctx context.Context, now time.Time) (int64, error)
}

// AuthResult is returned by successful sign-up and sign-in. Session is
// populated by the self-hosted service; a delegating provider may return
// only the bare token and expiry.
type AuthResult struct {
	User      *SanitizedUser `json:"user"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`

	Session *Session `json:"-"`
}

// SessionValidation is the outcome of a token check. Invalid results carry
// a short reason ("not found", "expired") instead of an error: expiry on
// the read path is an expected state, not a failure.
type SessionValidation struct {
	Valid   bool
	Reason  string
	User    *User
	Session *Session
}

// CleanupResult reports one batch cleanup run.
type CleanupResult struct {
	DeletedCount int64
	Timestamp    time.Time
}

// SessionStats is a read-only aggregate over the session table.
type SessionStats struct {
	Total   int64
	Active  int64
	Expired int64
}

// Credentials is the outcome a CredentialProvider returns for sign-up and
// sign-in: a bare token plus expiry, with no session record of our own.
type Credentials struct {
	User      *User
	Token     string
	ExpiresAt time.Time
}

// CredentialProvider delegates credential verification and session
// issuance to an external identity provider. Swapping it in replaces the
// AuthService's persistence and crypto calls; the RBAC engine and the
// caller-facing contract stay unchanged.
type CredentialProvider interface {
	SignUp(ctx context.Context, email, password, name string) (*Credentials, error)
	SignIn(ctx context.Context, email, password string) (*Credentials, error)
	SignOut(ctx context.Context, token string) error
	Validate(ctx context.Context, token string) (*User, error)
}
