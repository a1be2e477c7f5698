// Package postgres implements the authcore store contracts on PostgreSQL
// via pgx connection pools. Uniqueness on users.email is enforced by the
// database; the unique-violation error from an insert is the
// authoritative duplicate signal.
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgErrUniqueViolation = "23505"

// Store bundles the user and session repositories over one pool.
type Store struct {
	Users    *UserStore
	Sessions *SessionStore
}

// New creates both repositories on the given pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		Users:    NewUserStore(pool),
		Sessions: NewSessionStore(pool),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}
