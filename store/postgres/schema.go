package postgres

import (
	"context"
	"fmt"
)

// Migrate creates the users and sessions tables when they do not exist.
// Idempotent; intended for embedded deployments and test databases where
// no external migration tooling runs.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id             text PRIMARY KEY,
			email          text NOT NULL UNIQUE,
			password_hash  text NOT NULL,
			role           text NOT NULL DEFAULT 'user',
			email_verified boolean NOT NULL DEFAULT false,
			name           text,
			image          text,
			created_at     timestamptz NOT NULL DEFAULT now(),
			updated_at     timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id         text PRIMARY KEY,
			token      text NOT NULL UNIQUE,
			user_id    text NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			expires_at timestamptz NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS sessions_user_id_idx ON sessions (user_id)`,
		`CREATE INDEX IF NOT EXISTS sessions_expires_at_idx ON sessions (expires_at)`,
	}

	for _, stmt := range stmts {
		if _, err := s.Users.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
