// Package memstore provides in-memory implementations of the authcore
// store contracts, for tests and single-process embedding. All operations
// are guarded by one mutex; copies go in and out so callers never share
// memory with the store.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/eventhive/authcore"
)

var (
	_ authcore.UserStore    = (*UserStore)(nil)
	_ authcore.SessionStore = (*SessionStore)(nil)
)

// UserStore keeps accounts in a map keyed by id, with a case-insensitive
// email index enforcing uniqueness the way a database constraint would.
type UserStore struct {
	mu      sync.RWMutex
	byID    map[string]*authcore.User
	byEmail map[string]string
}

func NewUserStore() *UserStore {
	return &UserStore{
		byID:    make(map[string]*authcore.User),
		byEmail: make(map[string]string),
	}
}

func emailKey(email string) string {
	return strings.ToLower(email)
}

func (s *UserStore) Create(ctx context.Context, u *authcore.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(u.Email)
	if _, taken := s.byEmail[key]; taken {
		return authcore.ErrUserExists
	}

	cp := *u
	s.byID[u.ID] = &cp
	s.byEmail[key] = u.ID
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*authcore.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, authcore.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*authcore.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[emailKey(email)]
	if !ok {
		return nil, authcore.ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *UserStore) Update(ctx context.Context, id string, upd authcore.UserUpdate) (*authcore.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, authcore.ErrNotFound
	}

	if upd.Email != nil {
		key := emailKey(*upd.Email)
		if owner, taken := s.byEmail[key]; taken && owner != id {
			return nil, authcore.ErrUserExists
		}
		delete(s.byEmail, emailKey(u.Email))
		s.byEmail[key] = id
		u.Email = *upd.Email
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.EmailVerified != nil {
		u.EmailVerified = *upd.EmailVerified
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Image != nil {
		u.Image = *upd.Image
	}
	u.UpdatedAt = time.Now().UTC()

	cp := *u
	return &cp, nil
}

func (s *UserStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return authcore.ErrNotFound
	}
	delete(s.byEmail, emailKey(u.Email))
	delete(s.byID, id)
	return nil
}

func (s *UserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byEmail[emailKey(email)]
	return ok, nil
}

// SessionStore keeps sessions in maps keyed by id and token.
type SessionStore struct {
	mu      sync.RWMutex
	byID    map[string]*authcore.Session
	byToken map[string]string
	users   authcore.UserStore
}

// NewSessionStore wires a session store. users backs GetWithUser and may
// be nil when that join is never used.
func NewSessionStore(users authcore.UserStore) *SessionStore {
	return &SessionStore{
		byID:    make(map[string]*authcore.Session),
		byToken: make(map[string]string),
		users:   users,
	}
}

func (s *SessionStore) Create(ctx context.Context, sess *authcore.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *sess
	s.byID[sess.ID] = &cp
	s.byToken[sess.Token] = sess.ID
	return nil
}

func (s *SessionStore) GetByID(ctx context.Context, id string) (*authcore.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.byID[id]
	if !ok {
		return nil, authcore.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *SessionStore) GetByToken(ctx context.Context, token string) (*authcore.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byToken[token]
	if !ok {
		return nil, authcore.ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *SessionStore) GetWithUser(ctx context.Context, token string) (*authcore.Session, *authcore.User, error) {
	sess, err := s.GetByToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, nil, err
	}
	return sess, user, nil
}

func (s *SessionStore) ListByUser(ctx context.Context, userID string) ([]*authcore.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []*authcore.Session
	for _, sess := range s.byID {
		if sess.UserID == userID {
			cp := *sess
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (s *SessionStore) Update(ctx context.Context, id string, upd authcore.SessionUpdate) (*authcore.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byID[id]
	if !ok {
		return nil, authcore.ErrNotFound
	}
	if upd.ExpiresAt != nil {
		sess.ExpiresAt = *upd.ExpiresAt
		sess.UpdatedAt = time.Now().UTC()
	}
	cp := *sess
	return &cp, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(id)
}

func (s *SessionStore) DeleteByToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byToken[token]
	if !ok {
		return authcore.ErrNotFound
	}
	return s.removeLocked(id)
}

func (s *SessionStore) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for id, sess := range s.byID {
		if sess.UserID == userID {
			_ = s.removeLocked(id)
			count++
		}
	}
	return count, nil
}

func (s *SessionStore) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for id, sess := range s.byID {
		if !sess.ExpiresAt.After(cutoff) {
			_ = s.removeLocked(id)
			count++
		}
	}
	return count, nil
}

func (s *SessionStore) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for id, sess := range s.byID {
		if sess.CreatedAt.Before(cutoff) {
			_ = s.removeLocked(id)
			count++
		}
	}
	return count, nil
}

func (s *SessionStore) CountAll(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.byID)), nil
}

func (s *SessionStore) CountActive(ctx context.Context, now time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, sess := range s.byID {
		if sess.ExpiresAt.After(now) {
			n++
		}
	}
	return n, nil
}

func (s *SessionStore) removeLocked(id string) error {
	sess, ok := s.byID[id]
	if !ok {
		return authcore.ErrNotFound
	}
	delete(s.byToken, sess.Token)
	delete(s.byID, id)
	return nil
}
