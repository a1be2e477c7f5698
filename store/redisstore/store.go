// Package redisstore implements the authcore session contract on Redis.
//
// Layout, under a configurable prefix:
//
//	<p>:session:<id>  JSON session record
//	<p>:token:<tok>   token -> session id
//	<p>:user:<uid>    set of the user's session ids
//	<p>:expiry        zset of session ids scored by expiry (unix seconds)
//	<p>:created       zset of session ids scored by creation time
//
// The zset indexes make batch cleanup and the stats counts cheap without
// scanning the keyspace. Records carry no Redis TTL: retirement is the
// session manager's job (on-read delete plus batch cleanup), and a TTL
// racing those paths would leave the indexes pointing at vanished keys.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eventhive/authcore"
)

const defaultPrefix = "authcore"

var _ authcore.SessionStore = (*SessionStore)(nil)

// SessionStore keeps sessions in Redis. Users live elsewhere; the store
// composes a UserStore for the session+user join.
type SessionStore struct {
	client *redis.Client
	users  authcore.UserStore
	prefix string
}

// NewSessionStore wires a store. users may be nil when GetWithUser is
// never called (e.g. token-only deployments).
func NewSessionStore(client *redis.Client, users authcore.UserStore, prefix string) *SessionStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &SessionStore{client: client, users: users, prefix: prefix}
}

func (s *SessionStore) sessionKey(id string) string { return s.prefix + ":session:" + id }
func (s *SessionStore) tokenKey(tok string) string  { return s.prefix + ":token:" + tok }
func (s *SessionStore) userKey(uid string) string   { return s.prefix + ":user:" + uid }
func (s *SessionStore) expiryKey() string           { return s.prefix + ":expiry" }
func (s *SessionStore) createdKey() string          { return s.prefix + ":created" }

type sessionRecord struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toRecord(sess *authcore.Session) sessionRecord {
	return sessionRecord(*sess)
}

func (r sessionRecord) session() *authcore.Session {
	sess := authcore.Session(r)
	return &sess
}

func (s *SessionStore) Create(ctx context.Context, sess *authcore.Session) error {
	blob, err := json.Marshal(toRecord(sess))
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.sessionKey(sess.ID), blob, 0)
	pipe.Set(ctx, s.tokenKey(sess.Token), sess.ID, 0)
	pipe.SAdd(ctx, s.userKey(sess.UserID), sess.ID)
	pipe.ZAdd(ctx, s.expiryKey(), redis.Z{Score: float64(sess.ExpiresAt.Unix()), Member: sess.ID})
	pipe.ZAdd(ctx, s.createdKey(), redis.Z{Score: float64(sess.CreatedAt.Unix()), Member: sess.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *SessionStore) GetByID(ctx context.Context, id string) (*authcore.Session, error) {
	blob, err := s.client.Get(ctx, s.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, authcore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(blob, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return rec.session(), nil
}

func (s *SessionStore) GetByToken(ctx context.Context, token string) (*authcore.Session, error) {
	id, err := s.client.Get(ctx, s.tokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, authcore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *SessionStore) GetWithUser(ctx context.Context, token string) (*authcore.Session, *authcore.User, error) {
	if s.users == nil {
		return nil, nil, errors.New("redisstore: no user store configured")
	}
	sess, err := s.GetByToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, authcore.ErrNotFound) {
			// Orphaned session: the account is gone.
			return nil, nil, authcore.ErrNotFound
		}
		return nil, nil, err
	}
	return sess, user, nil
}

func (s *SessionStore) ListByUser(ctx context.Context, userID string) ([]*authcore.Session, error) {
	ids, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}

	var list []*authcore.Session
	for _, id := range ids {
		sess, err := s.GetByID(ctx, id)
		if errors.Is(err, authcore.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		list = append(list, sess)
	}
	return list, nil
}

func (s *SessionStore) Update(ctx context.Context, id string, upd authcore.SessionUpdate) (*authcore.Session, error) {
	sess, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.ExpiresAt == nil {
		return sess, nil
	}

	sess.ExpiresAt = (*upd.ExpiresAt).UTC()
	sess.UpdatedAt = time.Now().UTC()

	blob, err := json.Marshal(toRecord(sess))
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.sessionKey(id), blob, 0)
	pipe.ZAdd(ctx, s.expiryKey(), redis.Z{Score: float64(sess.ExpiresAt.Unix()), Member: id})
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	sess, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.remove(ctx, sess)
}

func (s *SessionStore) DeleteByToken(ctx context.Context, token string) error {
	sess, err := s.GetByToken(ctx, token)
	if err != nil {
		return err
	}
	return s.remove(ctx, sess)
}

func (s *SessionStore) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	ids, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("list user sessions: %w", err)
	}

	var count int64
	for _, id := range ids {
		switch err := s.Delete(ctx, id); {
		case err == nil:
			count++
		case errors.Is(err, authcore.ErrNotFound):
			// Raced away by another deleter; already done.
		default:
			return count, err
		}
	}
	return count, nil
}

func (s *SessionStore) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	max := strconv.FormatInt(cutoff.Unix(), 10)
	return s.deleteByScore(ctx, s.expiryKey(), max)
}

func (s *SessionStore) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	max := "(" + strconv.FormatInt(cutoff.Unix(), 10)
	return s.deleteByScore(ctx, s.createdKey(), max)
}

func (s *SessionStore) CountAll(ctx context.Context) (int64, error) {
	n, err := s.client.ZCard(ctx, s.expiryKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

func (s *SessionStore) CountActive(ctx context.Context, now time.Time) (int64, error) {
	min := "(" + strconv.FormatInt(now.Unix(), 10)
	n, err := s.client.ZCount(ctx, s.expiryKey(), min, "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("count active sessions: %w", err)
	}
	return n, nil
}

func (s *SessionStore) remove(ctx context.Context, sess *authcore.Session) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.sessionKey(sess.ID))
	pipe.Del(ctx, s.tokenKey(sess.Token))
	pipe.SRem(ctx, s.userKey(sess.UserID), sess.ID)
	pipe.ZRem(ctx, s.expiryKey(), sess.ID)
	pipe.ZRem(ctx, s.createdKey(), sess.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) deleteByScore(ctx context.Context, zkey, max string) (int64, error) {
	ids, err := s.client.ZRangeByScore(ctx, zkey, &redis.ZRangeBy{Min: "-inf", Max: max}).Result()
	if err != nil {
		return 0, fmt.Errorf("range sessions: %w", err)
	}

	var count int64
	for _, id := range ids {
		switch err := s.Delete(ctx, id); {
		case err == nil:
			count++
		case errors.Is(err, authcore.ErrNotFound):
			// Gone already; make sure the index entry goes too.
			s.client.ZRem(ctx, zkey, id)
		default:
			return count, err
		}
	}
	return count, nil
}
