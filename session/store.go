package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when no live session exists for a token digest.
var ErrNotFound = errors.New("session not found")

// ErrRedisUnavailable wraps transport-level Redis failures so callers can
// distinguish them from a plain miss and fail closed.
var ErrRedisUnavailable = errors.New("session redis unavailable")

// deleteScript removes a session blob and its user-index entry atomically,
// returning whether the blob existed. Safe to replay.
const deleteScript = `
local existed = redis.call("EXISTS", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
if existed == 1 then
  redis.call("DEL", KEYS[1])
end
return existed
`

var deleteLua = redis.NewScript(deleteScript)

// Store persists session records in Redis, keyed by token digest, with an
// auxiliary per-user set used for revoke-all.
type Store struct {
	redis   *redis.Client
	prefix  string
	maxSize int

	// Sliding refresh: when a record is read with less than
	// (lifetime - updateWindow) remaining, its expiry advances to
	// now+lifetime. Zero updateWindow disables sliding.
	lifetime     time.Duration
	updateWindow time.Duration
}

// NewStore wires a Store over the given client. prefix namespaces all keys.
func NewStore(client *redis.Client, prefix string, lifetime, updateWindow time.Duration, maxSize int) *Store {
	if prefix == "" {
		prefix = "ac"
	}
	return &Store{
		redis:        client,
		prefix:       prefix,
		maxSize:      maxSize,
		lifetime:     lifetime,
		updateWindow: updateWindow,
	}
}

func (s *Store) sessionKey(tokenHash string) string {
	return s.prefix + ":s:" + tokenHash
}

func (s *Store) userKey(userID string) string {
	return s.prefix + ":u:" + userID
}

// Save writes sess under tokenHash with the configured lifetime and records
// the digest in the owner's session set.
func (s *Store) Save(ctx context.Context, tokenHash string, sess *Session) error {
	encoded, err := Encode(sess, s.maxSize)
	if err != nil {
		return err
	}

	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, s.sessionKey(tokenHash), encoded, s.lifetime)
	pipe.SAdd(ctx, s.userKey(sess.UserID), tokenHash)
	pipe.Expire(ctx, s.userKey(sess.UserID), s.lifetime)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Get loads the session stored under tokenHash. Expired or missing records
// return [ErrNotFound]. A fresh read inside the sliding window extends the
// record's lifetime.
func (s *Store) Get(ctx context.Context, tokenHash string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.sessionKey(tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		// Corrupt blob: drop it rather than serve garbage.
		_ = s.Delete(ctx, tokenHash, "")
		return nil, ErrNotFound
	}

	now := time.Now()
	if now.Unix() > sess.ExpiresAt {
		_ = s.Delete(ctx, tokenHash, sess.UserID)
		return nil, ErrNotFound
	}

	if s.updateWindow > 0 {
		remaining := time.Unix(sess.ExpiresAt, 0).Sub(now)
		if remaining < s.lifetime-s.updateWindow {
			sess.ExpiresAt = now.Add(s.lifetime).Unix()
			// Refresh failure is tolerable; the session remains valid
			// until its previous expiry.
			_ = s.Save(ctx, tokenHash, sess)
		}
	}

	return sess, nil
}

// Delete removes the session under tokenHash. Idempotent. userID may be
// empty when unknown; the index entry is then left to expire with its TTL.
func (s *Store) Delete(ctx context.Context, tokenHash, userID string) error {
	userKey := s.userKey(userID)
	if userID == "" {
		userKey = s.userKey("-")
	}

	if err := deleteLua.Run(ctx, s.redis, []string{s.sessionKey(tokenHash), userKey}, tokenHash).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// DeleteAllForUser revokes every live session belonging to userID.
func (s *Store) DeleteAllForUser(ctx context.Context, userID string) error {
	hashes, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	pipe := s.redis.TxPipeline()
	for _, h := range hashes {
		pipe.Del(ctx, s.sessionKey(h))
	}
	pipe.Del(ctx, s.userKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// ActiveCount reports how many session digests are indexed for userID.
// The count may briefly include sessions that expired but were not yet read.
func (s *Store) ActiveCount(ctx context.Context, userID string) (int, error) {
	n, err := s.redis.SCard(ctx, s.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(n), nil
}
