package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T, lifetime, window time.Duration) (*Store, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(rdb, "ac", lifetime, window, 0)

	return store, mr, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func makeSession(userID string, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		UserID:        userID,
		Name:          "Ada Lovelace",
		Email:         "ada@example.com",
		EmailVerified: true,
		CreatedAt:     now.Unix(),
		ExpiresAt:     now.Add(ttl).Unix(),
	}
}

func TestSaveAndGet(t *testing.T) {
	store, _, done := newTestStore(t, time.Hour, 0)
	defer done()

	ctx := context.Background()
	sess := makeSession("u1", time.Hour)

	if err := store.Save(ctx, "hash-1", sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx, "hash-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.UserID != "u1" || got.Email != "ada@example.com" || !got.EmailVerified {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestGetMissing(t *testing.T) {
	store, _, done := newTestStore(t, time.Hour, 0)
	defer done()

	if _, err := store.Get(context.Background(), "absent"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetExpiredRecord(t *testing.T) {
	store, _, done := newTestStore(t, time.Hour, 0)
	defer done()

	ctx := context.Background()
	sess := makeSession("u1", time.Hour)
	// Expiry in the past while the Redis TTL is still live.
	sess.ExpiresAt = time.Now().Add(-time.Minute).Unix()

	if err := store.Save(ctx, "hash-stale", sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := store.Get(ctx, "hash-stale"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for expired record, got %v", err)
	}
	// The stale blob must be gone after the failed read.
	if _, err := store.Get(ctx, "hash-stale"); err != ErrNotFound {
		t.Fatalf("expected stale blob deleted, got %v", err)
	}
}

func TestSlidingRefreshExtendsExpiry(t *testing.T) {
	lifetime := 48 * time.Hour
	window := 24 * time.Hour
	store, _, done := newTestStore(t, lifetime, window)
	defer done()

	ctx := context.Background()
	sess := makeSession("u1", lifetime)
	// Pretend the session is a day and a half old.
	sess.ExpiresAt = time.Now().Add(12 * time.Hour).Unix()

	if err := store.Save(ctx, "hash-old", sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx, "hash-old")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	wantMin := time.Now().Add(lifetime - time.Minute).Unix()
	if got.ExpiresAt < wantMin {
		t.Fatalf("expected expiry extended past %d, got %d", wantMin, got.ExpiresAt)
	}
}

func TestSlidingRefreshSkipsFreshSession(t *testing.T) {
	lifetime := 48 * time.Hour
	window := 24 * time.Hour
	store, _, done := newTestStore(t, lifetime, window)
	defer done()

	ctx := context.Background()
	sess := makeSession("u1", lifetime)
	originalExpiry := sess.ExpiresAt

	if err := store.Save(ctx, "hash-fresh", sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx, "hash-fresh")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ExpiresAt != originalExpiry {
		t.Fatalf("fresh session expiry moved from %d to %d", originalExpiry, got.ExpiresAt)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	store, _, done := newTestStore(t, time.Hour, 0)
	defer done()

	ctx := context.Background()
	sess := makeSession("u1", time.Hour)

	if err := store.Save(ctx, "hash-del", sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Delete(ctx, "hash-del", "u1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "hash-del", "u1"); err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "hash-del"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDeleteAllForUser(t *testing.T) {
	store, _, done := newTestStore(t, time.Hour, 0)
	defer done()

	ctx := context.Background()
	for _, h := range []string{"h1", "h2", "h3"} {
		if err := store.Save(ctx, h, makeSession("u1", time.Hour)); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
	if err := store.Save(ctx, "other", makeSession("u2", time.Hour)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := store.DeleteAllForUser(ctx, "u1"); err != nil {
		t.Fatalf("DeleteAllForUser failed: %v", err)
	}

	for _, h := range []string{"h1", "h2", "h3"} {
		if _, err := store.Get(ctx, h); err != ErrNotFound {
			t.Fatalf("expected %s revoked, got %v", h, err)
		}
	}

	// Unrelated user untouched.
	if _, err := store.Get(ctx, "other"); err != nil {
		t.Fatalf("expected u2 session to survive, got %v", err)
	}

	n, err := store.ActiveCount(ctx, "u1")
	if err != nil {
		t.Fatalf("ActiveCount failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected zero active sessions, got %d", n)
	}
}

func TestGetUnavailableBackend(t *testing.T) {
	store, mr, done := newTestStore(t, time.Hour, 0)
	defer done()

	mr.Close()

	_, err := store.Get(context.Background(), "any")
	if !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
