package authcore

import (
	"context"
	"errors"
	"testing"
)

func TestGetSessionUnknownToken(t *testing.T) {
	p, _, _ := newTestProvider(t, nil)

	_, err := p.GetSession(context.Background(), "AAAAAAAAAAAAAAAAAAAAAA")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestGetSessionEmptyToken(t *testing.T) {
	p, _, _ := newTestProvider(t, nil)

	_, err := p.GetSession(context.Background(), "")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSignOutDestroysSession(t *testing.T) {
	p, dir, _ := newTestProvider(t, nil)
	seedUser(t, p, dir, "alice@example.com", "correct-horse", AccountActive)
	ctx := context.Background()

	result, err := p.SignInEmail(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}

	if err := p.SignOut(ctx, result.Token); err != nil {
		t.Fatalf("sign-out failed: %v", err)
	}
	if _, err := p.GetSession(ctx, result.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session to be gone, got %v", err)
	}
}

func TestSignOutUnknownTokenIsNoOp(t *testing.T) {
	p, _, _ := newTestProvider(t, nil)

	if err := p.SignOut(context.Background(), "never-issued"); err != nil {
		t.Fatalf("sign-out of unknown token must succeed, got %v", err)
	}
	if err := p.SignOut(context.Background(), ""); err != nil {
		t.Fatalf("sign-out of empty token must succeed, got %v", err)
	}
}

func TestSignOutIsIdempotent(t *testing.T) {
	p, dir, _ := newTestProvider(t, nil)
	seedUser(t, p, dir, "alice@example.com", "correct-horse", AccountActive)
	ctx := context.Background()

	result, err := p.SignInEmail(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}

	if err := p.SignOut(ctx, result.Token); err != nil {
		t.Fatalf("first sign-out failed: %v", err)
	}
	if err := p.SignOut(ctx, result.Token); err != nil {
		t.Fatalf("second sign-out must be a no-op, got %v", err)
	}
}

func TestSignOutAllDestroysEverySession(t *testing.T) {
	p, dir, _ := newTestProvider(t, nil)
	user := seedUser(t, p, dir, "alice@example.com", "correct-horse", AccountActive)
	ctx := context.Background()

	first, err := p.SignInEmail(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("first sign-in failed: %v", err)
	}
	second, err := p.SignInEmail(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("second sign-in failed: %v", err)
	}

	if err := p.SignOutAll(ctx, user.UserID); err != nil {
		t.Fatalf("sign-out-all failed: %v", err)
	}

	for _, token := range []string{first.Token, second.Token} {
		if _, err := p.GetSession(ctx, token); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("expected every session to be gone, got %v", err)
		}
	}
}
