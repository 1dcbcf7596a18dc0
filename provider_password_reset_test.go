package authcore

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"
)

func extractResetToken(t *testing.T, mailer *fakeMailer) string {
	t.Helper()

	body := mailer.last(t).Body
	idx := strings.Index(body, "token=")
	if idx < 0 {
		t.Fatalf("no token found in mail body %q", body)
	}
	raw := body[idx+len("token="):]
	if end := strings.IndexAny(raw, " \n"); end >= 0 {
		raw = raw[:end]
	}
	token, err := url.QueryUnescape(raw)
	if err != nil {
		t.Fatalf("unescape token: %v", err)
	}
	return token
}

func TestPasswordResetRoundTrip(t *testing.T) {
	p, dir, mailer := newTestProvider(t, nil)
	seedUser(t, p, dir, "alice@example.com", "old-password", AccountActive)
	ctx := context.Background()

	// An active session must not survive the reset.
	signedIn, err := p.SignInEmail(ctx, "alice@example.com", "old-password")
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}

	if err := p.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("reset request failed: %v", err)
	}
	msg := mailer.last(t)
	if msg.To != "alice@example.com" || !strings.Contains(msg.Body, "/reset-password?token=") {
		t.Fatalf("unexpected reset mail: %+v", msg)
	}
	token := extractResetToken(t, mailer)

	if err := p.ResetPassword(ctx, token, "brand-new-pass"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	if _, err := p.SignInEmail(ctx, "alice@example.com", "old-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	if _, err := p.SignInEmail(ctx, "alice@example.com", "brand-new-pass"); err != nil {
		t.Fatalf("new password must work: %v", err)
	}
	if _, err := p.GetSession(ctx, signedIn.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected pre-reset session revoked, got %v", err)
	}
}

func TestPasswordResetLinkIsSingleUse(t *testing.T) {
	p, dir, mailer := newTestProvider(t, nil)
	seedUser(t, p, dir, "alice@example.com", "old-password", AccountActive)
	ctx := context.Background()

	if err := p.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("reset request failed: %v", err)
	}
	token := extractResetToken(t, mailer)

	if err := p.ResetPassword(ctx, token, "brand-new-pass"); err != nil {
		t.Fatalf("first reset failed: %v", err)
	}
	if err := p.ResetPassword(ctx, token, "another-pass1"); !errors.Is(err, ErrPasswordResetInvalid) {
		t.Fatalf("expected replay rejection, got %v", err)
	}
}

func TestPasswordResetRejectsTamperedToken(t *testing.T) {
	p, dir, mailer := newTestProvider(t, nil)
	seedUser(t, p, dir, "alice@example.com", "old-password", AccountActive)
	ctx := context.Background()

	if err := p.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("reset request failed: %v", err)
	}
	token := extractResetToken(t, mailer)

	tampered := token[:len(token)-2] + "xx"
	if err := p.ResetPassword(ctx, tampered, "brand-new-pass"); !errors.Is(err, ErrPasswordResetInvalid) {
		t.Fatalf("expected tampered token rejection, got %v", err)
	}
	if err := p.ResetPassword(ctx, "not-a-jwt", "brand-new-pass"); !errors.Is(err, ErrPasswordResetInvalid) {
		t.Fatalf("expected garbage token rejection, got %v", err)
	}
}

func TestPasswordResetExpiredRecord(t *testing.T) {
	p, dir, mailer, mr := newTestProviderWithRedis(t, nil)
	seedUser(t, p, dir, "alice@example.com", "old-password", AccountActive)
	ctx := context.Background()

	if err := p.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("reset request failed: %v", err)
	}
	token := extractResetToken(t, mailer)

	mr.FastForward(2 * time.Hour)

	if err := p.ResetPassword(ctx, token, "brand-new-pass"); !errors.Is(err, ErrPasswordResetInvalid) {
		t.Fatalf("expected expired link rejection, got %v", err)
	}
}

func TestPasswordResetShortNewPasswordKeepsLink(t *testing.T) {
	p, dir, mailer := newTestProvider(t, nil)
	seedUser(t, p, dir, "alice@example.com", "old-password", AccountActive)
	ctx := context.Background()

	if err := p.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("reset request failed: %v", err)
	}
	token := extractResetToken(t, mailer)

	if err := p.ResetPassword(ctx, token, "tiny"); !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("expected ErrPasswordPolicy, got %v", err)
	}
	// The link survives a policy rejection so the user can retry.
	if err := p.ResetPassword(ctx, token, "brand-new-pass"); err != nil {
		t.Fatalf("retry with valid password failed: %v", err)
	}
}

func TestRequestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	p, _, mailer := newTestProvider(t, nil)

	if err := p.RequestPasswordReset(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("unknown email must not error, got %v", err)
	}
	if len(mailer.sent()) != 0 {
		t.Fatal("no mail may be sent for unknown addresses")
	}
}

func TestRequestPasswordResetRateLimited(t *testing.T) {
	p, dir, _ := newTestProvider(t, func(cfg *Config) {
		cfg.PasswordReset.MaxAttempts = 1
	})
	seedUser(t, p, dir, "alice@example.com", "old-password", AccountActive)
	ctx := context.Background()

	if err := p.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	if err := p.RequestPasswordReset(ctx, "alice@example.com"); !errors.Is(err, ErrPasswordResetRateLimited) {
		t.Fatalf("expected ErrPasswordResetRateLimited, got %v", err)
	}
}

func TestPasswordResetDisabled(t *testing.T) {
	p, _, _ := newTestProvider(t, func(cfg *Config) {
		cfg.PasswordReset.Enabled = false
	})
	ctx := context.Background()

	if err := p.RequestPasswordReset(ctx, "alice@example.com"); !errors.Is(err, ErrPasswordResetDisabled) {
		t.Fatalf("expected ErrPasswordResetDisabled, got %v", err)
	}
	if err := p.ResetPassword(ctx, "some-token", "brand-new-pass"); !errors.Is(err, ErrPasswordResetDisabled) {
		t.Fatalf("expected ErrPasswordResetDisabled, got %v", err)
	}
}
