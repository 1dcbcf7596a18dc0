package authcore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

func newTestActions(t *testing.T, mutate func(*Config)) (*Actions, *fakeDirectory, *fakeMailer) {
	t.Helper()

	p, dir, mailer := newTestProvider(t, mutate)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewActions(p, logger), dir, mailer
}

func TestActionsSignInEnvelope(t *testing.T) {
	a, dir, _ := newTestActions(t, nil)
	seedUser(t, a.provider, dir, "alice@example.com", "correct-horse", AccountActive)
	ctx := context.Background()

	result := a.SignIn(ctx, "alice@example.com", "correct-horse")
	if !result.Success || result.Error != nil {
		t.Fatalf("expected success envelope, got %+v", result)
	}
	if result.Data == nil || result.Data.Token == "" || result.Data.User.Email != "alice@example.com" {
		t.Fatalf("unexpected data: %+v", result.Data)
	}

	failed := a.SignIn(ctx, "alice@example.com", "wrong")
	if failed.Success || failed.Data != nil {
		t.Fatalf("expected failure envelope, got %+v", failed)
	}
	if failed.Error == nil || failed.Error.Code != "invalid_credentials" || failed.Error.Message != "Invalid email or password" {
		t.Fatalf("unexpected error: %+v", failed.Error)
	}
}

func TestActionsSignUpDuplicateMessage(t *testing.T) {
	a, _, _ := newTestActions(t, nil)
	ctx := context.Background()

	if result := a.SignUp(ctx, "bob@example.com", "hunter22!", "Bob"); !result.Success {
		t.Fatalf("first sign-up failed: %+v", result.Error)
	}

	dup := a.SignUp(ctx, "bob@example.com", "other-pass", "Robert")
	if dup.Success {
		t.Fatal("duplicate sign-up must fail")
	}
	if dup.Error.Message != "An account with this email already exists" {
		t.Fatalf("unexpected message %q", dup.Error.Message)
	}
}

func TestActionsSignOutAndGetSession(t *testing.T) {
	a, dir, _ := newTestActions(t, nil)
	seedUser(t, a.provider, dir, "alice@example.com", "correct-horse", AccountActive)
	ctx := context.Background()

	signedIn := a.SignIn(ctx, "alice@example.com", "correct-horse")
	if !signedIn.Success {
		t.Fatalf("sign-in failed: %+v", signedIn.Error)
	}
	token := signedIn.Data.Token

	sess := a.GetSession(ctx, token)
	if !sess.Success || sess.Data.Email != "alice@example.com" {
		t.Fatalf("unexpected session result: %+v", sess)
	}

	if out := a.SignOut(ctx, token); !out.Success {
		t.Fatalf("sign-out failed: %+v", out.Error)
	}

	gone := a.GetSession(ctx, token)
	if gone.Success {
		t.Fatal("expected failure after sign-out")
	}
	if gone.Error.Code != "unauthenticated" || gone.Error.Message != "Not authenticated" {
		t.Fatalf("unexpected error: %+v", gone.Error)
	}
}

func TestActionsVerificationFallbackMessage(t *testing.T) {
	a, _, _ := newTestActions(t, nil)

	result := a.VerifyEmailWithOtp(context.Background(), "bob@example.com", "000000")
	if result.Success {
		t.Fatal("expected failure for unknown challenge")
	}
	if result.Error.Message != "Invalid or expired verification code" {
		t.Fatalf("unexpected message %q", result.Error.Message)
	}
}

func TestActionsResetPasswordFallbackMessage(t *testing.T) {
	a, _, _ := newTestActions(t, nil)

	result := a.ResetPassword(context.Background(), "not-a-real-token", "brand-new-pass")
	if result.Success {
		t.Fatal("expected failure for bogus token")
	}
	if result.Error.Message != "Invalid or expired reset link" {
		t.Fatalf("unexpected message %q", result.Error.Message)
	}
}

func TestActionsRequestPasswordResetAlwaysSucceedsForUnknownEmail(t *testing.T) {
	a, _, mailer := newTestActions(t, nil)

	result := a.RequestPasswordReset(context.Background(), "ghost@example.com")
	if !result.Success {
		t.Fatalf("unknown email must look like success, got %+v", result.Error)
	}
	if len(mailer.sent()) != 0 {
		t.Fatal("no mail may be sent for unknown addresses")
	}
}

func TestActionsChangePasswordMessages(t *testing.T) {
	a, dir, _ := newTestActions(t, nil)
	user := seedUser(t, a.provider, dir, "alice@example.com", "old-password", AccountActive)
	ctx := context.Background()

	wrong := a.ChangePassword(ctx, user.UserID, "nope-nope", "new-password", false)
	if wrong.Success || wrong.Error.Code != "invalid_credentials" {
		t.Fatalf("unexpected result: %+v", wrong)
	}

	reuse := a.ChangePassword(ctx, user.UserID, "old-password", "old-password", false)
	if reuse.Success || reuse.Error.Code != "password_reuse" {
		t.Fatalf("unexpected result: %+v", reuse)
	}

	ok := a.ChangePassword(ctx, user.UserID, "old-password", "new-password", false)
	if !ok.Success {
		t.Fatalf("change password failed: %+v", ok.Error)
	}
}

func TestActionErrorFallbacks(t *testing.T) {
	tests := []struct {
		err      error
		fallback string
		wantCode string
		wantMsg  string
	}{
		{ErrInvalidCredentials, "Error signing in", "invalid_credentials", "Invalid email or password"},
		{ErrAccountExists, "Error creating account", "account_exists", "An account with this email already exists"},
		{ErrLoginRateLimited, "Error signing in", "rate_limited", "Too many attempts. Please try again later"},
		{ErrAccountUnverified, "Error signing in", "account_unverified", "Please verify your email address first"},
		{errors.New("redis exploded"), "Error signing in", "", "Error signing in"},
		{ErrSessionUnavailable, "Error signing out", "", "Error signing out"},
		{ErrMailerFailed, "Error sending verification code", "", "Error sending verification code"},
	}

	for _, tc := range tests {
		got := actionError(tc.err, tc.fallback)
		if got.Code != tc.wantCode || got.Message != tc.wantMsg {
			t.Fatalf("actionError(%v) = %+v, want code %q message %q", tc.err, got, tc.wantCode, tc.wantMsg)
		}
	}
}
