package authcore

import (
	"context"
	"errors"
	"log/slog"
)

// ActionError is the client-safe error half of an [ActionResult]. Message is
// always populated; Code carries a stable machine-readable label when the
// failure maps to a known condition.
type ActionError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// ActionResult is the uniform envelope every facade method returns. Exactly
// one of Data and Error is meaningful: Data on success, Error otherwise.
// Facade methods never return a Go error; callers branch on Success.
type ActionResult[T any] struct {
	Success bool         `json:"success"`
	Data    T            `json:"data,omitempty"`
	Error   *ActionError `json:"error,omitempty"`
}

func succeed[T any](data T) ActionResult[T] {
	return ActionResult[T]{Success: true, Data: data}
}

func fail[T any](err error, fallback string) ActionResult[T] {
	return ActionResult[T]{Success: false, Error: actionError(err, fallback)}
}

// Actions is the application-facing facade over a [Provider]. Each method
// wraps exactly one provider call, logs the failure server-side, and folds
// the error into a client-safe [ActionResult] so internals never leak to
// the browser.
type Actions struct {
	provider *Provider
	logger   *slog.Logger
}

// NewActions wraps provider. A nil logger falls back to [slog.Default].
func NewActions(provider *Provider, logger *slog.Logger) *Actions {
	if logger == nil {
		logger = slog.Default()
	}
	return &Actions{provider: provider, logger: logger}
}

// SignIn authenticates an email/password pair and returns the opened session
// token alongside the user.
func (a *Actions) SignIn(ctx context.Context, email, pass string) ActionResult[*SignInResult] {
	result, err := a.provider.SignInEmail(ctx, email, pass)
	if err != nil {
		a.logger.Warn("sign-in failed", "error", err)
		return fail[*SignInResult](err, "Error signing in")
	}
	return succeed(result)
}

// SignUp creates an account. The result carries a session token only when
// auto sign-in is enabled.
func (a *Actions) SignUp(ctx context.Context, email, pass, name string) ActionResult[*SignUpResult] {
	result, err := a.provider.SignUpEmail(ctx, email, pass, name)
	if err != nil {
		a.logger.Warn("sign-up failed", "error", err)
		return fail[*SignUpResult](err, "Error creating account")
	}
	return succeed(result)
}

// SignOut destroys the session behind token. Unknown tokens succeed: the
// desired end state, no live session, already holds.
func (a *Actions) SignOut(ctx context.Context, token string) ActionResult[struct{}] {
	if err := a.provider.SignOut(ctx, token); err != nil {
		a.logger.Warn("sign-out failed", "error", err)
		return fail[struct{}](err, "Error signing out")
	}
	return succeed(struct{}{})
}

// GetSession resolves token to its live session. A miss is a failure result,
// not a Go error, so callers treat it exactly like the other actions.
func (a *Actions) GetSession(ctx context.Context, token string) ActionResult[*Session] {
	sess, err := a.provider.GetSession(ctx, token)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			a.logger.Warn("session lookup failed", "error", err)
		}
		return fail[*Session](err, "Not authenticated")
	}
	return succeed(sess)
}

// ChangePassword swaps the password for the signed-in user after verifying
// the current one.
func (a *Actions) ChangePassword(ctx context.Context, userID, currentPass, newPass string, revokeOtherSessions bool) ActionResult[struct{}] {
	if err := a.provider.ChangePassword(ctx, userID, currentPass, newPass, revokeOtherSessions); err != nil {
		a.logger.Warn("password change failed", "error", err)
		return fail[struct{}](err, "Error changing password")
	}
	return succeed(struct{}{})
}

// SendVerificationOtp emails a fresh verification code to the address.
func (a *Actions) SendVerificationOtp(ctx context.Context, email string) ActionResult[struct{}] {
	if err := a.provider.SendVerificationOTP(ctx, email); err != nil {
		a.logger.Warn("verification code send failed", "error", err)
		return fail[struct{}](err, "Error sending verification code")
	}
	return succeed(struct{}{})
}

// VerifyEmailWithOtp confirms the code sent to the address and activates
// the account.
func (a *Actions) VerifyEmailWithOtp(ctx context.Context, email, otp string) ActionResult[struct{}] {
	if err := a.provider.VerifyEmailOTP(ctx, email, otp); err != nil {
		a.logger.Warn("email verification failed", "error", err)
		return fail[struct{}](err, "Invalid or expired verification code")
	}
	return succeed(struct{}{})
}

// RequestPasswordReset emails a single-use reset link to the address. The
// result is a success even when the address is unknown.
func (a *Actions) RequestPasswordReset(ctx context.Context, email string) ActionResult[struct{}] {
	if err := a.provider.RequestPasswordReset(ctx, email); err != nil {
		a.logger.Warn("password reset request failed", "error", err)
		return fail[struct{}](err, "Error requesting password reset")
	}
	return succeed(struct{}{})
}

// ResetPassword redeems a reset-link token and sets the new password.
func (a *Actions) ResetPassword(ctx context.Context, token, newPass string) ActionResult[struct{}] {
	if err := a.provider.ResetPassword(ctx, token, newPass); err != nil {
		a.logger.Warn("password reset failed", "error", err)
		return fail[struct{}](err, "Invalid or expired reset link")
	}
	return succeed(struct{}{})
}

// actionError folds a provider error into its client-safe form. Conditions
// the user can act on keep a specific message; everything else collapses to
// the per-action fallback so backend details never reach the client.
func actionError(err error, fallback string) *ActionError {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return &ActionError{Code: "invalid_credentials", Message: "Invalid email or password"}
	case errors.Is(err, ErrAccountExists):
		return &ActionError{Code: "account_exists", Message: "An account with this email already exists"}
	case errors.Is(err, ErrAccountUnverified):
		return &ActionError{Code: "account_unverified", Message: "Please verify your email address first"}
	case errors.Is(err, ErrAccountDisabled), errors.Is(err, ErrAccountLocked), errors.Is(err, ErrAccountDeleted):
		return &ActionError{Code: "account_unavailable", Message: "This account is not available"}
	case errors.Is(err, ErrPasswordPolicy):
		return &ActionError{Code: "password_policy", Message: "Password does not meet the requirements"}
	case errors.Is(err, ErrPasswordReuse):
		return &ActionError{Code: "password_reuse", Message: "New password must be different from the current one"}
	case errors.Is(err, ErrLoginRateLimited),
		errors.Is(err, ErrAccountCreationRateLimited),
		errors.Is(err, ErrEmailVerificationRateLimited),
		errors.Is(err, ErrPasswordResetRateLimited):
		return &ActionError{Code: "rate_limited", Message: "Too many attempts. Please try again later"}
	case errors.Is(err, ErrSessionNotFound):
		return &ActionError{Code: "unauthenticated", Message: "Not authenticated"}
	default:
		return &ActionError{Message: fallback}
	}
}
