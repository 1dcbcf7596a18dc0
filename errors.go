package authcore

import "errors"

var (
	// ErrInvalidCredentials is returned when an email/password pair does not
	// match a stored account. It never distinguishes unknown accounts from
	// wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when a user lookup by ID fails.
	ErrUserNotFound = errors.New("user not found")
	// ErrLoginRateLimited is returned when sign-in attempts exceed the
	// configured budget for an email or IP.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrAccountExists is returned by sign-up when the email is taken.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountCreationDisabled is returned by sign-up when account
	// creation is switched off.
	ErrAccountCreationDisabled = errors.New("account creation disabled")
	// ErrAccountCreationRateLimited is returned when sign-up attempts
	// exceed the configured budget.
	ErrAccountCreationRateLimited = errors.New("account creation rate limited")
	// ErrAccountCreationUnavailable is returned when the directory or
	// limiter backend fails during sign-up.
	ErrAccountCreationUnavailable = errors.New("account creation backend unavailable")
	// ErrAccountCreationInvalid is returned for malformed sign-up input.
	ErrAccountCreationInvalid = errors.New("invalid account creation request")
	// ErrAccountUnverified is returned when an operation requires a
	// verified email address.
	ErrAccountUnverified = errors.New("account unverified")
	// ErrAccountDisabled marks accounts switched off by an administrator.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrAccountLocked marks accounts locked after abuse detection.
	ErrAccountLocked = errors.New("account locked")
	// ErrAccountDeleted marks soft-deleted accounts.
	ErrAccountDeleted = errors.New("account deleted")
	// ErrEmailVerificationDisabled is returned when OTP verification is
	// switched off.
	ErrEmailVerificationDisabled = errors.New("email verification disabled")
	// ErrEmailVerificationInvalid is returned for unknown, expired, or
	// mismatched verification codes.
	ErrEmailVerificationInvalid = errors.New("email verification challenge invalid")
	// ErrEmailVerificationRateLimited is returned when OTP requests or
	// confirmations exceed the configured budget.
	ErrEmailVerificationRateLimited = errors.New("email verification rate limited")
	// ErrEmailVerificationUnavailable is returned when the OTP store or
	// limiter backend fails.
	ErrEmailVerificationUnavailable = errors.New("email verification backend unavailable")
	// ErrEmailVerificationAttempts is returned once a challenge has burned
	// its attempt budget and been destroyed.
	ErrEmailVerificationAttempts = errors.New("email verification attempts exceeded")
	// ErrPasswordResetDisabled is returned when password reset is switched off.
	ErrPasswordResetDisabled = errors.New("password reset disabled")
	// ErrPasswordResetInvalid is returned for unknown, expired, consumed,
	// or tampered reset links.
	ErrPasswordResetInvalid = errors.New("password reset challenge invalid")
	// ErrPasswordResetRateLimited is returned when reset requests or
	// confirmations exceed the configured budget.
	ErrPasswordResetRateLimited = errors.New("password reset rate limited")
	// ErrPasswordResetUnavailable is returned when the reset store or
	// limiter backend fails.
	ErrPasswordResetUnavailable = errors.New("password reset backend unavailable")
	// ErrPasswordPolicy is returned for passwords that fail length or
	// input validation.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrPasswordReuse is returned when a new password equals the current one.
	ErrPasswordReuse = errors.New("new password must be different from current password")
	// ErrSessionCreationFailed is returned when a session record cannot be
	// written after successful authentication.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrSessionInvalidationFailed is returned when session revocation fails.
	ErrSessionInvalidationFailed = errors.New("session invalidation failed")
	// ErrSessionNotFound is returned when a session token resolves to no
	// live record.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionUnavailable is returned when the session backend cannot be
	// reached; callers must treat this as unauthenticated, never as a pass.
	ErrSessionUnavailable = errors.New("session backend unavailable")
	// ErrMailerFailed is returned when an outbound message cannot be handed
	// to the mail transport.
	ErrMailerFailed = errors.New("mail delivery failed")
	// ErrProviderNotReady is returned when a Provider is used before Build
	// wired its dependencies.
	ErrProviderNotReady = errors.New("provider not initialized")
	// ErrDuplicateEmail is the sentinel a UserDirectory implementation must
	// return (or wrap) when a create hits a unique-email conflict.
	ErrDuplicateEmail = errors.New("directory duplicate email")
)
