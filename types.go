package authcore

import (
	"context"

	"github.com/casekit/authcore/session"
)

// AccountStatus represents the lifecycle state of a user account.
type AccountStatus uint8

const (
	// AccountActive accounts have a verified email and may sign in.
	AccountActive AccountStatus = iota
	// AccountPendingVerification accounts exist but have not confirmed
	// their email address yet.
	AccountPendingVerification
	// AccountDisabled accounts were switched off by an administrator.
	AccountDisabled
	// AccountLocked accounts were locked after abuse detection.
	AccountLocked
	// AccountDeleted accounts are soft-deleted.
	AccountDeleted
)

// Session is the server-side session record, re-exported from the session
// package for callers that only import authcore.
type Session = session.Session

// UserRecord is the full account record exchanged with a [UserDirectory].
// It carries the password hash and must never be returned to clients; use
// [User] for outward-facing payloads.
type UserRecord struct {
	UserID       string
	Email        string
	Name         string
	Image        string
	PasswordHash string
	Status       AccountStatus
}

// User is the client-safe view of an account.
type User struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Image         string `json:"image,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}

// CreateUserInput is the input for [UserDirectory.CreateUser].
type CreateUserInput struct {
	Email        string
	Name         string
	Image        string
	PasswordHash string
	Status       AccountStatus
}

// UserDirectory is the interface callers implement to connect authcore to
// their account database. Implementations must return (or wrap)
// [ErrDuplicateEmail] when CreateUser hits a unique-email conflict, and
// [ErrUserNotFound] when a lookup misses.
type UserDirectory interface {
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	GetUserByID(ctx context.Context, userID string) (UserRecord, error)
	CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error)
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error
	UpdateAccountStatus(ctx context.Context, userID string, status AccountStatus) (UserRecord, error)
}

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers verification codes and reset links. Implementations must
// be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SignInResult is returned by [Provider.SignInEmail]. Token is the opaque
// session token to hand to the client; the server stores only its digest.
type SignInResult struct {
	Token string
	User  User
}

// SignUpResult is returned by [Provider.SignUpEmail]. Token is set only
// when auto sign-in after sign-up is enabled.
type SignUpResult struct {
	Token string
	User  User
}

func userView(rec UserRecord) User {
	return User{
		ID:            rec.UserID,
		Name:          rec.Name,
		Email:         rec.Email,
		Image:         rec.Image,
		EmailVerified: rec.Status == AccountActive,
	}
}
