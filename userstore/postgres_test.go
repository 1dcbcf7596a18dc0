//go:build integration

package userstore

import (
	"context"
	"errors"
	"os"
	"testing"

	authcore "github.com/casekit/authcore"
)

// Requires a reachable PostgreSQL instance:
//
//	AUTHCORE_TEST_DSN="postgres://..." go test -tags integration ./userstore
func openTestStore(t *testing.T) *Postgres {
	t.Helper()

	dsn := os.Getenv("AUTHCORE_TEST_DSN")
	if dsn == "" {
		t.Skip("AUTHCORE_TEST_DSN not set")
	}

	store, err := Open(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if _, err := store.db.Exec("TRUNCATE users"); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return store
}

func TestCreateAndFetchUser(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.CreateUser(ctx, authcore.CreateUserInput{
		Email:        "alice@example.com",
		Name:         "Alice",
		PasswordHash: "$argon2id$fake",
		Status:       authcore.AccountPendingVerification,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.UserID == "" {
		t.Fatal("expected generated user ID")
	}

	byEmail, err := store.GetUserByEmail(ctx, "ALICE@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.UserID != created.UserID || byEmail.Status != authcore.AccountPendingVerification {
		t.Fatalf("unexpected record: %+v", byEmail)
	}

	byID, err := store.GetUserByID(ctx, created.UserID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID.Email != "alice@example.com" {
		t.Fatalf("unexpected record: %+v", byID)
	}
}

func TestDuplicateEmailConflict(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	input := authcore.CreateUserInput{
		Email:        "alice@example.com",
		PasswordHash: "$argon2id$fake",
	}
	if _, err := store.CreateUser(ctx, input); err != nil {
		t.Fatalf("first create: %v", err)
	}

	input.Email = "Alice@Example.com"
	if _, err := store.CreateUser(ctx, input); !errors.Is(err, authcore.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail for case-variant email, got %v", err)
	}
}

func TestUpdatePasswordHashAndStatus(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.CreateUser(ctx, authcore.CreateUserInput{
		Email:        "alice@example.com",
		PasswordHash: "$argon2id$old",
		Status:       authcore.AccountPendingVerification,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.UpdatePasswordHash(ctx, created.UserID, "$argon2id$new"); err != nil {
		t.Fatalf("update hash: %v", err)
	}
	if err := store.UpdatePasswordHash(ctx, "00000000-0000-0000-0000-000000000000", "x"); !errors.Is(err, authcore.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	updated, err := store.UpdateAccountStatus(ctx, created.UserID, authcore.AccountActive)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != authcore.AccountActive || updated.PasswordHash != "$argon2id$new" {
		t.Fatalf("unexpected record: %+v", updated)
	}
}

func TestLookupUnknownUser(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.GetUserByEmail(ctx, "ghost@example.com"); !errors.Is(err, authcore.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := store.GetUserByID(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, authcore.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
