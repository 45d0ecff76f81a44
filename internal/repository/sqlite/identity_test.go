package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/msomdec/solifound/internal/domain"
)

func TestIdentityService_SignUpAndSignIn(t *testing.T) {
	db := newTestDB(t)
	ids := db.Identities("test-secret", 4)
	ctx := context.Background()

	identity, err := ids.SignUp(ctx, "Ana@Example.com", "secret123")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if identity.ID == "" {
		t.Fatal("expected identity ID to be set")
	}
	if identity.Email != "ana@example.com" {
		t.Fatalf("expected normalized email, got %q", identity.Email)
	}

	session, err := ids.SignIn(ctx, "ana@example.com", "secret123")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if session.AccessToken == "" {
		t.Fatal("expected access token")
	}

	current, err := ids.CurrentUser(ctx, session.AccessToken)
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if current.ID != identity.ID {
		t.Fatalf("expected identity %s, got %s", identity.ID, current.ID)
	}
}

func TestIdentityService_SignUp_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	ids := db.Identities("test-secret", 4)
	ctx := context.Background()

	if _, err := ids.SignUp(ctx, "ana@example.com", "secret123"); err != nil {
		t.Fatalf("first SignUp: %v", err)
	}
	_, err := ids.SignUp(ctx, "ana@example.com", "other123")
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestIdentityService_SignIn_WrongPassword(t *testing.T) {
	db := newTestDB(t)
	ids := db.Identities("test-secret", 4)
	ctx := context.Background()

	if _, err := ids.SignUp(ctx, "ana@example.com", "secret123"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	if _, err := ids.SignIn(ctx, "ana@example.com", "wrong"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := ids.SignIn(ctx, "nobody@example.com", "secret123"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unknown email, got %v", err)
	}
}

func TestIdentityService_SignOutRevokesToken(t *testing.T) {
	db := newTestDB(t)
	ids := db.Identities("test-secret", 4)
	ctx := context.Background()

	if _, err := ids.SignUp(ctx, "ana@example.com", "secret123"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	session, err := ids.SignIn(ctx, "ana@example.com", "secret123")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	if err := ids.SignOut(ctx, session.AccessToken); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if _, err := ids.CurrentUser(ctx, session.AccessToken); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after sign-out, got %v", err)
	}
}

func TestIdentityService_CurrentUser_BadToken(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.Identities("test-secret", 4).SignUp(ctx, "ana@example.com", "secret123"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	session, err := db.Identities("test-secret", 4).SignIn(ctx, "ana@example.com", "secret123")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	if _, err := db.Identities("other-secret", 4).CurrentUser(ctx, session.AccessToken); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for foreign signature, got %v", err)
	}
	if _, err := db.Identities("test-secret", 4).CurrentUser(ctx, "garbage"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for garbage token, got %v", err)
	}
}

func TestIdentityService_DeleteIdentity(t *testing.T) {
	db := newTestDB(t)
	ids := db.Identities("test-secret", 4)
	ctx := context.Background()

	identity, err := ids.SignUp(ctx, "ana@example.com", "secret123")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	session, err := ids.SignIn(ctx, "ana@example.com", "secret123")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	if err := ids.DeleteIdentity(ctx, identity.ID); err != nil {
		t.Fatalf("DeleteIdentity: %v", err)
	}
	if _, err := ids.CurrentUser(ctx, session.AccessToken); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected deleted identity to stop resolving, got %v", err)
	}
	if err := ids.DeleteIdentity(ctx, identity.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
