package sqlite_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/msomdec/solifound/internal/domain"
	"github.com/msomdec/solifound/internal/repository/sqlite"
)

var (
	_ domain.Database                 = (*sqlite.DB)(nil)
	_ domain.IdentityService          = (*sqlite.IdentityService)(nil)
	_ domain.ProfileRepository        = (*sqlite.ProfileRepository)(nil)
	_ domain.EducationRepository      = (*sqlite.EducationRepository)(nil)
	_ domain.WorkExperienceRepository = (*sqlite.WorkExperienceRepository)(nil)
	_ domain.AchievementRepository    = (*sqlite.AchievementRepository)(nil)
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// newTestUser signs up an identity and creates its profile.
func newTestUser(t *testing.T, db *sqlite.DB, email string) string {
	t.Helper()
	ctx := context.Background()
	identity, err := db.Identities("test-secret", 4).SignUp(ctx, email, "secret123")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	err = db.Profiles().Create(ctx, &domain.UserProfile{
		UserID:   identity.ID,
		Nombre:   "Ana",
		Apellido: "López",
		Email:    email,
		Telefono: "600111222",
	})
	if err != nil {
		t.Fatalf("Create profile: %v", err)
	}
	return identity.ID
}

func TestNew(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file was not created")
	}

	if err := db.SqlDB.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}

	var fkEnabled int
	if err := db.SqlDB.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		t.Fatalf("check foreign_keys: %v", err)
	}
	if fkEnabled != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fkEnabled)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	db := newTestDB(t)

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}
