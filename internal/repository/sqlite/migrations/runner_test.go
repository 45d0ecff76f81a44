package migrations_test

import (
	"context"
	"database/sql"
	"slices"
	"testing"
	"testing/fstest"

	"github.com/msomdec/solifound/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	return db
}

func countMigrations(t *testing.T, db *sql.DB) int {
	t.Helper()
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count schema_migrations: %v", err)
	}
	return count
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n)
	if err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	return n > 0
}

func TestRunMigrations(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	applied, err := migrations.Run(ctx, db, migrations.FS)
	if err != nil {
		t.Fatalf("first migration run: %v", err)
	}
	if !slices.Contains(applied, "001_init.sql") {
		t.Fatalf("expected 001_init.sql to be reported, got %v", applied)
	}

	_, err = db.ExecContext(ctx,
		"INSERT INTO identities (id, email, password_hash) VALUES (?, ?, ?)",
		"a1b2", "ana@example.com", "hash123",
	)
	if err != nil {
		t.Fatalf("insert into identities: %v", err)
	}

	// Profiles reference identities.
	_, err = db.ExecContext(ctx,
		"INSERT INTO loggedusers (user_id, nombre, apellido, email, telefono) VALUES (?, ?, ?, ?, ?)",
		"missing", "Ana", "López", "x@example.com", "600111222",
	)
	if err == nil {
		t.Fatal("expected foreign key violation for unknown identity")
	}

	if got := countMigrations(t, db); got != len(applied) {
		t.Fatalf("expected %d recorded migrations, got %d", len(applied), got)
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	if _, err := migrations.Run(ctx, db, migrations.FS); err != nil {
		t.Fatalf("first run: %v", err)
	}
	applied, err := migrations.Run(ctx, db, migrations.FS)
	if err != nil {
		t.Fatalf("second run (idempotent): %v", err)
	}
	if len(applied) != 0 {
		t.Fatalf("second run applied %v", applied)
	}
	if got := countMigrations(t, db); got != 1 {
		t.Fatalf("expected 1 migration record, got %d", got)
	}
}

func TestRunMigrationsOrderAndRollback(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	fsys := fstest.MapFS{
		"002_notes.sql":  {Data: []byte("CREATE TABLE notes (id TEXT PRIMARY KEY, owner TEXT REFERENCES owners(id));")},
		"001_owners.sql": {Data: []byte("CREATE TABLE owners (id TEXT PRIMARY KEY);")},
		"003_broken.sql": {Data: []byte("CREATE TABLE partial (id TEXT); INSERT INTO no_such_table VALUES (1);")},
		"README.md":      {Data: []byte("not a migration")},
	}

	applied, err := migrations.Run(ctx, db, fsys)
	if err == nil {
		t.Fatal("expected the broken migration to fail")
	}
	if want := []string{"001_owners.sql", "002_notes.sql"}; !slices.Equal(applied, want) {
		t.Fatalf("applied = %v, want %v", applied, want)
	}
	if tableExists(t, db, "partial") {
		t.Fatal("failed migration must be rolled back")
	}
	if got := countMigrations(t, db); got != 2 {
		t.Fatalf("expected 2 recorded migrations, got %d", got)
	}

	// Once fixed, only the missing file runs.
	fsys["003_broken.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE partial (id TEXT);")}
	applied, err = migrations.Run(ctx, db, fsys)
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if want := []string{"003_broken.sql"}; !slices.Equal(applied, want) {
		t.Fatalf("applied = %v, want %v", applied, want)
	}
	if !tableExists(t, db, "partial") {
		t.Fatal("expected the fixed migration to create its table")
	}
}
