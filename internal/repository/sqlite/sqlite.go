package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/msomdec/solifound/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// DB is a self-hosted backend on an embedded SQLite database.
type DB struct {
	SqlDB *sql.DB
}

// New opens a SQLite database at the given path and configures it for use.
// It enables WAL mode and foreign keys.
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Enable foreign key enforcement.
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// Set a reasonable connection pool for SQLite.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{SqlDB: db}, nil
}

// Migrate applies the embedded schema migrations.
func (d *DB) Migrate(ctx context.Context) error {
	_, err := d.ApplyMigrations(ctx)
	return err
}

// ApplyMigrations applies the embedded schema migrations and returns the
// files that were new.
func (d *DB) ApplyMigrations(ctx context.Context) ([]string, error) {
	return migrations.Run(ctx, d.SqlDB, migrations.FS)
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.SqlDB.Close()
}

// Profiles returns the profile repository.
func (d *DB) Profiles() *ProfileRepository { return NewProfileRepository(d) }

// Education returns the education repository.
func (d *DB) Education() *EducationRepository { return &EducationRepository{db: d.SqlDB} }

// WorkExperience returns the work experience repository.
func (d *DB) WorkExperience() *WorkExperienceRepository {
	return &WorkExperienceRepository{db: d.SqlDB}
}

// Achievements returns the achievement repository.
func (d *DB) Achievements() *AchievementRepository { return &AchievementRepository{db: d.SqlDB} }

// Identities returns an identity service signing HS256 access tokens with
// jwtSecret.
func (d *DB) Identities(jwtSecret string, bcryptCost int) *IdentityService {
	return NewIdentityService(d, jwtSecret, bcryptCost)
}
