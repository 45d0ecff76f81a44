// Package backend bundles the collaborators every workflow talks to. A
// Backend is built once at start-up and passed explicitly to each service.
package backend

import (
	"context"
	"fmt"

	"github.com/msomdec/solifound/internal/config"
	"github.com/msomdec/solifound/internal/domain"
	"github.com/msomdec/solifound/internal/repository/rest"
	"github.com/msomdec/solifound/internal/repository/sqlite"
)

// Backend is one identity service plus the record repositories.
type Backend struct {
	Identities     domain.IdentityService
	Profiles       domain.ProfileRepository
	Education      domain.EducationRepository
	WorkExperience domain.WorkExperienceRepository
	Achievements   domain.AchievementRepository

	close func() error
}

// Close releases the underlying connection pool or database.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// New builds the backend selected by cfg.Backend.
func New(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.Backend {
	case config.BackendREST:
		c, err := rest.New(rest.Config{
			URL:            cfg.ServiceURL,
			AnonKey:        cfg.ServiceAnonKey,
			ServiceRoleKey: cfg.ServiceRoleKey,
		})
		if err != nil {
			return nil, fmt.Errorf("rest backend: %w", err)
		}
		return FromREST(c), nil
	case config.BackendSQLite:
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite backend: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite backend: migrate: %w", err)
		}
		return FromSQLite(db, cfg.JWTSecret, cfg.BcryptCost), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", domain.ErrInvalidInput, cfg.Backend)
	}
}

// FromREST wraps a hosted backend client.
func FromREST(c *rest.Client) *Backend {
	return &Backend{
		Identities:     c.Identities(),
		Profiles:       c.Profiles(),
		Education:      c.Education(),
		WorkExperience: c.WorkExperience(),
		Achievements:   c.Achievements(),
		close:          c.Close,
	}
}

// FromSQLite wraps an already migrated SQLite database.
func FromSQLite(db *sqlite.DB, jwtSecret string, bcryptCost int) *Backend {
	return &Backend{
		Identities:     db.Identities(jwtSecret, bcryptCost),
		Profiles:       db.Profiles(),
		Education:      db.Education(),
		WorkExperience: db.WorkExperience(),
		Achievements:   db.Achievements(),
		close:          db.Close,
	}
}
