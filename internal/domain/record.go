package domain

import (
	"context"
	"time"
)

// DateLayout is the wire format of every record date (HTML date inputs).
const DateLayout = "2006-01-02"

// Education is one entry of a user's education history.
type Education struct {
	ID          string
	Titulo      string
	Institucion string
	FechaInicio string
	FechaFin    string
	Descripcion string
}

func (e Education) RecordID() string { return e.ID }

// Ongoing reports whether the education has no end date.
func (e Education) Ongoing() bool { return e.FechaFin == "" }

// WorkExperience is one entry of a user's work history.
type WorkExperience struct {
	ID           string
	Empresa      string
	Puesto       string
	FechaInicio  string
	FechaFin     string
	Descripcion  string
	IsCurrentJob bool
}

func (w WorkExperience) RecordID() string { return w.ID }

// Normalize clears the end date of a current job.
func (w *WorkExperience) Normalize() {
	if w.IsCurrentJob {
		w.FechaFin = ""
	}
}

// Achievement is a read-only badge granted to a user.
type Achievement struct {
	ID          string
	Name        string
	Description string
	EarnedAt    time.Time
}

// OwnedRecordRepository persists records that belong to exactly one identity.
// Update and Delete are filtered by record id and owner; they never touch
// another identity's rows.
type OwnedRecordRepository[T any] interface {
	// ListByUser returns the owner's records, latest start date first.
	ListByUser(ctx context.Context, userID string) ([]T, error)
	// Create inserts the record for the owner and sets its ID.
	Create(ctx context.Context, userID string, record *T) error
	// Update replaces the record matching (ID, owner). Returns ErrNotFound
	// when no such row exists.
	Update(ctx context.Context, userID string, record *T) error
	Delete(ctx context.Context, userID, id string) error
	DeleteByUser(ctx context.Context, userID string) error
}

// EducationRepository persists education entries.
type EducationRepository = OwnedRecordRepository[Education]

// WorkExperienceRepository persists work experience entries.
type WorkExperienceRepository = OwnedRecordRepository[WorkExperience]

// AchievementRepository reads granted achievements.
type AchievementRepository interface {
	ListByUser(ctx context.Context, userID string) ([]Achievement, error)
}
