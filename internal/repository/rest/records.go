package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/msomdec/solifound/internal/domain"
)

// ownedRow is the wire shape of a record table row.
type ownedRow[T any] interface {
	toDomain() T
}

// ownedTable implements domain.OwnedRecordRepository over one PostgREST table.
// Every write is filtered by owner as well as by id.
type ownedTable[T interface{ RecordID() string }, R ownedRow[T]] struct {
	c      *Client
	table  string
	encode func(userID string, record T) R
}

func (t *ownedTable[T, R]) path() string { return restPrefix + t.table }

func (t *ownedTable[T, R]) ListByUser(ctx context.Context, userID string) ([]T, error) {
	var rows []R
	err := t.c.do(ctx, request{
		method: http.MethodGet,
		path:   t.path(),
		query: url.Values{
			"select":  {"*"},
			"user_id": {eq(userID)},
			"order":   {"fecha_inicio.desc"},
		},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.table, err)
	}

	out := make([]T, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (t *ownedTable[T, R]) Create(ctx context.Context, userID string, record *T) error {
	var rows []R
	err := t.c.do(ctx, request{
		method:         http.MethodPost,
		path:           t.path(),
		body:           []R{t.encode(userID, *record)},
		representation: true,
	}, &rows)
	if err != nil {
		return fmt.Errorf("insert %s: %w", t.table, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("insert %s: no row returned", t.table)
	}
	*record = rows[0].toDomain()
	return nil
}

func (t *ownedTable[T, R]) Update(ctx context.Context, userID string, record *T) error {
	var rows []R
	err := t.c.do(ctx, request{
		method:         http.MethodPatch,
		path:           t.path(),
		query:          url.Values{"id": {eq((*record).RecordID())}, "user_id": {eq(userID)}},
		body:           t.encode(userID, *record),
		representation: true,
	}, &rows)
	if err != nil {
		return fmt.Errorf("update %s: %w", t.table, err)
	}
	if len(rows) == 0 {
		return domain.ErrNotFound
	}
	*record = rows[0].toDomain()
	return nil
}

func (t *ownedTable[T, R]) Delete(ctx context.Context, userID, id string) error {
	var rows []R
	err := t.c.do(ctx, request{
		method:         http.MethodDelete,
		path:           t.path(),
		query:          url.Values{"id": {eq(id)}, "user_id": {eq(userID)}},
		representation: true,
	}, &rows)
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.table, err)
	}
	if len(rows) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (t *ownedTable[T, R]) DeleteByUser(ctx context.Context, userID string) error {
	err := t.c.do(ctx, request{
		method: http.MethodDelete,
		path:   t.path(),
		query:  url.Values{"user_id": {eq(userID)}},
	}, nil)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", t.table, err)
	}
	return nil
}

// EducationRepository implements domain.EducationRepository on the education table.
type EducationRepository struct {
	ownedTable[domain.Education, educationRow]
}

// WorkExperienceRepository implements domain.WorkExperienceRepository on the
// work_experience table.
type WorkExperienceRepository struct {
	ownedTable[domain.WorkExperience, workExperienceRow]
}

type educationRow struct {
	ID          string  `json:"id,omitempty"`
	UserID      string  `json:"user_id"`
	Titulo      string  `json:"titulo"`
	Institucion string  `json:"institucion"`
	FechaInicio string  `json:"fecha_inicio"`
	FechaFin    *string `json:"fecha_fin"`
	Descripcion *string `json:"descripcion"`
}

func (r educationRow) toDomain() domain.Education {
	return domain.Education{
		ID:          r.ID,
		Titulo:      r.Titulo,
		Institucion: r.Institucion,
		FechaInicio: r.FechaInicio,
		FechaFin:    deref(r.FechaFin),
		Descripcion: deref(r.Descripcion),
	}
}

func encodeEducation(userID string, e domain.Education) educationRow {
	return educationRow{
		UserID:      userID,
		Titulo:      e.Titulo,
		Institucion: e.Institucion,
		FechaInicio: e.FechaInicio,
		FechaFin:    nullable(e.FechaFin),
		Descripcion: nullable(e.Descripcion),
	}
}

type workExperienceRow struct {
	ID           string  `json:"id,omitempty"`
	UserID       string  `json:"user_id"`
	Empresa      string  `json:"empresa"`
	Puesto       string  `json:"puesto"`
	FechaInicio  string  `json:"fecha_inicio"`
	FechaFin     *string `json:"fecha_fin"`
	Descripcion  *string `json:"descripcion"`
	IsCurrentJob bool    `json:"is_current_job"`
}

func (r workExperienceRow) toDomain() domain.WorkExperience {
	return domain.WorkExperience{
		ID:           r.ID,
		Empresa:      r.Empresa,
		Puesto:       r.Puesto,
		FechaInicio:  r.FechaInicio,
		FechaFin:     deref(r.FechaFin),
		Descripcion:  deref(r.Descripcion),
		IsCurrentJob: r.IsCurrentJob,
	}
}

func encodeWorkExperience(userID string, w domain.WorkExperience) workExperienceRow {
	w.Normalize()
	return workExperienceRow{
		UserID:       userID,
		Empresa:      w.Empresa,
		Puesto:       w.Puesto,
		FechaInicio:  w.FechaInicio,
		FechaFin:     nullable(w.FechaFin),
		Descripcion:  nullable(w.Descripcion),
		IsCurrentJob: w.IsCurrentJob,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
