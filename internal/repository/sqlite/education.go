package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/solifound/internal/domain"
)

// EducationRepository implements domain.EducationRepository using SQLite.
type EducationRepository struct {
	db *sql.DB
}

func (r *EducationRepository) ListByUser(ctx context.Context, userID string) ([]domain.Education, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, titulo, institucion, fecha_inicio, fecha_fin, descripcion
		 FROM education WHERE user_id = ?
		 ORDER BY fecha_inicio DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list education: %w", err)
	}
	defer rows.Close()

	var out []domain.Education
	for rows.Next() {
		var e domain.Education
		if err := rows.Scan(&e.ID, &e.Titulo, &e.Institucion, &e.FechaInicio, &e.FechaFin, &e.Descripcion); err != nil {
			return nil, fmt.Errorf("scan education: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EducationRepository) Create(ctx context.Context, userID string, e *domain.Education) error {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO education (id, user_id, titulo, institucion, fecha_inicio, fecha_fin, descripcion, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, userID, e.Titulo, e.Institucion, e.FechaInicio, e.FechaFin, e.Descripcion, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert education: %w", err)
	}
	e.ID = id
	return nil
}

func (r *EducationRepository) Update(ctx context.Context, userID string, e *domain.Education) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE education SET titulo = ?, institucion = ?, fecha_inicio = ?, fecha_fin = ?, descripcion = ?
		 WHERE id = ? AND user_id = ?`,
		e.Titulo, e.Institucion, e.FechaInicio, e.FechaFin, e.Descripcion, e.ID, userID,
	)
	if err != nil {
		return fmt.Errorf("update education: %w", err)
	}
	return requireAffected(result)
}

func (r *EducationRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM education WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete education: %w", err)
	}
	return requireAffected(result)
}

func (r *EducationRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM education WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete user education: %w", err)
	}
	return nil
}
