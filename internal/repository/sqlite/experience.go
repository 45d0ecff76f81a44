package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/solifound/internal/domain"
)

// WorkExperienceRepository implements domain.WorkExperienceRepository using SQLite.
type WorkExperienceRepository struct {
	db *sql.DB
}

func (r *WorkExperienceRepository) ListByUser(ctx context.Context, userID string) ([]domain.WorkExperience, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, empresa, puesto, fecha_inicio, fecha_fin, descripcion, is_current_job
		 FROM work_experience WHERE user_id = ?
		 ORDER BY fecha_inicio DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list work experience: %w", err)
	}
	defer rows.Close()

	var out []domain.WorkExperience
	for rows.Next() {
		var w domain.WorkExperience
		if err := rows.Scan(&w.ID, &w.Empresa, &w.Puesto, &w.FechaInicio, &w.FechaFin, &w.Descripcion, &w.IsCurrentJob); err != nil {
			return nil, fmt.Errorf("scan work experience: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *WorkExperienceRepository) Create(ctx context.Context, userID string, w *domain.WorkExperience) error {
	w.Normalize()
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO work_experience (id, user_id, empresa, puesto, fecha_inicio, fecha_fin, descripcion, is_current_job, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, userID, w.Empresa, w.Puesto, w.FechaInicio, w.FechaFin, w.Descripcion, w.IsCurrentJob, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert work experience: %w", err)
	}
	w.ID = id
	return nil
}

func (r *WorkExperienceRepository) Update(ctx context.Context, userID string, w *domain.WorkExperience) error {
	w.Normalize()
	result, err := r.db.ExecContext(ctx,
		`UPDATE work_experience SET empresa = ?, puesto = ?, fecha_inicio = ?, fecha_fin = ?,
			descripcion = ?, is_current_job = ?
		 WHERE id = ? AND user_id = ?`,
		w.Empresa, w.Puesto, w.FechaInicio, w.FechaFin, w.Descripcion, w.IsCurrentJob, w.ID, userID,
	)
	if err != nil {
		return fmt.Errorf("update work experience: %w", err)
	}
	return requireAffected(result)
}

func (r *WorkExperienceRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM work_experience WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete work experience: %w", err)
	}
	return requireAffected(result)
}

func (r *WorkExperienceRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM work_experience WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete user work experience: %w", err)
	}
	return nil
}
