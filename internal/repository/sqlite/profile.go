package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/solifound/internal/domain"
)

// ProfileRepository implements domain.ProfileRepository on the loggedusers table.
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new SQLite-backed ProfileRepository.
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db.SqlDB}
}

const profileColumns = `user_id, nombre, apellido, email, telefono, gdpr_accepted,
	nacionalidad, residencia, tipo_documento, numero_documento, situacion_laboral,
	cv_filename, cv_updated_at, created_at`

func (r *ProfileRepository) Create(ctx context.Context, p *domain.UserProfile) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO loggedusers (user_id, nombre, apellido, email, telefono, gdpr_accepted,
			nacionalidad, residencia, tipo_documento, numero_documento, situacion_laboral, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Nombre, p.Apellido, p.Email, p.Telefono, gdprFlag(p.GDPRAccepted),
		p.Nacionalidad, p.Residencia, p.TipoDocumento, p.NumeroDocumento, p.SituacionLaboral, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	p.CreatedAt = now
	return nil
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM loggedusers WHERE user_id = ?`, userID)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query profile: %w", err)
	}
	return p, nil
}

func (r *ProfileRepository) List(ctx context.Context) ([]domain.UserProfile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM loggedusers ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []domain.UserProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (r *ProfileRepository) UpdatePersonalInfo(ctx context.Context, userID string, info domain.PersonalInfo) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE loggedusers SET nacionalidad = ?, residencia = ?, tipo_documento = ?,
			numero_documento = ?, situacion_laboral = ?
		 WHERE user_id = ?`,
		info.Nacionalidad, info.Residencia, info.TipoDocumento,
		info.NumeroDocumento, info.SituacionLaboral, userID,
	)
	if err != nil {
		return fmt.Errorf("update personal info: %w", err)
	}
	return requireAffected(result)
}

func (r *ProfileRepository) UpdateCV(ctx context.Context, userID string, upload *domain.CVUpload) error {
	var (
		data     []byte
		filename sql.NullString
		updated  sql.NullTime
	)
	if upload != nil {
		data = upload.Data
		filename = sql.NullString{String: upload.Filename, Valid: true}
		updated = sql.NullTime{Time: upload.UpdatedAt.UTC(), Valid: true}
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE loggedusers SET cv_data = ?, cv_filename = ?, cv_updated_at = ? WHERE user_id = ?`,
		data, filename, updated, userID,
	)
	if err != nil {
		return fmt.Errorf("update cv: %w", err)
	}
	return requireAffected(result)
}

func (r *ProfileRepository) GetCV(ctx context.Context, userID string) (*domain.CVDocument, error) {
	var (
		data     []byte
		filename sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT cv_data, cv_filename FROM loggedusers WHERE user_id = ?`, userID,
	).Scan(&data, &filename)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query cv: %w", err)
	}
	if len(data) == 0 || !filename.Valid {
		return nil, domain.ErrNotFound
	}
	return &domain.CVDocument{
		Filename:    filename.String,
		ContentType: domain.CVContentType,
		Data:        data,
	}, nil
}

func (r *ProfileRepository) Delete(ctx context.Context, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM loggedusers WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return requireAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*domain.UserProfile, error) {
	var (
		p        domain.UserProfile
		gdpr     string
		filename sql.NullString
		updated  sql.NullTime
	)
	err := row.Scan(&p.UserID, &p.Nombre, &p.Apellido, &p.Email, &p.Telefono, &gdpr,
		&p.Nacionalidad, &p.Residencia, &p.TipoDocumento, &p.NumeroDocumento, &p.SituacionLaboral,
		&filename, &updated, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.GDPRAccepted = gdpr == "SI"
	p.CVFilename = filename.String
	if updated.Valid {
		t := updated.Time
		p.CVUpdatedAt = &t
	}
	return &p, nil
}

func gdprFlag(accepted bool) string {
	if accepted {
		return "SI"
	}
	return "NO"
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
