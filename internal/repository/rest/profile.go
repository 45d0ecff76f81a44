package rest

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/msomdec/solifound/internal/domain"
)

const profileTable = restPrefix + "loggedusers"

// profileSelect leaves out cv_data so listings never pull CV payloads.
const profileSelect = "user_id,nombre,apellido,email,telefono,gdpr_accepted,nacionalidad,residencia," +
	"tipo_documento,numero_documento,situacion_laboral,cv_filename,cv_updated_at,created_at"

// ProfileRepository implements domain.ProfileRepository on the loggedusers table.
type ProfileRepository struct {
	c *Client
}

type profileRow struct {
	UserID           string     `json:"user_id"`
	Nombre           string     `json:"nombre"`
	Apellido         string     `json:"apellido"`
	Email            string     `json:"email"`
	Telefono         string     `json:"telefono"`
	GDPRAccepted     string     `json:"gdpr_accepted"`
	Nacionalidad     *string    `json:"nacionalidad"`
	Residencia       *string    `json:"residencia"`
	TipoDocumento    *string    `json:"tipo_documento"`
	NumeroDocumento  *string    `json:"numero_documento"`
	SituacionLaboral *string    `json:"situacion_laboral"`
	CVFilename       *string    `json:"cv_filename"`
	CVUpdatedAt      *time.Time `json:"cv_updated_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

func (r profileRow) toDomain() domain.UserProfile {
	return domain.UserProfile{
		UserID:           r.UserID,
		Nombre:           r.Nombre,
		Apellido:         r.Apellido,
		Email:            r.Email,
		Telefono:         r.Telefono,
		GDPRAccepted:     r.GDPRAccepted == "SI",
		Nacionalidad:     deref(r.Nacionalidad),
		Residencia:       deref(r.Residencia),
		TipoDocumento:    deref(r.TipoDocumento),
		NumeroDocumento:  deref(r.NumeroDocumento),
		SituacionLaboral: deref(r.SituacionLaboral),
		CVFilename:       deref(r.CVFilename),
		CVUpdatedAt:      r.CVUpdatedAt,
		CreatedAt:        r.CreatedAt,
	}
}

type newProfileRow struct {
	UserID       string `json:"user_id"`
	Nombre       string `json:"nombre"`
	Apellido     string `json:"apellido"`
	Email        string `json:"email"`
	Telefono     string `json:"telefono"`
	GDPRAccepted string `json:"gdpr_accepted"`
}

type personalInfoPatch struct {
	Nacionalidad     *string `json:"nacionalidad"`
	Residencia       *string `json:"residencia"`
	TipoDocumento    *string `json:"tipo_documento"`
	NumeroDocumento  *string `json:"numero_documento"`
	SituacionLaboral *string `json:"situacion_laboral"`
}

type cvPatch struct {
	CVData      *string    `json:"cv_data"`
	CVFilename  *string    `json:"cv_filename"`
	CVUpdatedAt *time.Time `json:"cv_updated_at"`
}

type cvRow struct {
	CVData     *string `json:"cv_data"`
	CVFilename *string `json:"cv_filename"`
}

func (r *ProfileRepository) Create(ctx context.Context, p *domain.UserProfile) error {
	gdpr := "NO"
	if p.GDPRAccepted {
		gdpr = "SI"
	}
	var rows []profileRow
	err := r.c.do(ctx, request{
		method: http.MethodPost,
		path:   profileTable,
		query:  url.Values{"select": {profileSelect}},
		body: []newProfileRow{{
			UserID:       p.UserID,
			Nombre:       p.Nombre,
			Apellido:     p.Apellido,
			Email:        p.Email,
			Telefono:     p.Telefono,
			GDPRAccepted: gdpr,
		}},
		representation: true,
	}, &rows)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	if len(rows) > 0 {
		p.CreatedAt = rows[0].CreatedAt
	}
	return nil
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var rows []profileRow
	err := r.c.do(ctx, request{
		method: http.MethodGet,
		path:   profileTable,
		query:  url.Values{"select": {profileSelect}, "user_id": {eq(userID)}},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	p := rows[0].toDomain()
	return &p, nil
}

func (r *ProfileRepository) List(ctx context.Context) ([]domain.UserProfile, error) {
	var rows []profileRow
	err := r.c.do(ctx, request{
		method: http.MethodGet,
		path:   profileTable,
		query:  url.Values{"select": {profileSelect}, "order": {"created_at.desc"}},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	out := make([]domain.UserProfile, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *ProfileRepository) UpdatePersonalInfo(ctx context.Context, userID string, info domain.PersonalInfo) error {
	return r.patch(ctx, userID, personalInfoPatch{
		Nacionalidad:     nullable(info.Nacionalidad),
		Residencia:       nullable(info.Residencia),
		TipoDocumento:    nullable(info.TipoDocumento),
		NumeroDocumento:  nullable(info.NumeroDocumento),
		SituacionLaboral: nullable(info.SituacionLaboral),
	}, "update personal info")
}

func (r *ProfileRepository) UpdateCV(ctx context.Context, userID string, upload *domain.CVUpload) error {
	var body cvPatch
	if upload != nil {
		data := base64.StdEncoding.EncodeToString(upload.Data)
		updated := upload.UpdatedAt.UTC()
		body = cvPatch{CVData: &data, CVFilename: &upload.Filename, CVUpdatedAt: &updated}
	}
	return r.patch(ctx, userID, body, "update cv")
}

func (r *ProfileRepository) GetCV(ctx context.Context, userID string) (*domain.CVDocument, error) {
	var rows []cvRow
	err := r.c.do(ctx, request{
		method: http.MethodGet,
		path:   profileTable,
		query:  url.Values{"select": {"cv_data,cv_filename"}, "user_id": {eq(userID)}},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("query cv: %w", err)
	}
	if len(rows) == 0 || deref(rows[0].CVData) == "" || deref(rows[0].CVFilename) == "" {
		return nil, domain.ErrNotFound
	}

	data, err := base64.StdEncoding.DecodeString(*rows[0].CVData)
	if err != nil {
		return nil, fmt.Errorf("decode cv payload: %w", err)
	}
	return &domain.CVDocument{
		Filename:    *rows[0].CVFilename,
		ContentType: domain.CVContentType,
		Data:        data,
	}, nil
}

func (r *ProfileRepository) Delete(ctx context.Context, userID string) error {
	var rows []profileRow
	err := r.c.do(ctx, request{
		method:         http.MethodDelete,
		path:           profileTable,
		query:          url.Values{"select": {profileSelect}, "user_id": {eq(userID)}},
		representation: true,
	}, &rows)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if len(rows) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProfileRepository) patch(ctx context.Context, userID string, body any, op string) error {
	var rows []profileRow
	err := r.c.do(ctx, request{
		method:         http.MethodPatch,
		path:           profileTable,
		query:          url.Values{"select": {profileSelect}, "user_id": {eq(userID)}},
		body:           body,
		representation: true,
	}, &rows)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(rows) == 0 {
		return domain.ErrNotFound
	}
	return nil
}
