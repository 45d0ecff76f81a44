package domain

import (
	"context"
	"time"
)

// Identity is an authenticated principal known to the identity service.
type Identity struct {
	ID    string
	Email string
}

// Session is the result of a successful sign-in.
type Session struct {
	AccessToken string
	Identity    Identity
	ExpiresAt   time.Time
}

// IdentityService is the external authentication collaborator.
type IdentityService interface {
	SignUp(ctx context.Context, email, password string) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	// CurrentUser resolves the identity that owns an access token.
	CurrentUser(ctx context.Context, accessToken string) (*Identity, error)
	// DeleteIdentity removes the authentication identity. Admin only.
	DeleteIdentity(ctx context.Context, id string) error
}

const (
	DocumentDNI = "DNI"
	DocumentNIE = "NIE"
	DocumentNIF = "NIF"

	EmploymentWorking    = "Trabajo"
	EmploymentUnemployed = "Desempleado"
)

// UserProfile is the profile row owned by one identity.
type UserProfile struct {
	UserID           string
	Nombre           string
	Apellido         string
	Email            string
	Telefono         string
	GDPRAccepted     bool
	Nacionalidad     string
	Residencia       string
	TipoDocumento    string
	NumeroDocumento  string
	SituacionLaboral string
	CVFilename       string
	CVUpdatedAt      *time.Time
	CreatedAt        time.Time
}

// FullName joins nombre and apellido.
func (p *UserProfile) FullName() string {
	if p.Apellido == "" {
		return p.Nombre
	}
	return p.Nombre + " " + p.Apellido
}

// PersonalInfo returns the editable personal fields of the profile.
func (p *UserProfile) PersonalInfo() PersonalInfo {
	return PersonalInfo{
		Nacionalidad:     p.Nacionalidad,
		Residencia:       p.Residencia,
		TipoDocumento:    p.TipoDocumento,
		NumeroDocumento:  p.NumeroDocumento,
		SituacionLaboral: p.SituacionLaboral,
	}
}

// SetPersonalInfo copies the editable personal fields into the profile.
func (p *UserProfile) SetPersonalInfo(info PersonalInfo) {
	p.Nacionalidad = info.Nacionalidad
	p.Residencia = info.Residencia
	p.TipoDocumento = info.TipoDocumento
	p.NumeroDocumento = info.NumeroDocumento
	p.SituacionLaboral = info.SituacionLaboral
}

// SetCV records the stored CV's metadata; nil clears it.
func (p *UserProfile) SetCV(cv *CVFile) {
	if cv == nil {
		p.CVFilename = ""
		p.CVUpdatedAt = nil
		return
	}
	updated := cv.LastUpdated
	p.CVFilename = cv.Filename
	p.CVUpdatedAt = &updated
}

// Incomplete reports whether any personal field is still empty.
func (p *UserProfile) Incomplete() bool {
	return p.Nacionalidad == "" || p.Residencia == "" || p.TipoDocumento == "" ||
		p.NumeroDocumento == "" || p.SituacionLaboral == ""
}

// CV returns the CV metadata, or nil when no CV is stored.
func (p *UserProfile) CV() *CVFile {
	if p.CVFilename == "" || p.CVUpdatedAt == nil {
		return nil
	}
	return &CVFile{Filename: p.CVFilename, LastUpdated: *p.CVUpdatedAt}
}

// PersonalInfo holds the optional profile fields edited from the personal tab.
type PersonalInfo struct {
	Nacionalidad     string
	Residencia       string
	TipoDocumento    string
	NumeroDocumento  string
	SituacionLaboral string
}

// ProfileRepository defines persistence operations for profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *UserProfile) error
	GetByUserID(ctx context.Context, userID string) (*UserProfile, error)
	// List returns every profile, newest first.
	List(ctx context.Context) ([]UserProfile, error)
	UpdatePersonalInfo(ctx context.Context, userID string, info PersonalInfo) error
	// UpdateCV writes payload, filename and timestamp in one update.
	// A nil upload clears all three.
	UpdateCV(ctx context.Context, userID string, upload *CVUpload) error
	GetCV(ctx context.Context, userID string) (*CVDocument, error)
	Delete(ctx context.Context, userID string) error
}
