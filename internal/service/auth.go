package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/msomdec/solifound/internal/backend"
	"github.com/msomdec/solifound/internal/domain"
	"github.com/msomdec/solifound/internal/form"
)

const (
	msgRegisterFailed   = "Error al registrar usuario. Por favor, inténtalo de nuevo."
	msgLoginFailed      = "Error al iniciar sesión. Por favor, inténtalo de nuevo."
	msgBadCredentials   = "Correo electrónico o contraseña incorrectos"
	msgTermsRequired    = "Debes aceptar los términos y condiciones"
	msgEmailRegistered  = "Ya existe una cuenta con este correo electrónico"
	termsField          = "terms"
	registrationEmailID = "email"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	Identity    domain.Identity
	Profile     *domain.UserProfile
	AccessToken string
}

// Email is the address authorization decisions are made on. It comes from
// the identity service; the profile row is owner-writable and never counts.
func (p *Principal) Email() string {
	return p.Identity.Email
}

// AuthService handles registration, login and session resolution.
type AuthService struct {
	identities domain.IdentityService
	profiles   domain.ProfileRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(b *backend.Backend) *AuthService {
	return &AuthService{identities: b.Identities, profiles: b.Profiles}
}

// Login validates the form and signs in. Wrong credentials come back as a
// *FormError wrapping domain.ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, in form.LoginInput) (*domain.Session, error) {
	in.Email = strings.TrimSpace(in.Email)

	var session *domain.Session
	f := form.New(in, form.ValidateLogin, msgLoginFailed)
	err := submit(ctx, "sign in", f, func(ctx context.Context, in form.LoginInput) error {
		var err error
		session, err = s.identities.SignIn(ctx, in.Email, in.Password)
		return err
	})

	var fe *FormError
	if errors.As(err, &fe) && errors.Is(err, domain.ErrUnauthorized) {
		fe.Fields[form.SubmitField] = msgBadCredentials
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Register validates the form, signs the identity up and creates its profile.
func (s *AuthService) Register(ctx context.Context, in form.RegistrationInput, termsAccepted bool) (*domain.Identity, error) {
	in.Nombre = strings.TrimSpace(in.Nombre)
	in.Apellido = strings.TrimSpace(in.Apellido)
	in.Email = strings.TrimSpace(in.Email)

	validate := func(in form.RegistrationInput) form.Errors {
		errs := form.ValidateRegistration(in)
		if !termsAccepted {
			errs[termsField] = msgTermsRequired
		}
		return errs
	}

	var identity *domain.Identity
	f := form.New(in, validate, msgRegisterFailed)
	err := submit(ctx, "register", f, func(ctx context.Context, in form.RegistrationInput) error {
		var err error
		identity, err = s.identities.SignUp(ctx, in.Email, in.Password)
		if err != nil {
			return fmt.Errorf("sign up: %w", err)
		}
		err = s.profiles.Create(ctx, &domain.UserProfile{
			UserID:       identity.ID,
			Nombre:       in.Nombre,
			Apellido:     in.Apellido,
			Email:        in.Email,
			Telefono:     in.Telefono,
			GDPRAccepted: termsAccepted,
		})
		if err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		return nil
	})

	var fe *FormError
	if errors.As(err, &fe) && errors.Is(err, domain.ErrDuplicateEmail) {
		fe.Fields[registrationEmailID] = msgEmailRegistered
	}
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// Logout ends the session at the identity service.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	if err := s.identities.SignOut(ctx, accessToken); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// Authenticate resolves an access token into a Principal. A missing profile
// is not an error; the principal simply has none.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*Principal, error) {
	if accessToken == "" {
		return nil, domain.ErrUnauthorized
	}
	ctx = domain.WithAccessToken(ctx, accessToken)

	identity, err := s.identities.CurrentUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	p := &Principal{Identity: *identity, AccessToken: accessToken}
	profile, err := s.profiles.GetByUserID(ctx, identity.ID)
	switch {
	case err == nil:
		p.Profile = profile
	case errors.Is(err, domain.ErrNotFound):
	default:
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}
