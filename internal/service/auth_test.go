package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/msomdec/solifound/internal/domain"
	"github.com/msomdec/solifound/internal/form"
	"github.com/msomdec/solifound/internal/service"
)

func validRegistration(email string) form.RegistrationInput {
	return form.RegistrationInput{
		Nombre:          "Ana",
		Apellido:        "López",
		Email:           email,
		Telefono:        "600 111 222",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func TestAuthService_Register_CreatesProfile(t *testing.T) {
	b := newTestBackend(t)
	auth := service.NewAuthService(b)
	ctx := context.Background()

	identity, err := auth.Register(ctx, validRegistration("ana@example.com"), true)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	p, err := b.Profiles.GetByUserID(ctx, identity.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if p.Nombre != "Ana" || p.Email != "ana@example.com" || !p.GDPRAccepted {
		t.Fatalf("unexpected profile %+v", p)
	}
}

func TestAuthService_Register_RequiresTerms(t *testing.T) {
	b, rec := newFakeBackend("")
	auth := service.NewAuthService(b)

	_, err := auth.Register(context.Background(), validRegistration("ana@example.com"), false)

	var fe *service.FormError
	if !errors.As(err, &fe) || !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation FormError, got %v", err)
	}
	if fe.Fields.Get("terms") != "Debes aceptar los términos y condiciones" {
		t.Fatalf("unexpected fields %v", fe.Fields)
	}
	if len(rec.Calls()) != 0 {
		t.Fatalf("expected no backend calls, got %v", rec.Calls())
	}
}

func TestAuthService_Register_PasswordMismatch(t *testing.T) {
	b, _ := newFakeBackend("")
	auth := service.NewAuthService(b)

	in := validRegistration("ana@example.com")
	in.ConfirmPassword = "secret2"
	_, err := auth.Register(context.Background(), in, true)

	var fe *service.FormError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormError, got %v", err)
	}
	if len(fe.Fields) != 1 || fe.Fields.Get("confirmPassword") != "Las contraseñas no coinciden" {
		t.Fatalf("expected only the mismatch error, got %v", fe.Fields)
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	b := newTestBackend(t)
	auth := service.NewAuthService(b)
	ctx := context.Background()

	if _, err := auth.Register(ctx, validRegistration("dup@example.com"), true); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := auth.Register(ctx, validRegistration("dup@example.com"), true)
	if !errors.Is(err, domain.ErrDuplicateEmail) || !errors.Is(err, domain.ErrSubmission) {
		t.Fatalf("expected duplicate email submission error, got %v", err)
	}
	var fe *service.FormError
	if !errors.As(err, &fe) || !fe.Fields.Has("email") || !fe.Fields.Has(form.SubmitField) {
		t.Fatalf("expected email and submit errors, got %v", err)
	}
}

func TestAuthService_Register_ProfileFailureIsSubmissionError(t *testing.T) {
	b, rec := newFakeBackend("profile.create")
	auth := service.NewAuthService(b)

	_, err := auth.Register(context.Background(), validRegistration("ana@example.com"), true)
	if !errors.Is(err, domain.ErrSubmission) {
		t.Fatalf("expected ErrSubmission, got %v", err)
	}
	var fe *service.FormError
	if !errors.As(err, &fe) || fe.Fields.Get(form.SubmitField) != "Error al registrar usuario. Por favor, inténtalo de nuevo." {
		t.Fatalf("expected generic retry message, got %v", err)
	}
	if got := rec.Calls(); len(got) != 2 {
		t.Fatalf("expected sign-up then profile insert, got %v", got)
	}
}

func TestAuthService_Login(t *testing.T) {
	b := newTestBackend(t)
	auth := service.NewAuthService(b)
	ctx := context.Background()

	identity, err := auth.Register(ctx, validRegistration("ana@example.com"), true)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	session, err := auth.Login(ctx, form.LoginInput{Email: " ana@example.com ", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	p, err := auth.Authenticate(ctx, session.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if p.Identity.ID != identity.ID || p.Profile == nil || p.Email() != "ana@example.com" {
		t.Fatalf("unexpected principal %+v", p)
	}

	if err := auth.Logout(ctx, session.AccessToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := auth.Authenticate(ctx, session.AccessToken); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after logout, got %v", err)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	b := newTestBackend(t)
	auth := service.NewAuthService(b)
	ctx := context.Background()

	if _, err := auth.Register(ctx, validRegistration("ana@example.com"), true); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := auth.Login(ctx, form.LoginInput{Email: "ana@example.com", Password: "wrong-pass"})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	var fe *service.FormError
	if !errors.As(err, &fe) || fe.Fields.Get(form.SubmitField) != "Correo electrónico o contraseña incorrectos" {
		t.Fatalf("expected credentials message, got %v", err)
	}
}

func TestAuthService_Login_ShortPasswordNeverReachesBackend(t *testing.T) {
	b, rec := newFakeBackend("")
	auth := service.NewAuthService(b)

	_, err := auth.Login(context.Background(), form.LoginInput{Email: "a@b.com", Password: "12345"})

	var fe *service.FormError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormError, got %v", err)
	}
	want := form.Errors{"password": "La contraseña debe tener al menos 6 caracteres"}
	if len(fe.Fields) != 1 || fe.Fields.Get("password") != want.Get("password") {
		t.Fatalf("expected %v, got %v", want, fe.Fields)
	}
	if len(rec.Calls()) != 0 {
		t.Fatalf("expected no backend calls, got %v", rec.Calls())
	}
}

func TestAuthService_Authenticate_EmptyToken(t *testing.T) {
	b, _ := newFakeBackend("")
	auth := service.NewAuthService(b)

	if _, err := auth.Authenticate(context.Background(), ""); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
