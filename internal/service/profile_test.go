package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/msomdec/solifound/internal/domain"
	"github.com/msomdec/solifound/internal/form"
	"github.com/msomdec/solifound/internal/service"
)

func TestProfileService_LoadAndUpdatePersonalInfo(t *testing.T) {
	b := newTestBackend(t)
	owner := registerUser(t, service.NewAuthService(b), "ana@example.com")
	svc := service.NewProfileService(b)
	ctx := context.Background()

	view, err := svc.Load(ctx, owner)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if view.Profile == nil || !view.Profile.Incomplete() || len(view.Education) != 0 {
		t.Fatalf("unexpected initial view %+v", view)
	}

	info, err := svc.UpdatePersonalInfo(ctx, owner, domain.PersonalInfo{
		Nacionalidad:     " Española ",
		Residencia:       "Madrid",
		TipoDocumento:    domain.DocumentNIE,
		NumeroDocumento:  "X1234567L",
		SituacionLaboral: domain.EmploymentWorking,
	})
	if err != nil {
		t.Fatalf("UpdatePersonalInfo: %v", err)
	}
	if info.Nacionalidad != "Española" {
		t.Fatalf("expected trimmed value, got %q", info.Nacionalidad)
	}

	p, err := svc.Get(ctx, owner)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.PersonalInfo() != info || p.Incomplete() {
		t.Fatalf("expected stored %+v, got %+v", info, p.PersonalInfo())
	}
}

func TestProfileService_UpdatePersonalInfoRejectsUnknownDocument(t *testing.T) {
	b, rec := newFakeBackend("")
	svc := service.NewProfileService(b)

	_, err := svc.UpdatePersonalInfo(context.Background(), "u1", domain.PersonalInfo{TipoDocumento: "Pasaporte"})

	var fe *service.FormError
	if !errors.As(err, &fe) || !fe.Fields.Has("tipo_documento") {
		t.Fatalf("expected tipo_documento error, got %v", err)
	}
	if len(rec.Calls()) != 0 {
		t.Fatalf("expected no backend calls, got %v", rec.Calls())
	}
}

func TestProfileService_UpdatePersonalInfoFailure(t *testing.T) {
	b, _ := newFakeBackend("profile.update_personal")
	svc := service.NewProfileService(b)

	_, err := svc.UpdatePersonalInfo(context.Background(), "u1", domain.PersonalInfo{Residencia: "Madrid"})

	var fe *service.FormError
	if !errors.As(err, &fe) || !errors.Is(err, domain.ErrSubmission) {
		t.Fatalf("expected submission error, got %v", err)
	}
	if fe.Fields.Get(form.SubmitField) != "Error al actualizar la información personal. Por favor, inténtalo de nuevo." {
		t.Fatalf("unexpected message %q", fe.Fields.Get(form.SubmitField))
	}
}

func TestProfileService_LoadFailsWhenAnyListFails(t *testing.T) {
	b, _ := newFakeBackend("achievements.list")
	svc := service.NewProfileService(b)

	if _, err := svc.Load(context.Background(), "u1"); !errors.Is(err, errBackendDown) {
		t.Fatalf("expected backend error, got %v", err)
	}
}
