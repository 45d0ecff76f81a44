package form

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/msomdec/solifound/internal/domain"
)

const minPasswordLength = 6

var (
	emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)
	phonePattern = regexp.MustCompile(`^\d{9,15}$`)
	whitespace   = regexp.MustCompile(`\s+`)
)

const (
	msgEmailRequired    = "El correo electrónico es obligatorio"
	msgEmailInvalid     = "El correo electrónico no es válido"
	msgPasswordRequired = "La contraseña es obligatoria"
	msgPasswordShort    = "La contraseña debe tener al menos 6 caracteres"
	msgNombreRequired   = "El nombre es obligatorio"
	msgApellidoRequired = "El apellido es obligatorio"
	msgTelefonoRequired = "El teléfono es obligatorio"
	msgTelefonoInvalid  = "El teléfono no es válido"
	msgPasswordMismatch = "Las contraseñas no coinciden"
	msgTituloRequired   = "El título es obligatorio"
	msgInstitucionReq   = "La institución es obligatoria"
	msgEmpresaRequired  = "La empresa es obligatoria"
	msgPuestoRequired   = "El puesto es obligatorio"
	msgStartRequired    = "La fecha de inicio es obligatoria"
	msgStartInvalid     = "La fecha de inicio no es válida"
	msgStartFuture      = "La fecha de inicio no puede ser futura"
	msgEndInvalid       = "La fecha de fin no es válida"
	msgEndBeforeStart   = "La fecha de fin no puede ser anterior a la fecha de inicio"
	msgDocumentoInvalid = "El tipo de documento no es válido"
	msgSituacionInvalid = "La situación laboral no es válida"
	msgFieldTooLong     = "El valor es demasiado largo"
)

// LoginInput is the raw login form.
type LoginInput struct {
	Email    string
	Password string
}

// RegistrationInput is the raw registration form.
type RegistrationInput struct {
	Nombre          string
	Apellido        string
	Email           string
	Telefono        string
	Password        string
	ConfirmPassword string
}

// ValidateLogin checks the login form.
func ValidateLogin(in LoginInput) Errors {
	errs := Errors{}
	validateEmail(errs, in.Email)
	validatePassword(errs, in.Password)
	return errs
}

// ValidateRegistration checks the registration form.
func ValidateRegistration(in RegistrationInput) Errors {
	errs := Errors{}

	if in.Nombre == "" {
		errs["nombre"] = msgNombreRequired
	}
	if in.Apellido == "" {
		errs["apellido"] = msgApellidoRequired
	}

	validateEmail(errs, in.Email)

	if in.Telefono == "" {
		errs["telefono"] = msgTelefonoRequired
	} else if !phonePattern.MatchString(whitespace.ReplaceAllString(in.Telefono, "")) {
		errs["telefono"] = msgTelefonoInvalid
	}

	validatePassword(errs, in.Password)

	if in.Password != in.ConfirmPassword {
		errs["confirmPassword"] = msgPasswordMismatch
	}
	return errs
}

func validateEmail(errs Errors, email string) {
	if email == "" {
		errs["email"] = msgEmailRequired
	} else if !emailPattern.MatchString(email) {
		errs["email"] = msgEmailInvalid
	}
}

func validatePassword(errs Errors, password string) {
	if password == "" {
		errs["password"] = msgPasswordRequired
	} else if len(password) < minPasswordLength {
		errs["password"] = msgPasswordShort
	}
}

// ValidateEducation checks an education entry against the wall-clock date now.
func ValidateEducation(e domain.Education, now time.Time) Errors {
	errs := Errors{}
	if strings.TrimSpace(e.Titulo) == "" {
		errs["titulo"] = msgTituloRequired
	}
	if strings.TrimSpace(e.Institucion) == "" {
		errs["institucion"] = msgInstitucionReq
	}
	validatePeriod(errs, e.FechaInicio, e.FechaFin, now)
	return errs
}

// ValidateWorkExperience checks a work experience entry against now. The end
// date is ignored entirely for a current job, even if a stale value remains.
func ValidateWorkExperience(w domain.WorkExperience, now time.Time) Errors {
	errs := Errors{}
	if strings.TrimSpace(w.Empresa) == "" {
		errs["empresa"] = msgEmpresaRequired
	}
	if strings.TrimSpace(w.Puesto) == "" {
		errs["puesto"] = msgPuestoRequired
	}
	end := w.FechaFin
	if w.IsCurrentJob {
		end = ""
	}
	validatePeriod(errs, w.FechaInicio, end, now)
	return errs
}

func validatePeriod(errs Errors, start, end string, now time.Time) {
	startDate, startErr := time.Parse(domain.DateLayout, start)
	switch {
	case start == "":
		errs["fecha_inicio"] = msgStartRequired
	case startErr != nil:
		errs["fecha_inicio"] = msgStartInvalid
	case startDate.After(today(now)):
		errs["fecha_inicio"] = msgStartFuture
	}

	if end == "" {
		return
	}
	endDate, err := time.Parse(domain.DateLayout, end)
	if err != nil {
		errs["fecha_fin"] = msgEndInvalid
		return
	}
	if startErr == nil && endDate.Before(startDate) {
		errs["fecha_fin"] = msgEndBeforeStart
	}
}

// today truncates now to its calendar date, expressed in UTC so it compares
// with dates parsed from DateLayout.
func today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type personalInfoRules struct {
	Nacionalidad     string `validate:"max=100"`
	Residencia       string `validate:"max=100"`
	TipoDocumento    string `validate:"omitempty,oneof=DNI NIE NIF"`
	NumeroDocumento  string `validate:"max=20"`
	SituacionLaboral string `validate:"omitempty,oneof=Trabajo Desempleado"`
}

var personalFields = map[string]string{
	"Nacionalidad":     "nacionalidad",
	"Residencia":       "residencia",
	"TipoDocumento":    "tipo_documento",
	"NumeroDocumento":  "numero_documento",
	"SituacionLaboral": "situacion_laboral",
}

var structValidator = validator.New()

// ValidatePersonalInfo checks the personal information form. Every field is
// optional; the two selects must hold one of their known options.
func ValidatePersonalInfo(info domain.PersonalInfo) Errors {
	errs := Errors{}
	err := structValidator.Struct(personalInfoRules(info))
	if err == nil {
		return errs
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs[SubmitField] = err.Error()
		return errs
	}
	for _, fe := range verrs {
		field := personalFields[fe.StructField()]
		switch {
		case fe.Tag() == "oneof" && field == "tipo_documento":
			errs[field] = msgDocumentoInvalid
		case fe.Tag() == "oneof":
			errs[field] = msgSituacionInvalid
		default:
			errs[field] = msgFieldTooLong
		}
	}
	return errs
}
