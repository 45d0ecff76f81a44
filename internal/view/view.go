// Package view renders the portal's pages and the fragments patched into
// them over Datastar SSE. Templates live in the .templ files; run
// `templ generate` after editing them.
package view

//go:generate templ generate

import (
	"time"

	"github.com/a-h/templ"

	"github.com/msomdec/solifound/internal/domain"
	"github.com/msomdec/solifound/internal/form"
	"github.com/msomdec/solifound/internal/service"
)

// Nav describes the visitor shown in the navigation bar.
type Nav struct {
	Name  string
	Admin bool
}

// LoggedIn reports whether the bar belongs to a signed-in visitor.
func (n *Nav) LoggedIn() bool { return n != nil }

// Profile tabs.
const (
	TabPersonal   = "personal"
	TabEducation  = "education"
	TabExperience = "experience"
)

// Admin tabs.
const (
	TabUsers       = "users"
	TabOfertas     = "ofertas"
	TabFormaciones = "formaciones"
	TabProgramas   = "programas"
)

// Element ids shared by the pages and the SSE patches.
const (
	EducationListID   = "education-list"
	EducationEmptyID  = "education-empty"
	EducationModalID  = "education-modal"
	ExperienceListID  = "experience-list"
	ExperienceEmptyID = "experience-empty"
	ExperienceModalID = "experience-modal"
	// AdminErrorID is the element holding the admin panel's error message.
	AdminErrorID = "admin-error"
)

// MsgDeleteUserFailed is shown when a user deletion stops part way.
const MsgDeleteUserFailed = "Error al eliminar el usuario. Por favor, inténtalo de nuevo."

const (
	msgIncomplete           = `Tienes datos por rellenar, por favor, actualiza el perfil haciendo click en "Editar información"`
	confirmDeleteEducation  = "¿Estás seguro de que quieres eliminar esta formación?"
	confirmDeleteExperience = "¿Estás seguro de que quieres eliminar esta experiencia laboral?"
	confirmDeleteUser       = "¿Estás seguro de que quieres eliminar este usuario? Esta acción no se puede deshacer."
)

// EducationRowID is the element id of one education row.
func EducationRowID(id string) string { return "education-" + id }

// ExperienceRowID is the element id of one work experience row.
func ExperienceRowID(id string) string { return "experience-" + id }

// UserRowID is the element id of a user's table row.
func UserRowID(id string) string { return "user-" + id }

// UserDetailID is the element id of a user's expanded detail row.
func UserDetailID(id string) string { return "user-" + id + "-detail" }

// PersonalEdit is the state of the personal information form. A nil
// *PersonalEdit shows the read-only summary.
type PersonalEdit struct {
	Info   domain.PersonalInfo
	Errors form.Errors
}

// ProfileData is everything the profile page renders.
type ProfileData struct {
	Nav      *Nav
	Tab      string
	View     *service.ProfileView
	Personal *PersonalEdit
	CVErrors form.Errors
	// Modal is the open education or experience form, if any.
	Modal templ.Component
}

// AdminData is everything the admin panel renders.
type AdminData struct {
	Nav      *Nav
	Tab      string
	Users    []domain.UserProfile
	Selected string
	Detail   *service.UserDetail
	Error    string
}

type placeholder struct{ title, text string }

var placeholders = map[string]placeholder{
	TabOfertas:     {"Gestión de Ofertas", "Sección en desarrollo. Aquí se gestionarán las ofertas de empleo."},
	TabFormaciones: {"Gestión de Formaciones", "Sección en desarrollo. Aquí se gestionarán las formaciones disponibles."},
	TabProgramas:   {"Gestión de Programas", "Sección en desarrollo. Aquí se gestionarán los programas disponibles."},
}

type option struct {
	value string
	label string
}

var (
	documentOptions = []option{
		{domain.DocumentDNI, domain.DocumentDNI},
		{domain.DocumentNIE, domain.DocumentNIE},
		{domain.DocumentNIF, domain.DocumentNIF},
	}
	situacionOptions = []option{
		{domain.EmploymentWorking, domain.EmploymentWorking},
		{domain.EmploymentUnemployed, domain.EmploymentUnemployed},
	}
)

// input describes one labelled text-like field.
type input struct {
	label       string
	name        string
	typ         string
	value       string
	placeholder string
	required    bool
}

func (in input) inputType() string {
	if in.typ == "" {
		return "text"
	}
	return in.typ
}

// datastarSubmit posts the enclosing form as form data.
func datastarSubmit(action string) string {
	return "@post('" + action + "', {contentType: 'form'})"
}

// confirmSubmit asks before posting a delete form through Datastar.
func confirmSubmit(question, action string) string {
	return "confirm('" + question + "') && " + datastarSubmit(action)
}

func datastarGet(url string) string {
	return "@get('" + url + "')"
}

func orUnset(v, unset string) string {
	if v == "" {
		return unset
	}
	return v
}

func documentSummary(p *domain.UserProfile) string {
	if p.TipoDocumento == "" {
		return "No especificado"
	}
	return p.TipoDocumento + " " + p.NumeroDocumento
}

func formatTimestamp(t time.Time) string {
	return t.Local().Format("02/01/2006 15:04")
}

// displayDate renders a stored YYYY-MM-DD date as MM/YYYY.
func displayDate(s string) string {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return s
	}
	return t.Format("01/2006")
}

func period(start, end string, ongoing bool) string {
	to := "Actualidad"
	if !ongoing && end != "" {
		to = displayDate(end)
	}
	return displayDate(start) + " - " + to
}

func boolJS(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func activeClass(active bool) string {
	if active {
		return "active"
	}
	return ""
}
