package form

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/msomdec/solifound/internal/domain"
)

var strict = bluemonday.StrictPolicy()

// Clean trims s and strips any markup. Entities produced by the policy are
// decoded again since templates escape on output.
func Clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// CleanEducation sanitizes the free-text fields of an education entry.
func CleanEducation(e domain.Education) domain.Education {
	e.Titulo = Clean(e.Titulo)
	e.Institucion = Clean(e.Institucion)
	e.Descripcion = Clean(e.Descripcion)
	e.FechaInicio = strings.TrimSpace(e.FechaInicio)
	e.FechaFin = strings.TrimSpace(e.FechaFin)
	return e
}

// CleanWorkExperience sanitizes a work experience entry and clears the end
// date of a current job.
func CleanWorkExperience(w domain.WorkExperience) domain.WorkExperience {
	w.Empresa = Clean(w.Empresa)
	w.Puesto = Clean(w.Puesto)
	w.Descripcion = Clean(w.Descripcion)
	w.FechaInicio = strings.TrimSpace(w.FechaInicio)
	w.FechaFin = strings.TrimSpace(w.FechaFin)
	w.Normalize()
	return w
}

// CleanPersonalInfo sanitizes the personal information form.
func CleanPersonalInfo(p domain.PersonalInfo) domain.PersonalInfo {
	p.Nacionalidad = Clean(p.Nacionalidad)
	p.Residencia = Clean(p.Residencia)
	p.TipoDocumento = strings.TrimSpace(p.TipoDocumento)
	p.NumeroDocumento = Clean(p.NumeroDocumento)
	p.SituacionLaboral = strings.TrimSpace(p.SituacionLaboral)
	return p
}
