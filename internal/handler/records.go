package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/msomdec/solifound/internal/domain"
	"github.com/msomdec/solifound/internal/form"
	"github.com/msomdec/solifound/internal/metrics"
	"github.com/msomdec/solifound/internal/service"
	"github.com/msomdec/solifound/internal/view"
)

// recordKind describes how one record list is read from requests, drawn and
// kept in the view state.
type recordKind[T form.Identifiable] struct {
	name    string
	tab     string
	parse   func(r *http.Request, id string) T
	row     func(T) templ.Component
	editor  func(T, form.Errors) templ.Component
	list    func([]T) templ.Component
	rowID   func(string) string
	listID  string
	emptyID string
	modalID string
	field   func(*service.ProfileView) *form.List[T]
}

// RecordHandler serves the add, edit and delete actions of one record list
// on the profile page.
type RecordHandler[T form.Identifiable] struct {
	*ProfileHandler
	kind    recordKind[T]
	records *service.RecordService[T]
}

// NewEducationHandler creates the handler of the education list.
func NewEducationHandler(s Services, page *ProfileHandler) *RecordHandler[domain.Education] {
	return &RecordHandler[domain.Education]{
		ProfileHandler: page,
		records:        s.Education,
		kind: recordKind[domain.Education]{
			name:    "education",
			tab:     view.TabEducation,
			parse:   parseEducation,
			row:     view.EducationRow,
			editor:  view.EducationForm,
			list:    view.EducationList,
			rowID:   view.EducationRowID,
			listID:  view.EducationListID,
			emptyID: view.EducationEmptyID,
			modalID: view.EducationModalID,
			field:   func(v *service.ProfileView) *form.List[domain.Education] { return &v.Education },
		},
	}
}

// NewExperienceHandler creates the handler of the work experience list.
func NewExperienceHandler(s Services, page *ProfileHandler) *RecordHandler[domain.WorkExperience] {
	return &RecordHandler[domain.WorkExperience]{
		ProfileHandler: page,
		records:        s.Experience,
		kind: recordKind[domain.WorkExperience]{
			name:    "experience",
			tab:     view.TabExperience,
			parse:   parseExperience,
			row:     view.ExperienceRow,
			editor:  view.ExperienceForm,
			list:    view.ExperienceList,
			rowID:   view.ExperienceRowID,
			listID:  view.ExperienceListID,
			emptyID: view.ExperienceEmptyID,
			modalID: view.ExperienceModalID,
			field:   func(v *service.ProfileView) *form.List[domain.WorkExperience] { return &v.WorkExperience },
		},
	}
}

func parseEducation(r *http.Request, id string) domain.Education {
	return domain.Education{
		ID:          id,
		Titulo:      r.PostFormValue("titulo"),
		Institucion: r.PostFormValue("institucion"),
		FechaInicio: r.PostFormValue("fecha_inicio"),
		FechaFin:    r.PostFormValue("fecha_fin"),
		Descripcion: r.PostFormValue("descripcion"),
	}
}

func parseExperience(r *http.Request, id string) domain.WorkExperience {
	return domain.WorkExperience{
		ID:           id,
		Empresa:      r.PostFormValue("empresa"),
		Puesto:       r.PostFormValue("puesto"),
		FechaInicio:  r.PostFormValue("fecha_inicio"),
		FechaFin:     r.PostFormValue("fecha_fin"),
		Descripcion:  r.PostFormValue("descripcion"),
		IsCurrentJob: r.PostFormValue("is_current_job") != "",
	}
}

// showForm opens the record form in the list's modal.
func (h *RecordHandler[T]) showForm(w http.ResponseWriter, r *http.Request, status int, record T, errs form.Errors) {
	if isDatastar(r) {
		patch(datastar.NewSSE(w, r), r, h.kind.editor(record, errs),
			datastar.WithSelectorID(h.kind.modalID), datastar.WithModeInner())
		return
	}
	h.modal(w, r, status, h.kind.tab, h.kind.editor(record, errs))
}

// HandleNew opens an empty form.
// GET /profile/{kind}/new
func (h *RecordHandler[T]) HandleNew(w http.ResponseWriter, r *http.Request) {
	var zero T
	h.showForm(w, r, http.StatusOK, zero, nil)
}

// HandleEdit opens the form pre-filled with the stored record.
// GET /profile/{kind}/{id}/edit
func (h *RecordHandler[T]) HandleEdit(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	v, err := h.views.Get(r.Context(), p.Identity.ID)
	if err != nil {
		h.fail(w, r, "load profile", err)
		return
	}
	record, ok := h.kind.field(v).Find(r.PathValue("id"))
	if !ok {
		h.fail(w, r, "edit "+h.kind.name, domain.ErrNotFound)
		return
	}
	h.showForm(w, r, http.StatusOK, record, nil)
}

// HandleCreate saves a new record.
// POST /profile/{kind}
func (h *RecordHandler[T]) HandleCreate(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, form.OpCreate, "")
}

// HandleUpdate saves changes to an existing record.
// POST /profile/{kind}/{id}
func (h *RecordHandler[T]) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, form.OpUpdate, r.PathValue("id"))
}

func (h *RecordHandler[T]) save(w http.ResponseWriter, r *http.Request, op form.Op, id string) {
	p := PrincipalFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	record := h.kind.parse(r, id)

	f := h.records.NewForm(record)
	result, err := h.records.Save(r.Context(), p.Identity.ID, op, f)
	if err != nil {
		var fe *service.FormError
		if !errors.As(err, &fe) {
			h.fail(w, r, "save "+h.kind.name, err)
			return
		}
		h.metrics.FormSubmitted(h.kind.name, formResult(err))
		h.showForm(w, r, http.StatusUnprocessableEntity, record, fe.Fields)
		return
	}
	h.metrics.FormSubmitted(h.kind.name, metrics.ResultOK)

	wasEmpty := h.apply(r, p, result)
	if !isDatastar(r) {
		http.Redirect(w, r, "/profile?tab="+h.kind.tab, http.StatusSeeOther)
		return
	}

	sse := datastar.NewSSE(w, r)
	if op == form.OpCreate {
		if wasEmpty {
			if err := sse.RemoveElementByID(h.kind.emptyID); err != nil {
				slog.ErrorContext(r.Context(), "sse remove", "error", err)
			}
		}
		patch(sse, r, h.kind.row(result.Record), datastar.WithSelectorID(h.kind.listID), datastar.WithModePrepend())
	} else {
		patch(sse, r, h.kind.row(result.Record))
	}
	patch(sse, r, view.Empty(), datastar.WithSelectorID(h.kind.modalID), datastar.WithModeInner())
}

// HandleDelete removes a record.
// POST /profile/{kind}/{id}/delete
func (h *RecordHandler[T]) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	result, err := h.records.Delete(r.Context(), p.Identity.ID, r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "delete "+h.kind.name, err)
		return
	}
	h.apply(r, p, result)

	if !isDatastar(r) {
		http.Redirect(w, r, "/profile?tab="+h.kind.tab, http.StatusSeeOther)
		return
	}

	v, err := h.views.Get(r.Context(), p.Identity.ID)
	sse := datastar.NewSSE(w, r)
	if err == nil && len(*h.kind.field(v)) == 0 {
		patch(sse, r, h.kind.list(nil))
		return
	}
	if err := sse.RemoveElementByID(h.kind.rowID(result.ID)); err != nil {
		slog.ErrorContext(r.Context(), "sse remove", "error", err)
	}
}

// apply patches the stored list with a confirmed write and reports whether
// the list was empty before.
func (h *RecordHandler[T]) apply(r *http.Request, p *service.Principal, result form.Patch[T]) bool {
	wasEmpty := false
	err := h.views.Update(r.Context(), p.Identity.ID, func(v *service.ProfileView) {
		list := h.kind.field(v)
		wasEmpty = len(*list) == 0
		*list = list.Apply(result)
	})
	if err != nil {
		slog.WarnContext(r.Context(), "update view state", "error", err)
	}
	return wasEmpty
}
