package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/msomdec/solifound/internal/domain"
	"github.com/msomdec/solifound/internal/metrics"
	"github.com/msomdec/solifound/internal/service"
	"github.com/msomdec/solifound/internal/view"
	"github.com/msomdec/solifound/internal/viewstate"
)

// multipartOverhead is the room left for headers and the other parts of a
// CV upload on top of the file itself.
const multipartOverhead = 1 << 20

// ProfileHandler serves the caller's own profile page.
type ProfileHandler struct {
	layout
	profiles *service.ProfileService
	cvs      *service.CVService
	views    *viewstate.Cache
	metrics  *metrics.Metrics
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(s Services) *ProfileHandler {
	return &ProfileHandler{
		layout:   layout{policy: s.Policy},
		profiles: s.Profiles,
		cvs:      s.CVs,
		views:    s.Views,
		metrics:  s.Metrics,
	}
}

func profileTab(r *http.Request) string {
	switch tab := r.URL.Query().Get("tab"); tab {
	case view.TabEducation, view.TabExperience:
		return tab
	default:
		return view.TabPersonal
	}
}

// HandleProfile renders /profile. Opening the page loads the view state
// afresh; later writes patch it.
func (h *ProfileHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	v, err := h.views.Mount(r.Context(), p.Identity.ID)
	if err != nil {
		h.fail(w, r, "load profile", err)
		return
	}

	d := view.ProfileData{Nav: h.nav(p), Tab: profileTab(r), View: v}
	if d.Tab == view.TabPersonal && r.URL.Query().Get("edit") != "" {
		d.Personal = &view.PersonalEdit{Info: v.Profile.PersonalInfo()}
	}
	render(w, r, http.StatusOK, view.ProfilePage(d))
}

// renderWith re-renders the profile page around a rejected form.
func (h *ProfileHandler) renderWith(w http.ResponseWriter, r *http.Request, status int, d view.ProfileData) {
	p := PrincipalFromContext(r.Context())
	v, err := h.views.Get(r.Context(), p.Identity.ID)
	if err != nil {
		h.fail(w, r, "load profile", err)
		return
	}
	d.Nav = h.nav(p)
	d.View = v
	render(w, r, status, view.ProfilePage(d))
}

// HandleEditPersonal swaps the personal summary for its form.
// GET /profile/personal/edit
func (h *ProfileHandler) HandleEditPersonal(w http.ResponseWriter, r *http.Request) {
	if !isDatastar(r) {
		http.Redirect(w, r, "/profile?tab=personal&edit=1", http.StatusSeeOther)
		return
	}
	p := PrincipalFromContext(r.Context())
	v, err := h.views.Get(r.Context(), p.Identity.ID)
	if err != nil {
		h.fail(w, r, "load profile", err)
		return
	}
	patch(datastar.NewSSE(w, r), r, view.PersonalForm(v.Profile.PersonalInfo(), nil))
}

// HandleUpdatePersonal saves the personal information form.
// POST /profile/personal
func (h *ProfileHandler) HandleUpdatePersonal(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	info := domain.PersonalInfo{
		Nacionalidad:     r.PostFormValue("nacionalidad"),
		Residencia:       r.PostFormValue("residencia"),
		TipoDocumento:    r.PostFormValue("tipo_documento"),
		NumeroDocumento:  r.PostFormValue("numero_documento"),
		SituacionLaboral: r.PostFormValue("situacion_laboral"),
	}

	info, err := h.profiles.UpdatePersonalInfo(r.Context(), p.Identity.ID, info)
	if err != nil {
		var fe *service.FormError
		if !errors.As(err, &fe) {
			h.fail(w, r, "update personal info", err)
			return
		}
		h.metrics.FormSubmitted("personal", formResult(err))
		if isDatastar(r) {
			patch(datastar.NewSSE(w, r), r, view.PersonalForm(info, fe.Fields))
			return
		}
		h.renderWith(w, r, http.StatusUnprocessableEntity, view.ProfileData{
			Tab:      view.TabPersonal,
			Personal: &view.PersonalEdit{Info: info, Errors: fe.Fields},
		})
		return
	}
	h.metrics.FormSubmitted("personal", metrics.ResultOK)

	var updated *domain.UserProfile
	err = h.views.Update(r.Context(), p.Identity.ID, func(v *service.ProfileView) {
		v.Profile.SetPersonalInfo(info)
		updated = v.Profile
	})
	if err != nil {
		slog.WarnContext(r.Context(), "update view state", "error", err)
	}

	if !isDatastar(r) {
		http.Redirect(w, r, "/profile?tab=personal", http.StatusSeeOther)
		return
	}
	if updated == nil {
		if updated, err = h.profiles.Get(r.Context(), p.Identity.ID); err != nil {
			h.fail(w, r, "get profile", err)
			return
		}
	}
	patch(datastar.NewSSE(w, r), r, view.PersonalSummary(updated))
}

// HandleUploadCV stores the uploaded PDF as the caller's CV.
// POST /profile/cv
func (h *ProfileHandler) HandleUploadCV(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxCVSize+multipartOverhead)

	filename, contentType, data, err := readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if !errors.As(err, &tooLarge) {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		h.cvRejected(w, r, service.UploadTooLarge())
		return
	}

	cv, err := h.cvs.Upload(r.Context(), p.Identity.ID, filename, contentType, data)
	if err != nil {
		h.cvRejected(w, r, err)
		return
	}
	h.metrics.FormSubmitted("cv", metrics.ResultOK)
	h.cvStored(w, r, cv)
}

// readUpload returns the "cv" part of a multipart request. A request without
// the part yields empty values, which the upload rules reject.
func readUpload(r *http.Request) (filename, contentType string, data []byte, err error) {
	if err := r.ParseMultipartForm(domain.MaxCVSize + multipartOverhead); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return "", "", nil, nil
		}
		return "", "", nil, err
	}
	file, header, err := r.FormFile(service.CVField)
	if errors.Is(err, http.ErrMissingFile) {
		return "", "", nil, nil
	}
	if err != nil {
		return "", "", nil, err
	}
	defer file.Close()

	data, err = io.ReadAll(io.LimitReader(file, domain.MaxCVSize+1))
	if err != nil {
		return "", "", nil, err
	}
	return header.Filename, header.Header.Get("Content-Type"), data, nil
}

// HandleRemoveCV clears the caller's CV.
// POST /profile/cv/delete
func (h *ProfileHandler) HandleRemoveCV(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	if err := h.cvs.Remove(r.Context(), p.Identity.ID); err != nil {
		h.cvRejected(w, r, err)
		return
	}
	h.cvStored(w, r, nil)
}

// HandleDownloadCV sends the caller's own CV.
// GET /profile/cv
func (h *ProfileHandler) HandleDownloadCV(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	doc, err := h.cvs.Download(r.Context(), p.Identity.ID)
	if errors.Is(err, domain.ErrNotFound) {
		render(w, r, http.StatusNotFound, view.ErrorPage(h.nav(p), http.StatusNotFound, "Curriculum Vitae", service.MsgCVMissing))
		return
	}
	if err != nil {
		h.fail(w, r, "download cv", err)
		return
	}
	serveCV(w, doc)
}

func (h *ProfileHandler) cvRejected(w http.ResponseWriter, r *http.Request, err error) {
	var fe *service.FormError
	if !errors.As(err, &fe) {
		h.fail(w, r, "store cv", err)
		return
	}
	h.metrics.FormSubmitted("cv", formResult(err))

	p := PrincipalFromContext(r.Context())
	if isDatastar(r) {
		var current *domain.CVFile
		if v, err := h.views.Get(r.Context(), p.Identity.ID); err == nil {
			current = v.Profile.CV()
		}
		patch(datastar.NewSSE(w, r), r, view.CVSection(current, fe.Fields))
		return
	}
	h.renderWith(w, r, http.StatusUnprocessableEntity, view.ProfileData{Tab: view.TabPersonal, CVErrors: fe.Fields})
}

func (h *ProfileHandler) cvStored(w http.ResponseWriter, r *http.Request, cv *domain.CVFile) {
	p := PrincipalFromContext(r.Context())
	err := h.views.Update(r.Context(), p.Identity.ID, func(v *service.ProfileView) {
		v.Profile.SetCV(cv)
	})
	if err != nil {
		slog.WarnContext(r.Context(), "update view state", "error", err)
	}

	if !isDatastar(r) {
		http.Redirect(w, r, "/profile?tab=personal", http.StatusSeeOther)
		return
	}
	patch(datastar.NewSSE(w, r), r, view.CVSection(cv, nil))
}

// modal renders the profile page of tab with an open record form, used when
// Datastar is not driving the page.
func (h *ProfileHandler) modal(w http.ResponseWriter, r *http.Request, status int, tab string, c templ.Component) {
	h.renderWith(w, r, status, view.ProfileData{Tab: tab, Modal: c})
}
