package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/msomdec/solifound/internal/domain"
	"github.com/msomdec/solifound/internal/form"
	"github.com/msomdec/solifound/internal/service"
	"github.com/msomdec/solifound/internal/view"
	"github.com/msomdec/solifound/internal/viewstate"
)

// AdminHandler serves the administration panel. Every route goes through
// the Policy, both here and again inside AdminService.
type AdminHandler struct {
	layout
	admin *service.AdminService
	views *viewstate.Cache
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(s Services) *AdminHandler {
	return &AdminHandler{layout: layout{policy: s.Policy}, admin: s.Admin, views: s.Views}
}

// RequireAdmin renders the access denied page for callers without admin
// rights.
func (h *AdminHandler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFromContext(r.Context())
		if !h.policy.IsAdmin(p) {
			if isDatastar(r) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			render(w, r, http.StatusForbidden, view.AccessDenied(h.nav(p)))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type adminSignals struct {
	Selected string `json:"selected"`
}

// HandlePanel renders /admin.
func (h *AdminHandler) HandlePanel(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	d := view.AdminData{Nav: h.nav(p), Tab: r.URL.Query().Get("tab")}
	switch d.Tab {
	case view.TabOfertas, view.TabFormaciones, view.TabProgramas:
		render(w, r, http.StatusOK, view.AdminPage(d))
		return
	default:
		d.Tab = view.TabUsers
	}

	users, err := h.admin.ListUsers(r.Context(), p)
	if err != nil {
		h.fail(w, r, "list users", err)
		return
	}
	d.Users = users

	if selected := r.URL.Query().Get("selected"); selected != "" {
		detail, err := h.admin.UserDetail(r.Context(), p, selected)
		if err != nil {
			h.fail(w, r, "user detail", err)
			return
		}
		d.Selected, d.Detail = selected, detail
	}
	render(w, r, http.StatusOK, view.AdminPage(d))
}

// HandleToggleDetail expands a user's row, or collapses it when it is
// already the open one.
// GET /admin/users/{id}/detail
func (h *AdminHandler) HandleToggleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !isDatastar(r) {
		next := form.ToggleSelection(r.URL.Query().Get("selected"), id)
		http.Redirect(w, r, "/admin?tab="+view.TabUsers+"&selected="+url.QueryEscape(next), http.StatusSeeOther)
		return
	}

	var signals adminSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	next := form.ToggleSelection(signals.Selected, id)

	var detail *service.UserDetail
	if next != "" {
		var err error
		detail, err = h.admin.UserDetail(r.Context(), PrincipalFromContext(r.Context()), next)
		if err != nil {
			h.fail(w, r, "user detail", err)
			return
		}
	}

	sse := datastar.NewSSE(w, r)
	if signals.Selected != "" {
		if err := sse.RemoveElementByID(view.UserDetailID(signals.Selected)); err != nil {
			slog.ErrorContext(r.Context(), "sse remove", "error", err)
		}
	}
	if detail != nil {
		patch(sse, r, view.UserDetailRow(next, detail), datastar.WithSelectorID(view.UserRowID(next)), datastar.WithModeAfter())
	}
	if err := sse.MarshalAndPatchSignals(adminSignals{Selected: next}); err != nil {
		slog.ErrorContext(r.Context(), "sse signals", "error", err)
	}
}

// HandleDownloadCV sends a user's CV to the admin.
// GET /admin/users/{id}/cv
func (h *AdminHandler) HandleDownloadCV(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	doc, err := h.admin.DownloadCV(r.Context(), p, r.PathValue("id"))
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

// HandleDeleteUser runs the delete cascade for a user. The form must carry
// confirm=yes.
// POST /admin/users/{id}/delete
func (h *AdminHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	if err := r.ParseForm(); err != nil || r.PostFormValue("confirm") != "yes" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	id := r.PathValue("id")

	err := h.admin.DeleteUser(r.Context(), p, id)
	var cascadeErr *service.CascadeError
	if errors.As(err, &cascadeErr) {
		if isDatastar(r) {
			patch(datastar.NewSSE(w, r), r, view.AdminError(view.MsgDeleteUserFailed))
			return
		}
		users, listErr := h.admin.ListUsers(r.Context(), p)
		if listErr != nil {
			h.fail(w, r, "list users", listErr)
			return
		}
		render(w, r, http.StatusInternalServerError, view.AdminPage(view.AdminData{
			Nav:   h.nav(p),
			Tab:   view.TabUsers,
			Users: users,
			Error: view.MsgDeleteUserFailed,
		}))
		return
	}
	if err != nil {
		h.fail(w, r, "delete user", err)
		return
	}

	if err := h.views.Drop(r.Context(), id); err != nil {
		slog.WarnContext(r.Context(), "drop view state", "user_id", id, "error", err)
	}

	if !isDatastar(r) {
		http.Redirect(w, r, "/admin?tab="+view.TabUsers, http.StatusSeeOther)
		return
	}

	// Form posts carry no signals, so the table is redrawn with the selection
	// reset instead of removing rows one by one.
	users, err := h.admin.ListUsers(r.Context(), p)
	if err != nil {
		h.fail(w, r, "list users", err)
		return
	}
	sse := datastar.NewSSE(w, r)
	patch(sse, r, view.UsersTable(users, "", nil))
	patch(sse, r, view.AdminError(""))
}
