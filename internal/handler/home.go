package handler

import (
	"net/http"

	"github.com/msomdec/solifound/internal/view"
)

// HomeHandler serves the public landing page.
type HomeHandler struct {
	layout
}

// NewHomeHandler creates a new HomeHandler.
func NewHomeHandler(s Services) *HomeHandler {
	return &HomeHandler{layout: layout{policy: s.Policy}}
}

// HandleRoot sends visitors of / to the landing page.
func HandleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/solifound", http.StatusSeeOther)
}

// HandleLanding renders /solifound.
func (h *HomeHandler) HandleLanding(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, view.LandingPage(h.nav(PrincipalFromContext(r.Context()))))
}
