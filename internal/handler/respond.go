package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/msomdec/solifound/internal/domain"
	"github.com/msomdec/solifound/internal/service"
	"github.com/msomdec/solifound/internal/view"
)

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// render writes a full HTML page with the given status code.
func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		slog.ErrorContext(r.Context(), "render page", "error", err)
	}
}

// patch sends one element patch over SSE.
func patch(sse *datastar.ServerSentEventGenerator, r *http.Request, c templ.Component, opts ...datastar.PatchElementOption) {
	if err := sse.PatchElementTempl(c, opts...); err != nil {
		slog.ErrorContext(r.Context(), "sse patch", "error", err)
	}
}

// layout holds what every page needs to draw the navigation bar.
type layout struct {
	policy *service.Policy
}

func (l layout) nav(p *service.Principal) *view.Nav {
	if p == nil {
		return nil
	}
	name := p.Email()
	if p.Profile != nil {
		name = p.Profile.FullName()
	}
	return &view.Nav{Name: name, Admin: l.policy.IsAdmin(p)}
}

// fail maps a service error to a response. Causes are logged under op and
// never shown.
func (l layout) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	p := PrincipalFromContext(r.Context())
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		redirect(w, r, "/login")
	case errors.Is(err, domain.ErrForbidden):
		render(w, r, http.StatusForbidden, view.AccessDenied(l.nav(p)))
	case errors.Is(err, domain.ErrNotFound):
		render(w, r, http.StatusNotFound, view.ErrorPage(l.nav(p), http.StatusNotFound, "No encontrado", "El recurso solicitado no existe."))
	default:
		slog.ErrorContext(r.Context(), op, "error", err)
		render(w, r, http.StatusInternalServerError, view.ErrorPage(l.nav(p), http.StatusInternalServerError, "Error", "Ha ocurrido un error inesperado. Por favor, inténtalo de nuevo."))
	}
}

// serveCV sends a stored CV as a PDF attachment.
func serveCV(w http.ResponseWriter, doc *domain.CVDocument) {
	contentType := doc.ContentType
	if contentType == "" {
		contentType = domain.CVContentType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Data)
}
