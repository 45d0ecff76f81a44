package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/msomdec/solifound/internal/domain"
	"github.com/msomdec/solifound/internal/form"
	"github.com/msomdec/solifound/internal/metrics"
	"github.com/msomdec/solifound/internal/service"
	"github.com/msomdec/solifound/internal/view"
	"github.com/msomdec/solifound/internal/viewstate"
)

const sessionMaxAge = 24 * time.Hour

// AuthHandler handles sign-in, registration and sign-out.
type AuthHandler struct {
	layout
	auth         *service.AuthService
	views        *viewstate.Cache
	metrics      *metrics.Metrics
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(s Services) *AuthHandler {
	return &AuthHandler{
		layout:       layout{policy: s.Policy},
		auth:         s.Auth,
		views:        s.Views,
		metrics:      s.Metrics,
		cookieSecure: s.CookieSecure,
	}
}

// HandleLoginPage renders the sign-in page. Signed-in visitors go straight
// to their profile.
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if PrincipalFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}
	render(w, r, http.StatusOK, view.LoginPage(form.LoginInput{}, nil))
}

// HandleLogin processes the sign-in form.
// POST /login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	in := form.LoginInput{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}

	session, err := h.auth.Login(r.Context(), in)
	if err != nil {
		var fe *service.FormError
		if !errors.As(err, &fe) {
			h.fail(w, r, "login user", err)
			return
		}
		h.metrics.FormSubmitted("login", formResult(err))
		in.Password = ""
		if isDatastar(r) {
			patch(datastar.NewSSE(w, r), r, view.LoginForm(in, fe.Fields))
			return
		}
		status := http.StatusUnprocessableEntity
		if errors.Is(err, domain.ErrUnauthorized) {
			status = http.StatusUnauthorized
		}
		render(w, r, status, view.LoginPage(in, fe.Fields))
		return
	}

	h.metrics.FormSubmitted("login", metrics.ResultOK)
	h.setSessionCookie(w, session)
	redirect(w, r, "/profile")
}

// HandleRegisterPage renders the registration page.
func (h *AuthHandler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if PrincipalFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}
	render(w, r, http.StatusOK, view.RegisterPage(form.RegistrationInput{}, false, nil))
}

// HandleRegister processes the registration form and signs the new user in.
// POST /registro
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	in := form.RegistrationInput{
		Nombre:          r.PostFormValue("nombre"),
		Apellido:        r.PostFormValue("apellido"),
		Email:           r.PostFormValue("email"),
		Telefono:        r.PostFormValue("telefono"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
	}
	terms := r.PostFormValue("terms") != ""

	if _, err := h.auth.Register(r.Context(), in, terms); err != nil {
		var fe *service.FormError
		if !errors.As(err, &fe) {
			h.fail(w, r, "register user", err)
			return
		}
		h.metrics.FormSubmitted("registro", formResult(err))
		in.Password, in.ConfirmPassword = "", ""
		if isDatastar(r) {
			patch(datastar.NewSSE(w, r), r, view.RegisterForm(in, terms, fe.Fields))
			return
		}
		status := http.StatusUnprocessableEntity
		if errors.Is(err, domain.ErrDuplicateEmail) {
			status = http.StatusConflict
		}
		render(w, r, status, view.RegisterPage(in, terms, fe.Fields))
		return
	}
	h.metrics.FormSubmitted("registro", metrics.ResultOK)

	// Identity services that require email confirmation refuse the first
	// sign-in; the user then continues from the login page.
	session, err := h.auth.Login(r.Context(), form.LoginInput{Email: in.Email, Password: in.Password})
	if err != nil {
		slog.WarnContext(r.Context(), "sign in after registration", "error", err)
		redirect(w, r, "/login")
		return
	}
	h.setSessionCookie(w, session)
	redirect(w, r, "/profile")
}

// HandleLogout ends the session, forgets the caller's view state and clears
// the auth cookie.
// POST /logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if p := PrincipalFromContext(r.Context()); p != nil {
		if err := h.auth.Logout(r.Context(), p.AccessToken); err != nil {
			slog.WarnContext(r.Context(), "logout", "error", err)
		}
		if err := h.views.Drop(r.Context(), p.Identity.ID); err != nil {
			slog.WarnContext(r.Context(), "drop view state", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	redirect(w, r, "/login")
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, s *domain.Session) {
	maxAge := sessionMaxAge
	if !s.ExpiresAt.IsZero() {
		maxAge = time.Until(s.ExpiresAt)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    s.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})
}

// formResult classifies a rejected submission for the metrics.
func formResult(err error) string {
	if errors.Is(err, domain.ErrValidation) {
		return metrics.ResultValidation
	}
	return metrics.ResultFailed
}
