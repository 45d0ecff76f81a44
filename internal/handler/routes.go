package handler

import (
	"net/http"

	"github.com/msomdec/solifound/internal/domain"
	"github.com/msomdec/solifound/internal/metrics"
	"github.com/msomdec/solifound/internal/service"
	"github.com/msomdec/solifound/internal/viewstate"
)

// Services bundles everything the routes depend on.
type Services struct {
	Auth         *service.AuthService
	Profiles     *service.ProfileService
	Education    *service.RecordService[domain.Education]
	Experience   *service.RecordService[domain.WorkExperience]
	CVs          *service.CVService
	Admin        *service.AdminService
	Policy       *service.Policy
	Views        *viewstate.Cache
	Metrics      *metrics.Metrics
	Limiter      *service.TokenBucket
	CookieSecure bool
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, s Services) {
	authHandler := NewAuthHandler(s)
	homeHandler := NewHomeHandler(s)
	profileHandler := NewProfileHandler(s)
	educationHandler := NewEducationHandler(s, profileHandler)
	experienceHandler := NewExperienceHandler(s, profileHandler)
	adminHandler := NewAdminHandler(s)

	optional := func(h http.HandlerFunc) http.Handler { return OptionalAuth(s.Auth, h) }
	protected := func(h http.HandlerFunc) http.Handler { return RequireAuth(s.Auth, h) }
	admin := func(h http.HandlerFunc) http.Handler { return RequireAuth(s.Auth, adminHandler.RequireAdmin(h)) }

	mux.HandleFunc("GET /healthz", HandleHealthz)
	mux.Handle("GET /metrics", s.Metrics.Handler())

	mux.HandleFunc("GET /{$}", HandleRoot)
	mux.Handle("GET /solifound", optional(homeHandler.HandleLanding))

	mux.Handle("GET /login", optional(authHandler.HandleLoginPage))
	mux.Handle("POST /login", RateLimit(s.Limiter, http.HandlerFunc(authHandler.HandleLogin)))
	mux.Handle("GET /registro", optional(authHandler.HandleRegisterPage))
	mux.Handle("POST /registro", RateLimit(s.Limiter, http.HandlerFunc(authHandler.HandleRegister)))
	mux.Handle("POST /logout", optional(authHandler.HandleLogout))

	mux.Handle("GET /profile", protected(profileHandler.HandleProfile))
	mux.Handle("GET /profile/personal/edit", protected(profileHandler.HandleEditPersonal))
	mux.Handle("POST /profile/personal", protected(profileHandler.HandleUpdatePersonal))
	mux.Handle("GET /profile/cv", protected(profileHandler.HandleDownloadCV))
	mux.Handle("POST /profile/cv", protected(profileHandler.HandleUploadCV))
	mux.Handle("POST /profile/cv/delete", protected(profileHandler.HandleRemoveCV))

	mux.Handle("GET /profile/education/new", protected(educationHandler.HandleNew))
	mux.Handle("GET /profile/education/{id}/edit", protected(educationHandler.HandleEdit))
	mux.Handle("POST /profile/education", protected(educationHandler.HandleCreate))
	mux.Handle("POST /profile/education/{id}", protected(educationHandler.HandleUpdate))
	mux.Handle("POST /profile/education/{id}/delete", protected(educationHandler.HandleDelete))

	mux.Handle("GET /profile/experience/new", protected(experienceHandler.HandleNew))
	mux.Handle("GET /profile/experience/{id}/edit", protected(experienceHandler.HandleEdit))
	mux.Handle("POST /profile/experience", protected(experienceHandler.HandleCreate))
	mux.Handle("POST /profile/experience/{id}", protected(experienceHandler.HandleUpdate))
	mux.Handle("POST /profile/experience/{id}/delete", protected(experienceHandler.HandleDelete))

	mux.Handle("GET /admin", admin(adminHandler.HandlePanel))
	mux.Handle("GET /admin/users/{id}/detail", admin(adminHandler.HandleToggleDetail))
	mux.Handle("GET /admin/users/{id}/cv", admin(adminHandler.HandleDownloadCV))
	mux.Handle("POST /admin/users/{id}/delete", admin(adminHandler.HandleDeleteUser))
}

// Middleware wraps the mux with the per-request stack: security headers,
// correlation id, request logging and metrics. Metrics sit next to the mux
// so they see the matched route pattern.
func Middleware(mux http.Handler, m *metrics.Metrics) http.Handler {
	return SecurityHeaders(CorrelationID(RequestLogger(m.Middleware(mux))))
}
