package handler

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/msomdec/solifound/internal/domain"
	"github.com/msomdec/solifound/internal/logging"
	"github.com/msomdec/solifound/internal/service"
)

const authCookie = "auth_token"

type contextKey string

const principalContextKey contextKey = "principal"

// PrincipalFromContext extracts the authenticated caller from the request
// context. Returns nil if no caller is authenticated.
func PrincipalFromContext(ctx context.Context) *service.Principal {
	p, _ := ctx.Value(principalContextKey).(*service.Principal)
	return p
}

// withPrincipal stores p and its access token, which the backend forwards on
// every call made for this request.
func withPrincipal(ctx context.Context, p *service.Principal) context.Context {
	ctx = context.WithValue(ctx, principalContextKey, p)
	return domain.WithAccessToken(ctx, p.AccessToken)
}

// RequireAuth protects pages that need a signed-in caller. It reads the
// auth_token cookie, resolves it through the identity service and injects
// the principal into the request context. Anonymous callers are sent to
// /login.
func RequireAuth(auth *service.AuthService, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := authenticateRequest(r, auth)
		if err != nil {
			if !errors.Is(err, http.ErrNoCookie) && !errors.Is(err, domain.ErrUnauthorized) {
				slog.ErrorContext(r.Context(), "authenticate request", "error", err)
			}
			redirect(w, r, "/login")
			return
		}
		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
	})
}

// OptionalAuth attempts to authenticate but never blocks the request.
func OptionalAuth(auth *service.AuthService, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, err := authenticateRequest(r, auth); err == nil {
			r = r.WithContext(withPrincipal(r.Context(), p))
		}
		next.ServeHTTP(w, r)
	})
}

func authenticateRequest(r *http.Request, auth *service.AuthService) (*service.Principal, error) {
	cookie, err := r.Cookie(authCookie)
	if err != nil {
		return nil, err
	}
	return auth.Authenticate(r.Context(), cookie.Value)
}

// RateLimit rejects requests once the client's bucket is empty. A nil
// limiter lets everything through.
func RateLimit(limiter *service.TokenBucket, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow(clientIP(r)) {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SecurityHeaders sets conservative browser security headers on every
// response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// CorrelationID makes sure every request carries an X-Correlation-ID and
// stores it in the request context for logging.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Correlation-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Correlation-ID", id)
		next.ServeHTTP(w, r.WithContext(logging.WithCorrelationID(r.Context(), id)))
	})
}

// RequestLogger logs method, path, status and latency of each request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		slog.InfoContext(r.Context(), "request completed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", sw.status),
			slog.Duration("latency", time.Since(start)),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// isDatastar reports whether the request came from a Datastar action and
// expects an SSE response.
func isDatastar(r *http.Request) bool {
	return r.Header.Get("Datastar-Request") == "true"
}

// redirect sends the browser to url, over SSE for Datastar requests.
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	if isDatastar(r) {
		sse := datastar.NewSSE(w, r)
		if err := sse.Redirect(url); err != nil {
			slog.ErrorContext(r.Context(), "sse redirect", "error", err)
		}
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
