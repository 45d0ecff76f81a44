package rest_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/msomdec/solifound/internal/domain"
	"github.com/msomdec/solifound/internal/repository/rest"
)

var (
	_ domain.IdentityService          = (*rest.IdentityService)(nil)
	_ domain.ProfileRepository        = (*rest.ProfileRepository)(nil)
	_ domain.EducationRepository      = (*rest.EducationRepository)(nil)
	_ domain.WorkExperienceRepository = (*rest.WorkExperienceRepository)(nil)
	_ domain.AchievementRepository    = (*rest.AchievementRepository)(nil)
)

const anonKey = "anon-key"

func newTestClient(t *testing.T, handler http.HandlerFunc) *rest.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := rest.New(rest.Config{URL: srv.URL, AnonKey: anonKey})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestNew_RequiresURLAndKey(t *testing.T) {
	if _, err := rest.New(rest.Config{AnonKey: anonKey}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without url, got %v", err)
	}
	if _, err := rest.New(rest.Config{URL: "http://localhost"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without key, got %v", err)
	}
}

func TestEducation_ListSendsOwnerFilterAndToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/education" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("apikey"); got != anonKey {
			t.Errorf("expected apikey header, got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer user-token" {
			t.Errorf("expected user bearer token, got %q", got)
		}
		q := r.URL.Query()
		if q.Get("user_id") != "eq.u1" || q.Get("order") != "fecha_inicio.desc" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		writeJSON(t, w, http.StatusOK, []map[string]any{
			{"id": "e1", "user_id": "u1", "titulo": "Grado", "institucion": "UCM", "fecha_inicio": "2018-09-01", "fecha_fin": nil},
		})
	})

	ctx := domain.WithAccessToken(context.Background(), "user-token")
	list, err := c.Education().ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 1 || list[0].ID != "e1" || !list[0].Ongoing() {
		t.Fatalf("unexpected records %+v", list)
	}
}

func TestEducation_AnonymousFallsBackToAPIKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer "+anonKey {
			t.Errorf("expected anon bearer, got %q", got)
		}
		writeJSON(t, w, http.StatusOK, []any{})
	})

	if _, err := c.Education().ListByUser(context.Background(), "u1"); err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
}

func TestWorkExperience_UpdateFiltersByIDAndOwner(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		q := r.URL.Query()
		if q.Get("id") != "eq.w1" {
			t.Errorf("unexpected id filter %q", q.Get("id"))
		}
		if q.Get("user_id") != "eq.u1" {
			t.Errorf("unexpected owner filter %q", q.Get("user_id"))
		}
		if r.Header.Get("Prefer") != "return=representation" {
			t.Errorf("expected representation preference")
		}

		var body map[string]any
		data, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(data, &body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["fecha_fin"] != nil {
			t.Errorf("expected null fecha_fin for current job, got %v", body["fecha_fin"])
		}
		writeJSON(t, w, http.StatusOK, []any{})
	})

	w := &domain.WorkExperience{ID: "w1", Empresa: "Acme", Puesto: "Dev", FechaInicio: "2021-01-01", FechaFin: "2022-01-01", IsCurrentJob: true}
	err := c.WorkExperience().Update(context.Background(), "u1", w)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound when no row matched, got %v", err)
	}
}

func TestEducation_CreateReturnsStoredRecord(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var rows []map[string]any
		if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if len(rows) != 1 || rows[0]["user_id"] != "u1" {
			t.Errorf("expected one row owned by u1, got %v", rows)
		}
		if _, ok := rows[0]["id"]; ok {
			t.Errorf("expected id to be assigned by the store")
		}
		rows[0]["id"] = "new-id"
		writeJSON(t, w, http.StatusCreated, rows)
	})

	e := &domain.Education{Titulo: "Máster", Institucion: "UPM", FechaInicio: "2020-09-01"}
	if err := c.Education().Create(context.Background(), "u1", e); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e.ID != "new-id" {
		t.Fatalf("expected stored id, got %q", e.ID)
	}
}

func TestAPIError_MapsToSentinels(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   map[string]any
		want   error
	}{
		{"unique violation", http.StatusConflict, map[string]any{"code": "23505", "message": "duplicate key"}, domain.ErrDuplicateEmail},
		{"no rows", http.StatusNotAcceptable, map[string]any{"code": "PGRST116", "message": "0 rows"}, domain.ErrNotFound},
		{"bad jwt", http.StatusUnauthorized, map[string]any{"code": "PGRST301", "message": "JWT expired"}, domain.ErrUnauthorized},
		{"invalid login", http.StatusBadRequest, map[string]any{"code": 400, "error_code": "invalid_credentials", "msg": "Invalid login credentials"}, domain.ErrUnauthorized},
		{"registered", http.StatusUnprocessableEntity, map[string]any{"code": 422, "msg": "User already registered"}, domain.ErrDuplicateEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, tt.status, tt.body)
			})

			_, err := c.Profiles().GetByUserID(context.Background(), "u1")
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var apiErr *rest.APIError
			if !errors.As(err, &apiErr) || apiErr.Status != tt.status {
				t.Fatalf("expected APIError with status %d, got %v", tt.status, err)
			}
		})
	}
}

func TestProfile_CVRoundTripIsBase64(t *testing.T) {
	payload := []byte("%PDF-1.4 test")
	var stored map[string]any

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPatch:
			if err := json.NewDecoder(r.Body).Decode(&stored); err != nil {
				t.Errorf("decode body: %v", err)
			}
			writeJSON(t, w, http.StatusOK, []map[string]any{{"user_id": "u1"}})
		case http.MethodGet:
			writeJSON(t, w, http.StatusOK, []map[string]any{{"cv_data": stored["cv_data"], "cv_filename": stored["cv_filename"]}})
		}
	})

	repo := c.Profiles()
	ctx := context.Background()
	upload := &domain.CVUpload{Filename: "cv.pdf", Data: payload, UpdatedAt: time.Now()}
	if err := repo.UpdateCV(ctx, "u1", upload); err != nil {
		t.Fatalf("UpdateCV: %v", err)
	}
	if stored["cv_data"] != base64.StdEncoding.EncodeToString(payload) {
		t.Fatalf("expected base64 payload, got %v", stored["cv_data"])
	}

	doc, err := repo.GetCV(ctx, "u1")
	if err != nil {
		t.Fatalf("GetCV: %v", err)
	}
	if string(doc.Data) != string(payload) || doc.Filename != "cv.pdf" {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestProfile_ClearCVSendsNulls(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		for _, k := range []string{"cv_data", "cv_filename", "cv_updated_at"} {
			v, ok := body[k]
			if !ok || v != nil {
				t.Errorf("expected %s to be null, got %v", k, v)
			}
		}
		writeJSON(t, w, http.StatusOK, []map[string]any{{"user_id": "u1"}})
	})

	if err := c.Profiles().UpdateCV(context.Background(), "u1", nil); err != nil {
		t.Fatalf("UpdateCV: %v", err)
	}
}

func TestIdentity_SignIn(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"access_token": "tok",
			"expires_in":   3600,
			"user":         map[string]any{"id": "u1", "email": "ana@example.com"},
		})
	})

	session, err := c.Identities().SignIn(context.Background(), "ana@example.com", "secret123")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if session.AccessToken != "tok" || session.Identity.ID != "u1" {
		t.Fatalf("unexpected session %+v", session)
	}
	if time.Until(session.ExpiresAt) <= 0 {
		t.Fatal("expected expiry in the future")
	}
}

func TestIdentity_DeleteRequiresServiceKey(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	err := c.Identities().DeleteIdentity(context.Background(), "u1")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no request, got %d", calls.Load())
	}
}

func TestIdentity_DeleteUsesServiceKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/auth/v1/admin/users/u1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer service-key" {
			t.Errorf("expected service key bearer, got %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c, err := rest.New(rest.Config{URL: srv.URL, AnonKey: anonKey, ServiceRoleKey: "service-key"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Identities().DeleteIdentity(context.Background(), "u1"); err != nil {
		t.Fatalf("DeleteIdentity: %v", err)
	}
}
