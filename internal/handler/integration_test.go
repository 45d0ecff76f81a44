package handler_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/msomdec/solifound/internal/form"
	"github.com/msomdec/solifound/internal/handler"
)

const samplePDF = "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n"

func newTestServer(t *testing.T) (*httptest.Server, handler.Services) {
	t.Helper()
	s := newTestServices(t)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, s)

	srv := httptest.NewServer(handler.Middleware(mux, s.Metrics))
	t.Cleanup(srv.Close)
	return srv, s
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("create cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse // don't follow redirects automatically
		},
	}
}

func registerForm(nombre, email string) url.Values {
	return url.Values{
		"nombre":          {nombre},
		"apellido":        {"Pérez"},
		"email":           {email},
		"telefono":        {"600111222"},
		"password":        {"password123"},
		"confirmPassword": {"password123"},
		"terms":           {"on"},
	}
}

// register signs up through the HTTP form and leaves the session cookie in
// the client's jar.
func register(t *testing.T, client *http.Client, srv *httptest.Server, nombre, email string) {
	t.Helper()
	resp, err := client.PostForm(srv.URL+"/registro", registerForm(nombre, email))
	if err != nil {
		t.Fatalf("POST /registro: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("register: expected 303 redirect, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/profile" {
		t.Fatalf("register: expected redirect to /profile, got %s", loc)
	}
}

func get(t *testing.T, client *http.Client, target string) (int, string) {
	t.Helper()
	resp, err := client.Get(target)
	if err != nil {
		t.Fatalf("GET %s: %v", target, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func postForm(t *testing.T, client *http.Client, target string, values url.Values, datastar bool) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if datastar {
		req.Header.Set("Datastar-Request", "true")
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", target, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

// ownerID resolves the identity id behind an email through a fresh sign-in.
func ownerID(t *testing.T, s handler.Services, email string) string {
	t.Helper()
	session, err := s.Auth.Login(context.Background(), form.LoginInput{Email: email, Password: "password123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return session.Identity.ID
}

func TestIntegration_RegisterProfileLogout(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newClient(t)

	register(t, client, srv, "Lucía", "lucia@example.com")

	status, body := get(t, client, srv.URL+"/profile")
	if status != http.StatusOK {
		t.Fatalf("profile: expected 200, got %d", status)
	}
	if !strings.Contains(body, "Lucía Pérez") {
		t.Fatal("profile: expected the user's full name")
	}

	resp, _ := postForm(t, client, srv.URL+"/logout", nil, false)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("logout: expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/login" {
		t.Fatalf("logout: expected redirect to /login, got %s", loc)
	}

	resp, err := client.Get(srv.URL + "/profile")
	if err != nil {
		t.Fatalf("GET /profile: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("profile after logout: expected 303, got %d", resp.StatusCode)
	}
}

func TestIntegration_LoginErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newClient(t)
	register(t, client, srv, "Ana", "ana@example.com")

	other := newClient(t)
	resp, body := postForm(t, other, srv.URL+"/login", url.Values{
		"email":    {"ana@example.com"},
		"password": {"wrong-password"},
	}, false)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad credentials: expected 401, got %d", resp.StatusCode)
	}
	if strings.Contains(body, "wrong-password") {
		t.Fatal("login page must not echo the password")
	}

	resp, _ = postForm(t, other, srv.URL+"/login", url.Values{
		"email":    {"not-an-email"},
		"password": {"password123"},
	}, false)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("invalid email: expected 422, got %d", resp.StatusCode)
	}

	resp, _ = postForm(t, other, srv.URL+"/login", url.Values{
		"email":    {"ana@example.com"},
		"password": {"password123"},
	}, false)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login: expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/profile" {
		t.Fatalf("login: expected redirect to /profile, got %s", loc)
	}
}

func TestIntegration_DuplicateRegistration(t *testing.T) {
	srv, _ := newTestServer(t)
	register(t, newClient(t), srv, "Ana", "dup@example.com")

	resp, body := postForm(t, newClient(t), srv.URL+"/registro", registerForm("Ana", "dup@example.com"), false)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate registration: expected 409, got %d", resp.StatusCode)
	}
	if strings.Contains(body, "password123") {
		t.Fatal("registration page must not echo the password")
	}
}

func TestIntegration_RegistrationRequiresTerms(t *testing.T) {
	srv, _ := newTestServer(t)

	values := registerForm("Ana", "terms@example.com")
	values.Del("terms")
	resp, _ := postForm(t, newClient(t), srv.URL+"/registro", values, false)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestIntegration_EducationCRUD(t *testing.T) {
	srv, s := newTestServer(t)
	client := newClient(t)
	register(t, client, srv, "Marta", "marta@example.com")

	// Invalid dates are rejected with the form re-rendered.
	resp, body := postForm(t, client, srv.URL+"/profile/education", url.Values{
		"titulo":       {"Grado en Historia"},
		"institucion":  {"Universidad de Sevilla"},
		"fecha_inicio": {"2999-01-01"},
	}, false)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("future start: expected 422, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "La fecha de inicio no puede ser futura") {
		t.Fatal("future start: expected the date error message")
	}

	// Plain form post.
	resp, _ = postForm(t, client, srv.URL+"/profile/education", url.Values{
		"titulo":       {"Grado en Historia"},
		"institucion":  {"Universidad de Sevilla"},
		"fecha_inicio": {"2015-09-01"},
		"fecha_fin":    {"2019-06-30"},
	}, false)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("create: expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/profile?tab=education" {
		t.Fatalf("create: unexpected redirect %s", loc)
	}

	_, body = get(t, client, srv.URL+"/profile?tab=education")
	if !strings.Contains(body, "Grado en Historia") {
		t.Fatal("education tab: expected the new record")
	}

	// Datastar post streams the new row instead of redirecting.
	resp, body = postForm(t, client, srv.URL+"/profile/education", url.Values{
		"titulo":       {"Máster en Archivística"},
		"institucion":  {"Universidad de Granada"},
		"fecha_inicio": {"2020-09-01"},
	}, true)
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("datastar create: expected SSE, got %q", ct)
	}
	if !strings.Contains(body, "datastar-patch-elements") || !strings.Contains(body, "Máster en Archivística") {
		t.Fatalf("datastar create: expected a patch with the new row, got:\n%s", body)
	}

	owner := ownerID(t, s, "marta@example.com")
	records, err := s.Education.List(context.Background(), owner)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	var id string
	for _, e := range records {
		if e.Titulo == "Grado en Historia" {
			id = e.ID
		}
	}

	status, body := get(t, client, srv.URL+"/profile/education/"+id+"/edit")
	if status != http.StatusOK {
		t.Fatalf("edit: expected 200, got %d", status)
	}
	if !strings.Contains(body, "/profile/education/"+id) {
		t.Fatal("edit: expected the form to post to the record's URL")
	}

	status, _ = get(t, client, srv.URL+"/profile/education/does-not-exist/edit")
	if status != http.StatusNotFound {
		t.Fatalf("edit missing: expected 404, got %d", status)
	}

	resp, _ = postForm(t, client, srv.URL+"/profile/education/"+id, url.Values{
		"titulo":       {"Grado en Historia del Arte"},
		"institucion":  {"Universidad de Sevilla"},
		"fecha_inicio": {"2015-09-01"},
		"fecha_fin":    {"2019-06-30"},
	}, false)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("update: expected 303, got %d", resp.StatusCode)
	}
	_, body = get(t, client, srv.URL+"/profile?tab=education")
	if !strings.Contains(body, "Grado en Historia del Arte") {
		t.Fatal("update: expected the edited title")
	}

	_, body = postForm(t, client, srv.URL+"/profile/education/"+id+"/delete", nil, true)
	if !strings.Contains(body, "education-"+id) {
		t.Fatalf("delete: expected the row to be removed, got:\n%s", body)
	}

	records, err = s.Education.List(context.Background(), owner)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record after delete, got %d", len(records))
	}
}

func TestIntegration_ExperienceCurrentJob(t *testing.T) {
	srv, s := newTestServer(t)
	client := newClient(t)
	register(t, client, srv, "Pablo", "pablo@example.com")

	resp, _ := postForm(t, client, srv.URL+"/profile/experience", url.Values{
		"empresa":        {"Cooperativa Sur"},
		"puesto":         {"Técnico"},
		"fecha_inicio":   {"2021-03-01"},
		"fecha_fin":      {"2022-01-01"},
		"is_current_job": {"on"},
	}, false)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("create: expected 303, got %d", resp.StatusCode)
	}

	records, err := s.Experience.List(context.Background(), ownerID(t, s, "pablo@example.com"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if !records[0].IsCurrentJob || records[0].FechaFin != "" {
		t.Fatalf("expected a current job without end date, got %+v", records[0])
	}

	_, body := get(t, client, srv.URL+"/profile?tab=experience")
	if !strings.Contains(body, "Actualidad") {
		t.Fatal("experience tab: expected the ongoing period")
	}
}

func TestIntegration_PersonalInfo(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newClient(t)
	register(t, client, srv, "Irene", "irene@example.com")

	// Without Datastar the edit link falls back to the profile page with the
	// form open.
	resp, err := client.Get(srv.URL + "/profile/personal/edit")
	if err != nil {
		t.Fatalf("GET /profile/personal/edit: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("edit: expected 303, got %d", resp.StatusCode)
	}
	loc := resp.Header.Get("Location")
	if loc != "/profile?tab=personal&edit=1" {
		t.Fatalf("edit: unexpected redirect %s", loc)
	}
	status, body := get(t, client, srv.URL+loc)
	if status != http.StatusOK {
		t.Fatalf("edit page: expected 200, got %d", status)
	}
	if !strings.Contains(body, "/profile/personal") {
		t.Fatal("edit page: expected the personal form")
	}

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/profile/personal/edit", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Datastar-Request", "true")
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("GET /profile/personal/edit (datastar): %v", err)
	}
	sse, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(sse), "datastar-patch-elements") || !strings.Contains(string(sse), "/profile/personal") {
		t.Fatalf("datastar edit: expected the form patch, got:\n%s", sse)
	}

	resp, _ = postForm(t, client, srv.URL+"/profile/personal", url.Values{
		"nacionalidad":      {"Española"},
		"residencia":        {"Cádiz"},
		"tipo_documento":    {"DNI"},
		"numero_documento":  {"12345678Z"},
		"situacion_laboral": {"Desempleado"},
	}, false)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("update: expected 303, got %d", resp.StatusCode)
	}

	_, body = get(t, client, srv.URL+"/profile")
	if !strings.Contains(body, "Cádiz") || !strings.Contains(body, "12345678Z") {
		t.Fatal("profile: expected the updated personal information")
	}

	resp, body = postForm(t, client, srv.URL+"/profile/personal", url.Values{
		"tipo_documento": {"Pasaporte"},
	}, false)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("invalid document type: expected 422, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "El tipo de documento no es válido") {
		t.Fatal("invalid document type: expected the field error")
	}
}

func uploadCV(t *testing.T, client *http.Client, target, contentType, data string) (int, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="cv"; filename="cv.pdf"`},
		"Content-Type":        {contentType},
	})
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	part.Write([]byte(data))
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, target, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", target, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestIntegration_CVUploadDownloadRemove(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newClient(t)
	register(t, client, srv, "Elena", "elena@example.com")

	status, _ := get(t, client, srv.URL+"/profile/cv")
	if status != http.StatusNotFound {
		t.Fatalf("download before upload: expected 404, got %d", status)
	}

	status, body := uploadCV(t, client, srv.URL+"/profile/cv", "text/plain", "just some text")
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("non-pdf upload: expected 422, got %d", status)
	}
	if !strings.Contains(body, "Por favor, sube un archivo PDF") {
		t.Fatal("non-pdf upload: expected the PDF error")
	}

	status, _ = uploadCV(t, client, srv.URL+"/profile/cv", "application/pdf", samplePDF)
	if status != http.StatusSeeOther {
		t.Fatalf("upload: expected 303, got %d", status)
	}

	resp, err := client.Get(srv.URL + "/profile/cv")
	if err != nil {
		t.Fatalf("GET /profile/cv: %v", err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download: expected 200, got %d", resp.StatusCode)
	}
	if string(data) != samplePDF {
		t.Fatal("download: body differs from the upload")
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Fatalf("download: expected an attachment, got %q", cd)
	}

	r, _ := postForm(t, client, srv.URL+"/profile/cv/delete", nil, false)
	if r.StatusCode != http.StatusSeeOther {
		t.Fatalf("remove: expected 303, got %d", r.StatusCode)
	}
	status, _ = get(t, client, srv.URL+"/profile/cv")
	if status != http.StatusNotFound {
		t.Fatalf("download after remove: expected 404, got %d", status)
	}
}

func TestIntegration_CVUploadOverLimit(t *testing.T) {
	srv, s := newTestServer(t)
	client := newClient(t)
	register(t, client, srv, "Rosa", "rosa@example.com")

	// Larger than the 5MB ceiling plus the multipart allowance, so the body
	// is cut off before the upload rules see it.
	big := samplePDF + strings.Repeat("0", 7<<20)
	status, body := uploadCV(t, client, srv.URL+"/profile/cv", "application/pdf", big)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("oversized upload: expected 422, got %d", status)
	}
	if !strings.Contains(body, "El archivo no debe superar los 5MB") {
		t.Fatal("oversized upload: expected the size error")
	}

	profile, err := s.Profiles.Get(context.Background(), ownerID(t, s, "rosa@example.com"))
	if err != nil {
		t.Fatalf("Get profile: %v", err)
	}
	if profile.CV() != nil {
		t.Fatal("oversized upload must not be stored")
	}
}

func TestIntegration_AdminAccess(t *testing.T) {
	srv, s := newTestServer(t)

	member := newClient(t)
	register(t, member, srv, "Carlos", "carlos@example.com")

	status, body := get(t, member, srv.URL+"/admin")
	if status != http.StatusForbidden {
		t.Fatalf("non-admin: expected 403, got %d", status)
	}
	if !strings.Contains(body, "Acceso Denegado") {
		t.Fatal("non-admin: expected the access denied page")
	}

	admin := newClient(t)
	register(t, admin, srv, "Admin", testAdminEmail)

	status, body = get(t, admin, srv.URL+"/admin")
	if status != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d", status)
	}
	if !strings.Contains(body, "carlos@example.com") {
		t.Fatal("admin: expected the member in the users table")
	}

	status, body = get(t, admin, srv.URL+"/admin?tab=ofertas")
	if status != http.StatusOK || !strings.Contains(body, "Sección en desarrollo") {
		t.Fatalf("admin ofertas tab: got %d", status)
	}

	id := ownerID(t, s, "carlos@example.com")

	status, body = get(t, admin, srv.URL+"/admin?tab=users&selected="+id)
	if status != http.StatusOK || !strings.Contains(body, "user-"+id+"-detail") {
		t.Fatalf("admin selected: expected the detail row, got %d", status)
	}

	resp, _ := postForm(t, admin, srv.URL+"/admin/users/"+id+"/delete", nil, false)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("delete without confirm: expected 400, got %d", resp.StatusCode)
	}

	resp, _ = postForm(t, member, srv.URL+"/admin/users/"+id+"/delete", url.Values{"confirm": {"yes"}}, false)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("member delete: expected 403, got %d", resp.StatusCode)
	}

	resp, _ = postForm(t, admin, srv.URL+"/admin/users/"+id+"/delete", url.Values{"confirm": {"yes"}}, false)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("delete: expected 303, got %d", resp.StatusCode)
	}

	_, body = get(t, admin, srv.URL+"/admin")
	if strings.Contains(body, "carlos@example.com") {
		t.Fatal("deleted user still listed")
	}

	// The deleted user's session no longer resolves.
	status, _ = get(t, member, srv.URL+"/profile")
	if status != http.StatusSeeOther {
		t.Fatalf("deleted user: expected redirect to login, got %d", status)
	}
}

func TestIntegration_MetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newClient(t)

	get(t, client, srv.URL+"/login")
	status, body := get(t, client, srv.URL+"/metrics")
	if status != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", status)
	}
	if !strings.Contains(body, `solifound_http_requests_total{method="GET",path="GET /login",status="200"}`) {
		t.Fatalf("metrics: expected the login request counter, got:\n%s", body)
	}
}
