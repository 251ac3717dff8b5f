package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/frontdesk/internal/auth"
	"github.com/spec-kit/frontdesk/internal/calendar"
	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/service"
	apperrors "github.com/spec-kit/frontdesk/pkg/util/errorutil"
)

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		domainErr := apperrors.ToDomainError(err)
		return c.Status(domainErr.HTTPStatus).JSON(apperrors.Envelope(domainErr))
	}})
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	app := newApp()
	healthy := NewHealthHandler("frontdesk", "1.2.3", map[string]Pinger{"postgres": ok, "redis": ok})
	degraded := NewHealthHandler("frontdesk", "1.2.3", map[string]Pinger{"postgres": ok, "redis": down})
	app.Get("/live", healthy.Live)
	app.Get("/ready", healthy.Ready)
	app.Get("/degraded", degraded.Ready)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/live", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `"version":"1.2.3"`)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/degraded", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var body struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, apperrors.CodeUnavailable, body.Error.Code)
	assert.Equal(t, "ok", body.Error.Details["postgres"])
	assert.Equal(t, "connection refused", body.Error.Details["redis"])
}

type fakeCallbacks struct {
	staffID string
	err     error
	got     struct{ code, state, providerErr string }
}

func (f *fakeCallbacks) HandleCallback(_ context.Context, _ domain.CalendarProvider, code, state, providerErr string) (string, error) {
	f.got.code, f.got.state, f.got.providerErr = code, state, providerErr
	return f.staffID, f.err
}

type fakeDisconnector struct {
	actor    *domain.Staff
	provider domain.CalendarProvider
}

func (f *fakeDisconnector) DisconnectCalendar(_ context.Context, actor *domain.Staff, provider domain.CalendarProvider) (bool, error) {
	if !provider.Valid() {
		return false, apperrors.NewValidationError("unknown calendar provider", nil)
	}
	f.actor, f.provider = actor, provider
	return true, nil
}

func TestCalendarCallbackRedirects(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		location string
	}{
		{name: "connected", location: "/employee/settings?calendar=connected"},
		{
			name:     "denied",
			err:      &calendar.CallbackError{Reason: calendar.ReasonDenied},
			location: "/employee/settings?calendar=error&reason=access_denied",
		},
		{
			name:     "unexpected error",
			err:      errors.New("boom"),
			location: "/employee/settings?calendar=error&reason=exchange_failed",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			callbacks := &fakeCallbacks{staffID: "staff-1", err: tc.err}
			h := NewCalendarHandler(callbacks, &fakeDisconnector{}, nil)
			app := newApp()
			app.Get("/cb", h.Callback(domain.CalendarGoogle))

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/cb?code=abc&state=xyz", nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, tc.location, resp.Header.Get("Location"))
			assert.Equal(t, "abc", callbacks.got.code)
			assert.Equal(t, "xyz", callbacks.got.state)
		})
	}
}

func TestCalendarDisconnect(t *testing.T) {
	meetings := &fakeDisconnector{}
	h := NewCalendarHandler(&fakeCallbacks{}, meetings, nil)
	app := newApp()
	app.Use(func(c *fiber.Ctx) error {
		if c.Get("X-Test-User") != "" {
			auth.WithRequestContext(c, &auth.RequestContext{UserID: c.Get("X-Test-User")})
			if c.Get("X-Test-Staff") != "" {
				auth.WithStaff(c, &domain.Staff{ID: c.Get("X-Test-Staff"), Role: domain.StaffRoleEmployee, Active: true})
			}
		}
		return c.Next()
	})
	app.Post("/disconnect", h.Disconnect)

	post := func(body string, headers map[string]string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/disconnect", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	resp := post(`{"provider":"google"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post(`{"provider":"google"}`, map[string]string{"X-Test-User": "user_1"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = post(`{"provider":"yahoo"}`, map[string]string{"X-Test-User": "user_1", "X-Test-Staff": "staff-1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(`{"provider":"outlook"}`, map[string]string{"X-Test-User": "user_1", "X-Test-Staff": "staff-1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"data":{"success":true,"removed":true}}`, readBody(t, resp))
	require.NotNil(t, meetings.actor)
	assert.Equal(t, "staff-1", meetings.actor.ID)
	assert.Equal(t, domain.CalendarOutlook, meetings.provider)
}

type fakeUploader struct {
	got []byte
	err error
}

func (f *fakeUploader) Upload(_ context.Context, body io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.got = data
	return "https://cdn.example.com/uploads/photo.png", nil
}

func multipartRequest(t *testing.T, field string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, "photo.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUploadHandler(t *testing.T) {
	uploads := &fakeUploader{}
	app := newApp()
	app.Post("/upload", NewUploadHandler(uploads).Upload)

	resp, err := app.Test(multipartRequest(t, "file", []byte("png-bytes")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"data":{"url":"https://cdn.example.com/uploads/photo.png"}}`, readBody(t, resp))
	assert.Equal(t, []byte("png-bytes"), uploads.got)

	resp, err = app.Test(multipartRequest(t, "attachment", []byte("png-bytes")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	uploads.err = apperrors.NewUnsupportedMediaType("file type not allowed", nil)
	resp, err = app.Test(multipartRequest(t, "file", []byte("text")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), apperrors.CodeUnsupportedType)
}

type fakeResponder struct {
	info      *service.TokenInfo
	verifyErr error
	result    *service.RespondResult
	err       error
	calls     []domain.VisitorAction
	tokens    []string
}

func (f *fakeResponder) VerifyToken(_ context.Context, _ string) (*service.TokenInfo, error) {
	return f.info, f.verifyErr
}

func (f *fakeResponder) Respond(_ context.Context, token string, action domain.VisitorAction) (*service.RespondResult, error) {
	f.calls = append(f.calls, action)
	f.tokens = append(f.tokens, token)
	return f.result, f.err
}

func TestVisitorResponseAutoResponds(t *testing.T) {
	visitors := &fakeResponder{result: &service.RespondResult{
		Visitor: &domain.Visitor{Name: "Ada Lovelace", Status: domain.VisitorStatusApproved},
	}}
	h := NewVisitorResponseHandler(visitors, "frontdesk", nil)
	app := newApp()
	app.Get("/visitor-response", h.Show)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/visitor-response?token=tok&action=accept", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	body := readBody(t, resp)
	assert.Contains(t, body, "Ada Lovelace has been approved")
	assert.Equal(t, []domain.VisitorAction{domain.VisitorActionAccept}, visitors.calls)
	assert.Equal(t, []string{"tok"}, visitors.tokens)
}

func TestVisitorResponseAlreadyAnswered(t *testing.T) {
	visitors := &fakeResponder{result: &service.RespondResult{
		Visitor:          &domain.Visitor{Name: "Ada", Status: domain.VisitorStatusDeclined},
		AlreadyResponded: true,
	}}
	app := newApp()
	app.Get("/visitor-response", NewVisitorResponseHandler(visitors, "frontdesk", nil).Show)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/visitor-response?token=tok&action=accept", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Ada was already declined")
}

func TestVisitorResponseForm(t *testing.T) {
	company := "Analytical Engines"
	visitors := &fakeResponder{info: &service.TokenInfo{
		Visitor: &domain.Visitor{Name: "Ada", Company: &company, Purpose: "Interview"},
	}}
	app := newApp()
	h := NewVisitorResponseHandler(visitors, "frontdesk", nil)
	app.Get("/visitor-response", h.Show)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/visitor-response?token=tok", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, `action="/visitor-response"`)
	assert.Contains(t, body, `value="tok"`)
	assert.Contains(t, body, "from Analytical Engines")
	assert.Empty(t, visitors.calls)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/visitor-response", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotContains(t, readBody(t, resp), "<form")

	visitors.verifyErr = apperrors.NewUnauthorized("invalid or expired link")
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/visitor-response?token=bad", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body = readBody(t, resp)
	assert.Contains(t, body, "invalid or expired link")
	assert.NotContains(t, body, "<form")
}

func TestVisitorResponseSubmit(t *testing.T) {
	visitors := &fakeResponder{result: &service.RespondResult{
		Visitor: &domain.Visitor{Name: "Ada", Status: domain.VisitorStatusDeclined},
	}}
	app := newApp()
	app.Post("/visitor-response", NewVisitorResponseHandler(visitors, "frontdesk", nil).Submit)

	form := url.Values{"token": {"tok"}, "action": {"decline"}}
	req := httptest.NewRequest(http.MethodPost, "/visitor-response", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Ada has been declined")
	assert.Equal(t, []domain.VisitorAction{domain.VisitorActionDecline}, visitors.calls)

	visitors.err = apperrors.NewForbidden("this link does not allow that action")
	req = httptest.NewRequest(http.MethodPost, "/visitor-response", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "this link does not allow that action")
}

func TestPagesHandler(t *testing.T) {
	hosted := NewPagesHandler(PagesConfig{AppName: "frontdesk", SignInURL: "https://accounts.example.com/sign-in"})
	local := NewPagesHandler(PagesConfig{AppName: "frontdesk", Development: true})

	app := newApp()
	app.Get("/hosted/sign-in", hosted.SignIn)
	app.Get("/local/sign-in", local.SignIn)
	app.Get("/dashboard/*", hosted.Shell("admin", "Dashboard"))
	app.Get("/manifest.json", hosted.Manifest)
	app.Get("/prod/sw.js", hosted.ServiceWorker)
	app.Get("/dev/sw.js", local.ServiceWorker)

	target := url.QueryEscape("http://localhost:8080/dashboard")
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/hosted/sign-in?redirect_url="+target, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://accounts.example.com/sign-in?redirect_url="+target, resp.Header.Get("Location"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/local/sign-in", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `data-section="sign-in"`)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/dashboard/visitors", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, `data-path="/dashboard/visitors"`)
	assert.Contains(t, body, "<title>Dashboard · frontdesk</title>")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/manifest.json", nil))
	require.NoError(t, err)
	assert.Equal(t, "application/manifest+json", resp.Header.Get("Content-Type"))
	var manifest map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&manifest))
	assert.Equal(t, "standalone", manifest["display"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/prod/sw.js", nil))
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), "caches.match")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/dev/sw.js", nil))
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), "registration.unregister")
}
