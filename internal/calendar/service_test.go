package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/spec-kit/frontdesk/internal/auth"
	"github.com/spec-kit/frontdesk/internal/domain"
)

type memoryConnections struct {
	mu    sync.Mutex
	conns map[string]domain.CalendarConnection
}

func connKey(staffID string, provider domain.CalendarProvider) string {
	return staffID + "/" + string(provider)
}

func (m *memoryConnections) Upsert(_ context.Context, conn *domain.CalendarConnection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn.UpdatedAt = time.Now()
	m.conns[connKey(conn.StaffID, conn.Provider)] = *conn
	return nil
}

func (m *memoryConnections) Get(_ context.Context, staffID string, provider domain.CalendarProvider) (*domain.CalendarConnection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conns[connKey(staffID, provider)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &c, nil
}

func (m *memoryConnections) ListForStaff(_ context.Context, staffID string) ([]domain.CalendarConnection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CalendarConnection
	for _, c := range m.conns {
		if c.StaffID == staffID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memoryConnections) Delete(_ context.Context, staffID string, provider domain.CalendarProvider) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := connKey(staffID, provider)
	_, ok := m.conns[k]
	delete(m.conns, k)
	return ok, nil
}

type onceSet struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (o *onceSet) ClaimOnce(_ context.Context, key string, _ time.Duration) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.seen[key] {
		return false, nil
	}
	o.seen[key] = true
	return true, nil
}

// fakeProvider serves the OAuth token endpoint, the Google Calendar API and
// Microsoft Graph from one test server.
type fakeProvider struct {
	mu          sync.Mutex
	googleEvent map[string]any
	graphEvent  graphEvent
	deleted     []string
	authHeaders []string
}

func (p *fakeProvider) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"access-1","refresh_token":"refresh-1","token_type":"Bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/google/calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		p.record(r)
		p.mu.Lock()
		_ = json.NewDecoder(r.Body).Decode(&p.googleEvent)
		p.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"google-evt"}`)
	})
	mux.HandleFunc("/graph/me/events", func(w http.ResponseWriter, r *http.Request) {
		p.record(r)
		p.mu.Lock()
		_ = json.NewDecoder(r.Body).Decode(&p.graphEvent)
		p.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"graph-evt"}`)
	})
	mux.HandleFunc("/graph/me/events/", func(w http.ResponseWriter, r *http.Request) {
		p.record(r)
		p.mu.Lock()
		p.deleted = append(p.deleted, r.URL.Path)
		p.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func (p *fakeProvider) record(r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.authHeaders = append(p.authHeaders, r.Header.Get("Authorization"))
}

type fixture struct {
	svc      *Service
	conns    *memoryConnections
	provider *fakeProvider
	states   *auth.StateTokens
	box      *TokenBox
}

func newFixture(t *testing.T, providers ...domain.CalendarProvider) *fixture {
	t.Helper()
	provider := &fakeProvider{}
	server := httptest.NewServer(provider.handler(t))
	t.Cleanup(server.Close)

	box, err := NewTokenBox(bytes.Repeat([]byte{1}, 32))
	require.NoError(t, err)
	oauth := map[domain.CalendarProvider]*oauth2.Config{}
	for _, p := range providers {
		oauth[p] = &oauth2.Config{
			ClientID:     string(p) + "-client",
			ClientSecret: "secret",
			RedirectURL:  "https://desk.acme.test" + CallbackPath(p),
			Endpoint:     oauth2.Endpoint{AuthURL: server.URL + "/auth", TokenURL: server.URL + "/token"},
			Scopes:       []string{"calendar"},
		}
	}
	f := &fixture{
		conns:    &memoryConnections{conns: map[string]domain.CalendarConnection{}},
		provider: provider,
		states:   auth.NewStateTokens("state-secret", time.Minute),
		box:      box,
	}
	f.svc = NewService(Options{
		Repo:           f.conns,
		Box:            box,
		States:         f.states,
		Once:           &onceSet{seen: map[string]bool{}},
		OAuth:          oauth,
		GoogleEndpoint: server.URL + "/google/",
		GraphBaseURL:   server.URL + "/graph",
	})
	return f
}

func (f *fixture) connect(t *testing.T, staffID string, provider domain.CalendarProvider) {
	t.Helper()
	authURL, err := f.svc.AuthURL(staffID, provider)
	require.NoError(t, err)
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	got, err := f.svc.HandleCallback(context.Background(), provider, "good-code", u.Query().Get("state"), "")
	require.NoError(t, err)
	require.Equal(t, staffID, got)
}

func reason(err error) string {
	var cbErr *CallbackError
	if errors.As(err, &cbErr) {
		return cbErr.Reason
	}
	return ""
}

func TestService_AuthURL(t *testing.T) {
	f := newFixture(t, domain.CalendarGoogle)

	authURL, err := f.svc.AuthURL("staff-1", domain.CalendarGoogle)
	require.NoError(t, err)
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "google-client", q.Get("client_id"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	subject, err := f.states.Parse(q.Get("state"), "calendar:google")
	require.NoError(t, err)
	assert.Equal(t, "staff-1", subject)

	_, err = f.svc.AuthURL("staff-1", domain.CalendarOutlook)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestService_HandleCallbackStoresEncryptedTokens(t *testing.T) {
	f := newFixture(t, domain.CalendarGoogle)
	f.connect(t, "staff-1", domain.CalendarGoogle)

	conn, err := f.conns.Get(context.Background(), "staff-1", domain.CalendarGoogle)
	require.NoError(t, err)
	assert.NotContains(t, string(conn.AccessToken), "access-1")
	access, err := f.box.Open(conn.AccessToken, "staff-1|google")
	require.NoError(t, err)
	assert.Equal(t, "access-1", access)
	refresh, err := f.box.Open(conn.RefreshToken, "staff-1|google")
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", refresh)
	require.NotNil(t, conn.Expiry)

	status, err := f.svc.Status(context.Background(), "staff-1")
	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.True(t, status[0].Connected)
	assert.False(t, status[1].Available)
	assert.False(t, status[1].Connected)
}

func TestService_HandleCallbackFailures(t *testing.T) {
	f := newFixture(t, domain.CalendarGoogle)
	ctx := context.Background()
	state, err := f.states.Generate("staff-1", "calendar:google")
	require.NoError(t, err)

	_, err = f.svc.HandleCallback(ctx, domain.CalendarGoogle, "good-code", "garbage", "")
	assert.Equal(t, ReasonInvalidState, reason(err))

	outlookState, err := f.states.Generate("staff-1", "calendar:outlook")
	require.NoError(t, err)
	_, err = f.svc.HandleCallback(ctx, domain.CalendarGoogle, "good-code", outlookState, "")
	assert.Equal(t, ReasonInvalidState, reason(err))

	_, err = f.svc.HandleCallback(ctx, domain.CalendarGoogle, "bad-code", state, "")
	assert.Equal(t, ReasonExchangeFailed, reason(err))

	// A state is consumed by its first use, successful or not.
	_, err = f.svc.HandleCallback(ctx, domain.CalendarGoogle, "good-code", state, "")
	assert.Equal(t, ReasonInvalidState, reason(err))

	denied, err := f.states.Generate("staff-1", "calendar:google")
	require.NoError(t, err)
	staffID, err := f.svc.HandleCallback(ctx, domain.CalendarGoogle, "", denied, "access_denied")
	assert.Equal(t, ReasonDenied, reason(err))
	assert.Equal(t, "staff-1", staffID)

	_, err = f.svc.HandleCallback(ctx, domain.CalendarOutlook, "good-code", state, "")
	assert.Equal(t, ReasonUnavailable, reason(err))

	conns, err := f.conns.ListForStaff(ctx, "staff-1")
	require.NoError(t, err)
	assert.Empty(t, conns)
}

func testMeeting() domain.Meeting {
	start := time.Date(2025, 4, 2, 13, 0, 0, 0, time.UTC)
	room := "Room 4"
	return domain.Meeting{
		ID:        "meeting-1",
		Title:     "Vendor visit",
		StartsAt:  start,
		EndsAt:    start.Add(time.Hour),
		Location:  &room,
		Attendees: []string{"vera@guest.test"},
	}
}

func TestService_PushEventGoogle(t *testing.T) {
	f := newFixture(t, domain.CalendarGoogle, domain.CalendarOutlook)
	f.connect(t, "staff-1", domain.CalendarOutlook)
	f.connect(t, "staff-1", domain.CalendarGoogle)

	provider, id, err := f.svc.PushEvent(context.Background(), "staff-1", testMeeting())
	require.NoError(t, err)
	assert.Equal(t, domain.CalendarGoogle, provider)
	assert.Equal(t, "google-evt", id)
	assert.Equal(t, "Vendor visit", f.provider.googleEvent["summary"])
	assert.Equal(t, []string{"Bearer access-1"}, f.provider.authHeaders)
}

func TestService_PushAndDeleteOutlook(t *testing.T) {
	f := newFixture(t, domain.CalendarOutlook)
	f.connect(t, "staff-1", domain.CalendarOutlook)
	ctx := context.Background()

	provider, id, err := f.svc.PushEvent(ctx, "staff-1", testMeeting())
	require.NoError(t, err)
	assert.Equal(t, domain.CalendarOutlook, provider)
	assert.Equal(t, "graph-evt", id)
	assert.Equal(t, "Vendor visit", f.provider.graphEvent.Subject)
	assert.Equal(t, "2025-04-02T13:00:00", f.provider.graphEvent.Start.DateTime)
	require.Len(t, f.provider.graphEvent.Attendees, 1)
	assert.Equal(t, "vera@guest.test", f.provider.graphEvent.Attendees[0].EmailAddress.Address)

	require.NoError(t, f.svc.DeleteEvent(ctx, "staff-1", domain.CalendarOutlook, id))
	assert.Equal(t, []string{"/graph/me/events/graph-evt"}, f.provider.deleted)

	removed, err := f.svc.Disconnect(ctx, "staff-1", domain.CalendarOutlook)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.ErrorIs(t, f.svc.DeleteEvent(ctx, "staff-1", domain.CalendarOutlook, id), ErrNotConnected)
}

func TestService_PushEventWithoutConnection(t *testing.T) {
	f := newFixture(t, domain.CalendarGoogle)

	_, _, err := f.svc.PushEvent(context.Background(), "staff-9", testMeeting())
	assert.ErrorIs(t, err, ErrNotConnected)
}
