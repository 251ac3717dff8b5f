// Package calendar connects staff calendars over OAuth and mirrors meetings
// into Google Calendar or Outlook.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/spec-kit/frontdesk/internal/auth"
	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/repository"
)

var (
	// ErrNotConnected means the staff member has no calendar linked.
	ErrNotConnected = errors.New("calendar: not connected")
	// ErrProviderUnavailable means the provider has no client credentials.
	ErrProviderUnavailable = errors.New("calendar: provider not configured")
)

// Callback failure reasons, surfaced in the settings redirect.
const (
	ReasonDenied         = "access_denied"
	ReasonInvalidState   = "invalid_state"
	ReasonExchangeFailed = "exchange_failed"
	ReasonUnavailable    = "not_configured"
	ReasonStorageFailed  = "storage_failed"
)

// CallbackError reports why a connection attempt failed.
type CallbackError struct {
	Reason string
	Err    error
}

func (e *CallbackError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("calendar callback %s: %v", e.Reason, e.Err)
	}
	return "calendar callback " + e.Reason
}

func (e *CallbackError) Unwrap() error { return e.Err }

// OnceClaimer makes OAuth states single use.
type OnceClaimer interface {
	ClaimOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// ConnectionStatus describes one provider for the settings page.
type ConnectionStatus struct {
	Provider    domain.CalendarProvider
	Available   bool
	Connected   bool
	ConnectedAt *time.Time
}

// Options configures the Service.
type Options struct {
	Repo   repository.CalendarConnectionRepository
	Box    *TokenBox
	States *auth.StateTokens
	Once   OnceClaimer
	Logger *zap.Logger
	// OAuth holds one client per configured provider.
	OAuth map[domain.CalendarProvider]*oauth2.Config
	// GoogleEndpoint and GraphBaseURL override the provider APIs.
	GoogleEndpoint string
	GraphBaseURL   string
}

// Service manages calendar connections and event sync.
type Service struct {
	repo    repository.CalendarConnectionRepository
	box     *TokenBox
	states  *auth.StateTokens
	once    OnceClaimer
	logger  *zap.Logger
	oauth   map[domain.CalendarProvider]*oauth2.Config
	pushers map[domain.CalendarProvider]eventPusher
}

// NewService constructs the service.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   opts.Repo,
		box:    opts.Box,
		states: opts.States,
		once:   opts.Once,
		logger: logger,
		oauth:  opts.OAuth,
		pushers: map[domain.CalendarProvider]eventPusher{
			domain.CalendarGoogle:  googlePusher{endpoint: opts.GoogleEndpoint},
			domain.CalendarOutlook: graphPusher{baseURL: opts.GraphBaseURL},
		},
	}
}

func statePurpose(provider domain.CalendarProvider) string {
	return "calendar:" + string(provider)
}

// AuthURL returns the provider consent URL for staffID.
func (s *Service) AuthURL(staffID string, provider domain.CalendarProvider) (string, error) {
	cfg, ok := s.oauth[provider]
	if !ok {
		return "", ErrProviderUnavailable
	}
	state, err := s.states.Generate(staffID, statePurpose(provider))
	if err != nil {
		return "", err
	}
	opts := []oauth2.AuthCodeOption{oauth2.AccessTypeOffline}
	if provider == domain.CalendarGoogle {
		opts = append(opts, oauth2.SetAuthURLParam("prompt", "consent"))
	}
	return cfg.AuthCodeURL(state, opts...), nil
}

// HandleCallback completes the OAuth flow and stores the encrypted tokens.
// It returns the staff id carried by state.
func (s *Service) HandleCallback(ctx context.Context, provider domain.CalendarProvider, code, state, providerErr string) (string, error) {
	cfg, ok := s.oauth[provider]
	if !ok {
		return "", &CallbackError{Reason: ReasonUnavailable}
	}
	claims, err := s.states.ParseClaims(state, statePurpose(provider))
	if err != nil {
		return "", &CallbackError{Reason: ReasonInvalidState, Err: err}
	}
	if s.once != nil {
		ttl := time.Until(claims.ExpiresAt.Time)
		if ttl <= 0 {
			ttl = time.Minute
		}
		first, err := s.once.ClaimOnce(ctx, "calendar:state:"+claims.ID, ttl)
		if err != nil {
			s.logger.Warn("calendar state replay check failed", zap.Error(err))
		} else if !first {
			return "", &CallbackError{Reason: ReasonInvalidState, Err: errors.New("state already used")}
		}
	}
	staffID := claims.Subject
	if providerErr != "" {
		return staffID, &CallbackError{Reason: ReasonDenied, Err: errors.New(providerErr)}
	}
	if code == "" {
		return staffID, &CallbackError{Reason: ReasonExchangeFailed, Err: errors.New("missing code")}
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return staffID, &CallbackError{Reason: ReasonExchangeFailed, Err: err}
	}
	if err := s.saveToken(ctx, staffID, provider, token); err != nil {
		return staffID, &CallbackError{Reason: ReasonStorageFailed, Err: err}
	}
	s.logger.Info("calendar connected", zap.String("staff_id", staffID), zap.String("provider", string(provider)))
	return staffID, nil
}

// Disconnect forgets the tokens of provider for staffID.
func (s *Service) Disconnect(ctx context.Context, staffID string, provider domain.CalendarProvider) (bool, error) {
	return s.repo.Delete(ctx, staffID, provider)
}

// Status lists every supported provider with its connection state.
func (s *Service) Status(ctx context.Context, staffID string) ([]ConnectionStatus, error) {
	conns, err := s.repo.ListForStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	byProvider := make(map[domain.CalendarProvider]domain.CalendarConnection, len(conns))
	for _, c := range conns {
		byProvider[c.Provider] = c
	}
	out := make([]ConnectionStatus, 0, 2)
	for _, p := range []domain.CalendarProvider{domain.CalendarGoogle, domain.CalendarOutlook} {
		_, available := s.oauth[p]
		status := ConnectionStatus{Provider: p, Available: available}
		if c, ok := byProvider[p]; ok {
			status.Connected = true
			connectedAt := c.UpdatedAt
			status.ConnectedAt = &connectedAt
		}
		out = append(out, status)
	}
	return out, nil
}

// PushEvent writes meeting to the organizer's connected calendar, preferring
// Google when both are linked.
func (s *Service) PushEvent(ctx context.Context, staffID string, meeting domain.Meeting) (domain.CalendarProvider, string, error) {
	conns, err := s.repo.ListForStaff(ctx, staffID)
	if err != nil {
		return "", "", err
	}
	sort.Slice(conns, func(i, j int) bool { return conns[i].Provider < conns[j].Provider })
	for _, conn := range conns {
		if _, ok := s.oauth[conn.Provider]; !ok {
			continue
		}
		client, err := s.client(ctx, &conn)
		if err != nil {
			return conn.Provider, "", err
		}
		id, err := s.pushers[conn.Provider].Insert(ctx, client, meeting)
		return conn.Provider, id, err
	}
	return "", "", ErrNotConnected
}

// DeleteEvent removes a previously pushed event.
func (s *Service) DeleteEvent(ctx context.Context, staffID string, provider domain.CalendarProvider, eventID string) error {
	if _, ok := s.oauth[provider]; !ok {
		return ErrProviderUnavailable
	}
	conn, err := s.repo.Get(ctx, staffID, provider)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotConnected
		}
		return err
	}
	client, err := s.client(ctx, conn)
	if err != nil {
		return err
	}
	return s.pushers[provider].Delete(ctx, client, eventID)
}

// client decrypts the stored token, refreshes it when needed and persists
// the refreshed token before returning an authorized client.
func (s *Service) client(ctx context.Context, conn *domain.CalendarConnection) (*http.Client, error) {
	cfg := s.oauth[conn.Provider]
	stored, err := s.openToken(conn)
	if err != nil {
		return nil, err
	}
	fresh, err := cfg.TokenSource(ctx, stored).Token()
	if err != nil {
		return nil, fmt.Errorf("calendar: refresh token: %w", err)
	}
	if fresh.AccessToken != stored.AccessToken {
		if err := s.saveToken(ctx, conn.StaffID, conn.Provider, fresh); err != nil {
			s.logger.Warn("persist refreshed calendar token", zap.String("staff_id", conn.StaffID), zap.Error(err))
		}
	}
	return cfg.Client(ctx, fresh), nil
}

func (s *Service) openToken(conn *domain.CalendarConnection) (*oauth2.Token, error) {
	aad := associatedData(conn.StaffID, conn.Provider)
	access, err := s.box.Open(conn.AccessToken, aad)
	if err != nil {
		return nil, err
	}
	token := &oauth2.Token{AccessToken: access, TokenType: conn.TokenType}
	if len(conn.RefreshToken) > 0 {
		if token.RefreshToken, err = s.box.Open(conn.RefreshToken, aad); err != nil {
			return nil, err
		}
	}
	if conn.Expiry != nil {
		token.Expiry = *conn.Expiry
	}
	return token, nil
}

func (s *Service) saveToken(ctx context.Context, staffID string, provider domain.CalendarProvider, token *oauth2.Token) error {
	aad := associatedData(staffID, provider)
	access, err := s.box.Seal(token.AccessToken, aad)
	if err != nil {
		return err
	}
	conn := &domain.CalendarConnection{
		StaffID:     staffID,
		Provider:    provider,
		AccessToken: access,
		TokenType:   token.TokenType,
	}
	if token.RefreshToken != "" {
		if conn.RefreshToken, err = s.box.Seal(token.RefreshToken, aad); err != nil {
			return err
		}
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		conn.Expiry = &expiry
	}
	return s.repo.Upsert(ctx, conn)
}

func associatedData(staffID string, provider domain.CalendarProvider) string {
	return staffID + "|" + string(provider)
}
