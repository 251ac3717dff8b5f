package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwks"
	clerkjwt "github.com/clerk/clerk-sdk-go/v2/jwt"
	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrNoSession is returned when the request carries no usable session token.
var ErrNoSession = errors.New("no session")

// Session is the caller identity resolved from a session token.
type Session struct {
	UserID    string
	SessionID string
	OrgID     string
	OrgSlug   string
	OrgRole   string
	ExpiresAt time.Time
}

// compactOrgClaim is the "o" object newer session tokens carry instead of the
// flat org_* claims.
type compactOrgClaim struct {
	Org *struct {
		ID   string `json:"id"`
		Slug string `json:"slg"`
		Role string `json:"rol"`
	} `json:"o,omitempty"`
}

// VerifierConfig selects where signing keys come from. A PEM key pins a
// single networkless key. Otherwise keys are fetched from the provider's
// JWKS endpoint with the secret key and refreshed when an unknown key id
// shows up.
type VerifierConfig struct {
	PublicKeyPEM string
	APIURL       string
	SecretKey    string
	Timeout      time.Duration
}

// Verifier validates RS256 session tokens issued by the identity provider.
type Verifier struct {
	static *clerk.JSONWebKey
	keys   *jwks.Client
	leeway time.Duration
	now    func() time.Time

	mu        sync.RWMutex
	cache     map[string]*clerk.JSONWebKey
	fetchedAt time.Time
}

// minRefresh bounds how often an unknown key id may trigger a JWKS fetch.
const minRefresh = 30 * time.Second

// NewVerifier builds a verifier from cfg. With neither a key nor a secret
// key every token is rejected.
func NewVerifier(cfg VerifierConfig) (*Verifier, error) {
	v := &Verifier{leeway: 5 * time.Second, now: time.Now, cache: map[string]*clerk.JSONWebKey{}}
	if pemKey := strings.TrimSpace(cfg.PublicKeyPEM); pemKey != "" {
		key, err := clerk.JSONWebKeyFromPEM(strings.ReplaceAll(pemKey, `\n`, "\n"))
		if err != nil {
			return nil, fmt.Errorf("parse identity public key: %w", err)
		}
		v.static = key
		return v, nil
	}
	if cfg.SecretKey != "" {
		v.keys = jwks.NewClient(backendConfig(cfg.APIURL, cfg.SecretKey, cfg.Timeout))
	}
	return v, nil
}

// Verify checks signature, issuer and expiry and returns the session.
func (v *Verifier) Verify(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	if v == nil || (v.static == nil && v.keys == nil) {
		return nil, errors.New("identity signing keys not configured")
	}

	key, err := v.signingKey(ctx, token)
	if err != nil {
		return nil, err
	}
	claims, err := clerkjwt.Verify(ctx, &clerkjwt.VerifyParams{
		Token:  token,
		JWK:    key,
		Leeway: v.leeway,
		CustomClaimsConstructor: func(context.Context) any {
			return &compactOrgClaim{}
		},
	})
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.Expiry == nil {
		return nil, errors.New("invalid session claims")
	}

	session := &Session{
		UserID:    claims.Subject,
		SessionID: claims.SessionID,
		OrgID:     claims.ActiveOrganizationID,
		OrgSlug:   claims.ActiveOrganizationSlug,
		OrgRole:   claims.ActiveOrganizationRole,
		ExpiresAt: time.Unix(*claims.Expiry, 0),
	}
	if compact, ok := claims.Custom.(*compactOrgClaim); ok && compact.Org != nil && session.OrgID == "" {
		session.OrgID = compact.Org.ID
		session.OrgSlug = compact.Org.Slug
		session.OrgRole = compact.Org.Role
	}
	return session, nil
}

func (v *Verifier) signingKey(ctx context.Context, token string) (*clerk.JSONWebKey, error) {
	if v.static != nil {
		return v.static, nil
	}

	unverified, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, err
	}
	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New("session token has no key id")
	}

	v.mu.RLock()
	key, ok := v.cache[kid]
	fetchedAt := v.fetchedAt
	v.mu.RUnlock()
	if ok {
		return key, nil
	}
	if !fetchedAt.IsZero() && v.now().Sub(fetchedAt) < minRefresh {
		return nil, fmt.Errorf("unknown signing key %q", kid)
	}
	if err := v.refresh(ctx); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	if key, ok := v.cache[kid]; ok {
		return key, nil
	}
	return nil, fmt.Errorf("unknown signing key %q", kid)
}

func (v *Verifier) refresh(ctx context.Context) error {
	set, err := v.keys.Get(ctx, &jwks.GetParams{})
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fetchedAt = v.now()
	if err != nil {
		return fmt.Errorf("fetch identity signing keys: %w", err)
	}
	cache := make(map[string]*clerk.JSONWebKey, len(set.Keys))
	for _, key := range set.Keys {
		if key != nil && key.KeyID != "" {
			cache[key.KeyID] = key
		}
	}
	v.cache = cache
	return nil
}
