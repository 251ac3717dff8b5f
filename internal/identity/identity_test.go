package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return key, string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

const testIssuer = "https://clerk.acme.test"

func sign(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	return signWithKeyID(t, key, "", claims)
}

func signWithKeyID(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["iss"]; !ok {
		claims["iss"] = testIssuer
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if kid != "" {
		token.Header["kid"] = kid
	}
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func pemVerifier(t *testing.T, pub string) *Verifier {
	t.Helper()
	v, err := NewVerifier(VerifierConfig{PublicKeyPEM: pub})
	require.NoError(t, err)
	return v
}

// jwkJSON renders an RSA public key the way a JWKS endpoint publishes it.
func jwkJSON(kid string, key *rsa.PublicKey) string {
	n := base64.RawURLEncoding.EncodeToString(key.N.Bytes())
	e := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes())
	return fmt.Sprintf(`{"use":"sig","kty":"RSA","kid":%q,"alg":"RS256","n":%q,"e":%q}`, kid, n, e)
}

func TestVerifier_AcceptsFlatOrgClaims(t *testing.T) {
	key, pub := newKeyPair(t)
	v := pemVerifier(t, pub)

	token := sign(t, key, jwt.MapClaims{
		"sub":      "user_1",
		"sid":      "sess_1",
		"org_id":   "org_1",
		"org_slug": "acme",
		"org_role": "org:admin",
		"exp":      time.Now().Add(time.Minute).Unix(),
	})

	session, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user_1", session.UserID)
	assert.Equal(t, "sess_1", session.SessionID)
	assert.Equal(t, "org_1", session.OrgID)
	assert.Equal(t, "acme", session.OrgSlug)
	assert.Equal(t, "org:admin", session.OrgRole)
}

func TestVerifier_AcceptsCompactOrgClaim(t *testing.T) {
	key, pub := newKeyPair(t)
	v := pemVerifier(t, pub)

	token := sign(t, key, jwt.MapClaims{
		"sub": "user_2",
		"o":   map[string]any{"id": "org_2", "slg": "globex", "rol": "member"},
		"exp": time.Now().Add(time.Minute).Unix(),
	})

	session, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "org_2", session.OrgID)
	assert.Equal(t, "globex", session.OrgSlug)
}

func TestVerifier_Rejects(t *testing.T) {
	key, pub := newKeyPair(t)
	other, _ := newKeyPair(t)
	v := pemVerifier(t, pub)

	cases := map[string]string{
		"wrong issuer": sign(t, key, jwt.MapClaims{"sub": "u", "iss": "https://evil.test", "exp": time.Now().Add(time.Minute).Unix()}),
		"expired":      sign(t, key, jwt.MapClaims{"sub": "u", "exp": time.Now().Add(-time.Hour).Unix()}),
		"no expiry":    sign(t, key, jwt.MapClaims{"sub": "u"}),
		"wrong key":    sign(t, other, jwt.MapClaims{"sub": "u", "exp": time.Now().Add(time.Minute).Unix()}),
		"missing sub":  sign(t, key, jwt.MapClaims{"exp": time.Now().Add(time.Minute).Unix()}),
		"hs256 downgrade": func() string {
			s, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u", "exp": time.Now().Add(time.Minute).Unix()}).SignedString([]byte(pub))
			return s
		}(),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), token)
			assert.Error(t, err)
		})
	}

	_, err := v.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoSession)

	unconfigured, err := NewVerifier(VerifierConfig{})
	require.NoError(t, err)
	_, err = unconfigured.Verify(context.Background(), sign(t, key, jwt.MapClaims{"sub": "u", "exp": time.Now().Add(time.Minute).Unix()}))
	assert.Error(t, err)
}

func TestVerifier_FetchesRotatedKeysFromJWKS(t *testing.T) {
	first, _ := newKeyPair(t)
	second, _ := newKeyPair(t)
	var rotated atomic.Bool
	var fetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/jwks", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		fetches.Add(1)
		keys := jwkJSON("key_1", &first.PublicKey)
		if rotated.Load() {
			keys += "," + jwkJSON("key_2", &second.PublicKey)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"keys":[%s]}`, keys)
	}))
	defer srv.Close()

	v, err := NewVerifier(VerifierConfig{APIURL: srv.URL + "/v1", SecretKey: "sk_test", Timeout: time.Second})
	require.NoError(t, err)
	clock := time.Now()
	v.now = func() time.Time { return clock }
	ctx := context.Background()
	exp := time.Now().Add(time.Minute).Unix()

	session, err := v.Verify(ctx, signWithKeyID(t, first, "key_1", jwt.MapClaims{"sub": "user_1", "exp": exp}))
	require.NoError(t, err)
	assert.Equal(t, "user_1", session.UserID)
	_, err = v.Verify(ctx, signWithKeyID(t, first, "key_1", jwt.MapClaims{"sub": "user_1", "exp": exp}))
	require.NoError(t, err)
	assert.Equal(t, int32(1), fetches.Load())

	// An unknown key id right after a fetch does not hit the endpoint again.
	rotated.Store(true)
	rotatedToken := signWithKeyID(t, second, "key_2", jwt.MapClaims{"sub": "user_2", "exp": exp})
	_, err = v.Verify(ctx, rotatedToken)
	assert.Error(t, err)
	assert.Equal(t, int32(1), fetches.Load())

	clock = clock.Add(time.Minute)
	session, err = v.Verify(ctx, rotatedToken)
	require.NoError(t, err)
	assert.Equal(t, "user_2", session.UserID)
	assert.Equal(t, int32(2), fetches.Load())

	_, err = v.Verify(ctx, sign(t, first, jwt.MapClaims{"sub": "user_1", "exp": exp}))
	assert.Error(t, err)
}

func TestClient_ReadsProviderResources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/organizations/org_1":
			_, _ = w.Write([]byte(`{"id":"org_1","name":"Acme","slug":"acme"}`))
		case "/v1/users/user_1":
			_, _ = w.Write([]byte(`{"id":"user_1","first_name":"Ada","last_name":"Lovelace",
				"primary_email_address_id":"e2",
				"email_addresses":[{"id":"e1","email_address":"old@acme.test"},{"id":"e2","email_address":"ada@acme.test"}]}`))
		case "/v1/users/user_1/organization_memberships":
			_, _ = w.Write([]byte(`{"data":[{"role":"org:admin","organization":{"id":"org_1"}}],"total_count":1}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[{"code":"resource_not_found","message":"not found"}],"status":404}`))
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test", time.Second)
	ctx := context.Background()

	org, err := client.GetOrganization(ctx, "org_1")
	require.NoError(t, err)
	assert.Equal(t, "acme", org.Slug)

	user, err := client.GetUser(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "ada@acme.test", user.Email)
	assert.Equal(t, "Ada Lovelace", user.FullName())

	memberships, err := client.ListMemberships(ctx, "user_1")
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	assert.True(t, IsAdminRole(memberships[0].Role))

	_, err = client.GetOrganization(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIsAdminRole(t *testing.T) {
	for _, role := range []string{"org:admin", "admin", "org:creator", "creator", "ORG:ADMIN"} {
		assert.True(t, IsAdminRole(role), role)
	}
	for _, role := range []string{"org:member", "basic_member", ""} {
		assert.False(t, IsAdminRole(role), role)
	}
}
