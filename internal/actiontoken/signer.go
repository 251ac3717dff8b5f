// Package actiontoken issues the signed links hosts use to accept or decline a visitor.
package actiontoken

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/frontdesk/internal/domain"
)

var (
	// ErrInvalid covers malformed, forged or expired tokens.
	ErrInvalid = errors.New("invalid or expired action token")
	// ErrActionMismatch is returned when a token bound to one action is used for another.
	ErrActionMismatch = errors.New("action token does not permit this action")
)

// Claims binds a token to one visit and its host.
type Claims struct {
	VisitorID string               `json:"visitorId"`
	StaffID   string               `json:"staffId"`
	Action    domain.VisitorAction `json:"action,omitempty"`
	jwt.RegisteredClaims
}

// Permits reports whether the claims allow action.
func (c *Claims) Permits(action domain.VisitorAction) bool {
	return c.Action == "" || c.Action == action
}

// Signer issues and verifies HS256 action tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner builds a signer. ttl defaults to 24 hours.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for visitorID and staffID. An empty action leaves the
// token usable for either response.
func (s *Signer) Issue(visitorID, staffID string, action domain.VisitorAction) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)
	claims := &Claims{
		VisitorID: visitorID,
		StaffID:   staffID,
		Action:    action,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   visitorID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks the signature, shape and age of token.
func (s *Signer) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalid
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalid
	}
	if claims.VisitorID == "" || claims.StaffID == "" {
		return nil, ErrInvalid
	}
	if claims.Action != "" && !claims.Action.Valid() {
		return nil, ErrInvalid
	}
	// Age is checked against iat as well as exp.
	if claims.IssuedAt == nil || s.now().Sub(claims.IssuedAt.Time) > s.ttl {
		return nil, ErrInvalid
	}
	return claims, nil
}

// VerifyFor verifies token and checks it permits action.
func (s *Signer) VerifyFor(token string, action domain.VisitorAction) (*Claims, error) {
	claims, err := s.Verify(token)
	if err != nil {
		return nil, err
	}
	if !claims.Permits(action) {
		return nil, ErrActionMismatch
	}
	return claims, nil
}
