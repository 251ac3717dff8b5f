package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// StateTokens signs short lived values round-tripped through third parties,
// such as the OAuth state parameter.
type StateTokens struct {
	secret []byte
	ttl    time.Duration
}

// NewStateTokens builds a manager. ttl defaults to ten minutes.
func NewStateTokens(secret string, ttl time.Duration) *StateTokens {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateTokens{secret: []byte(secret), ttl: ttl}
}

// StateClaims describes the signed state payload.
type StateClaims struct {
	Purpose string `json:"pur"`
	jwt.RegisteredClaims
}

// Generate signs subjectID for purpose.
func (s *StateTokens) Generate(subjectID, purpose string) (string, error) {
	now := time.Now()
	claims := &StateClaims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse validates token and returns the subject it carries for purpose.
func (s *StateTokens) Parse(token, purpose string) (string, error) {
	claims, err := s.ParseClaims(token, purpose)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ParseClaims validates token for purpose and returns all of its claims.
func (s *StateTokens) ParseClaims(token, purpose string) (*StateClaims, error) {
	claims := &StateClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, errors.New("invalid state claims")
	}
	if claims.Purpose != purpose {
		return nil, errors.New("state issued for a different purpose")
	}
	return claims, nil
}
