package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/identity"
)

const (
	requestContextKey = "auth_request_context"
	staffKey          = "auth_staff"
)

// RequestContext is the caller identity resolved once per request.
type RequestContext struct {
	UserID    string
	OrgID     string
	OrgSlug   string
	OrgRole   string
	SessionID string
}

// SessionVerifier validates identity provider session tokens.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*identity.Session, error)
}

// SessionMiddleware resolves the caller's session from the session cookie or
// a bearer header. Requests without a valid session continue anonymously.
func SessionMiddleware(verifier SessionVerifier, cookieName string, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := sessionToken(c, cookieName)
		if token == "" {
			return c.Next()
		}
		session, err := verifier.Verify(c.UserContext(), token)
		if err != nil {
			logger.Debug("session rejected", zap.String("path", c.Path()), zap.Error(err))
			return c.Next()
		}
		c.Locals(requestContextKey, &RequestContext{
			UserID:    session.UserID,
			OrgID:     session.OrgID,
			OrgSlug:   session.OrgSlug,
			OrgRole:   session.OrgRole,
			SessionID: session.SessionID,
		})
		return c.Next()
	}
}

func sessionToken(c *fiber.Ctx, cookieName string) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Cookies(cookieName)
}

// FromContext returns the caller's RequestContext when a session was resolved.
func FromContext(c *fiber.Ctx) (*RequestContext, bool) {
	rc, ok := c.Locals(requestContextKey).(*RequestContext)
	return rc, ok && rc != nil
}

// WithRequestContext stores rc on the request.
func WithRequestContext(c *fiber.Ctx, rc *RequestContext) {
	c.Locals(requestContextKey, rc)
}

// StaffFromContext returns the caller's staff profile if one was loaded.
func StaffFromContext(c *fiber.Ctx) (*domain.Staff, bool) {
	staff, ok := c.Locals(staffKey).(*domain.Staff)
	return staff, ok && staff != nil
}

// WithStaff stores the caller's staff profile on the request.
func WithStaff(c *fiber.Ctx, staff *domain.Staff) {
	c.Locals(staffKey, staff)
}
