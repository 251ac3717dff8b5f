package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/frontdesk/internal/domain"
)

// LandingPath is where anonymous visitors of the root path go.
const LandingPath = "/landing"

// ResolveRootRedirect maps the caller to a home section.
func ResolveRootRedirect(hasSession bool, profile *domain.Staff, lookupErr error) string {
	if !hasSession {
		return LandingPath
	}
	if lookupErr != nil || profile == nil {
		return AdminHome
	}
	return RoleHome(profile.Role)
}

// RootRedirect answers "/" with exactly one redirect and never renders a page.
func RootRedirect(profiles ProfileLookup, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, ok := FromContext(c)
		if !ok {
			return c.Redirect(ResolveRootRedirect(false, nil, nil), fiber.StatusFound)
		}
		profile, err := LookupProfile(c.UserContext(), profiles, rc.UserID)
		if err != nil {
			logger.Warn("root redirect profile lookup failed", zap.String("user_id", rc.UserID), zap.Error(err))
		}
		return c.Redirect(ResolveRootRedirect(true, profile, err), fiber.StatusFound)
	}
}
