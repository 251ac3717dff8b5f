package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/frontdesk/internal/domain"
	apperrors "github.com/spec-kit/frontdesk/pkg/util/errorutil"
)

// RequireStaffRole ensures the caller has a staff profile with one of the
// allowed roles. No roles means any active profile.
func RequireStaffRole(allowed ...domain.StaffRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := FromContext(c); !ok {
			return apperrors.NewUnauthorized("sign in required")
		}
		staff, ok := StaffFromContext(c)
		if !ok {
			return apperrors.NewForbidden("staff profile required")
		}
		if len(allowed) > 0 && !staff.HasRole(allowed...) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
