package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/observability"
	apperrors "github.com/spec-kit/frontdesk/pkg/util/errorutil"
)

// ProfileLookup finds a staff profile by identity provider user id.
type ProfileLookup interface {
	GetByExternalUserID(ctx context.Context, externalUserID string) (*domain.Staff, error)
}

// Provisioner mirrors identity provider state into local records. Both calls
// are expected to log and swallow upstream failures.
type Provisioner interface {
	SyncOrganization(ctx context.Context, externalOrgID string) (*domain.Organization, error)
	EnsureAdminProfile(ctx context.Context, userID, externalOrgID string) (*domain.Staff, error)
}

// GuardDeps bundles section guard collaborators.
type GuardDeps struct {
	Profiles    ProfileLookup
	Provisioner Provisioner
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// LookupProfile returns the caller's profile, nil when none exists.
func LookupProfile(ctx context.Context, profiles ProfileLookup, userID string) (*domain.Staff, error) {
	staff, err := profiles.GetByExternalUserID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return staff, nil
}

// SectionGuard enforces that only the section's roles render its pages and
// provisions organization and admin records on the way.
func SectionGuard(section Section, deps GuardDeps) fiber.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx) error {
		rc, ok := FromContext(c)
		if !ok {
			deps.Metrics.RecordRedirect("unauthenticated")
			return c.Redirect(SignInRedirect(c), fiber.StatusFound)
		}
		ctx := c.UserContext()

		if rc.OrgID != "" && deps.Provisioner != nil {
			if _, err := deps.Provisioner.SyncOrganization(ctx, rc.OrgID); err != nil {
				logger.Warn("organization sync skipped", zap.String("org_id", rc.OrgID), zap.Error(err))
			}
		}

		profile, err := LookupProfile(ctx, deps.Profiles, rc.UserID)
		if err != nil {
			return apperrors.MapError(err)
		}

		if profile == nil && deps.Provisioner != nil {
			provisioned, err := deps.Provisioner.EnsureAdminProfile(ctx, rc.UserID, rc.OrgID)
			if err != nil {
				logger.Warn("admin provisioning skipped", zap.String("user_id", rc.UserID), zap.Error(err))
			}
			profile = provisioned
		}

		decision := ResolveSectionAccess(profile, section)
		if !decision.Allowed() {
			reason := "wrong_role"
			if profile == nil {
				reason = "missing_profile"
			}
			deps.Metrics.RecordRedirect(reason)
			return c.Redirect(decision.RedirectTo, fiber.StatusFound)
		}

		if profile != nil {
			WithStaff(c, profile)
		}
		return c.Next()
	}
}

// LoadProfile attaches the caller's staff profile when one exists. It never
// redirects, so API routes can answer with structured errors instead.
func LoadProfile(profiles ProfileLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, ok := FromContext(c)
		if !ok {
			return c.Next()
		}
		profile, err := LookupProfile(c.UserContext(), profiles, rc.UserID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if profile != nil && profile.Active {
			WithStaff(c, profile)
		}
		return c.Next()
	}
}
