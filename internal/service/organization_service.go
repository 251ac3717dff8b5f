package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/repository"
	apperrors "github.com/spec-kit/frontdesk/pkg/util/errorutil"
)

// OrganizationService exposes tenant settings.
type OrganizationService struct {
	orgs repository.OrganizationRepository
}

// OrganizationUpdate patches tenant settings. Nil leaves a field unchanged;
// an empty logo URL clears the logo.
type OrganizationUpdate struct {
	LogoURL  *string
	Timezone *string
}

// PublicOrganization is what the kiosk may know about a tenant.
type PublicOrganization struct {
	Name    string
	Slug    string
	LogoURL *string
}

// NewOrganizationService constructs the service.
func NewOrganizationService(orgs repository.OrganizationRepository) *OrganizationService {
	return &OrganizationService{orgs: orgs}
}

// Get returns the caller's organization.
func (s *OrganizationService) Get(ctx context.Context, actor *domain.Staff) (*domain.Organization, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	org, err := s.orgs.GetByID(ctx, actor.OrganizationID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "organization", nil)
	}
	return org, nil
}

// Update changes the logo and time zone.
func (s *OrganizationService) Update(ctx context.Context, actor *domain.Staff, input OrganizationUpdate) (*domain.Organization, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	org, err := s.orgs.GetByID(ctx, actor.OrganizationID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "organization", nil)
	}
	if input.Timezone != nil {
		tz := strings.TrimSpace(*input.Timezone)
		if _, err := time.LoadLocation(tz); err != nil || tz == "" {
			return nil, apperrors.NewValidationError("unknown time zone", map[string]any{"timezone": tz})
		}
		org.Timezone = tz
	}
	if input.LogoURL != nil {
		org.LogoURL = trimmedOrNil(input.LogoURL)
	}
	if err := s.orgs.UpdateSettings(ctx, org); err != nil {
		return nil, apperrors.MapError(err)
	}
	return org, nil
}

// Public returns kiosk branding for an organization slug.
func (s *OrganizationService) Public(ctx context.Context, slug string) (*PublicOrganization, error) {
	org, err := s.orgs.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "organization", nil)
	}
	return &PublicOrganization{Name: org.Name, Slug: org.Slug, LogoURL: org.LogoURL}, nil
}
