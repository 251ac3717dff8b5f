package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/identity"
	"github.com/spec-kit/frontdesk/internal/observability"
	"github.com/spec-kit/frontdesk/internal/repository"
)

// ProvisioningService mirrors identity provider organizations and admins into
// local records. Identity provider failures are logged and swallowed.
type ProvisioningService struct {
	identity identity.Client
	orgs     repository.OrganizationRepository
	staff    repository.StaffRepository
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// ProvisioningDependencies bundles collaborators.
type ProvisioningDependencies struct {
	Identity  identity.Client
	OrgRepo   repository.OrganizationRepository
	StaffRepo repository.StaffRepository
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

// NewProvisioningService constructs the service.
func NewProvisioningService(deps ProvisioningDependencies) *ProvisioningService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProvisioningService{
		identity: deps.Identity,
		orgs:     deps.OrgRepo,
		staff:    deps.StaffRepo,
		metrics:  deps.Metrics,
		logger:   logger,
	}
}

// SyncOrganization upserts the local organization keyed by the provider's id,
// refreshing name and slug. It returns nil without error when the provider
// cannot be reached.
func (s *ProvisioningService) SyncOrganization(ctx context.Context, externalOrgID string) (*domain.Organization, error) {
	if externalOrgID == "" {
		return nil, nil
	}
	remote, err := s.identity.GetOrganization(ctx, externalOrgID)
	if err != nil {
		s.logger.Warn("fetch organization from identity provider failed",
			zap.String("org_id", externalOrgID), zap.Error(err))
		s.metrics.RecordProvisioning("organization", "upstream_error")
		return nil, nil
	}

	org := &domain.Organization{
		ExternalID: externalOrgID,
		Name:       strings.TrimSpace(remote.Name),
		Slug:       remote.Slug,
	}
	if org.Slug == "" {
		org.Slug = externalOrgID
	}
	if err := s.orgs.Upsert(ctx, org); err != nil {
		s.metrics.RecordProvisioning("organization", "error")
		return nil, err
	}
	s.metrics.RecordProvisioning("organization", "synced")
	return org, nil
}

// EnsureAdminProfile creates an ADMIN staff profile for userID when the
// identity provider lists them as an administrator or creator of an
// organization. Concurrent calls converge on a single row through the upsert
// on external_user_id. It returns nil when the user is not an administrator.
func (s *ProvisioningService) EnsureAdminProfile(ctx context.Context, userID, externalOrgID string) (*domain.Staff, error) {
	memberships, err := s.identity.ListMemberships(ctx, userID)
	if err != nil {
		s.logger.Warn("list memberships from identity provider failed",
			zap.String("user_id", userID), zap.Error(err))
		s.metrics.RecordProvisioning("staff", "upstream_error")
		return nil, nil
	}

	membership, ok := adminMembership(memberships, externalOrgID)
	if !ok {
		s.metrics.RecordProvisioning("staff", "not_admin")
		return nil, nil
	}

	org, err := s.orgs.GetByExternalID(ctx, membership.OrganizationID)
	if errors.Is(err, pgx.ErrNoRows) {
		org, err = s.SyncOrganization(ctx, membership.OrganizationID)
	}
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, nil
	}

	staff := &domain.Staff{
		OrganizationID: org.ID,
		ExternalUserID: userID,
		Name:           "Administrator",
		Role:           domain.StaffRoleAdmin,
		Active:         true,
	}
	if user, err := s.identity.GetUser(ctx, userID); err != nil {
		s.logger.Warn("fetch user from identity provider failed", zap.String("user_id", userID), zap.Error(err))
	} else {
		staff.Name = user.FullName()
		staff.Email = user.Email
		if staff.Name == "" {
			staff.Name = "Administrator"
		}
	}

	if err := s.staff.UpsertByExternalUserID(ctx, staff); err != nil {
		s.metrics.RecordProvisioning("staff", "error")
		return nil, err
	}
	s.logger.Info("provisioned admin profile",
		zap.String("user_id", userID), zap.String("staff_id", staff.ID), zap.String("org_id", org.ID))
	s.metrics.RecordProvisioning("staff", "created")
	return staff, nil
}

// adminMembership finds an administrative membership, restricted to the
// active organization when one is set.
func adminMembership(memberships []identity.Membership, externalOrgID string) (identity.Membership, bool) {
	for _, m := range memberships {
		if !identity.IsAdminRole(m.Role) {
			continue
		}
		if externalOrgID == "" || m.OrganizationID == externalOrgID {
			return m, true
		}
	}
	return identity.Membership{}, false
}
