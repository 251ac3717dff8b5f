package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/identity"
	"github.com/spec-kit/frontdesk/internal/repository"
	apperrors "github.com/spec-kit/frontdesk/pkg/util/errorutil"
)

// StaffService manages staff profiles within an organization.
type StaffService struct {
	staff    repository.StaffRepository
	orgs     repository.OrganizationRepository
	identity identity.Client
	logger   *zap.Logger
}

// StaffDependencies encapsulates collaborators required for staff management.
type StaffDependencies struct {
	StaffRepo repository.StaffRepository
	OrgRepo   repository.OrganizationRepository
	Identity  identity.Client
	Logger    *zap.Logger
}

// StaffListFilters define listing parameters.
type StaffListFilters struct {
	Roles  []domain.StaffRole
	Active *bool
	Search *string
	Limit  int
	Offset int
}

// StaffCreateInput provisions a profile for an existing identity account.
type StaffCreateInput struct {
	ExternalUserID string
	Name           string
	Email          string
	Role           domain.StaffRole
	Department     *string
	Phone          *string
}

// Host is the public projection of a staff member shown on the kiosk.
type Host struct {
	ID         string
	Name       string
	Department *string
}

// NewStaffService constructs the service.
func NewStaffService(deps StaffDependencies) *StaffService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaffService{
		staff:    deps.StaffRepo,
		orgs:     deps.OrgRepo,
		identity: deps.Identity,
		logger:   logger,
	}
}

// Me returns the caller's own profile.
func (s *StaffService) Me(_ context.Context, actor *domain.Staff) (*domain.Staff, error) {
	if actor == nil {
		return nil, apperrors.NewNotFound("staff", nil)
	}
	return actor, nil
}

// List lists staff with filters.
func (s *StaffService) List(ctx context.Context, actor *domain.Staff, filters StaffListFilters) ([]domain.Staff, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	staff, err := s.staff.List(ctx, repository.StaffFilter{
		OrganizationID: actor.OrganizationID,
		Roles:          filters.Roles,
		Active:         filters.Active,
		Search:         filters.Search,
		Limit:          filters.Limit,
		Offset:         filters.Offset,
	})
	return staff, apperrors.MapError(err)
}

// Create provisions a staff profile manually. Missing name or email are
// filled from the identity provider.
func (s *StaffService) Create(ctx context.Context, actor *domain.Staff, input StaffCreateInput) (*domain.Staff, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": input.Role})
	}
	externalID := strings.TrimSpace(input.ExternalUserID)
	if existing, err := s.staff.GetByExternalUserID(ctx, externalID); err == nil && existing != nil {
		return nil, apperrors.NewConflict("staff profile already exists", map[string]any{"externalUserId": externalID})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	if (name == "" || email == "") && s.identity != nil {
		user, err := s.identity.GetUser(ctx, externalID)
		switch {
		case err == nil:
			if name == "" {
				name = user.FullName()
			}
			if email == "" {
				email = user.Email
			}
		case errors.Is(err, identity.ErrNotFound):
			return nil, apperrors.NewValidationError("unknown identity user", map[string]any{"externalUserId": externalID})
		default:
			s.logger.Warn("identity user lookup failed", zap.String("external_user_id", externalID), zap.Error(err))
		}
	}
	if name == "" || email == "" {
		return nil, apperrors.NewValidationError("name and email are required", nil)
	}

	staff := &domain.Staff{
		OrganizationID: actor.OrganizationID,
		ExternalUserID: externalID,
		Name:           name,
		Email:          email,
		Role:           input.Role,
		Department:     trimmedOrNil(input.Department),
		Phone:          trimmedOrNil(input.Phone),
		Active:         true,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// UpdateRole changes a staff member's role. Admins cannot demote themselves.
func (s *StaffService) UpdateRole(ctx context.Context, actor *domain.Staff, staffID string, role domain.StaffRole) (*domain.Staff, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	if staffID == actor.ID && role != domain.StaffRoleAdmin {
		return nil, apperrors.NewConflict("cannot change your own admin role", nil)
	}
	staff, err := s.loadInOrg(ctx, actor, staffID)
	if err != nil {
		return nil, err
	}
	staff.Role = role
	if err := s.staff.Update(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// Deactivate disables a staff profile. Admins cannot deactivate themselves.
func (s *StaffService) Deactivate(ctx context.Context, actor *domain.Staff, staffID string) (*domain.Staff, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if staffID == actor.ID {
		return nil, apperrors.NewConflict("cannot deactivate yourself", nil)
	}
	staff, err := s.loadInOrg(ctx, actor, staffID)
	if err != nil {
		return nil, err
	}
	if !staff.Active {
		return staff, nil
	}
	staff.Active = false
	if err := s.staff.Update(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// Hosts lists active staff a visitor can ask for at the kiosk.
func (s *StaffService) Hosts(ctx context.Context, orgSlug string) ([]Host, error) {
	org, err := s.orgs.GetBySlug(ctx, strings.TrimSpace(orgSlug))
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "organization", nil)
	}
	active := true
	staff, err := s.staff.List(ctx, repository.StaffFilter{
		OrganizationID: org.ID,
		Active:         &active,
		Limit:          500,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	hosts := make([]Host, 0, len(staff))
	for _, member := range staff {
		hosts = append(hosts, Host{ID: member.ID, Name: member.Name, Department: member.Department})
	}
	return hosts, nil
}

func (s *StaffService) loadInOrg(ctx context.Context, actor *domain.Staff, staffID string) (*domain.Staff, error) {
	staff, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "staff", map[string]any{"staffId": staffID})
	}
	if err := sameOrganization(actor, staff.OrganizationID, "staff"); err != nil {
		return nil, err
	}
	return staff, nil
}
