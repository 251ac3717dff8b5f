package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/repository"
	apperrors "github.com/spec-kit/frontdesk/pkg/util/errorutil"
)

// ProjectService manages IT projects. Every staff member can read them,
// helpdesk staff maintain them.
type ProjectService struct {
	projects repository.ProjectRepository
	staff    repository.StaffRepository
}

// ProjectInput carries create and update fields. Nil pointers leave the
// stored value untouched on update.
type ProjectInput struct {
	Name         *string
	Description  *string
	Status       *domain.ProjectStatus
	Progress     *int
	OwnerStaffID *string
	StartDate    *time.Time
	DueDate      *time.Time
}

// ProjectListFilter narrows project listings.
type ProjectListFilter struct {
	OwnerStaffID *string
	Statuses     []domain.ProjectStatus
	Limit        int
	Offset       int
}

// NewProjectService constructs the service.
func NewProjectService(projects repository.ProjectRepository, staff repository.StaffRepository) *ProjectService {
	return &ProjectService{projects: projects, staff: staff}
}

// Create adds a project owned by input.OwnerStaffID or the caller.
func (s *ProjectService) Create(ctx context.Context, actor *domain.Staff, input ProjectInput) (*domain.Project, error) {
	if err := requireRole(actor, domain.StaffRoleITStaff, domain.StaffRoleAdmin); err != nil {
		return nil, err
	}
	project := &domain.Project{
		OrganizationID: actor.OrganizationID,
		OwnerStaffID:   actor.ID,
		Status:         domain.ProjectStatusPlanning,
	}
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	if err := s.apply(ctx, actor, project, input); err != nil {
		return nil, err
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, apperrors.MapError(err)
	}
	return project, nil
}

// Update patches a project.
func (s *ProjectService) Update(ctx context.Context, actor *domain.Staff, projectID string, input ProjectInput) (*domain.Project, error) {
	if err := requireRole(actor, domain.StaffRoleITStaff, domain.StaffRoleAdmin); err != nil {
		return nil, err
	}
	project, err := s.Get(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, actor, project, input); err != nil {
		return nil, err
	}
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, apperrors.MapError(err)
	}
	return project, nil
}

// Get fetches a project of the caller's organization.
func (s *ProjectService) Get(ctx context.Context, actor *domain.Staff, projectID string) (*domain.Project, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "project", map[string]any{"projectId": projectID})
	}
	if err := sameOrganization(actor, project.OrganizationID, "project"); err != nil {
		return nil, err
	}
	return project, nil
}

// List returns the organization's projects.
func (s *ProjectService) List(ctx context.Context, actor *domain.Staff, filter ProjectListFilter) ([]domain.Project, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	projects, err := s.projects.List(ctx, repository.ProjectFilter{
		OrganizationID: actor.OrganizationID,
		OwnerStaffID:   filter.OwnerStaffID,
		Statuses:       filter.Statuses,
		Limit:          filter.Limit,
		Offset:         filter.Offset,
	})
	return projects, apperrors.MapError(err)
}

func (s *ProjectService) apply(ctx context.Context, actor *domain.Staff, project *domain.Project, input ProjectInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return apperrors.NewValidationError("name is required", nil)
		}
		project.Name = name
	}
	if input.Description != nil {
		project.Description = strings.TrimSpace(*input.Description)
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return apperrors.NewValidationError("unknown status", map[string]any{"status": *input.Status})
		}
		project.Status = *input.Status
	}
	if input.Progress != nil {
		if *input.Progress < 0 || *input.Progress > 100 {
			return apperrors.NewValidationError("progress must be between 0 and 100", map[string]any{"progress": *input.Progress})
		}
		project.Progress = *input.Progress
	}
	if project.Status == domain.ProjectStatusCompleted && input.Progress == nil {
		project.Progress = 100
	}
	if input.OwnerStaffID != nil {
		owner, err := s.staff.GetByID(ctx, *input.OwnerStaffID)
		if err != nil {
			return apperrors.NotFoundOr(err, "staff", map[string]any{"staffId": *input.OwnerStaffID})
		}
		if err := sameOrganization(actor, owner.OrganizationID, "staff"); err != nil {
			return err
		}
		project.OwnerStaffID = owner.ID
	}
	if input.StartDate != nil {
		project.StartDate = input.StartDate
	}
	if input.DueDate != nil {
		project.DueDate = input.DueDate
	}
	if project.StartDate != nil && project.DueDate != nil && project.DueDate.Before(*project.StartDate) {
		return apperrors.NewValidationError("due date must not be before start date", nil)
	}
	return nil
}
