package dto

import (
	"time"

	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/service"
)

// ProjectCreateRequest payload.
type ProjectCreateRequest struct {
	Name         string                `json:"name" validate:"required,max=200"`
	Description  *string               `json:"description" validate:"omitempty,max=5000"`
	Status       *domain.ProjectStatus `json:"status" validate:"omitempty,oneof=PLANNING ACTIVE ON_HOLD COMPLETED"`
	Progress     *int                  `json:"progress" validate:"omitempty,min=0,max=100"`
	OwnerStaffID *string               `json:"ownerStaffId"`
	StartDate    *time.Time            `json:"startDate"`
	DueDate      *time.Time            `json:"dueDate"`
}

// Input maps the request onto the service input.
func (r ProjectCreateRequest) Input() service.ProjectInput {
	name := r.Name
	return service.ProjectInput{
		Name:         &name,
		Description:  r.Description,
		Status:       r.Status,
		Progress:     r.Progress,
		OwnerStaffID: r.OwnerStaffID,
		StartDate:    r.StartDate,
		DueDate:      r.DueDate,
	}
}

// ProjectUpdateRequest patches a project. Omitted fields stay unchanged.
type ProjectUpdateRequest struct {
	ProjectID    string                `json:"projectId" validate:"required"`
	Name         *string               `json:"name" validate:"omitempty,max=200"`
	Description  *string               `json:"description" validate:"omitempty,max=5000"`
	Status       *domain.ProjectStatus `json:"status" validate:"omitempty,oneof=PLANNING ACTIVE ON_HOLD COMPLETED"`
	Progress     *int                  `json:"progress" validate:"omitempty,min=0,max=100"`
	OwnerStaffID *string               `json:"ownerStaffId"`
	StartDate    *time.Time            `json:"startDate"`
	DueDate      *time.Time            `json:"dueDate"`
}

// Input maps the request onto the service input.
func (r ProjectUpdateRequest) Input() service.ProjectInput {
	return service.ProjectInput{
		Name:         r.Name,
		Description:  r.Description,
		Status:       r.Status,
		Progress:     r.Progress,
		OwnerStaffID: r.OwnerStaffID,
		StartDate:    r.StartDate,
		DueDate:      r.DueDate,
	}
}

// ProjectIDRequest addresses one project.
type ProjectIDRequest struct {
	ProjectID string `json:"projectId" validate:"required"`
}

// ProjectListRequest filters projects.
type ProjectListRequest struct {
	OwnerStaffID *string                `json:"ownerStaffId"`
	Status       []domain.ProjectStatus `json:"status" validate:"omitempty,dive,oneof=PLANNING ACTIVE ON_HOLD COMPLETED"`
	Limit        int                    `json:"limit" validate:"omitempty,min=1,max=200"`
	Offset       int                    `json:"offset" validate:"omitempty,min=0"`
}

// ProjectResponse is the wire form of a project.
type ProjectResponse struct {
	ID           string               `json:"id"`
	OwnerStaffID string               `json:"ownerStaffId"`
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	Status       domain.ProjectStatus `json:"status"`
	Progress     int                  `json:"progress"`
	StartDate    *time.Time           `json:"startDate"`
	DueDate      *time.Time           `json:"dueDate"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

// Project converts a domain project.
func Project(p *domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:           p.ID,
		OwnerStaffID: p.OwnerStaffID,
		Name:         p.Name,
		Description:  p.Description,
		Status:       p.Status,
		Progress:     p.Progress,
		StartDate:    p.StartDate,
		DueDate:      p.DueDate,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// Projects converts a slice.
func Projects(items []domain.Project) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(items))
	for i := range items {
		out = append(out, Project(&items[i]))
	}
	return out
}
