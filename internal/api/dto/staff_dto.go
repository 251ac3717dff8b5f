package dto

import (
	"time"

	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/service"
)

// StaffCreateRequest provisions a profile for an identity account.
type StaffCreateRequest struct {
	ExternalUserID string           `json:"externalUserId" validate:"required"`
	Name           string           `json:"name" validate:"omitempty,max=200"`
	Email          string           `json:"email" validate:"omitempty,email"`
	Role           domain.StaffRole `json:"role" validate:"required,oneof=ADMIN RECEPTIONIST EMPLOYEE IT_STAFF"`
	Department     *string          `json:"department" validate:"omitempty,max=100"`
	Phone          *string          `json:"phone" validate:"omitempty,max=50"`
}

// Input maps the request onto the service input.
func (r StaffCreateRequest) Input() service.StaffCreateInput {
	return service.StaffCreateInput{
		ExternalUserID: r.ExternalUserID,
		Name:           r.Name,
		Email:          r.Email,
		Role:           r.Role,
		Department:     r.Department,
		Phone:          r.Phone,
	}
}

// StaffListRequest filters the staff directory.
type StaffListRequest struct {
	Roles  []domain.StaffRole `json:"roles" validate:"omitempty,dive,oneof=ADMIN RECEPTIONIST EMPLOYEE IT_STAFF"`
	Active *bool              `json:"active"`
	Search *string            `json:"search"`
	Limit  int                `json:"limit" validate:"omitempty,min=1,max=500"`
	Offset int                `json:"offset" validate:"omitempty,min=0"`
}

// UpdateRoleRequest changes a role.
type UpdateRoleRequest struct {
	StaffID string           `json:"staffId" validate:"required"`
	Role    domain.StaffRole `json:"role" validate:"required,oneof=ADMIN RECEPTIONIST EMPLOYEE IT_STAFF"`
}

// StaffIDRequest addresses one staff member.
type StaffIDRequest struct {
	StaffID string `json:"staffId" validate:"required"`
}

// OrgSlugRequest addresses an organization publicly.
type OrgSlugRequest struct {
	OrgSlug string `json:"orgSlug" validate:"required"`
}

// StaffResponse is the wire form of a staff profile.
type StaffResponse struct {
	ID             string           `json:"id"`
	OrganizationID string           `json:"organizationId"`
	ExternalUserID string           `json:"externalUserId"`
	Name           string           `json:"name"`
	Email          string           `json:"email"`
	Role           domain.StaffRole `json:"role"`
	Department     *string          `json:"department"`
	Phone          *string          `json:"phone"`
	Active         bool             `json:"active"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// Staff converts a domain profile.
func Staff(s *domain.Staff) StaffResponse {
	return StaffResponse{
		ID:             s.ID,
		OrganizationID: s.OrganizationID,
		ExternalUserID: s.ExternalUserID,
		Name:           s.Name,
		Email:          s.Email,
		Role:           s.Role,
		Department:     s.Department,
		Phone:          s.Phone,
		Active:         s.Active,
		CreatedAt:      s.CreatedAt,
	}
}

// StaffList converts a slice.
func StaffList(items []domain.Staff) []StaffResponse {
	out := make([]StaffResponse, 0, len(items))
	for i := range items {
		out = append(out, Staff(&items[i]))
	}
	return out
}

// HostResponse is a host choice on the kiosk.
type HostResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Department *string `json:"department"`
}

// Hosts converts kiosk hosts.
func Hosts(items []service.Host) []HostResponse {
	out := make([]HostResponse, 0, len(items))
	for _, h := range items {
		out = append(out, HostResponse{ID: h.ID, Name: h.Name, Department: h.Department})
	}
	return out
}
