package dto

import (
	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/service"
)

// OrganizationUpdateRequest patches tenant settings.
type OrganizationUpdateRequest struct {
	LogoURL  *string `json:"logoUrl" validate:"omitempty,url|len=0"`
	Timezone *string `json:"timezone" validate:"omitempty,max=64"`
}

// OrganizationResponse is the wire form of a tenant.
type OrganizationResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	LogoURL  *string `json:"logoUrl"`
	Timezone string  `json:"timezone"`
}

// Organization converts a domain tenant.
func Organization(o *domain.Organization) OrganizationResponse {
	return OrganizationResponse{ID: o.ID, Name: o.Name, Slug: o.Slug, LogoURL: o.LogoURL, Timezone: o.Timezone}
}

// PublicOrganizationResponse is kiosk branding.
type PublicOrganizationResponse struct {
	Name    string  `json:"name"`
	Slug    string  `json:"slug"`
	LogoURL *string `json:"logoUrl"`
}

// PublicOrganization converts kiosk branding.
func PublicOrganization(o *service.PublicOrganization) PublicOrganizationResponse {
	return PublicOrganizationResponse(*o)
}

// EmployeeDashboardResponse is the employee landing view.
type EmployeeDashboardResponse struct {
	PendingVisitors []VisitorResponse `json:"pendingVisitors"`
	TodayVisitors   []VisitorResponse `json:"todayVisitors"`
	OpenTickets     []TicketResponse  `json:"openTickets"`
}

// EmployeeDashboard converts the dashboard.
func EmployeeDashboard(d *service.EmployeeDashboard) EmployeeDashboardResponse {
	return EmployeeDashboardResponse{
		PendingVisitors: Visitors(d.PendingVisitors),
		TodayVisitors:   Visitors(d.TodayVisitors),
		OpenTickets:     Tickets(d.OpenTickets),
	}
}
