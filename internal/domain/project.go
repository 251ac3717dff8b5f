package domain

import "time"

// ProjectStatus tracks project lifecycle.
type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "PLANNING"
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusOnHold    ProjectStatus = "ON_HOLD"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
)

// Project is an internal IT initiative.
type Project struct {
	ID             string
	OrganizationID string
	OwnerStaffID   string
	Name           string
	Description    string
	Status         ProjectStatus
	Progress       int
	StartDate      *time.Time
	DueDate        *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusActive, ProjectStatusOnHold, ProjectStatusCompleted:
		return true
	}
	return false
}
