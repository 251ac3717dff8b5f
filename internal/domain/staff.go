package domain

import "time"

// StaffRole enumerates roles a staff profile may hold.
type StaffRole string

const (
	StaffRoleAdmin        StaffRole = "ADMIN"
	StaffRoleReceptionist StaffRole = "RECEPTIONIST"
	StaffRoleEmployee     StaffRole = "EMPLOYEE"
	StaffRoleITStaff      StaffRole = "IT_STAFF"
)

// Valid reports whether r is a known role.
func (r StaffRole) Valid() bool {
	switch r {
	case StaffRoleAdmin, StaffRoleReceptionist, StaffRoleEmployee, StaffRoleITStaff:
		return true
	}
	return false
}

// Staff binds an identity provider account to a role within one organization.
type Staff struct {
	ID             string
	OrganizationID string
	ExternalUserID string
	Name           string
	Email          string
	Role           StaffRole
	Department     *string
	Phone          *string
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasRole reports whether the staff member holds one of roles.
func (s *Staff) HasRole(roles ...StaffRole) bool {
	if s == nil {
		return false
	}
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}
