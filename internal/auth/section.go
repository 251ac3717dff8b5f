package auth

import "github.com/spec-kit/frontdesk/internal/domain"

// Section is one of the role restricted areas of the application.
type Section string

const (
	SectionAdmin    Section = "admin"
	SectionEmployee Section = "employee"
	SectionIT       Section = "it"
)

// Section home paths.
const (
	AdminHome    = "/dashboard"
	EmployeeHome = "/employee/dashboard"
	ITHome       = "/it/dashboard"
	SetupPending = "/setup-pending"
)

// Decision is the outcome of a section access check. An empty RedirectTo allows.
type Decision struct {
	RedirectTo string
}

// Allowed reports whether the caller may render the section.
func (d Decision) Allowed() bool { return d.RedirectTo == "" }

// Allow is the permitting decision.
var Allow = Decision{}

// RedirectTo builds a redirecting decision.
func RedirectTo(path string) Decision { return Decision{RedirectTo: path} }

type sectionRule struct {
	allowed map[domain.StaffRole]struct{}
	// missingProfile applies when the caller has no staff row. Allow lets a
	// first-time organization owner bootstrap the admin section.
	missingProfile Decision
}

func roleSet(roles ...domain.StaffRole) map[domain.StaffRole]struct{} {
	set := make(map[domain.StaffRole]struct{}, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

var sectionRules = map[Section]sectionRule{
	SectionAdmin: {
		allowed:        roleSet(domain.StaffRoleAdmin, domain.StaffRoleReceptionist),
		missingProfile: Allow,
	},
	SectionEmployee: {
		allowed:        roleSet(domain.StaffRoleEmployee, domain.StaffRoleITStaff, domain.StaffRoleAdmin),
		missingProfile: RedirectTo(SetupPending),
	},
	SectionIT: {
		allowed:        roleSet(domain.StaffRoleITStaff, domain.StaffRoleAdmin),
		missingProfile: RedirectTo(AdminHome),
	},
}

// RoleHome returns the landing section for a role.
func RoleHome(role domain.StaffRole) string {
	switch role {
	case domain.StaffRoleEmployee:
		return EmployeeHome
	case domain.StaffRoleITStaff:
		return ITHome
	default:
		return AdminHome
	}
}

// ResolveSectionAccess decides whether profile may enter section.
func ResolveSectionAccess(profile *domain.Staff, section Section) Decision {
	rule, ok := sectionRules[section]
	if !ok {
		return RedirectTo(AdminHome)
	}
	if profile == nil {
		return rule.missingProfile
	}
	if !profile.Active {
		return RedirectTo(SetupPending)
	}
	if _, ok := rule.allowed[profile.Role]; ok {
		return Allow
	}
	return RedirectTo(RoleHome(profile.Role))
}
