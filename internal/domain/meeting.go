package domain

import "time"

// CalendarProvider names an external calendar.
type CalendarProvider string

const (
	CalendarGoogle  CalendarProvider = "google"
	CalendarOutlook CalendarProvider = "outlook"
)

// Valid reports whether p is a supported provider.
func (p CalendarProvider) Valid() bool {
	return p == CalendarGoogle || p == CalendarOutlook
}

// MeetingStatus tracks whether a meeting still happens.
type MeetingStatus string

const (
	MeetingStatusScheduled MeetingStatus = "SCHEDULED"
	MeetingStatusCancelled MeetingStatus = "CANCELLED"
)

// Meeting is scheduled by a staff member, optionally with a visitor.
type Meeting struct {
	ID               string
	OrganizationID   string
	OrganizerStaffID string
	VisitorID        *string
	Title            string
	Description      string
	Location         *string
	StartsAt         time.Time
	EndsAt           time.Time
	Attendees        []string
	Status           MeetingStatus
	Provider         *CalendarProvider
	ExternalEventID  *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CalendarConnection stores encrypted OAuth tokens for a staff member.
type CalendarConnection struct {
	ID           string
	StaffID      string
	Provider     CalendarProvider
	AccessToken  []byte
	RefreshToken []byte
	TokenType    string
	Expiry       *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
