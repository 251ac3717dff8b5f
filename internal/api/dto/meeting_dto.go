package dto

import (
	"time"

	"github.com/spec-kit/frontdesk/internal/calendar"
	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/service"
)

// MeetingCreateRequest payload.
type MeetingCreateRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=5000"`
	Location    *string   `json:"location" validate:"omitempty,max=200"`
	StartsAt    time.Time `json:"startsAt" validate:"required"`
	EndsAt      time.Time `json:"endsAt" validate:"required"`
	Attendees   []string  `json:"attendees" validate:"omitempty,max=50,dive,email"`
	VisitorID   *string   `json:"visitorId"`
}

// Input maps the request onto the service input.
func (r MeetingCreateRequest) Input() service.MeetingInput {
	return service.MeetingInput{
		Title:       r.Title,
		Description: r.Description,
		Location:    r.Location,
		StartsAt:    r.StartsAt,
		EndsAt:      r.EndsAt,
		Attendees:   r.Attendees,
		VisitorID:   r.VisitorID,
	}
}

// MeetingListRequest pages the caller's meetings.
type MeetingListRequest struct {
	From  *time.Time `json:"from"`
	Limit int        `json:"limit" validate:"omitempty,min=1,max=200"`
}

// MeetingIDRequest addresses one meeting.
type MeetingIDRequest struct {
	MeetingID string `json:"meetingId" validate:"required"`
}

// CalendarProviderRequest names a calendar provider.
type CalendarProviderRequest struct {
	Provider domain.CalendarProvider `json:"provider" validate:"required,oneof=google outlook"`
}

// MeetingResponse is the wire form of a meeting.
type MeetingResponse struct {
	ID              string                   `json:"id"`
	OrganizerID     string                   `json:"organizerId"`
	VisitorID       *string                  `json:"visitorId"`
	Title           string                   `json:"title"`
	Description     string                   `json:"description"`
	Location        *string                  `json:"location"`
	StartsAt        time.Time                `json:"startsAt"`
	EndsAt          time.Time                `json:"endsAt"`
	Attendees       []string                 `json:"attendees"`
	Status          domain.MeetingStatus     `json:"status"`
	Provider        *domain.CalendarProvider `json:"provider"`
	ExternalEventID *string                  `json:"externalEventId"`
}

// Meeting converts a domain meeting.
func Meeting(m *domain.Meeting) MeetingResponse {
	attendees := m.Attendees
	if attendees == nil {
		attendees = []string{}
	}
	return MeetingResponse{
		ID:              m.ID,
		OrganizerID:     m.OrganizerStaffID,
		VisitorID:       m.VisitorID,
		Title:           m.Title,
		Description:     m.Description,
		Location:        m.Location,
		StartsAt:        m.StartsAt,
		EndsAt:          m.EndsAt,
		Attendees:       attendees,
		Status:          m.Status,
		Provider:        m.Provider,
		ExternalEventID: m.ExternalEventID,
	}
}

// Meetings converts a slice.
func Meetings(items []domain.Meeting) []MeetingResponse {
	out := make([]MeetingResponse, 0, len(items))
	for i := range items {
		out = append(out, Meeting(&items[i]))
	}
	return out
}

// CalendarStatusResponse describes one provider link.
type CalendarStatusResponse struct {
	Provider    domain.CalendarProvider `json:"provider"`
	Available   bool                    `json:"available"`
	Connected   bool                    `json:"connected"`
	ConnectedAt *time.Time              `json:"connectedAt"`
}

// CalendarStatus converts connection states.
func CalendarStatus(items []calendar.ConnectionStatus) []CalendarStatusResponse {
	out := make([]CalendarStatusResponse, 0, len(items))
	for _, s := range items {
		out = append(out, CalendarStatusResponse(s))
	}
	return out
}

// URLResponse carries a redirect or file URL.
type URLResponse struct {
	URL string `json:"url"`
}
