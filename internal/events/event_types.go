package events

import (
	"time"

	"github.com/spec-kit/frontdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventVisitorCheckedIn    EventType = "visitor_checked_in"
	EventVisitorResponded    EventType = "visitor_responded"
	EventVisitorCheckedOut   EventType = "visitor_checked_out"
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketMessageAdded  EventType = "ticket_message_added"
	EventMeetingScheduled    EventType = "meeting_scheduled"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID             string      `json:"id"`
	Type           EventType   `json:"type"`
	OrganizationID string      `json:"organization_id"`
	ActorStaffID   *string     `json:"actor_staff_id,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
	Payload        interface{} `json:"payload"`
}

// VisitorCheckedInPayload carries the new visit and its host.
type VisitorCheckedInPayload struct {
	Visitor domain.Visitor `json:"visitor"`
	Host    domain.Staff   `json:"host"`
}

// VisitorRespondedPayload carries the host's decision.
type VisitorRespondedPayload struct {
	Visitor domain.Visitor       `json:"visitor"`
	Action  domain.VisitorAction `json:"action"`
}

// VisitorCheckedOutPayload payload.
type VisitorCheckedOutPayload struct {
	Visitor domain.Visitor `json:"visitor"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Ticket domain.Ticket `json:"ticket"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	Ticket    domain.Ticket       `json:"ticket"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	Ticket          domain.Ticket `json:"ticket"`
	AssigneeStaffID *string       `json:"assignee_staff_id,omitempty"`
}

// TicketMessageAddedPayload payload.
type TicketMessageAddedPayload struct {
	Ticket  domain.Ticket        `json:"ticket"`
	Message domain.TicketMessage `json:"message"`
}

// MeetingScheduledPayload payload.
type MeetingScheduledPayload struct {
	Meeting domain.Meeting `json:"meeting"`
}
