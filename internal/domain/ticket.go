package domain

import "time"

// TicketStatus enumerates lifecycle states for helpdesk tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusOnHold     TicketStatus = "ON_HOLD"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// TicketCategory groups IT requests.
type TicketCategory string

const (
	TicketCategoryHardware TicketCategory = "HARDWARE"
	TicketCategorySoftware TicketCategory = "SOFTWARE"
	TicketCategoryNetwork  TicketCategory = "NETWORK"
	TicketCategoryAccess   TicketCategory = "ACCESS"
	TicketCategoryOther    TicketCategory = "OTHER"
)

// Ticket is an IT helpdesk request raised by a staff member.
type Ticket struct {
	ID             string
	OrganizationID string
	ExternalKey    string
	CreatedByID    string
	AssigneeID     *string
	Title          string
	Description    string
	Category       TicketCategory
	Status         TicketStatus
	Priority       TicketPriority
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ResolvedAt     *time.Time
	ClosedAt       *time.Time
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusOnHold, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// Valid reports whether c is a known category.
func (c TicketCategory) Valid() bool {
	switch c {
	case TicketCategoryHardware, TicketCategorySoftware, TicketCategoryNetwork, TicketCategoryAccess, TicketCategoryOther:
		return true
	}
	return false
}
