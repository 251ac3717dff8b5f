package dto

import (
	"time"

	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/service"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title" validate:"required,max=200"`
	Description string                `json:"description" validate:"max=10000"`
	Category    domain.TicketCategory `json:"category" validate:"omitempty,oneof=HARDWARE SOFTWARE NETWORK ACCESS OTHER"`
	Priority    domain.TicketPriority `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
}

// Input maps the request onto the service input.
func (r CreateTicketRequest) Input() service.TicketCreateInput {
	return service.TicketCreateInput{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Priority:    r.Priority,
	}
}

// TicketListRequest captures list filters.
type TicketListRequest struct {
	Status      []domain.TicketStatus   `json:"status" validate:"omitempty,dive,oneof=OPEN IN_PROGRESS ON_HOLD RESOLVED CLOSED"`
	Priority    []domain.TicketPriority `json:"priority" validate:"omitempty,dive,oneof=LOW MEDIUM HIGH URGENT"`
	AssigneeID  *string                 `json:"assigneeId"`
	Search      *string                 `json:"search"`
	CreatedFrom *time.Time              `json:"createdFrom"`
	CreatedTo   *time.Time              `json:"createdTo"`
	Limit       int                     `json:"limit" validate:"omitempty,min=1,max=200"`
	Offset      int                     `json:"offset" validate:"omitempty,min=0"`
}

// Filter maps the request onto the service filter.
func (r TicketListRequest) Filter() service.TicketListFilter {
	return service.TicketListFilter{
		Statuses:    r.Status,
		Priorities:  r.Priority,
		AssigneeID:  r.AssigneeID,
		SearchTerm:  r.Search,
		CreatedFrom: r.CreatedFrom,
		CreatedTo:   r.CreatedTo,
		Limit:       r.Limit,
		Offset:      r.Offset,
	}
}

// TicketIDRequest addresses one ticket.
type TicketIDRequest struct {
	TicketID string `json:"ticketId" validate:"required"`
}

// TicketMessagesRequest polls a thread. Since limits the result to newer messages.
type TicketMessagesRequest struct {
	TicketID string     `json:"ticketId" validate:"required"`
	Since    *time.Time `json:"since"`
}

// CreateMessageRequest payload.
type CreateMessageRequest struct {
	TicketID string `json:"ticketId" validate:"required"`
	Body     string `json:"body" validate:"required,max=10000"`
	Internal bool   `json:"internal"`
}

// UpdateTicketStatusRequest payload.
type UpdateTicketStatusRequest struct {
	TicketID string              `json:"ticketId" validate:"required"`
	Status   domain.TicketStatus `json:"status" validate:"required,oneof=OPEN IN_PROGRESS ON_HOLD RESOLVED CLOSED"`
}

// AssignTicketRequest payload. A null assignee unassigns.
type AssignTicketRequest struct {
	TicketID   string  `json:"ticketId" validate:"required"`
	AssigneeID *string `json:"assigneeId"`
}

// UpdateTicketPriorityRequest payload.
type UpdateTicketPriorityRequest struct {
	TicketID string                `json:"ticketId" validate:"required"`
	Priority domain.TicketPriority `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH URGENT"`
}

// TicketResponse is the wire form of a ticket.
type TicketResponse struct {
	ID          string                `json:"id"`
	ExternalKey string                `json:"externalKey"`
	CreatedByID string                `json:"createdById"`
	AssigneeID  *string               `json:"assigneeId"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    domain.TicketCategory `json:"category"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
	ResolvedAt  *time.Time            `json:"resolvedAt"`
	ClosedAt    *time.Time            `json:"closedAt"`
}

// Ticket converts a domain ticket.
func Ticket(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          t.ID,
		ExternalKey: t.ExternalKey,
		CreatedByID: t.CreatedByID,
		AssigneeID:  t.AssigneeID,
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		Status:      t.Status,
		Priority:    t.Priority,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		ResolvedAt:  t.ResolvedAt,
		ClosedAt:    t.ClosedAt,
	}
}

// Tickets converts a slice.
func Tickets(items []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(items))
	for i := range items {
		out = append(out, Ticket(&items[i]))
	}
	return out
}

// TicketMessageResponse represents a thread message.
type TicketMessageResponse struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticketId"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Body       string    `json:"body"`
	Internal   bool      `json:"internal"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TicketMessage converts a domain message.
func TicketMessage(m *domain.TicketMessage) TicketMessageResponse {
	return TicketMessageResponse{
		ID:         m.ID,
		TicketID:   m.TicketID,
		AuthorID:   m.AuthorID,
		AuthorName: m.AuthorName,
		Body:       m.Body,
		Internal:   m.Internal,
		CreatedAt:  m.CreatedAt,
	}
}

// TicketMessages converts a thread.
func TicketMessages(items []domain.TicketMessage) []TicketMessageResponse {
	out := make([]TicketMessageResponse, 0, len(items))
	for i := range items {
		out = append(out, TicketMessage(&items[i]))
	}
	return out
}
