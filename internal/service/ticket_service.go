package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/events"
	"github.com/spec-kit/frontdesk/internal/repository"
	apperrors "github.com/spec-kit/frontdesk/pkg/util/errorutil"
)

// TicketService coordinates helpdesk ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	messages   repository.TicketMessageRepository
	staff      repository.StaffRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	MessageRepo repository.TicketMessageRepository
	StaffRepo   repository.StaffRepository
	Dispatcher  events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    domain.TicketCategory
	Priority    domain.TicketPriority
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	AssigneeID  *string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		messages:   deps.MessageRepo,
		staff:      deps.StaffRepo,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// Create raises a ticket on behalf of actor.
func (s *TicketService) Create(ctx context.Context, actor *domain.Staff, input TicketCreateInput) (*domain.Ticket, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	ticket := &domain.Ticket{
		OrganizationID: actor.OrganizationID,
		ExternalKey:    generateTicketKey(),
		CreatedByID:    actor.ID,
		Title:          strings.TrimSpace(input.Title),
		Description:    strings.TrimSpace(input.Description),
		Category:       input.Category,
		Status:         domain.TicketStatusOpen,
		Priority:       input.Priority,
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}
	if ticket.Category == "" {
		ticket.Category = domain.TicketCategoryOther
	}
	if !ticket.Priority.Valid() || !ticket.Category.Valid() {
		return nil, apperrors.NewValidationError("invalid priority or category", map[string]any{
			"priority": ticket.Priority,
			"category": ticket.Category,
		})
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:           events.EventTicketCreated,
		OrganizationID: ticket.OrganizationID,
		ActorStaffID:   staffActor(actor),
		Payload:        events.TicketCreatedPayload{Ticket: *ticket},
	})
	return ticket, nil
}

// List returns tickets visible to actor. Employees only see their own.
func (s *TicketService) List(ctx context.Context, actor *domain.Staff, filter TicketListFilter) ([]domain.Ticket, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	repoFilter := repository.TicketFilter{
		OrganizationID: actor.OrganizationID,
		AssigneeID:     filter.AssigneeID,
		Statuses:       filter.Statuses,
		Priorities:     filter.Priorities,
		SearchTerm:     filter.SearchTerm,
		CreatedFrom:    filter.CreatedFrom,
		CreatedTo:      filter.CreatedTo,
		Limit:          filter.Limit,
		Offset:         filter.Offset,
	}
	if !isHelpdesk(actor) {
		repoFilter.CreatedByID = &actor.ID
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	return tickets, apperrors.MapError(err)
}

// Get fetches a ticket ensuring actor may see it.
func (s *TicketService) Get(ctx context.Context, actor *domain.Staff, ticketID string) (*domain.Ticket, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return s.loadAccessible(ctx, actor, ticketID)
}

// Messages returns the thread of a ticket. Internal notes are only
// included for helpdesk staff. since lets pollers fetch only new messages.
func (s *TicketService) Messages(ctx context.Context, actor *domain.Staff, ticketID string, since *time.Time) ([]domain.TicketMessage, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	ticket, err := s.loadAccessible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByTicket(ctx, ticket.ID, isHelpdesk(actor), since)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if msgs == nil {
		msgs = []domain.TicketMessage{}
	}
	return msgs, nil
}

// AddMessage appends a message to a ticket.
func (s *TicketService) AddMessage(ctx context.Context, actor *domain.Staff, ticketID, body string, internal bool) (*domain.TicketMessage, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	ticket, err := s.loadAccessible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if internal && !isHelpdesk(actor) {
		return nil, apperrors.NewForbidden("only IT staff can add internal notes")
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, apperrors.NewConflict("ticket is closed", map[string]any{"ticketId": ticket.ID})
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("message body is required", nil)
	}

	msg := &domain.TicketMessage{
		TicketID: ticket.ID,
		AuthorID: actor.ID,
		Body:     body,
		Internal: internal,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperrors.MapError(err)
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:           events.EventTicketMessageAdded,
		OrganizationID: ticket.OrganizationID,
		ActorStaffID:   staffActor(actor),
		Payload:        events.TicketMessageAddedPayload{Ticket: *ticket, Message: *msg},
	})
	return msg, nil
}

// UpdateStatus moves a ticket through its lifecycle. Helpdesk staff may make
// any allowed transition; the creator may only close a resolved ticket.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.Staff, ticketID string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": newStatus})
	}
	ticket, err := s.loadAccessible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if !isHelpdesk(actor) {
		ownClose := ticket.CreatedByID == actor.ID &&
			ticket.Status == domain.TicketStatusResolved &&
			newStatus == domain.TicketStatusClosed
		if !ownClose {
			return nil, apperrors.NewForbidden("insufficient role")
		}
	}
	if !isValidTransition(ticket.Status, newStatus) {
		return nil, apperrors.NewConflict("invalid status transition", map[string]any{
			"from": ticket.Status,
			"to":   newStatus,
		})
	}

	oldStatus := ticket.Status
	now := s.now()
	switch newStatus {
	case domain.TicketStatusResolved:
		ticket.ResolvedAt = &now
		ticket.ClosedAt = nil
	case domain.TicketStatusClosed:
		ticket.ClosedAt = &now
		if ticket.ResolvedAt == nil {
			ticket.ResolvedAt = &now
		}
	default:
		ticket.ResolvedAt = nil
		ticket.ClosedAt = nil
	}
	ticket.Status = newStatus
	updated, err := s.tickets.Transition(ctx, ticket, oldStatus)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !updated {
		return nil, errTicketChanged(ticket.ID)
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:           events.EventTicketStatusChanged,
		OrganizationID: ticket.OrganizationID,
		ActorStaffID:   staffActor(actor),
		Payload: events.TicketStatusChangedPayload{
			Ticket:    *ticket,
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return ticket, nil
}

// Assign hands a ticket to a helpdesk member, or unassigns it when
// assigneeID is nil.
func (s *TicketService) Assign(ctx context.Context, actor *domain.Staff, ticketID string, assigneeID *string) (*domain.Ticket, error) {
	if err := requireRole(actor, domain.StaffRoleITStaff, domain.StaffRoleAdmin); err != nil {
		return nil, err
	}
	ticket, err := s.loadAccessible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if assigneeID != nil {
		assignee, err := s.staff.GetByID(ctx, *assigneeID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("staff", map[string]any{"staffId": *assigneeID})
			}
			return nil, apperrors.MapError(err)
		}
		if assignee.OrganizationID != ticket.OrganizationID {
			return nil, apperrors.NewNotFound("staff", map[string]any{"staffId": *assigneeID})
		}
		if !assignee.Active {
			return nil, apperrors.NewConflict("assignee inactive", map[string]any{"staffId": *assigneeID})
		}
		if !isHelpdesk(assignee) {
			return nil, apperrors.NewValidationError("assignee must be IT staff or admin", map[string]any{"staffId": *assigneeID})
		}
	}

	fromStatus := ticket.Status
	ticket.AssigneeID = assigneeID
	if assigneeID != nil && ticket.Status == domain.TicketStatusOpen {
		ticket.Status = domain.TicketStatusInProgress
	}
	updated, err := s.tickets.Assign(ctx, ticket, fromStatus)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !updated {
		return nil, errTicketChanged(ticket.ID)
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:           events.EventTicketAssigned,
		OrganizationID: ticket.OrganizationID,
		ActorStaffID:   staffActor(actor),
		Payload:        events.TicketAssignedPayload{Ticket: *ticket, AssigneeStaffID: assigneeID},
	})
	return ticket, nil
}

// UpdatePriority changes ticket priority.
func (s *TicketService) UpdatePriority(ctx context.Context, actor *domain.Staff, ticketID string, priority domain.TicketPriority) (*domain.Ticket, error) {
	if err := requireRole(actor, domain.StaffRoleITStaff, domain.StaffRoleAdmin); err != nil {
		return nil, err
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}
	ticket, err := s.loadAccessible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	ticket.Priority = priority
	if err := s.tickets.UpdatePriority(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) loadAccessible(ctx context.Context, actor *domain.Staff, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticketId": ticketID})
	}
	if err := sameOrganization(actor, ticket.OrganizationID, "ticket"); err != nil {
		return nil, err
	}
	if !isHelpdesk(actor) && ticket.CreatedByID != actor.ID {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticketId": ticketID})
	}
	return ticket, nil
}

func errTicketChanged(ticketID string) error {
	return apperrors.NewConflict("ticket changed concurrently", map[string]any{"ticketId": ticketID})
}

func isHelpdesk(staff *domain.Staff) bool {
	return staff.HasRole(domain.StaffRoleITStaff, domain.StaffRoleAdmin)
}

func generateTicketKey() string {
	return "IT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:       {domain.TicketStatusInProgress, domain.TicketStatusOnHold, domain.TicketStatusResolved, domain.TicketStatusClosed},
	domain.TicketStatusInProgress: {domain.TicketStatusOnHold, domain.TicketStatusResolved, domain.TicketStatusClosed},
	domain.TicketStatusOnHold:     {domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusClosed},
	domain.TicketStatusResolved:   {domain.TicketStatusClosed, domain.TicketStatusInProgress},
	domain.TicketStatusClosed:     {domain.TicketStatusOpen},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
