package service

import (
	"context"
	"time"

	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/repository"
	apperrors "github.com/spec-kit/frontdesk/pkg/util/errorutil"
)

// EmployeeDashboard is the landing view of the employee section.
type EmployeeDashboard struct {
	PendingVisitors []domain.Visitor
	TodayVisitors   []domain.Visitor
	OpenTickets     []domain.Ticket
}

// EmployeeService aggregates the employee's own visitors and tickets.
type EmployeeService struct {
	visitors repository.VisitorRepository
	tickets  repository.TicketRepository
	orgs     repository.OrganizationRepository
	now      func() time.Time
}

// NewEmployeeService constructs the service.
func NewEmployeeService(visitors repository.VisitorRepository, tickets repository.TicketRepository, orgs repository.OrganizationRepository) *EmployeeService {
	return &EmployeeService{visitors: visitors, tickets: tickets, orgs: orgs, now: time.Now}
}

// Dashboard returns visitors waiting on the caller, everyone who came to see
// them today and their unresolved tickets.
func (s *EmployeeService) Dashboard(ctx context.Context, actor *domain.Staff) (*EmployeeDashboard, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	hostID := actor.ID
	pending, err := s.visitors.List(ctx, repository.VisitorFilter{
		OrganizationID: actor.OrganizationID,
		HostStaffID:    &hostID,
		Statuses:       []domain.VisitorStatus{domain.VisitorStatusPending},
		Limit:          50,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	start := s.startOfDay(ctx, actor.OrganizationID)
	end := start.AddDate(0, 0, 1)
	today, err := s.visitors.List(ctx, repository.VisitorFilter{
		OrganizationID: actor.OrganizationID,
		HostStaffID:    &hostID,
		From:           &start,
		To:             &end,
		Limit:          100,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		OrganizationID: actor.OrganizationID,
		CreatedByID:    &hostID,
		Statuses: []domain.TicketStatus{
			domain.TicketStatusOpen,
			domain.TicketStatusInProgress,
			domain.TicketStatusOnHold,
		},
		Limit: 20,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	return &EmployeeDashboard{
		PendingVisitors: nonNil(pending),
		TodayVisitors:   nonNil(today),
		OpenTickets:     nonNil(tickets),
	}, nil
}

// startOfDay is midnight today in the organization's time zone.
func (s *EmployeeService) startOfDay(ctx context.Context, orgID string) time.Time {
	loc := time.UTC
	if org, err := s.orgs.GetByID(ctx, orgID); err == nil {
		if l, err := time.LoadLocation(org.Timezone); err == nil {
			loc = l
		}
	}
	now := s.now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
