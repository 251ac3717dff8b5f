package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/frontdesk/internal/actiontoken"
	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/events"
	"github.com/spec-kit/frontdesk/internal/repository"
	apperrors "github.com/spec-kit/frontdesk/pkg/util/errorutil"
)

// ActionTokenVerifier validates visitor response tokens.
type ActionTokenVerifier interface {
	Verify(token string) (*actiontoken.Claims, error)
	VerifyFor(token string, action domain.VisitorAction) (*actiontoken.Claims, error)
}

// VisitorService runs the front desk workflow.
type VisitorService struct {
	visitors   repository.VisitorRepository
	staff      repository.StaffRepository
	orgs       repository.OrganizationRepository
	tokens     ActionTokenVerifier
	dispatcher events.Dispatcher
	now        func() time.Time
}

// VisitorDependencies bundles collaborators.
type VisitorDependencies struct {
	VisitorRepo repository.VisitorRepository
	StaffRepo   repository.StaffRepository
	OrgRepo     repository.OrganizationRepository
	Tokens      ActionTokenVerifier
	Dispatcher  events.Dispatcher
}

// NewVisitorService constructs the service.
func NewVisitorService(deps VisitorDependencies) *VisitorService {
	return &VisitorService{
		visitors:   deps.VisitorRepo,
		staff:      deps.StaffRepo,
		orgs:       deps.OrgRepo,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// CheckInInput is submitted by the self-service kiosk.
type CheckInInput struct {
	OrgSlug     string
	Name        string
	Email       *string
	Phone       *string
	Company     *string
	Purpose     string
	HostStaffID string
	PhotoURL    *string
}

// RespondResult reports a host's decision.
type RespondResult struct {
	Visitor          *domain.Visitor
	AlreadyResponded bool
}

// TokenInfo describes the visit a response token refers to.
type TokenInfo struct {
	Visitor          *domain.Visitor
	HostName         string
	Action           domain.VisitorAction
	ExpiresAt        time.Time
	AlreadyResponded bool
}

// VisitorListFilter narrows the front desk log.
type VisitorListFilter struct {
	Statuses []domain.VisitorStatus
	Search   *string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// CheckIn registers a visitor as waiting for their host.
func (s *VisitorService) CheckIn(ctx context.Context, input CheckInInput) (*domain.Visitor, error) {
	org, err := s.orgs.GetBySlug(ctx, strings.TrimSpace(input.OrgSlug))
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "organization", nil)
	}
	host, err := s.staff.GetByID(ctx, input.HostStaffID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("unknown host", map[string]any{"hostStaffId": input.HostStaffID})
		}
		return nil, apperrors.MapError(err)
	}
	if host.OrganizationID != org.ID || !host.Active {
		return nil, apperrors.NewValidationError("unknown host", map[string]any{"hostStaffId": input.HostStaffID})
	}

	visitor := &domain.Visitor{
		OrganizationID: org.ID,
		HostStaffID:    host.ID,
		Name:           strings.TrimSpace(input.Name),
		Email:          trimmedOrNil(input.Email),
		Phone:          trimmedOrNil(input.Phone),
		Company:        trimmedOrNil(input.Company),
		Purpose:        strings.TrimSpace(input.Purpose),
		PhotoURL:       trimmedOrNil(input.PhotoURL),
		Status:         domain.VisitorStatusPending,
	}
	if err := s.visitors.Create(ctx, visitor); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.visitors.AppendLog(ctx, &domain.CheckInLog{
		OrganizationID: org.ID,
		VisitorID:      visitor.ID,
		Action:         domain.CheckInActionCheckIn,
	}); err != nil {
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:           events.EventVisitorCheckedIn,
		OrganizationID: org.ID,
		Payload:        events.VisitorCheckedInPayload{Visitor: *visitor, Host: *host},
	})
	return visitor, nil
}

// CheckOut records a visitor's departure. Checking out twice is a no-op.
func (s *VisitorService) CheckOut(ctx context.Context, visitorID string, actor *domain.Staff) (*domain.Visitor, error) {
	visitor, err := s.visitors.GetByID(ctx, visitorID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "visitor", nil)
	}
	if actor != nil {
		if err := sameOrganization(actor, visitor.OrganizationID, "visitor"); err != nil {
			return nil, err
		}
	}

	from := checkOutFrom(actor)
	if visitor.Status != domain.VisitorStatusCheckedOut && !slices.Contains(from, visitor.Status) {
		return nil, errAwaitingHost(visitor.ID)
	}

	changed, err := s.visitors.CheckOut(ctx, visitor.ID, s.now(), from)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if changed {
		if err := s.visitors.AppendLog(ctx, &domain.CheckInLog{
			OrganizationID: visitor.OrganizationID,
			VisitorID:      visitor.ID,
			Action:         domain.CheckInActionCheckOut,
			PerformedBy:    staffActor(actor),
		}); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	visitor, err = s.visitors.GetByID(ctx, visitor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !changed && visitor.Status != domain.VisitorStatusCheckedOut {
		return nil, errAwaitingHost(visitor.ID)
	}
	if changed {
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:           events.EventVisitorCheckedOut,
			OrganizationID: visitor.OrganizationID,
			ActorStaffID:   staffActor(actor),
			Payload:        events.VisitorCheckedOutPayload{Visitor: *visitor},
		})
	}
	return visitor, nil
}

// checkOutFrom lists the statuses a visitor may leave from. The kiosk cannot
// check out a visitor whose host has not answered yet.
func checkOutFrom(actor *domain.Staff) []domain.VisitorStatus {
	if actor == nil {
		return []domain.VisitorStatus{domain.VisitorStatusApproved, domain.VisitorStatusDeclined}
	}
	return []domain.VisitorStatus{domain.VisitorStatusPending, domain.VisitorStatusApproved, domain.VisitorStatusDeclined}
}

func errAwaitingHost(visitorID string) error {
	return apperrors.NewConflict("visitor is awaiting a host response", map[string]any{"visitorId": visitorID})
}

// VerifyToken resolves a response token without acting on it.
func (s *VisitorService) VerifyToken(ctx context.Context, token string) (*TokenInfo, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid or expired link")
	}
	visitor, err := s.visitors.GetByID(ctx, claims.VisitorID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "visitor", nil)
	}
	if visitor.HostStaffID != claims.StaffID {
		return nil, apperrors.NewUnauthorized("invalid or expired link")
	}

	info := &TokenInfo{
		Visitor:          visitor,
		Action:           claims.Action,
		AlreadyResponded: visitor.Status != domain.VisitorStatusPending,
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	if host, err := s.staff.GetByID(ctx, claims.StaffID); err == nil {
		info.HostName = host.Name
	}
	return info, nil
}

// Respond applies the host's decision carried by an emailed token.
func (s *VisitorService) Respond(ctx context.Context, token string, action domain.VisitorAction) (*RespondResult, error) {
	if !action.Valid() {
		return nil, apperrors.NewValidationError("action must be accept or decline", map[string]any{"action": action})
	}
	claims, err := s.tokens.VerifyFor(token, action)
	if err != nil {
		if errors.Is(err, actiontoken.ErrActionMismatch) {
			return nil, apperrors.NewForbidden("this link does not allow that action")
		}
		return nil, apperrors.NewUnauthorized("invalid or expired link")
	}
	visitor, err := s.visitors.GetByID(ctx, claims.VisitorID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "visitor", nil)
	}
	if visitor.HostStaffID != claims.StaffID {
		return nil, apperrors.NewUnauthorized("invalid or expired link")
	}
	staffID := claims.StaffID
	return s.respond(ctx, visitor, action, &staffID)
}

// RespondAsHost applies a decision from the signed-in host or front desk.
func (s *VisitorService) RespondAsHost(ctx context.Context, actor *domain.Staff, visitorID string, action domain.VisitorAction) (*RespondResult, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if !action.Valid() {
		return nil, apperrors.NewValidationError("action must be accept or decline", map[string]any{"action": action})
	}
	visitor, err := s.visitors.GetByID(ctx, visitorID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "visitor", nil)
	}
	if err := sameOrganization(actor, visitor.OrganizationID, "visitor"); err != nil {
		return nil, err
	}
	if visitor.HostStaffID != actor.ID && !actor.HasRole(domain.StaffRoleAdmin, domain.StaffRoleReceptionist) {
		return nil, apperrors.NewForbidden("only the host can respond to this visitor")
	}
	return s.respond(ctx, visitor, action, &actor.ID)
}

// respond writes the decision only while the visitor is still pending, so a
// repeated response reports AlreadyResponded and leaves the first decision.
func (s *VisitorService) respond(ctx context.Context, visitor *domain.Visitor, action domain.VisitorAction, performedBy *string) (*RespondResult, error) {
	changed, err := s.visitors.Respond(ctx, visitor.ID, action.Status(), s.now())
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if changed {
		logAction := domain.CheckInActionApproved
		if action == domain.VisitorActionDecline {
			logAction = domain.CheckInActionDeclined
		}
		if err := s.visitors.AppendLog(ctx, &domain.CheckInLog{
			OrganizationID: visitor.OrganizationID,
			VisitorID:      visitor.ID,
			Action:         logAction,
			PerformedBy:    performedBy,
		}); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	current, err := s.visitors.GetByID(ctx, visitor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if changed {
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:           events.EventVisitorResponded,
			OrganizationID: current.OrganizationID,
			ActorStaffID:   performedBy,
			Payload:        events.VisitorRespondedPayload{Visitor: *current, Action: action},
		})
	}
	return &RespondResult{Visitor: current, AlreadyResponded: !changed}, nil
}

// List returns the organization's visitors for the front desk.
func (s *VisitorService) List(ctx context.Context, actor *domain.Staff, filter VisitorListFilter) ([]domain.Visitor, error) {
	if err := requireRole(actor, domain.StaffRoleAdmin, domain.StaffRoleReceptionist); err != nil {
		return nil, err
	}
	visitors, err := s.visitors.List(ctx, repository.VisitorFilter{
		OrganizationID: actor.OrganizationID,
		Statuses:       filter.Statuses,
		Search:         filter.Search,
		From:           filter.From,
		To:             filter.To,
		Limit:          filter.Limit,
		Offset:         filter.Offset,
	})
	return visitors, apperrors.MapError(err)
}

// Get returns a visitor visible to actor: front desk roles see all visits, hosts their own.
func (s *VisitorService) Get(ctx context.Context, actor *domain.Staff, visitorID string) (*domain.Visitor, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	visitor, err := s.visitors.GetByID(ctx, visitorID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "visitor", nil)
	}
	if err := sameOrganization(actor, visitor.OrganizationID, "visitor"); err != nil {
		return nil, err
	}
	if visitor.HostStaffID != actor.ID && !actor.HasRole(domain.StaffRoleAdmin, domain.StaffRoleReceptionist) {
		return nil, apperrors.NewNotFound("visitor", nil)
	}
	return visitor, nil
}

// PendingCount is the badge count of visitors waiting on actor.
func (s *VisitorService) PendingCount(ctx context.Context, actor *domain.Staff) (int, error) {
	if err := requireStaff(actor); err != nil {
		return 0, err
	}
	count, err := s.visitors.CountPendingForHost(ctx, actor.ID)
	return count, apperrors.MapError(err)
}

// ListForHost returns visits hosted by actor.
func (s *VisitorService) ListForHost(ctx context.Context, actor *domain.Staff, statuses []domain.VisitorStatus, from *time.Time, limit int) ([]domain.Visitor, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	hostID := actor.ID
	visitors, err := s.visitors.List(ctx, repository.VisitorFilter{
		OrganizationID: actor.OrganizationID,
		HostStaffID:    &hostID,
		Statuses:       statuses,
		From:           from,
		Limit:          limit,
	})
	return visitors, apperrors.MapError(err)
}

// Logs returns the check-in log of a visitor.
func (s *VisitorService) Logs(ctx context.Context, actor *domain.Staff, visitorID string) ([]domain.CheckInLog, error) {
	if _, err := s.Get(ctx, actor, visitorID); err != nil {
		return nil, err
	}
	logs, err := s.visitors.ListLogs(ctx, visitorID)
	return logs, apperrors.MapError(err)
}
